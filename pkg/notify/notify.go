// Package notify sends the run's outbound email: the quarantine alert and
// the completion notice with the delivery reference.
package notify

import (
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"docketsocket/models"
)

// Notifier delivers one plain-text message to a set of recipients.
type Notifier interface {
	Notify(subject, body string, recipients []string) error
}

// Mailer sends notifications over SMTP.
type Mailer struct {
	host string
	port int
	from string
}

// NewMailer creates a Mailer from SMTP settings.
func NewMailer(cfg models.MailConfig) *Mailer {
	return &Mailer{host: cfg.Host, port: cfg.Port, from: cfg.From}
}

// Notify sends one message to every recipient.
func (m *Mailer) Notify(subject, body string, recipients []string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.host, mail.WithPort(m.port), mail.WithTLSPolicy(mail.TLSOpportunistic))
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// QuarantineAlert builds the subject and body announcing quarantined files.
// The alert goes to the requester and the operator; the quarantined content
// is excluded from the delivered archive.
func QuarantineAlert(quarantineDir string, files []string) (subject, body string) {
	subject = "File(s) in your docket download flagged as potential viruses"
	body = fmt.Sprintf(
		"The virus scan flagged files in your docket download and moved them to %s\n"+
			"The operator has been notified and will investigate. "+
			"The following files were quarantined and not included in your ZIP file:\n%s",
		quarantineDir, strings.Join(files, "\n"))
	return subject, body
}

// CompletionNotice builds the subject and body pointing the requester at the
// staged archive.
func CompletionNotice(deliveryRef string) (subject, body string) {
	subject = "Your docket download is complete"
	body = fmt.Sprintf("Your docket download is complete and is available from %s", deliveryRef)
	return subject, body
}
