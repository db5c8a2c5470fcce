package run

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"docketsocket/models"
	"docketsocket/pkg/db"
	"docketsocket/pkg/notify"
	"docketsocket/pkg/regulations"
	"docketsocket/pkg/scan"
)

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// RunAction downloads one docket end to end: validate the request, confirm
// the docket exists, register the run, execute the pipeline, and record how
// it ended.
func RunAction(c *cli.Context) error {
	logger := newLogger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	docketID := c.Args().First()
	if docketID == "" {
		return fmt.Errorf("docket ID argument is required")
	}
	cats, err := models.ParseCategories(c.String("categories"))
	if err != nil {
		return err
	}
	requester := c.String("requester")
	if requester == "" {
		return fmt.Errorf("--requester is required")
	}
	if cfg.AllowedDomain != "" && !strings.HasSuffix(strings.ToLower(requester), "@"+strings.ToLower(cfg.AllowedDomain)) {
		return fmt.Errorf("requester %s is not in the allowed domain %s", requester, cfg.AllowedDomain)
	}

	if err := os.MkdirAll(cfg.WorkDir, 0750); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	database, err := db.Open(filepath.Join(cfg.WorkDir, db.DefaultDBName))
	if err != nil {
		return fmt.Errorf("failed to open run registry: %w", err)
	}
	defer database.Close()

	client := regulations.NewClient(cfg.Registry, logger)

	// Existence pre-check; the fetched page seeds pagination so it is not
	// requested twice.
	firstPage, err := client.ListDocuments(docketID, 0)
	if err != nil {
		return fmt.Errorf("failed to look up docket %s: %w", docketID, err)
	}
	if firstPage.TotalNumRecords == 0 {
		return fmt.Errorf("docket %s has no records", docketID)
	}

	runID, err := database.InsertRun(docketID, cats.String(), requester)
	if err != nil {
		return err
	}

	runner := &Runner{
		Config:   cfg,
		Client:   client,
		Notifier: notify.NewMailer(cfg.Mail),
		Scanner:  scan.NewScanner(cfg.Scan, logger),
		Logger:   logger,
	}
	outcome := runner.Execute(models.DocketQuery{
		DocketID:   docketID,
		Categories: cats,
		Requester:  requester,
	}, firstPage)

	if outcome.Status == StatusCompleted {
		if err := database.CompleteRun(runID, outcome.TotalRecords, outcome.ManifestRows, outcome.Quarantined, outcome.ArchivePath); err != nil {
			logger.Warn("failed to record completed run", "run_id", runID, "error", err)
		}
		fmt.Printf("Run %d completed: %d records, %d manifest rows, archive %s\n",
			runID, outcome.TotalRecords, outcome.ManifestRows, outcome.ArchivePath)
		return nil
	}

	if err := database.AbortRun(runID, outcome.Reason); err != nil {
		logger.Warn("failed to record aborted run", "run_id", runID, "error", err)
	}
	return fmt.Errorf("run %d aborted: %s", runID, outcome.Reason)
}

// CheckAction reports how many records a docket holds without downloading
// anything.
func CheckAction(c *cli.Context) error {
	logger := newLogger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	docketID := c.Args().First()
	if docketID == "" {
		return fmt.Errorf("docket ID argument is required")
	}

	client := regulations.NewClient(cfg.Registry, logger)
	count, err := client.CountRecords(docketID)
	if err != nil {
		return fmt.Errorf("failed to count records for %s: %w", docketID, err)
	}

	fmt.Printf("%s: %d records\n", docketID, count)
	return nil
}
