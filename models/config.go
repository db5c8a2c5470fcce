// Package models defines data structures for configuration and docket runs.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingAPIKey   = errors.New("registry.api_key is required")
	ErrMissingWorkDir  = errors.New("work_dir is required")
	ErrInvalidPageSize = errors.New("registry.page_size must be at least 1")
	ErrMissingOperator = errors.New("operator_email is required")
	ErrMissingDelivery = errors.New("delivery.dir is required")
	ErrMissingMailHost = errors.New("mail.host is required")
)

// Config represents the complete docketsocket configuration.
type Config struct {
	Registry      RegistryConfig `yaml:"registry"`
	WorkDir       string         `yaml:"work_dir"`
	Delivery      DeliveryConfig `yaml:"delivery"`
	Scan          ScanConfig     `yaml:"scan"`
	Mail          MailConfig     `yaml:"mail"`
	OperatorEmail string         `yaml:"operator_email"`
	AllowedDomain string         `yaml:"allowed_email_domain"`
}

// RegistryConfig contains settings for the external document registry API.
type RegistryConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	PageSize       int    `yaml:"page_size"`
	BackoffSeconds int    `yaml:"backoff_seconds"`
}

// Backoff returns the wait applied when the registry quota is exhausted.
func (r RegistryConfig) Backoff() time.Duration {
	return time.Duration(r.BackoffSeconds) * time.Second
}

// DeliveryConfig describes where finished archives are staged for pickup.
type DeliveryConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
}

// ScanConfig describes the external malware scanner.
type ScanConfig struct {
	Command string `yaml:"command"`
}

// MailConfig contains SMTP settings for outbound notifications.
type MailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	From string `yaml:"from"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			BaseURL:        "https://api.data.gov/regulations/v3",
			PageSize:       1000,
			BackoffSeconds: 600,
		},
		WorkDir: "docket-results",
		Scan: ScanConfig{
			Command: "clamscan",
		},
		Mail: MailConfig{
			Port: 25,
		},
	}
}

// Validate checks required fields after defaults are applied.
func (c *Config) Validate() error {
	if c.Registry.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Registry.PageSize < 1 {
		return ErrInvalidPageSize
	}
	if c.WorkDir == "" {
		return ErrMissingWorkDir
	}
	if c.Delivery.Dir == "" {
		return ErrMissingDelivery
	}
	if c.OperatorEmail == "" {
		return ErrMissingOperator
	}
	if c.Mail.Host == "" {
		return ErrMissingMailHost
	}
	return nil
}
