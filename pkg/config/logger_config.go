package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Logger contains node logger configuration.
type Logger struct {
	LogEncoding string `yaml:"LogEncoding"`
	LogLevel    string `yaml:"LogLevel"`
	LogPath     string `yaml:"LogPath"`
}

// Validate returns an error if Logger configuration is not valid.
func (l Logger) Validate() error {
	if len(l.LogEncoding) > 0 && l.LogEncoding != "console" && l.LogEncoding != "json" {
		return fmt.Errorf("invalid LogEncoding: %s", l.LogEncoding)
	}
	if len(l.LogLevel) > 0 {
		_, err := zapcore.ParseLevel(l.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	return nil
}

// Metrics configures pushing of run metrics to a Prometheus push gateway.
type Metrics struct {
	// PushGateway is the gateway URL, metrics are not pushed if empty.
	PushGateway string `yaml:"PushGateway"`
	Job         string `yaml:"Job"`
}

// ReportFormat is the encoding of the run report file.
type ReportFormat string

// Supported report formats.
const (
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
)

// Report configures the run report file.
type Report struct {
	// Path is the report file, no report is written if empty.
	Path   string       `yaml:"Path"`
	Format ReportFormat `yaml:"Format"`
}

// Validate checks report format.
func (r Report) Validate() error {
	switch r.Format {
	case ReportJSON, ReportYAML:
		return nil
	default:
		return fmt.Errorf("invalid Format: %s", r.Format)
	}
}
