package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path names the config key
// (e.g. "batch_size", "metrics.pushgateway_url").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// KnownDrivers lists the storage kinds the CLI wires in.
var KnownDrivers = []string{"mysql", "postgres", "mssql", "sqlite"}

// ValidateConfig performs static checks over c and returns every finding.
// It does not mutate c.
func ValidateConfig(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	known := false
	for _, d := range KnownDrivers {
		if c.Driver == d {
			known = true
		}
	}
	switch {
	case strings.TrimSpace(c.Driver) == "":
		add(SeverityError, "driver", "driver must not be empty")
	case !known:
		add(SeverityError, "driver", "unknown driver %q; want one of %s", c.Driver, strings.Join(KnownDrivers, ", "))
	}

	if c.DSN == "" && known {
		if c.Driver != "sqlite" && strings.TrimSpace(c.Host) == "" {
			add(SeverityError, "host", "host is required when dsn is empty")
		}
		if strings.TrimSpace(c.Database) == "" {
			add(SeverityError, "database", "database is required when dsn is empty")
		}
		if c.Driver != "sqlite" && c.User == "" {
			add(SeverityWarning, "user", "user is empty; the server may reject the connection")
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		add(SeverityError, "port", "port %d out of range", c.Port)
	}

	if c.BatchSize <= 0 {
		add(SeverityError, "batch_size", "batch_size must be > 0, got %d", c.BatchSize)
	}
	if c.ReadAhead < 0 {
		add(SeverityError, "read_ahead", "read_ahead must be >= 0, got %d", c.ReadAhead)
	}
	if c.Atomic && c.BatchSize != DefaultBatchSize {
		add(SeverityWarning, "batch_size", "batch_size is ignored when atomic is set")
	}

	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			add(SeverityError, "log_level", "unknown log level %q", c.LogLevel)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		add(SeverityError, "log_format", "unknown log format %q; want console or json", c.LogFormat)
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityWarning, "job", "job is empty; metrics will be unlabeled")
	}
	switch strings.ToLower(c.Metrics.Backend) {
	case "", "none":
	case "prometheus":
		if c.Metrics.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "prometheus backend requires pushgateway_url")
		}
	case "datadog":
		if c.Metrics.DatadogAddr == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr")
		}
	default:
		add(SeverityWarning, "metrics.backend", "unknown metrics backend %q; metrics disabled", c.Metrics.Backend)
	}

	return issues
}

// HasErrors reports whether issues contains any SeverityError entry.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
