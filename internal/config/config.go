package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/log"
)

type Config struct {
	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL               string
	AMQPExchange          string
	AMQPNotificationQueue string
	AMQPAnalyticsQueue    string
	AMQPExportQueue       string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Recurring processor
	RecurringInterval time.Duration

	// Notifications
	NotifyQueueSize int
	NotifyWorkers   int
	NotifyCooldown  time.Duration

	AnalyticsEnabled bool

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:               getEnv("AMQP_URL", ""),
		AMQPExchange:          getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPNotificationQueue: getEnv("AMQP_NOTIFICATION_QUEUE", "notifications"),
		AMQPAnalyticsQueue:    getEnv("AMQP_ANALYTICS_QUEUE", "analytics"),
		AMQPExportQueue:       getEnv("AMQP_EXPORT_QUEUE", "expense_sync"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Expenses"),

		RecurringInterval: getEnvDuration("RECURRING_PROCESSOR_INTERVAL", time.Hour),

		NotifyQueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 64),
		NotifyWorkers:   getEnvInt("NOTIFY_WORKERS", 2),
		NotifyCooldown:  getEnvDuration("NOTIFY_COOLDOWN", time.Second),

		AnalyticsEnabled: getEnvBool("ANALYTICS_ENABLED", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPNotificationQueue == "" && c.AMQPAnalyticsQueue == "" && c.AMQPExportQueue == "" {
			errors = append(errors, "at least one AMQP queue must be named when AMQP URL is provided")
		}
	}

	if c.RecurringInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at least 1 second", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}

	if c.NotifyQueueSize < 1 || c.NotifyQueueSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid notify queue size %d: must be between 1 and 10000", c.NotifyQueueSize))
	}
	if c.NotifyWorkers < 1 || c.NotifyWorkers > 64 {
		errors = append(errors, fmt.Sprintf("invalid notify workers %d: must be between 1 and 64", c.NotifyWorkers))
	}
	if c.NotifyCooldown < 0 {
		errors = append(errors, fmt.Sprintf("invalid notify cooldown %v: must not be negative", c.NotifyCooldown))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether expenses are exported to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// LoggerConfig maps the logging settings onto a log.Config. Invalid values
// fall back to the defaults; Validate reports them.
func (c *Config) LoggerConfig() log.Config {
	cfg := log.DefaultConfig()
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = level
	}
	if format, err := log.ParseFormat(c.LogFormat); err == nil {
		cfg.Format = format
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
