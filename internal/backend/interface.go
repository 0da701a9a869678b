// Package backend builds the storage, broker and export collaborators
// selected by configuration.
package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the document store and its cleanup function
type Result struct {
	KV      storage.KV
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateStore opens the document store for the configured backend.
	CreateStore(ctx context.Context, config Config) (*Result, error)
	// CreateBroker dials the AMQP broker. It returns nil without error
	// when no broker is configured.
	CreateBroker(ctx context.Context, config Config) (*amqp.Client, error)
	// CreateExportWriter returns the Google Sheets writer when a spreadsheet
	// is configured and an in-memory writer otherwise.
	CreateExportWriter(ctx context.Context, config Config) (sheets.ExpenseWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueues   amqp.Queues
	// Source tags forwarded analytics events with the publishing process.
	Source string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
