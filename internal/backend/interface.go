package backend

import (
	"context"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/services"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
	"finanzas/internal/whatsapp"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// App is everything a binary needs, built from one Config.
type App struct {
	Repo      *storage.SQLiteRepository
	AMQP      *amqp.Client // nil when AMQP is disabled or unreachable
	Movements *services.MovementService
	Catalog   *services.CatalogService
	Reports   *services.ReportService
	Console   *whatsapp.Console
	Cleanup   CleanupFunc
}

// Factory builds the application and its export target.
type Factory interface {
	CreateApp(ctx context.Context, config Config) (*App, error)
	CreateExporter(ctx context.Context, config Config) (sheets.MovementExporter, error)
}

// Config holds configuration for backend creation
type Config struct {
	SQLiteDBPath string
	SeedFile     string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Exporter                 ExporterType
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	WhatsAppWebhookURL string
	WhatsAppPhone      string
	WhatsAppTimeout    time.Duration
}

// ExporterType selects where the worker copies movements.
type ExporterType string

const (
	MemoryExporter ExporterType = "memory"
	SheetsExporter ExporterType = "sheets"
)

func (t ExporterType) String() string {
	return string(t)
}

func (t ExporterType) IsValid() bool {
	switch t {
	case MemoryExporter, SheetsExporter:
		return true
	default:
		return false
	}
}
