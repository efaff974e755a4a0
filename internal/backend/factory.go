package backend

import (
	"context"
	"errors"
	"fmt"

	"finanzas/internal/amqp"
	"finanzas/internal/config"
	"finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/sheets"
	gsheet "finanzas/internal/sheets/google"
	"finanzas/internal/sheets/memory"
	"finanzas/internal/storage"
	"finanzas/internal/whatsapp"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger}
}

// CreateApp opens the database, applies the seed, connects to AMQP when
// configured and builds the services on top.
func (f *DefaultFactory) CreateApp(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := f.logger.WithComponent(log.ComponentBackend)

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if cfg.SeedFile != "" {
		seed, err := config.LoadSeed(cfg.SeedFile)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("load seed: %w", err)
		}
		n, err := repo.ApplySeed(ctx, seed)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("apply seed: %w", err)
		}
		if n > 0 {
			logger.Info("Seed applied", "rows", n, "file", cfg.SeedFile)
		}
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	console := whatsapp.NewConsole(
		whatsapp.NewClient(cfg.WhatsAppWebhookURL, cfg.WhatsAppTimeout),
		repo,
		whatsapp.DisplayConfig{WebhookURL: cfg.WhatsAppWebhookURL, Phone: cfg.WhatsAppPhone},
		f.logger)

	app := &App{
		Repo:      repo,
		AMQP:      amqpClient,
		Movements: services.NewMovementService(repo, publisher, f.logger),
		Catalog:   services.NewCatalogService(repo, f.logger),
		Reports:   services.NewReportService(repo, f.logger),
		Console:   console,
	}
	app.Cleanup = func() error {
		var errs []error
		if amqpClient != nil {
			errs = append(errs, amqpClient.Close())
		}
		errs = append(errs, repo.Close())
		return errors.Join(errs...)
	}

	logger.Info("Initialized backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)
	return app, nil
}

// CreateExporter builds the export target the worker writes to.
func (f *DefaultFactory) CreateExporter(ctx context.Context, cfg Config) (sheets.MovementExporter, error) {
	switch cfg.Exporter {
	case SheetsExporter:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.WithComponent(log.ComponentBackend).Info("Initialized Google Sheets exporter",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)
		return cli, nil
	case MemoryExporter:
		f.logger.WithComponent(log.ComponentBackend).Info("Initialized in-memory exporter")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported export backend: %s", cfg.Exporter)
	}
}
