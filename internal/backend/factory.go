package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "receipts/internal/sheets/google"
	"receipts/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	opts, err := gsheet.ClientOptions(ctx, config.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Writer: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.New()

	f.logger.Info("Initialized memory mirror (dry run)")

	return &BackendResult{Writer: store}, nil
}
