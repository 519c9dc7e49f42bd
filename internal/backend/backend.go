// Package backend builds the storage, event and mirror components
// selected by configuration.
package backend

import (
	"context"
	"fmt"

	"expenses/internal/config"
	"expenses/internal/events"
	"expenses/internal/events/amqp"
	"expenses/internal/events/kafka"
	"expenses/internal/log"
	"expenses/internal/sheets"
	gsheet "expenses/internal/sheets/google"
	sheetmem "expenses/internal/sheets/memory"
	"expenses/internal/storage"
	storemem "expenses/internal/storage/memory"
)

// Factory creates components from the application config.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateStore opens the expense store for cfg.DataBackend. Persistent
// backends run their migrations before returning.
func (f *Factory) CreateStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		f.logger.Warn("Using in-memory store, data is lost on restart")
		return storemem.New(), nil
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", log.FieldPath, cfg.SQLiteDBPath)
		return repo, nil
	case config.BackendPostgres:
		repo, err := storage.NewPostgresRepository(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres store")
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// CreatePublisher returns the event publisher for cfg.EventsBroker.
// An unreachable AMQP broker degrades to a no-op publisher so the API
// keeps serving writes.
func (f *Factory) CreatePublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsBroker {
	case config.BrokerNone:
		return events.Nop{}, nil
	case config.BrokerAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			return events.Nop{}, nil
		}
		f.logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return client, nil
	case config.BrokerKafka:
		f.logger.Info("Initialized Kafka publisher", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported events broker: %s", cfg.EventsBroker)
	}
}

// CreateConsumer returns the event consumer used by the worker.
func (f *Factory) CreateConsumer(cfg *config.Config) (events.Consumer, error) {
	switch cfg.EventsBroker {
	case config.BrokerAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("initialize AMQP consumer: %w", err)
		}
		return client, nil
	case config.BrokerKafka:
		return kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID), nil
	case config.BrokerNone:
		return nil, fmt.Errorf("no events broker configured")
	default:
		return nil, fmt.Errorf("unsupported events broker: %s", cfg.EventsBroker)
	}
}

// CreateMirror returns the Google Sheets mirror when a spreadsheet is
// configured and an in-memory mirror otherwise.
func (f *Factory) CreateMirror(ctx context.Context, cfg *config.Config) (sheets.ExpenseMirror, error) {
	if cfg.GoogleSpreadsheetID == "" {
		f.logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring to memory only")
		return sheetmem.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("prepare mirror sheet: %w", err)
	}
	return client, nil
}
