// Package engine assembles the reminder workflow engine service: it
// consumes trigger messages, executes workflow runs and wakes suspended
// runs whose wake time has arrived.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/mkravtsov/subtrack/internal/config"
	"github.com/mkravtsov/subtrack/internal/lib/rabbitmq"
	"github.com/mkravtsov/subtrack/internal/migrations"
	"github.com/mkravtsov/subtrack/internal/services/notifier"
	"github.com/mkravtsov/subtrack/internal/services/reminder"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

// App is the assembled reminder engine service.
type App struct {
	engine       *reminder.Engine
	conn         *amqp.Connection
	ch           *amqp.Channel
	db           *repository.Storage
	pollInterval time.Duration
	logger       *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New wires up the engine service from config.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		return nil, err
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetReminderQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	sendNotifier := notifier.New(ch, logger)
	eng := reminder.NewEngine(db, db, sendNotifier,
		cfg.Reminder.Offsets, cfg.Reminder.RedeliverDelay, cfg.Reminder.ClaimBatchSize, logger)

	return &App{
		engine:       eng,
		conn:         conn,
		ch:           ch,
		db:           db,
		pollInterval: cfg.Reminder.PollInterval,
		logger:       logger,
	}, nil
}

// Run starts the trigger consumer and the wake-up poller and blocks until
// the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.TriggerQueue, a.engine.HandleTrigger); err != nil {
		a.logger.Error("failed to start trigger consumer", slog.Any("err", err))
		return err
	}

	go a.engine.StartPoller(ctx, a.pollInterval)

	<-ctx.Done()
	a.logger.Info("reminder engine shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	a.db.DB.Close()
	return nil
}
