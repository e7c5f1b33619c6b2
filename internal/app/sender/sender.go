// Package sender assembles the reminder sender service: it consumes send
// commands from the engine and delivers reminder emails over SMTP, with a
// dedupe ledger in storage.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/mkravtsov/subtrack/internal/config"
	"github.com/mkravtsov/subtrack/internal/lib/rabbitmq"
	"github.com/mkravtsov/subtrack/internal/lib/smtp"
	senderservice "github.com/mkravtsov/subtrack/internal/services/sender"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

// App is the assembled sender service.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	db            *repository.Storage
	logger        *slog.Logger
}

// New wires up the sender service from config.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetReminderQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewService(db, transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		db:            db,
		logger:        logger,
	}, nil
}

// Run starts the send command consumer and blocks until the context is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.SendQueue, a.senderService.HandleReminder); err != nil {
		a.logger.Error("failed to start send consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	a.db.DB.Close()
	return nil
}
