package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"lending-service/internal/api"
	"lending-service/internal/config"
	"lending-service/internal/domain/customer"
	"lending-service/internal/domain/loan"
	"lending-service/internal/domain/payment"
	"lending-service/internal/event"
	"lending-service/internal/infrastructure/database/postgres"
	"lending-service/internal/infrastructure/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
)

// @title Lending Service API
// @version 1.0
// @description CRUD API for customers, loans and payments.
// @BasePath /v1
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "lending-service",
		Short:        "Customer, loan and payment records API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending schema migrations and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), configPath, func(ctx context.Context, app *application) error {
					_, err := runMigrations(ctx, app)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Load the fixture customers and loans into an empty database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), configPath, func(ctx context.Context, app *application) error {
					if _, err := runMigrations(ctx, app); err != nil {
						return err
					}
					_, err := runSeed(ctx, app)
					return err
				})
			},
		},
	)
	return root
}

type application struct {
	cfg    *config.Config
	logger *slog.Logger
	loc    *time.Location
	db     postgres.DBPool
}

func initializeApp(configPath string) (*config.Config, *slog.Logger, *time.Location, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.Logger)
	loc, err := cfg.App.Location()
	if err != nil {
		logger.Error("Invalid application timezone", "error", err)
		return nil, nil, nil, err
	}
	logger.Info("Application starting...", "config_path", configPath, "timezone", loc.String())
	return cfg, logger, loc, nil
}

// withDatabase loads configuration, opens the pool, runs fn and closes the pool.
func withDatabase(ctx context.Context, configPath string, fn func(ctx context.Context, app *application) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, loc, err := initializeApp(configPath)
	if err != nil {
		return err
	}

	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		return err
	}
	defer func() {
		logger.Info("Closing database connection pool...")
		dbPool.Close()
	}()

	return fn(ctx, &application{cfg: cfg, logger: logger, loc: loc, db: dbPool})
}

func runMigrations(ctx context.Context, app *application) (int, error) {
	applied, err := postgres.Migrate(ctx, app.db, app.logger)
	if err != nil {
		app.logger.Error("Schema migration failed", "error", err)
		return 0, err
	}
	app.logger.Info("Schema is up to date", "applied", applied)
	return applied, nil
}

func runSeed(ctx context.Context, app *application) (bool, error) {
	seeded, err := postgres.Seed(ctx, app.db, time.Now().In(app.loc), app.logger)
	if err != nil {
		app.logger.Error("Seeding failed", "error", err)
		return false, err
	}
	if !seeded {
		app.logger.Info("Database already contains customers, seed skipped")
	}
	return seeded, nil
}

// initializePublisher returns the lifecycle event publisher and a closer for
// its connection. Events are dropped when RabbitMQ is disabled or unreachable.
func initializePublisher(cfg config.RabbitMQConfig, logger *slog.Logger) (event.EventPublisher, func()) {
	noop := func() {}
	if !cfg.Enabled {
		logger.Info("RabbitMQ disabled, lifecycle events are not published")
		return event.NoopPublisher{}, noop
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		logger.Warn("Could not connect to RabbitMQ, lifecycle events are not published", "error", err)
		return event.NoopPublisher{}, noop
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.ExchangeName, logger)
	if err != nil {
		logger.Warn("Could not set up RabbitMQ publisher, lifecycle events are not published", "error", err)
		_ = conn.Close()
		return event.NoopPublisher{}, noop
	}

	return publisher, func() {
		logger.Info("Closing RabbitMQ connection...")
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ channel", "error", err)
		}
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ connection", "error", err)
		}
	}
}

func initializeServices(db postgres.DBPool, pub event.EventPublisher, loc *time.Location, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")
	customerRepo := postgres.NewCustomerRepository(db, logger)
	loanRepo := postgres.NewLoanRepository(db, logger)
	paymentRepo := postgres.NewPaymentRepository(db, logger)

	return api.Services{
		Customers: customer.NewCustomerService(customerRepo, pub, logger),
		Loans:     loan.NewLoanService(loanRepo, pub, logger, loan.WithLocation(loc)),
		Payments:  payment.NewPaymentService(paymentRepo, pub, logger, payment.WithLocation(loc)),
	}
}
