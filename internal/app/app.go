package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/payout-controller/config"
	"github.com/andreyxaxa/payout-controller/internal/controller/restapi"
	"github.com/andreyxaxa/payout-controller/internal/controller/worker/payoutqueue"
	"github.com/andreyxaxa/payout-controller/internal/controller/worker/scheduler"
	"github.com/andreyxaxa/payout-controller/internal/infrastructure"
	"github.com/andreyxaxa/payout-controller/internal/infrastructure/balance"
	infrakafka "github.com/andreyxaxa/payout-controller/internal/infrastructure/kafka"
	infrapaypal "github.com/andreyxaxa/payout-controller/internal/infrastructure/paypal"
	"github.com/andreyxaxa/payout-controller/internal/repo"
	"github.com/andreyxaxa/payout-controller/internal/repo/fallback"
	"github.com/andreyxaxa/payout-controller/internal/repo/persistent"
	"github.com/andreyxaxa/payout-controller/internal/usecase/disbursement"
	"github.com/andreyxaxa/payout-controller/internal/usecase/outcome"
	"github.com/andreyxaxa/payout-controller/internal/usecase/payout"
	"github.com/andreyxaxa/payout-controller/pkg/httpserver"
	"github.com/andreyxaxa/payout-controller/pkg/kafka/producer"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/andreyxaxa/payout-controller/pkg/postgres"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)
	defer l.Sync() //nolint:errcheck

	// Repository
	history, pg, err := newHistoryStore(ctx, cfg, l, connectPostgres)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - newHistoryStore: %w", err))
	}
	if pg != nil {
		defer pg.Close()
	}

	// Kafka Producer (optional)
	var publisher infrastructure.OutcomePublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers, producer.Logger(l))
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
		}
		publisher = infrakafka.NewOutcomePublisher(kafkaProducer, cfg.Kafka.Topic)
	}

	// Gateway
	paypalClient, err := infrapaypal.NewClient(
		cfg.PayPal.ClientID,
		cfg.PayPal.ClientSecret,
		cfg.PayPal.Mode,
		cfg.PayPal.Timeout,
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - infrapaypal.NewClient: %w", err))
	}
	gateway := infrapaypal.NewGateway(paypalClient, cfg.Payout.EmailSubject, cfg.Payout.Note)

	// Use-Case
	recorder := outcome.New(history, publisher, l, cfg.Recorder.WriteTimeout)
	executor := payout.NewExecutor(gateway, l, cfg.Payout.Currency, cfg.PayPal.Timeout)
	retryController := payout.NewRetryController(
		executor,
		recorder,
		l,
		cfg.Payout.Recipient,
		payout.MaxRetries(cfg.Retry.MaxRetries),
		payout.BackoffMultiplier(cfg.Retry.BackoffMultiplier),
		payout.BaseDelay(cfg.Retry.BaseDelay),
	)

	// Single-Flight Queue Worker
	queue := payoutqueue.New(retryController, l)

	disbursementUseCase := disbursement.New(
		balance.NewStatic(cfg.Balance.StaticAmount),
		queue,
		l,
		cfg.Payout.MinReserve,
	)

	// Scheduler Worker
	loc, err := cfg.Schedule.Location()
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - cfg.Schedule.Location: %w", err))
	}
	schedule, err := cfg.Schedule.Parse()
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - cfg.Schedule.Parse: %w", err))
	}
	schedulerWorker := scheduler.New(
		disbursementUseCase,
		schedule,
		loc,
		l,
		cfg.Schedule.RunTimeout,
		cfg.Schedule.RunOnStart,
	)

	// HTTP Server
	var httpServer *httpserver.Server
	var httpNotify <-chan error
	if cfg.HTTP.Enabled {
		httpServer = httpserver.New(l, httpserver.Port(cfg.HTTP.Port))
		restapi.NewRouter(httpServer.App, disbursementUseCase, queue, l)
		httpNotify = httpServer.Notify()
	}

	// Start Components
	err = queue.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - queue.Start: %w", err))
	}
	err = schedulerWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - schedulerWorker.Start: %w", err))
	}
	if httpServer != nil {
		httpServer.Start()
	}

	l.Info("app - Run - started, schedule = %q, timezone = %s", cfg.Schedule.Cron, loc)

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpNotify:
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Queue.ShutdownTimeout)
	defer shutdownCancel()

	err = schedulerWorker.Shutdown(shutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - schedulerWorker.Shutdown: %w", err))
	}

	if httpServer != nil {
		err = httpServer.Shutdown()
		if err != nil {
			l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
		}
	}

	err = queue.Shutdown(shutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - queue.Shutdown: %w", err))
	}

	if publisher != nil {
		err = publisher.Close()
		if err != nil {
			l.Error(fmt.Errorf("app - Run - publisher.Close: %w", err))
		}
	}
}

type pgConnector func(ctx context.Context, cfg config.PG, l logger.Interface) (*postgres.Postgres, error)

func connectPostgres(ctx context.Context, cfg config.PG, l logger.Interface) (*postgres.Postgres, error) {
	return postgres.New(
		ctx,
		cfg.URL(),
		postgres.MaxPoolSize(cfg.PoolMax),
		postgres.ConnAttempts(cfg.ConnAttempts),
		postgres.ConnTimeout(cfg.ConnTimeout),
		postgres.Logger(l),
	)
}

// newHistoryStore picks the payout history destination once for the life of
// the process. Postgres is used only when fully configured and reachable.
func newHistoryStore(
	ctx context.Context,
	cfg *config.Config,
	l logger.Interface,
	connect pgConnector,
) (repo.PayoutHistoryRepo, *postgres.Postgres, error) {
	fileStore := fallback.NewPayoutHistoryFile(cfg.Recorder.SuccessLogPath, cfg.Recorder.ErrorLogPath)

	if !cfg.PG.Configured() {
		l.Info("app - Run - postgres not configured, recording to %s and %s", cfg.Recorder.SuccessLogPath, cfg.Recorder.ErrorLogPath)

		return fileStore, nil, nil
	}

	pg, err := connect(ctx, cfg.PG, l)
	if err != nil {
		l.Error(err, "app - Run - connect")
		l.Warn("app - Run - postgres unreachable, recording to %s and %s", cfg.Recorder.SuccessLogPath, cfg.Recorder.ErrorLogPath)

		return fileStore, nil, nil
	}

	if cfg.PG.MigrationsPath != "" {
		err = postgres.Migrate(cfg.PG.MigrationsPath, cfg.PG.URL(), l)
		if err != nil {
			pg.Close()

			return nil, nil, fmt.Errorf("postgres.Migrate: %w", err)
		}
	}

	return persistent.NewPayoutHistoryRepo(pg), pg, nil
}
