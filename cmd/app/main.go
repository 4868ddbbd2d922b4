package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapcrate/swapcrate/internal/concurrency"
	"github.com/swapcrate/swapcrate/internal/config"
	"github.com/swapcrate/swapcrate/internal/database"
	"github.com/swapcrate/swapcrate/internal/database/memory"
	"github.com/swapcrate/swapcrate/internal/database/postgres"
	"github.com/swapcrate/swapcrate/internal/database/schema"
	"github.com/swapcrate/swapcrate/internal/dispute"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/escrow"
	"github.com/swapcrate/swapcrate/internal/event"
	"github.com/swapcrate/swapcrate/internal/eventlog"
	"github.com/swapcrate/swapcrate/internal/handler"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/metrics"
	"github.com/swapcrate/swapcrate/internal/notification"
	"github.com/swapcrate/swapcrate/internal/reputation"
	"github.com/swapcrate/swapcrate/internal/repository"
	"github.com/swapcrate/swapcrate/internal/scheduler"
	"github.com/swapcrate/swapcrate/internal/server"
	"github.com/swapcrate/swapcrate/internal/trade"
	"github.com/swapcrate/swapcrate/internal/valuation"
	"github.com/swapcrate/swapcrate/internal/worker"
)

const (
	dbMaxConns        = 10
	dbMaxIdleTime     = 5 * time.Minute
	dbMaxLifetime     = 30 * time.Minute
	shutdownTimeout   = 10 * time.Second
	valuationCacheLen = 1024
	valuationCacheTTL = 5 * time.Minute
	eventRetries      = 3
	eventRetryDelay   = 2 * time.Second
	eventRetention    = 90 // days
	deadLetterPath    = "deadletter.jsonl"
)

// repositories groups the persistence interfaces the services consume,
// regardless of which backend provides them
type repositories struct {
	users      repository.User
	trades     repository.Trade
	disputes   repository.Dispute
	ratings    repository.Rating
	reputation repository.Reputation
	eventLog   repository.EventLog
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.InitLogger(logger.NewConfig(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName, cfg.Version, cfg.Environment, false))
	handler.InitValidator()

	// Persistence: PostgreSQL when configured, in-memory otherwise
	var (
		repos  repositories
		dbPool database.Pool
	)
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		store := memory.NewStore()
		repos = repositories{
			users:      store,
			trades:     store,
			disputes:   store,
			ratings:    store,
			reputation: store,
			eventLog:   store,
		}
		logger.Info("Using in-memory store")
	} else {
		pool, err := database.NewPool(cfg.GetDBConnString(), dbMaxConns, dbMaxIdleTime, dbMaxLifetime)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := initSchema(pool); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		dbPool = pool
		repos = repositories{
			users:      postgres.NewUserRepository(pool),
			trades:     postgres.NewTradeRepository(pool),
			disputes:   postgres.NewDisputeRepository(pool),
			ratings:    postgres.NewRatingRepository(pool),
			reputation: postgres.NewReputationRepository(pool),
			eventLog:   postgres.NewEventLogRepository(pool),
		}
	}

	// Event bus with retry and dead letter fallback
	deadLetter, err := event.NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		log.Fatalf("Failed to open dead letter file: %v", err)
	}
	defer deadLetter.Close()

	bus := event.NewResilientPublisher(event.NewMemoryBus(), event.ResilientConfig{
		MaxRetries: eventRetries,
		RetryDelay: eventRetryDelay,
	}, deadLetter)

	// Event consumers
	eventLogSvc := eventlog.NewService(repos.eventLog)
	eventLogSvc.Subscribe(bus)
	notification.NewService(notification.LogSender{}).Subscribe(bus)
	metrics.NewEventMetricsCollector().Register(bus)

	// Domain services
	locks := concurrency.NewLockManager()
	gateway := escrow.NewMemoryGateway()
	appraiser := valuation.NewCachedProvider(valuation.NewRepositoryProvider(repos.users), valuationCacheLen, valuationCacheTTL)

	reputationSvc := reputation.NewService(repos.users, repos.reputation, reputation.Config{
		BalancedToleranceBps:      cfg.BalancedToleranceBps,
		OvervaluationThresholdBps: cfg.OvervaluationThresholdBps,
		BalancedReward:            cfg.BalancedRewardDelta,
		OvervaluationPenalty:      cfg.OvervaluationPenaltyDelta,
		GiveawayPolicy:            cfg.GiveawayPolicy,
	})

	tradeSvc := trade.NewService(repos.trades, repos.users, repos.ratings, reputationSvc, gateway, appraiser, bus, locks, trade.Config{
		PlatformFeeBps:        cfg.PlatformFeeBps,
		DeliveryConfirmWindow: cfg.DeliveryConfirmWindow,
		RatingWindow:          cfg.RatingWindow,
		EscrowCallTimeout:     cfg.EscrowCallTimeout,
	})

	disputeSvc := dispute.NewService(repos.disputes, repos.users, tradeSvc, bus, locks, dispute.Config{
		ResponseWindow:          cfg.DisputeResponseWindow,
		AutoCloseOutcome:        domain.ResolutionOutcome(cfg.AutoCloseOutcome),
		AutoCloseRefundSplitBps: cfg.AutoCloseRefundSplitBps,
	})

	// Background deadline sweeps
	pool := worker.NewPool(worker.DefaultWorkerCount, worker.DefaultQueueSize)
	pool.Start()
	defer pool.Stop()

	sched := scheduler.New(pool)
	sched.Schedule(cfg.DeadlineSweepInterval, worker.NewSweepJob("delivery_deadlines", tradeSvc.SweepDeliveryDeadlines))
	sched.Schedule(cfg.DeadlineSweepInterval, worker.NewSweepJob("rating_deadlines", tradeSvc.SweepRatingDeadlines))
	sched.Schedule(cfg.DeadlineSweepInterval, worker.NewSweepJob("dispute_deadlines", disputeSvc.SweepDeadlines))
	sched.Schedule(24*time.Hour, eventlog.NewCleanupJob(eventLogSvc, eventRetention))
	defer sched.Stop()

	srv := server.NewServer(cfg.Port, cfg.APIKey, nil, dbPool, tradeSvc, disputeSvc, reputationSvc, repos.users, repos.ratings)

	// Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
	}
}

// initSchema applies the idempotent schema script on startup
func initSchema(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := pool.Exec(ctx, schema.SchemaSQL)
	return err
}
