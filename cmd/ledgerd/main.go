package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/screwyprof/liquidstake/cmd/ledgerd/config"
	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/ledger/store/pgxstore"
	"github.com/screwyprof/liquidstake/migrator"
	"github.com/screwyprof/liquidstake/pkg/logger"
	"github.com/screwyprof/liquidstake/pkg/metrics"
	"github.com/screwyprof/liquidstake/pkg/pgxdb"
	"github.com/screwyprof/liquidstake/pkg/stakeinfo"
	"github.com/screwyprof/liquidstake/web/handler"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Liquid staking ledger starting",
		slog.String("version", version),
		slog.String("date", date),
		slog.Bool("persist", cfg.Persist),
	)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "Ledger service failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Ledger service exited gracefully")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	recorder := metrics.New()

	publisher := ledger.NewChannelPublisher(cfg.EventBuffer)
	recorder.RegisterDroppedEvents(publisher.Dropped)

	oracle, err := eligibility(ctx, cfg)
	if err != nil {
		return err
	}
	opts := ledgerOptions(cfg, publisher, oracle)

	var (
		l     *ledger.Ledger
		store ledger.Store
	)
	if cfg.Persist {
		db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}

		log.InfoContext(ctx, "Applying database migrations", slog.String("dir", cfg.MigrationsDir))
		if err := migrator.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
			db.Close()
			return err
		}

		pgStore, storeCloser := pgxstore.New(db)
		defer storeCloser()
		store = pgStore

		if l, err = ledger.Load(ctx, pgStore, opts...); err != nil {
			return err
		}
		log.InfoContext(ctx, "Ledger restored from snapshot", slog.Uint64("version", l.Version()))
	} else {
		l = ledger.New(opts...)
	}

	if err = l.CheckInvariants(); err != nil {
		return err
	}

	recorder.SetPool(poolState(l))
	ledgerEventsCloser := setupLedgerEventLogging(ctx, publisher.Events(), log, recorder, l)

	mux := http.NewServeMux()
	handler.NewLedger(l).AddRoutes(mux)
	mux.Handle("GET /metrics", recorder.Handler())

	// metrics must wrap the mux directly to see the matched route pattern
	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           logger.NewMiddleware(log)(recorder.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	service := ledger.NewService(l, store, ledger.WithSweepInterval(cfg.SweepInterval))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, done := service.Start(gctx)
		closer := setupServiceEventLogging(gctx, events, log, recorder)
		<-done
		closer()
		return nil
	})

	g.Go(func() error {
		log.InfoContext(gctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.InfoContext(gctx, "Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// handlers and the sweeper have stopped, nothing publishes anymore
	publisher.Close()
	ledgerEventsCloser()

	return err
}

func ledgerOptions(cfg config.Config, publisher ledger.Publisher, oracle ledger.EligibilityOracle) []ledger.Option {
	return []ledger.Option{
		ledger.WithCooldown(cfg.Cooldown),
		ledger.WithMinDelegation(*uint256.NewInt(cfg.MinDelegation)),
		ledger.WithDefaultCommission(cfg.DefaultCommissionBps),
		ledger.WithEligibility(oracle),
		ledger.WithPublisher(publisher),
	}
}

// eligibility merges the configured allow list with the active validators of
// the stake-info service. With neither configured every validator is accepted.
func eligibility(ctx context.Context, cfg config.Config) (ledger.EligibilityOracle, error) {
	if cfg.StakeInfoURL == "" && len(cfg.EligibleValidators) == 0 {
		return ledger.AllowAll{}, nil
	}

	allow := ledger.NewAllowList(cfg.EligibleValidators...)
	if cfg.StakeInfoURL == "" {
		return allow, nil
	}

	remote, err := stakeinfo.NewClient(cfg.StakeInfoURL).AllowList(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching eligible validators: %w", err)
	}
	for id := range remote {
		allow[id] = struct{}{}
	}

	return allow, nil
}
