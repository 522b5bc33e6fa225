package main

import (
	"context"
	"errors"
	"fmt"

	"voltbay/internal/auth"
	bidding "voltbay/internal/biddingService"
	"voltbay/internal/clock"
	"voltbay/internal/config"
	"voltbay/internal/lock"
	"voltbay/internal/notify"
	"voltbay/internal/orders"
	"voltbay/internal/payment"
	"voltbay/internal/repository"
	"voltbay/internal/repository/postgres"
	"voltbay/internal/scheduler"
	"voltbay/internal/server"
	"voltbay/internal/settlement"
	"voltbay/migrations"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const redisPoolSize = 10

// app is the wired service graph shared by the CLI commands
type app struct {
	cfg       config.Config
	store     repository.Store
	issuer    *auth.Issuer
	bidding   *bidding.BiddingService
	engine    *settlement.Engine
	payments  *payment.Service
	orders    *orders.Service
	notify    *notify.Service
	scheduler *scheduler.Scheduler
	relay     *notify.Relay
	health    func(ctx context.Context) error

	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, runMigrations bool) (*app, error) {
	a := &app{cfg: cfg, issuer: auth.NewIssuer(cfg.JWTSecret)}
	clk := clock.NewSystem()

	if err := a.openStore(ctx, runMigrations); err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.openLocker(clk)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher, err := a.openPublisher()
	if err != nil {
		a.Close()
		return nil, err
	}

	fee, err := cfg.FeePercent()
	if err != nil {
		a.Close()
		return nil, err
	}

	var gateway payment.Gateway = payment.DisabledGateway{}
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		utils.Warn("STRIPE_SECRET_KEY not set, payments are disabled", nil)
	}

	a.bidding = bidding.NewBiddingService(a.store, clk)
	a.engine = settlement.NewEngine(a.store, clk)
	a.payments = payment.NewService(a.store, gateway, clk, payment.Options{Currency: cfg.Currency, FeePercent: fee})
	a.orders = orders.NewService(a.store, gateway, clk)
	a.notify = notify.NewService(a.store)
	a.scheduler = scheduler.New(a.store, a.engine, locker, clk, scheduler.Config{
		Interval:  cfg.SchedulerInterval,
		BatchSize: cfg.SchedulerBatchSize,
	})
	a.relay = notify.NewRelay(a.store, publisher, clk, cfg.RelayInterval)
	return a, nil
}

func (a *app) openStore(ctx context.Context, runMigrations bool) error {
	if a.cfg.Store == config.StoreMemory {
		a.store = repository.NewMemoryRepo()
		utils.Info("using in-memory store", nil)
		return nil
	}

	if runMigrations {
		if err := migrations.Up(a.cfg.DatabaseURL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	store := postgres.NewStore(pool)
	a.store = store
	a.health = store.Ping
	utils.Info("using postgres store", nil)
	return nil
}

func (a *app) openLocker(clk clock.Clock) (lock.Locker, error) {
	if a.cfg.RedisAddr == "" {
		return lock.NewLocalLocker(clk), nil
	}
	pool, err := lock.NewRedisPool(a.cfg.RedisAddr, redisPoolSize)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	utils.Info("scheduler lease backed by redis", map[string]any{"addr": a.cfg.RedisAddr})
	return lock.NewRedisLocker(pool), nil
}

func (a *app) openPublisher() (notify.Publisher, error) {
	if a.cfg.AMQPURL == "" {
		return notify.LogPublisher{}, nil
	}
	publisher, err := notify.NewAMQPPublisher(a.cfg.AMQPURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)
	utils.Info("notifications published to rabbitmq", map[string]any{"exchange": notify.Exchange})
	return publisher, nil
}

func (a *app) router() *gin.Engine {
	return server.SetupRouter(server.Dependencies{
		Issuer:        a.issuer,
		Bidding:       a.bidding,
		Payments:      a.payments,
		Settlement:    a.engine,
		Orders:        a.orders,
		Notifications: a.notify,
		Scheduler:     a.scheduler,
		Health:        a.health,
	})
}

// Close releases connections in reverse order of opening
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
