package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirinyoku/canteen-go/internal/auth"
	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/config"
	"github.com/kirinyoku/canteen-go/internal/postgres"
	"github.com/kirinyoku/canteen-go/internal/queue"
	"github.com/kirinyoku/canteen-go/internal/redis"
	"github.com/kirinyoku/canteen-go/internal/repository"
	"github.com/kirinyoku/canteen-go/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/canteen-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/canteen-go/internal/repository/redis"
	sqliterepo "github.com/kirinyoku/canteen-go/internal/repository/sqlite"
	"github.com/kirinyoku/canteen-go/internal/service"
	"github.com/kirinyoku/canteen-go/internal/service/employees"
	"github.com/kirinyoku/canteen-go/internal/sqlite"
	"github.com/kirinyoku/canteen-go/migrations"
)

// Runtime is the wired dependency graph shared by the server and the CLI
// commands. Redis and the alert queue are optional.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    repository.Store
	Services *service.Services
	Tokens   *auth.Issuer

	// Set only when Redis is enabled.
	Redis       *goredis.Client
	PubSub      *redisrepo.CatalogPubSub
	Idempotency *redisrepo.IdempotencyStore
	Limiter     *redisrepo.SlidingWindowLimiter

	closers []func()
}

// Bootstrap opens the configured store, applies migrations when
// AUTO_MIGRATE is set and wires the services.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	const op = "app.Bootstrap"

	rt := &Runtime{Config: cfg, Logger: logger}

	store, closeStore, err := OpenStore(ctx, cfg, cfg.DB.AutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rt.Store = store
	rt.closers = append(rt.closers, closeStore)

	clk := clock.NewSystem()
	rt.Tokens = auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, clk)

	deps := service.Deps{
		Store:  store,
		Tokens: rt.Tokens,
		Clock:  clk,
		Logger: logger,
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:           cfg.Redis.Addr,
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			ConnectTimeout: cfg.DB.ConnectTimeout,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rt.Redis = rdb
		rt.closers = append(rt.closers, func() { _ = rdb.Close() })

		rt.PubSub = redisrepo.NewCatalogPubSub(rdb)
		rt.Idempotency = redisrepo.NewIdempotencyStore(rdb, 0)
		rt.Limiter = redisrepo.NewSlidingWindowLimiter(rdb, "login", 10, time.Minute)

		deps.Cache = redisrepo.New(rdb, cfg.Redis.VenuesTTL)
		deps.Changes = rt.PubSub
		deps.Locker = redisrepo.NewCatalogLock(rdb, cfg.Redis.LockTTL, cfg.Redis.LockWait)
	}

	if cfg.Alerts.RabbitMQURL != "" {
		deps.Alerts = queue.NewAlertPublisher(cfg.Alerts.RabbitMQURL, cfg.Alerts.Queue, logger)
	}

	rt.Services = service.NewServices(deps, service.Config{
		Employees: employees.Config{BcryptCost: cfg.Auth.BcryptCost},
	})

	logger.Info("runtime ready",
		"db_driver", cfg.DB.Driver,
		"redis", cfg.Redis.Enabled,
		"alerts", cfg.Alerts.RabbitMQURL != "",
	)

	return rt, nil
}

// Close releases everything Bootstrap opened, newest first.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// OpenStore connects to the configured backend. With migrate set the
// embedded migrations are applied first. The memory backend ignores it.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool) (repository.Store, func(), error) {
	const op = "app.OpenStore"

	switch cfg.DB.Driver {
	case config.DriverPostgres:
		pool, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN(),
			ConnectTimeout: cfg.DB.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		if migrate {
			if err := migrations.ApplyPostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("%s: migrate: %w", op, err)
			}
		}
		return postgresrepo.NewStore(pool), pool.Close, nil

	case config.DriverSQLite:
		db, err := sqlite.New(ctx, sqlite.Config{Path: cfg.DB.SQLitePath})
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		if migrate {
			if err := migrations.ApplySQLite(ctx, db); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("%s: migrate: %w", op, err)
			}
		}
		return sqliterepo.NewStore(db), func() { _ = db.Close() }, nil

	case config.DriverMemory:
		return memory.NewStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%s: unknown driver %q", op, cfg.DB.Driver)
	}
}

// Migrate applies the embedded migrations to the configured database.
func Migrate(ctx context.Context, cfg *config.Config) error {
	const op = "app.Migrate"

	if cfg.DB.Driver == config.DriverMemory {
		return fmt.Errorf("%s: driver %q has no migrations", op, cfg.DB.Driver)
	}

	_, closeStore, err := OpenStore(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	closeStore()

	return nil
}
