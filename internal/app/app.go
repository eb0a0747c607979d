package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/canteen-go/internal/config"
	"github.com/kirinyoku/canteen-go/internal/domain"
	httpgin "github.com/kirinyoku/canteen-go/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rt         *Runtime
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	rt, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize runtime: %w", err)
	}

	opts := httpgin.Options{Tokens: rt.Tokens}
	if rt.Idempotency != nil {
		opts.Idempotency = rt.Idempotency
	}
	if rt.Limiter != nil {
		opts.LoginLimiter = rt.Limiter
	}

	router := httpgin.NewRouter(rt.Services, opts, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		rt:     rt,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.rt.Close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Catalog change feed from other instances
	if a.rt.PubSub != nil {
		g.Go(func() error {
			err := a.rt.PubSub.Subscribe(gCtx, func(ctx context.Context, ch domain.CatalogChange) {
				a.logger.InfoContext(ctx, "catalog changed",
					"kind", ch.Kind,
					"venue_id", ch.VenueID,
					"name", ch.Name,
					"old_name", ch.OldName,
				)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("catalog subscriber: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
