// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/autoindex/internal/api"
	"github.com/starford/autoindex/internal/indexservice"
	"github.com/starford/autoindex/internal/mcpserver"
	"github.com/starford/autoindex/internal/renderlog"
	"github.com/starford/autoindex/internal/sse"
	"github.com/starford/autoindex/internal/storage"
	"github.com/starford/autoindex/internal/widgets"
	"github.com/starford/autoindex/internal/wikijs"
)

var errConfigRequired = errors.New("config is required")

// pruneInterval is how often the render log is trimmed to render_log.keep.
const pruneInterval = 10 * time.Minute

// components are the services shared by every entry point.
type components struct {
	logger   *slog.Logger
	log      *renderlog.DB
	broker   *sse.Broker
	registry *widgets.Registry
	svc      *indexservice.Service
}

func (c *components) close() {
	if c.broker != nil {
		c.broker.Close()
	}
	if c.log != nil {
		if err := c.log.Close(); err != nil {
			c.logger.Warn("close render log", slog.String("error", err.Error()))
		}
	}
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// build wires the wiki client, render log, broker, and (when withWidgets is
// set and enabled) the widget registry.
func build(cfg *Config, logger *slog.Logger, withWidgets bool) (*components, error) {
	c := &components{logger: logger}

	client := wikijs.New(cfg.Wiki.Endpoint,
		wikijs.WithTimeout(cfg.Wiki.Timeout),
		wikijs.WithHeaders(cfg.Wiki.Headers),
		wikijs.WithRateLimit(cfg.Wiki.RateLimit, cfg.Wiki.Burst),
		wikijs.WithLogger(logger),
	)

	var logStore renderlog.Log
	if cfg.RenderLog.Enabled() {
		db, err := renderlog.Open(cfg.RenderLog.Path)
		if err != nil {
			return nil, fmt.Errorf("init render log: %w", err)
		}
		c.log = db
		logStore = db
	}

	c.broker = sse.NewBroker(2 * time.Second)
	recorder := widgets.NewRecorder(logStore, c.broker, logger)

	svcOpts := []indexservice.Option{
		indexservice.WithRecorder(recorder),
		indexservice.WithDefaults(cfg.Index.Depth, cfg.Index.Heading),
		indexservice.WithLogger(logger),
	}
	if logStore != nil {
		svcOpts = append(svcOpts, indexservice.WithRenderLog(logStore))
	}

	if withWidgets && cfg.Widgets.Enabled {
		for _, dir := range []string{cfg.Widgets.Dir, cfg.Widgets.OutputDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				c.close()
				return nil, fmt.Errorf("create widgets dir: %w", err)
			}
		}
		defs, err := storage.NewFS(cfg.Widgets.Dir, ".yaml", ".yml")
		if err != nil {
			c.close()
			return nil, fmt.Errorf("init widget definitions: %w", err)
		}
		out, err := storage.NewFS(cfg.Widgets.OutputDir)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("init widget output: %w", err)
		}
		c.registry = widgets.New(client, defs, out,
			widgets.WithLogger(logger),
			widgets.WithRecorder(recorder),
			widgets.WithDefaults(cfg.Index.Depth, cfg.Index.Heading),
		)
		svcOpts = append(svcOpts, indexservice.WithRegistry(c.registry))
	}

	c.svc = indexservice.NewService(client, svcOpts...)
	return c, nil
}

// Run starts the HTTP server, the widget watcher, and the render log pruner.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, app.logOutput)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("wiki_endpoint", cfg.Wiki.Endpoint),
		slog.Bool("widgets_enabled", cfg.Widgets.Enabled),
		slog.String("render_log", cfg.RenderLog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := build(cfg, logger, true)
	if err != nil {
		return err
	}
	defer c.close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if c.log != nil {
			if err := c.log.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"render log unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/api", api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, c.broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if c.registry != nil {
		g.Go(func() error {
			if err := c.registry.Sync(gCtx); err != nil {
				logger.Warn("initial widget sync failed", slog.String("error", err.Error()))
			}
			return c.registry.Watch(gCtx, cfg.Widgets.Dir)
		})
	}

	if c.log != nil && cfg.RenderLog.Keep > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(pruneInterval)
			defer ticker.Stop()
			for {
				if n, err := c.log.Prune(cfg.RenderLog.Keep); err != nil {
					logger.Warn("render log prune failed", slog.String("error", err.Error()))
				} else if n > 0 {
					logger.Debug("render log pruned", slog.Int64("deleted", n))
				}
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// SSE streams only end when their clients go; close the broker first.
		c.broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been asked to stop.
var errShutdown = errors.New("shutdown")

// RenderOnce renders a single index to w.
func RenderOnce(ctx context.Context, w io.Writer, req indexservice.IndexRequest, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, app.logOutput)

	c, err := build(app.config, logger, false)
	if err != nil {
		return err
	}
	defer c.close()

	out, err := c.svc.RenderIndex(ctx, req)
	if err != nil {
		return err
	}
	_, err = w.Write(out.Body)
	return err
}

// ServeMCP serves the MCP tools on stdin/stdout. Logs must not go to stdout,
// so the log output defaults to stderr here.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	logger := newLogger(app.config, app.logOutput)

	c, err := build(app.config, logger, false)
	if err != nil {
		return err
	}
	defer c.close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
