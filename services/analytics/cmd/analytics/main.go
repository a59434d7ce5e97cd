package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/clipcast/internal/platform/db"
	"github.com/example/clipcast/internal/platform/events"
	"github.com/example/clipcast/internal/platform/httpserver"
	"github.com/example/clipcast/internal/platform/logging"
	"github.com/example/clipcast/internal/platform/metrics"
	"github.com/example/clipcast/internal/platform/natsconn"
	"github.com/example/clipcast/internal/platform/run"
	"github.com/example/clipcast/services/analytics/internal/analytics"
	"github.com/example/clipcast/services/analytics/internal/config"
	"github.com/example/clipcast/services/analytics/internal/handlers"
	"github.com/example/clipcast/services/analytics/internal/identity"
	"github.com/example/clipcast/services/analytics/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.App.LogLevel, cfg.App.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	st, closeStore, err := initStore(cfg, log)
	if err != nil {
		log.Error("store init failed", zap.Error(err))
		_ = log.Sync()
		run.Exit(1)
	}
	if closeStore != nil {
		defer closeStore()
	}

	pub, closeNATS := initEvents(cfg, log)
	if closeNATS != nil {
		defer closeNATS()
	}

	svc := analytics.NewService(st, pub, log)
	ids := initIdentity(cfg)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error {
			_, err := st.Load(context.Background())
			return err
		},
	})
	r.Post("/analytics", handlers.PostEvent(svc, ids, log))
	r.Get("/analytics", handlers.GetStats(svc, ids, log))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	srv := httpserver.New(httpserver.Options{
		Addr:        cfg.App.HTTP.Addr,
		ServiceName: cfg.App.ServiceName,
		Logger:      log,
		Router:      r,
	})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStore selects the analytics store backend: Postgres when
// DATABASE_URL is set, Badger when BADGER_DIR is set, the flat JSON file
// otherwise. In production (APP_ENV=production) a durable backend is
// mandatory and any backend failure is returned as an error so main can
// shut down cleanly; outside production it degrades to the next backend.
func initStore(cfg config.Config, log *zap.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := db.OpenDSN(context.Background(), cfg.DatabaseURL)
		if err != nil {
			if cfg.App.IsProduction() {
				return nil, nil, fmt.Errorf("postgres is required in production but unavailable: %w", err)
			}
			log.Warn("postgres unavailable, falling back to file store", zap.Error(err))
		} else {
			st, err := store.NewPostgresStore(context.Background(), pool)
			if err != nil {
				pool.Close()
				if cfg.App.IsProduction() {
					return nil, nil, fmt.Errorf("postgres schema init failed: %w", err)
				}
				log.Warn("postgres schema init failed, falling back to file store", zap.Error(err))
			} else {
				log.Info("analytics store: postgres")
				return st, pool.Close, nil
			}
		}
	}

	if cfg.BadgerDir != "" {
		st, err := store.NewBadgerStore(cfg.BadgerDir)
		if err != nil {
			if cfg.App.IsProduction() {
				return nil, nil, fmt.Errorf("badger store unavailable: %w", err)
			}
			log.Warn("badger unavailable, falling back to file store", zap.Error(err))
		} else {
			log.Info("analytics store: badger", zap.String("dir", cfg.BadgerDir))
			return st, func() { _ = st.Close() }, nil
		}
	}

	st, err := store.NewFileStore(cfg.DataFile)
	if err != nil {
		if cfg.App.IsProduction() {
			return nil, nil, fmt.Errorf("file store unavailable: %w", err)
		}
		log.Warn("file store unavailable, using in-memory store (development only)", zap.Error(err))
		return store.NewMemoryStore(), nil, nil
	}
	log.Info("analytics store: file", zap.String("path", cfg.DataFile))
	return st, nil, nil
}

// initEvents wires the NATS publisher. NATS is optional: without NATS_URL,
// or when the connection fails, event publishing becomes a no-op.
func initEvents(cfg config.Config, log *zap.Logger) (*events.Publisher, func()) {
	if cfg.NATSURL == "" {
		log.Info("event publishing disabled (NATS_URL not set)")
		return nil, nil
	}

	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL})
	if err != nil {
		log.Warn("nats connect failed, event publishing disabled", zap.Error(err))
		return nil, nil
	}
	pub, err := events.Connect(nc, log)
	if err != nil {
		log.Warn("jetstream init failed, event publishing disabled", zap.Error(err))
		nc.Close()
		return nil, nil
	}
	log.Info("event publishing enabled", zap.String("url", cfg.NATSURL))
	return pub, nc.Close
}

func initIdentity(cfg config.Config) identity.Resolver {
	if cfg.IdentityTransport == "bearer" {
		return identity.TokenResolver{Secret: []byte(cfg.JWTSecret)}
	}
	return identity.CookieResolver{Name: cfg.CookieName}
}
