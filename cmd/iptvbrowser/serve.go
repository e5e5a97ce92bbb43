package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/iptvbrowser/internal/cache"
	"github.com/voyagen/iptvbrowser/internal/config"
	"github.com/voyagen/iptvbrowser/internal/fetcher"
	"github.com/voyagen/iptvbrowser/internal/logging"
	"github.com/voyagen/iptvbrowser/internal/models"
	"github.com/voyagen/iptvbrowser/internal/player"
	"github.com/voyagen/iptvbrowser/internal/recent"
	"github.com/voyagen/iptvbrowser/internal/server"
	"github.com/voyagen/iptvbrowser/internal/service"
	"github.com/voyagen/iptvbrowser/internal/store"
)

type serveCmd struct {
	Config string `help:"Optional config file path (YAML); else use environment variables." type:"path"`
}

func (c *serveCmd) Run() error {
	var (
		cfg *config.Config
		err error
	)
	if c.Config != "" {
		cfg, err = config.LoadFromFile(c.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.NewLogger("iptvbrowser", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	opts := []recent.Option{recent.WithLogger(log)}
	if backend.redis != nil {
		opts = append(opts, recent.WithLocker(redisLocker(backend.redis)))
	}
	rl := recent.NewList(backend.kv, models.RecentChannelsKey, opts...)
	if err := rl.Load(ctx); err != nil {
		log.WithError(err).Warn("recent channels unavailable, starting empty")
	}

	hls := player.NewHLSPlayer(player.HLSConfig{UserAgent: cfg.UserAgent, Log: log})
	browser := service.New(rl, player.NewSession(hls, log), service.Options{
		Fetch:       fetcher.Options{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout},
		SearchDelay: cfg.SearchDebounce,
		Sources:     cfg.Sources,
		Log:         log,
	})
	defer browser.Close()

	if cfg.DefaultSource != "" {
		go func() {
			if _, err := browser.LoadSource(ctx, cfg.DefaultSource); err != nil {
				log.WithError(err).WithField("source", cfg.DefaultSource).Warn("default playlist not loaded")
			}
		}()
	}

	srv := server.New(browser, backend.kv, cfg, log)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// backend is the opened recent-channel store plus the connections it owns.
type backend struct {
	kv      store.KeyValue
	redis   *cache.Redis // nil unless redis_url is set
	closers []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openStore connects the backend selected by cfg.RecentStore. With postgres
// and a redis_url, reads go through the Redis cache.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*backend, error) {
	b := &backend{}

	if cfg.RedisURL != "" {
		rds, err := cache.New(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		if err := rds.Ping(ctx); err != nil {
			_ = rds.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b.redis = rds
		b.closers = append(b.closers, func() { _ = rds.Close() })
		log.Info("redis connected")
	}

	switch cfg.RecentStore {
	case config.StorePostgres:
		migrationsPath := "file://" + resolveMigrations(cfg.MigrationsPath)
		if err := store.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
			b.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("db: %w", err)
		}
		b.closers = append(b.closers, pg.Close)
		b.kv = pg
		if b.redis != nil {
			b.kv = store.NewCachedStore(pg, b.redis, log)
			log.Info("recent store: postgres (redis cache enabled)")
		} else {
			log.Info("recent store: postgres")
		}
	case config.StoreRedis:
		b.kv = store.NewRedisKV(b.redis)
		log.Info("recent store: redis")
	default:
		b.kv = store.NewMemory()
		log.Info("recent store: memory")
	}
	return b, nil
}

// resolveMigrations makes dir absolute, falling back to a directory next to
// the executable when dir does not exist.
func resolveMigrations(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	if _, err := os.Stat(abs); err != nil {
		if exe, e := os.Executable(); e == nil {
			abs = filepath.Join(filepath.Dir(exe), dir)
		}
	}
	return abs
}

func redisLocker(rds *cache.Redis) recent.Locker {
	return func(ctx context.Context) (func(), error) {
		return cache.Lock(ctx, rds, "recent", 5*time.Second, 2*time.Second, 50*time.Millisecond)
	}
}
