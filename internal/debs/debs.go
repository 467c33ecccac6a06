package deps

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwise1/moment_stack/config"
	"github.com/bwise1/moment_stack/internal/cache"
	"github.com/bwise1/moment_stack/internal/db"
	"github.com/bwise1/moment_stack/internal/moments"
	"github.com/bwise1/moment_stack/internal/users"
	"github.com/bwise1/moment_stack/util/storage"
	"github.com/bwise1/moment_stack/util/websockets"
	"go.uber.org/zap"
)

type Dependencies struct {
	Log        *zap.Logger
	DB         *db.DB
	Cache      *cache.MomentCache
	Cloudinary *storage.Cloudinary
	WebSocket  *websockets.WebSocketManager
	Moments    *moments.Service
	Users      *users.Repository
}

// New connects the database and the optional services. Redis and Cloudinary
// are skipped with a warning when unconfigured or unreachable.
func New(cfg *config.Config, log *zap.Logger) (*Dependencies, error) {
	database, err := db.New(cfg.Dsn, db.PoolConfig{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.RunMigrations {
		if err := database.Migrate(context.Background()); err != nil {
			database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	d := &Dependencies{
		Log:       log,
		DB:        database,
		WebSocket: websockets.NewWebSocketManager(cfg.BroadcastRadiusMeters, log.Named("ws")),
		Users:     users.NewRepository(database),
	}

	opts := []moments.Option{
		moments.WithLogger(log.Named("moments")),
		moments.WithNotifier(d.WebSocket),
	}
	if cfg.RedisAddr != "" {
		c, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			log.Warn("redis unavailable, moment cache disabled", zap.Error(err))
		} else {
			d.Cache = c
			opts = append(opts, moments.WithCache(c))
		}
	}

	cld, err := storage.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		log.Info("cloudinary not configured, photo uploads disabled")
	case err != nil:
		log.Warn("cloudinary setup failed, photo uploads disabled", zap.Error(err))
	default:
		d.Cloudinary = cld
	}

	d.Moments = moments.NewService(moments.NewRepository(database), opts...)
	return d, nil
}

func (d *Dependencies) Close() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Log.Warn("closing redis", zap.Error(err))
		}
	}
	d.DB.Close()
}
