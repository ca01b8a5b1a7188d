package http

import (
	"context"

	"github.com/Conte777/SpawnFeed/subscription-service/config"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/http/server"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module provides HTTP server for fx DI
var Module = fx.Module("http",
	fx.Provide(NewServerFx),
)

// NewServerFx creates HTTP server with lifecycle hooks for fx DI
func NewServerFx(
	lc fx.Lifecycle,
	serviceCfg *config.ServiceConfig,
	db *gorm.DB,
	rdb *redis.Client,
	logger zerolog.Logger,
) *server.Server {
	srv := server.NewServer(serviceCfg.Port, logger)

	srv.RegisterMetrics()
	srv.RegisterHealth(dbChecker{db: db}, redisChecker{client: rdb})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

type dbChecker struct {
	db *gorm.DB
}

func (c dbChecker) Name() string { return "postgres" }

func (c dbChecker) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type redisChecker struct {
	client *redis.Client
}

func (c redisChecker) Name() string { return "redis" }

func (c redisChecker) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
