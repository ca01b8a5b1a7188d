package app

import (
	"github.com/Conte777/SpawnFeed/subscription-service/config"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/database"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/http"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/kafka"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/logger"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/metrics"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/redis"
	"go.uber.org/fx"
)

func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Out),

		logger.Module,
		database.Module,
		redis.Module,
		kafka.Module,
		metrics.Module,

		domain.Module,

		http.Module,
	)
}
