package domain

import (
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/catalog"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"domain",
	catalog.Module,
	tier.Module,
	subscription.Module,
)
