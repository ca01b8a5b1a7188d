package catalog

import (
	"github.com/Conte777/SpawnFeed/subscription-service/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"catalog",
	fx.Provide(NewCatalog),
)

func NewCatalog(cfg *config.CatalogConfig, log zerolog.Logger) (*Catalog, error) {
	c, err := Load(cfg.Path)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", cfg.Path).
		Int("species", len(c.ordered)).
		Int("locations", len(c.locations)).
		Msg("catalog loaded")

	return c, nil
}
