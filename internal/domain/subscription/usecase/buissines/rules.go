package buissines

import (
	"fmt"
	"strings"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/catalog"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/deps"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
)

// splitSpecies splits a comma separated species list. Spaces are ignored
// entirely so "mr mime, 16" yields "mrmime" and "16".
func splitSpecies(list string) []string {
	compact := strings.Join(strings.Fields(list), "")

	var items []string
	for _, part := range strings.Split(compact, ",") {
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

type creatureParams struct {
	minimumIV    int
	minimumLevel int
	gender       entities.Gender
}

func parseCreatureParams(iv, level int, gender string) (creatureParams, error) {
	if iv < 0 || iv > consts.MaxIV {
		return creatureParams{}, fmt.Errorf("%w: minimum IV %d must be within 0-%d", suberrors.ErrInvalidRange, iv, consts.MaxIV)
	}
	if level < 0 || level > consts.MaxLevel {
		return creatureParams{}, fmt.Errorf("%w: minimum level %d must be within 0-%d", suberrors.ErrInvalidRange, level, consts.MaxLevel)
	}
	g, err := entities.ParseGender(gender)
	if err != nil {
		return creatureParams{}, fmt.Errorf("%w: %v", suberrors.ErrInvalidRange, err)
	}
	return creatureParams{minimumIV: iv, minimumLevel: level, gender: g}, nil
}

// effectiveIV applies the species attributes to the requested IV floor.
// IV-locked species always get 0 and skip the common check.
func effectiveIV(sp catalog.Species, p creatureParams, t tier.Tier) (int, error) {
	if sp.IVLocked {
		return 0, nil
	}
	if sp.Common && p.minimumIV < consts.CommonTypeMinimumIV && !t.AtLeast(tier.Moderator) {
		return 0, fmt.Errorf("%w: %s requires a minimum IV of at least %d",
			suberrors.ErrCommonSpeciesIVTooLow, sp.Name, consts.CommonTypeMinimumIV)
	}
	return p.minimumIV, nil
}

func premiumAllowed(sp catalog.Species, t tier.Tier) error {
	if sp.Premium && !t.AtLeast(tier.Supporter) {
		return fmt.Errorf("%w: %s is only available to supporters", suberrors.ErrSupporterRequired, sp.Name)
	}
	return nil
}

// upsertCreature writes the filter into work and reports what changed
func upsertCreature(work *entities.Subscription, speciesID int, iv int, p creatureParams) dto.Outcome {
	filter := entities.CreatureSubscription{
		UserID:       work.UserID,
		SpeciesID:    speciesID,
		MinimumIV:    iv,
		MinimumLevel: p.minimumLevel,
		Gender:       p.gender,
	}

	if i, ok := work.FindCreature(speciesID); ok {
		existing := work.Creatures[i]
		if existing.MinimumIV == iv && existing.MinimumLevel == p.minimumLevel && existing.Gender == p.gender {
			return dto.OutcomeUnchanged
		}
		filter.ID = existing.ID
		filter.CreatedAt = existing.CreatedAt
		work.Creatures[i] = filter
		return dto.OutcomeUpdated
	}

	work.Creatures = append(work.Creatures, filter)
	return dto.OutcomeCreated
}

// resolveCities maps a requested city to the rows it targets. Empty or
// "all" expands to every known city at the time of the write.
func resolveCities(c deps.Catalog, city string) ([]string, string, error) {
	city = strings.TrimSpace(city)
	if city == "" || strings.EqualFold(city, consts.AllLocations) {
		cities := c.KnownCities()
		if len(cities) == 0 {
			return nil, "", fmt.Errorf("%w: no locations configured", suberrors.ErrUnknownLocation)
		}
		return cities, "", nil
	}

	canonical, ok := c.Canonical(city)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", suberrors.ErrUnknownLocation, city)
	}
	return []string{canonical}, canonical, nil
}

// removalCity returns the city a removal targets, "" meaning every city.
// Cities missing from the catalog are kept as given and matched
// case-insensitively against the stored rows.
func removalCity(c deps.Catalog, city string) string {
	city = strings.TrimSpace(city)
	if city == "" || strings.EqualFold(city, consts.AllLocations) {
		return ""
	}
	if canonical, ok := c.Canonical(city); ok {
		return canonical
	}
	return city
}
