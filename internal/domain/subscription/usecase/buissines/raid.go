package buissines

import (
	"context"
	"fmt"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
)

// AddRaidFilters subscribes the listed raid bosses in one city, or in every
// known city when none is given. A species counts as created when at
// least one of its city rows is new.
func (u *UseCase) AddRaidFilters(ctx context.Context, req dto.RaidFilterRequest, t tier.Tier) (*dto.Result, error) {
	start := time.Now()
	res := &dto.Result{UserID: req.UserID, Operation: consts.CommandRaidAdd}
	defer u.record(res, start)

	if req.UserID <= 0 {
		return u.reject(res, suberrors.ErrInvalidUserID)
	}

	cities, city, err := resolveCities(u.catalog, req.City)
	if err != nil {
		return u.reject(res, err)
	}
	res.City = city

	items := splitSpecies(req.Species)
	if len(items) == 0 {
		return u.reject(res, fmt.Errorf("%w: no species given", suberrors.ErrUnknownSpecies))
	}

	unlock := u.locks.Lock(req.UserID)
	defer unlock()

	work, err := u.load(ctx, req.UserID)
	if err != nil {
		return u.reject(res, err)
	}

	for _, input := range items {
		sp, ok := u.catalog.Resolve(input)
		if !ok {
			res.Items = append(res.Items, rejectedItem(input, fmt.Errorf("%w: %s", suberrors.ErrUnknownSpecies, input)))
			continue
		}

		if !work.HasRaidSpecies(sp.ID) && !t.AtLeast(tier.Supporter) &&
			work.RaidSpeciesCount() >= consts.MaxRaidSubscriptions {
			err := fmt.Errorf("%w: standard members may follow at most %d raid bosses",
				suberrors.ErrQuotaExceeded, consts.MaxRaidSubscriptions)
			res.Items = append(res.Items, withSpecies(rejectedItem(input, err), sp.ID, sp.Name))
			continue
		}

		outcome := addRaidRows(work, sp.ID, cities)
		res.Items = append(res.Items, dto.ItemResult{
			Input:     input,
			SpeciesID: sp.ID,
			Name:      sp.Name,
			Outcome:   outcome,
		})
	}

	if res.Changed() {
		if err := u.commit(ctx, work); err != nil {
			return u.failStorage(res, err)
		}
	}

	settle(res)

	u.logger.Info().
		Int64("user_id", req.UserID).
		Str("tier", t.String()).
		Str("city", city).
		Int("cities", len(cities)).
		Strs("created", res.Names(dto.OutcomeCreated)).
		Strs("unchanged", res.Names(dto.OutcomeUnchanged)).
		Int("rejected", res.Count(dto.OutcomeRejected)).
		Msg("raid filters processed")

	return res, nil
}

// RemoveRaidFilters removes the listed raid bosses from one city, or every
// row of the species when no city is given. The city is not checked against
// the catalog so rows of a retired location can still be removed.
func (u *UseCase) RemoveRaidFilters(ctx context.Context, req dto.RaidFilterRequest) (*dto.Result, error) {
	start := time.Now()
	res := &dto.Result{UserID: req.UserID, Operation: consts.CommandRaidRemove}
	defer u.record(res, start)

	if req.UserID <= 0 {
		return u.reject(res, suberrors.ErrInvalidUserID)
	}

	city := removalCity(u.catalog, req.City)
	res.City = city

	items := splitSpecies(req.Species)
	if len(items) == 0 {
		return u.reject(res, fmt.Errorf("%w: no species given", suberrors.ErrUnknownSpecies))
	}

	unlock := u.locks.Lock(req.UserID)
	defer unlock()

	work, err := u.load(ctx, req.UserID)
	if err != nil {
		return u.reject(res, err)
	}

	for _, input := range items {
		sp, ok := u.catalog.Resolve(input)
		if !ok {
			res.Items = append(res.Items, rejectedItem(input, fmt.Errorf("%w: %s", suberrors.ErrUnknownSpecies, input)))
			continue
		}

		outcome := dto.OutcomeNotSubscribed
		if work.RemoveRaids(sp.ID, city) > 0 {
			outcome = dto.OutcomeRemoved
		}
		res.Items = append(res.Items, dto.ItemResult{
			Input:     input,
			SpeciesID: sp.ID,
			Name:      sp.Name,
			Outcome:   outcome,
		})
	}

	if res.Changed() {
		if err := u.commit(ctx, work); err != nil {
			return u.failStorage(res, err)
		}
	}

	settle(res)

	u.logger.Info().
		Int64("user_id", req.UserID).
		Str("city", city).
		Strs("removed", res.Names(dto.OutcomeRemoved)).
		Strs("not_subscribed", res.Names(dto.OutcomeNotSubscribed)).
		Msg("raid filters removed")

	return res, nil
}

// addRaidRows adds the missing (species, city) rows and returns created if
// any row was new, unchanged otherwise
func addRaidRows(work *entities.Subscription, speciesID int, cities []string) dto.Outcome {
	outcome := dto.OutcomeUnchanged
	for _, city := range cities {
		if work.HasRaid(speciesID, city) {
			continue
		}
		work.Raids = append(work.Raids, entities.RaidSubscription{
			UserID:    work.UserID,
			SpeciesID: speciesID,
			City:      city,
		})
		outcome = dto.OutcomeCreated
	}
	return outcome
}
