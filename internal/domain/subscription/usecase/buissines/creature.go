package buissines

import (
	"context"
	"fmt"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
)

// AddCreatureFilters adds or updates one filter per listed species.
// Request level problems reject everything up front; per species problems
// are reported per item and the remaining species are still processed.
func (u *UseCase) AddCreatureFilters(ctx context.Context, req dto.CreatureFilterRequest, t tier.Tier) (*dto.Result, error) {
	start := time.Now()
	res := &dto.Result{UserID: req.UserID, Operation: consts.CommandCreatureAdd}
	defer u.record(res, start)

	if req.UserID <= 0 {
		return u.reject(res, suberrors.ErrInvalidUserID)
	}

	params, err := parseCreatureParams(req.MinimumIV, req.MinimumLevel, req.Gender)
	if err != nil {
		return u.reject(res, err)
	}

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

		if err := premiumAllowed(sp, t); err != nil {
			res.Items = append(res.Items, withSpecies(rejectedItem(input, err), sp.ID, sp.Name))
			continue
		}

		iv, err := effectiveIV(sp, params, t)
		if err != nil {
			res.Items = append(res.Items, withSpecies(rejectedItem(input, err), sp.ID, sp.Name))
			continue
		}

		if _, exists := work.FindCreature(sp.ID); !exists && !t.AtLeast(tier.Supporter) &&
			len(work.Creatures) >= consts.MaxCreatureSubscriptions {
			err := fmt.Errorf("%w: standard members may follow at most %d species",
				suberrors.ErrQuotaExceeded, consts.MaxCreatureSubscriptions)
			res.Items = append(res.Items, withSpecies(rejectedItem(input, err), sp.ID, sp.Name))
			continue
		}

		outcome := upsertCreature(work, sp.ID, iv, params)
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
		Strs("created", res.Names(dto.OutcomeCreated)).
		Strs("updated", res.Names(dto.OutcomeUpdated)).
		Strs("unchanged", res.Names(dto.OutcomeUnchanged)).
		Int("rejected", res.Count(dto.OutcomeRejected)).
		Msg("creature filters processed")

	return res, nil
}

// RemoveCreatureFilters removes the listed species. Absent filters are
// reported as not subscribed and never fail the request.
func (u *UseCase) RemoveCreatureFilters(ctx context.Context, userID int64, species string) (*dto.Result, error) {
	start := time.Now()
	res := &dto.Result{UserID: userID, Operation: consts.CommandCreatureRemove}
	defer u.record(res, start)

	if userID <= 0 {
		return u.reject(res, suberrors.ErrInvalidUserID)
	}

	items := splitSpecies(species)
	if len(items) == 0 {
		return u.reject(res, fmt.Errorf("%w: no species given", suberrors.ErrUnknownSpecies))
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	work, err := u.load(ctx, userID)
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
		if work.RemoveCreature(sp.ID) {
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
		Int64("user_id", userID).
		Strs("removed", res.Names(dto.OutcomeRemoved)).
		Strs("not_subscribed", res.Names(dto.OutcomeNotSubscribed)).
		Msg("creature filters removed")

	return res, nil
}

func withSpecies(item dto.ItemResult, id int, name string) dto.ItemResult {
	item.SpeciesID = id
	item.Name = name
	return item
}
