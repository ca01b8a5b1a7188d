package buissines

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/deps"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
)

// RequestBulk validates an entire-catalog operation, counts what it would
// touch and parks it until the user confirms. The store is not modified.
func (u *UseCase) RequestBulk(ctx context.Context, req dto.BulkRequest, t tier.Tier) (*dto.BulkTicket, error) {
	start := time.Now()
	res := &dto.Result{UserID: req.UserID, Operation: consts.CommandBulkRequest}
	defer func() {
		u.metrics.RecordOperation(res.Operation, string(res.Outcome), time.Since(start).Seconds())
	}()

	if req.UserID <= 0 {
		_, err := u.reject(res, suberrors.ErrInvalidUserID)
		return nil, err
	}

	op, err := u.prepareBulk(req)
	if err != nil {
		_, err = u.reject(res, err)
		return nil, err
	}
	u.metrics.RecordBulkTransition(string(op.Kind), string(entities.BulkRequested))

	if err := u.gateBulk(op, t); err != nil {
		u.abortBulk(op, err)
		_, err = u.reject(res, err)
		return nil, err
	}

	affected, err := u.countBulk(ctx, op)
	if err != nil {
		u.abortBulk(op, err)
		_, err = u.reject(res, err)
		return nil, err
	}

	if affected == 0 && (op.Kind == entities.BulkRemoveAllCreatures || op.Kind == entities.BulkRemoveAllRaids) {
		err := fmt.Errorf("%w: nothing to remove", suberrors.ErrNotSubscribed)
		u.abortBulk(op, err)
		_, err = u.reject(res, err)
		return nil, err
	}

	op.Token = u.newToken()
	op.Affected = affected
	op.ExpiresAt = u.now().Add(u.confirmTimeout)

	if err := u.pending.Put(ctx, op, u.confirmTimeout); err != nil {
		u.abortBulk(op, err)
		_, err = u.reject(res, err)
		return nil, err
	}

	res.Outcome = dto.OutcomePending
	u.metrics.RecordBulkTransition(string(op.Kind), string(entities.BulkAwaitingConfirmation))

	u.logger.Info().
		Int64("user_id", req.UserID).
		Str("kind", string(op.Kind)).
		Str("token", op.Token).
		Int("affected", affected).
		Time("expires_at", op.ExpiresAt).
		Msg("bulk operation awaiting confirmation")

	return &dto.BulkTicket{
		Token:     op.Token,
		UserID:    op.UserID,
		Kind:      op.Kind,
		Affected:  affected,
		Prompt:    u.prompt(op),
		ExpiresAt: op.ExpiresAt,
	}, nil
}

// ConfirmBulk answers a pending bulk operation. Unknown, expired or
// declined tokens abort it; a yes re-validates against the current tier
// and state before applying.
func (u *UseCase) ConfirmBulk(ctx context.Context, userID int64, token string, confirm bool) (*dto.Result, error) {
	start := time.Now()
	res := &dto.Result{UserID: userID, Operation: consts.CommandBulkConfirm}
	defer u.record(res, start)

	if userID <= 0 {
		return u.reject(res, suberrors.ErrInvalidUserID)
	}

	op, err := u.pending.Take(ctx, userID, token)
	if err != nil {
		if errors.Is(err, suberrors.ErrConfirmationNotFound) {
			u.metrics.RecordBulkTransition("unknown", string(entities.BulkAborted))
			return u.abort(res, fmt.Errorf("%w: %w", suberrors.ErrConfirmationDeclined, err))
		}
		return u.reject(res, err)
	}

	if !confirm {
		u.abortBulk(op, suberrors.ErrConfirmationDeclined)
		return u.abort(res, suberrors.ErrConfirmationDeclined)
	}
	u.metrics.RecordBulkTransition(string(op.Kind), string(entities.BulkConfirmed))

	t := u.tiers.Classify(ctx, userID)
	if err := u.gateBulk(op, t); err != nil {
		u.abortBulk(op, err)
		return u.reject(res, err)
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	work, err := u.load(ctx, userID)
	if err != nil {
		u.abortBulk(op, err)
		return u.reject(res, err)
	}

	res.Items, _ = u.applyBulk(work, op)
	res.City = op.City

	if res.Changed() {
		if err := u.commit(ctx, work); err != nil {
			u.abortBulk(op, err)
			return u.failStorage(res, err)
		}
	}

	settle(res)
	if res.Outcome == dto.OutcomeRejected {
		res.Outcome = dto.OutcomeUnchanged
		res.Kind = ""
	}
	u.metrics.RecordBulkTransition(string(op.Kind), string(entities.BulkApplied))

	u.logger.Info().
		Int64("user_id", userID).
		Str("kind", string(op.Kind)).
		Str("tier", t.String()).
		Int("created", res.Count(dto.OutcomeCreated)).
		Int("updated", res.Count(dto.OutcomeUpdated)).
		Int("removed", res.Count(dto.OutcomeRemoved)).
		Int("skipped", res.Count(dto.OutcomeSkipped)).
		Msg("bulk operation applied")

	return res, nil
}

// RunBulk drives a whole bulk operation through confirmer. No lock is
// held while waiting for the answer; a failed or late answer declines.
func (u *UseCase) RunBulk(ctx context.Context, req dto.BulkRequest, t tier.Tier, confirmer deps.Confirmer) (*dto.Result, error) {
	ticket, err := u.RequestBulk(ctx, req, t)
	if err != nil {
		return &dto.Result{
			UserID:    req.UserID,
			Operation: consts.CommandBulkRequest,
			Outcome:   dto.OutcomeRejected,
			Kind:      suberrors.KindOf(err),
			Message:   err.Error(),
		}, err
	}

	askCtx, cancel := context.WithDeadline(ctx, ticket.ExpiresAt)
	defer cancel()

	yes, err := confirmer.Ask(askCtx, req.UserID, ticket.Prompt)
	if err != nil {
		u.logger.Warn().Err(err).
			Int64("user_id", req.UserID).
			Str("token", ticket.Token).
			Msg("no confirmation received, declining bulk operation")
		yes = false
	}

	return u.ConfirmBulk(ctx, req.UserID, ticket.Token, yes)
}

func (u *UseCase) abort(res *dto.Result, err error) (*dto.Result, error) {
	res.Outcome = dto.OutcomeAborted
	res.Kind = suberrors.KindOf(err)
	res.Message = err.Error()
	return res, err
}

func (u *UseCase) abortBulk(op *entities.PendingBulk, err error) {
	u.metrics.RecordBulkTransition(string(op.Kind), string(entities.BulkAborted))
	u.logger.Info().
		Err(err).
		Int64("user_id", op.UserID).
		Str("kind", string(op.Kind)).
		Msg("bulk operation aborted")
}

// prepareBulk normalizes the request parameters into a pending operation
func (u *UseCase) prepareBulk(req dto.BulkRequest) (*entities.PendingBulk, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown bulk operation %q", suberrors.ErrInvalidRange, req.Kind)
	}

	op := &entities.PendingBulk{UserID: req.UserID, Kind: req.Kind}

	switch req.Kind {
	case entities.BulkSubscribeAllCreatures:
		params, err := parseCreatureParams(req.MinimumIV, req.MinimumLevel, req.Gender)
		if err != nil {
			return nil, err
		}
		op.MinimumIV = params.minimumIV
		op.MinimumLevel = params.minimumLevel
		op.Gender = params.gender
	case entities.BulkSubscribeAllRaids:
		_, city, err := resolveCities(u.catalog, req.City)
		if err != nil {
			return nil, err
		}
		op.City = city
	}

	return op, nil
}

// gateBulk checks the tier and IV requirements. It runs on request and
// again on confirmation since the tier may have changed in between.
func (u *UseCase) gateBulk(op *entities.PendingBulk, t tier.Tier) error {
	switch op.Kind {
	case entities.BulkSubscribeAllCreatures:
		if !t.AtLeast(tier.Supporter) {
			return fmt.Errorf("%w: standard members are limited to %d species and may not subscribe to all of them",
				suberrors.ErrSupporterRequired, consts.MaxCreatureSubscriptions)
		}
		if op.MinimumIV < consts.BulkMinimumIV {
			return fmt.Errorf("%w: subscribing to every species requires a minimum IV of at least %d",
				suberrors.ErrInvalidRange, consts.BulkMinimumIV)
		}
	case entities.BulkSubscribeAllRaids:
		if !t.AtLeast(tier.Supporter) {
			return fmt.Errorf("%w: standard members are limited to %d raid bosses and may not subscribe to all of them",
				suberrors.ErrSupporterRequired, consts.MaxRaidSubscriptions)
		}
	}
	return nil
}

func (u *UseCase) countBulk(ctx context.Context, op *entities.PendingBulk) (int, error) {
	unlock := u.locks.Lock(op.UserID)
	defer unlock()

	work, err := u.load(ctx, op.UserID)
	if err != nil {
		return 0, err
	}

	_, affected := u.applyBulk(work, op)
	return affected, nil
}

// applyBulk mutates work and returns the per-species results together with
// the number of filter rows created, updated or removed
func (u *UseCase) applyBulk(work *entities.Subscription, op *entities.PendingBulk) ([]dto.ItemResult, int) {
	var (
		items    []dto.ItemResult
		affected int
	)

	switch op.Kind {
	case entities.BulkSubscribeAllCreatures:
		params := creatureParams{minimumIV: op.MinimumIV, minimumLevel: op.MinimumLevel, gender: op.Gender}
		for _, sp := range u.catalog.All() {
			item := dto.ItemResult{Input: sp.Name, SpeciesID: sp.ID, Name: sp.Name}
			if sp.Premium {
				item.Outcome = dto.OutcomeSkipped
				item.Kind = suberrors.KindSupporterRequired
				item.Message = sp.Name + " is premium gated and must be added individually"
				items = append(items, item)
				continue
			}

			iv := params.minimumIV
			if sp.IVLocked {
				iv = 0
			}
			item.Outcome = upsertCreature(work, sp.ID, iv, params)
			if item.Outcome != dto.OutcomeUnchanged {
				affected++
			}
			items = append(items, item)
		}

	case entities.BulkSubscribeAllRaids:
		cities := []string{op.City}
		if op.City == "" {
			cities = u.catalog.KnownCities()
		}
		for _, sp := range u.catalog.All() {
			before := len(work.Raids)
			outcome := addRaidRows(work, sp.ID, cities)
			affected += len(work.Raids) - before
			items = append(items, dto.ItemResult{Input: sp.Name, SpeciesID: sp.ID, Name: sp.Name, Outcome: outcome})
		}

	case entities.BulkRemoveAllCreatures:
		for _, c := range work.Creatures {
			name := u.catalog.DisplayName(c.SpeciesID)
			items = append(items, dto.ItemResult{Input: name, SpeciesID: c.SpeciesID, Name: name, Outcome: dto.OutcomeRemoved})
		}
		affected = len(work.Creatures)
		work.Creatures = nil

	case entities.BulkRemoveAllRaids:
		seen := make(map[int]struct{})
		for _, r := range work.Raids {
			if _, ok := seen[r.SpeciesID]; ok {
				continue
			}
			seen[r.SpeciesID] = struct{}{}
			name := u.catalog.DisplayName(r.SpeciesID)
			items = append(items, dto.ItemResult{Input: name, SpeciesID: r.SpeciesID, Name: name, Outcome: dto.OutcomeRemoved})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].SpeciesID < items[j].SpeciesID })
		affected = len(work.Raids)
		work.Raids = nil
	}

	return items, affected
}

func (u *UseCase) prompt(op *entities.PendingBulk) string {
	switch op.Kind {
	case entities.BulkSubscribeAllCreatures:
		return fmt.Sprintf("Subscribe to every species with a minimum IV of %d%%? This will create or update %d filters.",
			op.MinimumIV, op.Affected)
	case entities.BulkSubscribeAllRaids:
		where := "all areas"
		if op.City != "" {
			where = op.City
		}
		return fmt.Sprintf("Subscribe to every raid boss in %s? This will add %d raid filters.", where, op.Affected)
	case entities.BulkRemoveAllCreatures:
		return fmt.Sprintf("Are you sure you want to remove all %d of your creature subscriptions?", op.Affected)
	case entities.BulkRemoveAllRaids:
		return fmt.Sprintf("Are you sure you want to remove all %d of your raid subscriptions?", op.Affected)
	}
	return ""
}
