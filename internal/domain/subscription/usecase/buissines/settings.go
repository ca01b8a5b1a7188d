package buissines

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
)

// SetEnabled flips the master switch without touching any filter
func (u *UseCase) SetEnabled(ctx context.Context, userID int64, enabled bool) (*dto.Result, error) {
	start := time.Now()
	res := &dto.Result{UserID: userID, Operation: consts.CommandSetEnabled}
	defer u.record(res, start)

	if userID <= 0 {
		return u.reject(res, suberrors.ErrInvalidUserID)
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	exists, err := u.repo.Exists(ctx, userID)
	if err != nil {
		u.metrics.RecordStorageFailure()
		return u.reject(res, err)
	}
	if !exists {
		return u.reject(res, fmt.Errorf("%w: user %d has no subscriptions", suberrors.ErrNotSubscribed, userID))
	}

	work, err := u.load(ctx, userID)
	if err != nil {
		return u.reject(res, err)
	}

	if work.Enabled == enabled {
		res.Outcome = dto.OutcomeUnchanged
		return res, nil
	}

	work.Enabled = enabled
	if err := u.commit(ctx, work); err != nil {
		return u.reject(res, err)
	}

	res.Outcome = dto.OutcomeUpdated

	u.logger.Info().
		Int64("user_id", userID).
		Bool("enabled", enabled).
		Msg("notifications toggled")

	return res, nil
}

// GetSubscriptions returns the settings of targetID as seen by viewerID.
// Only moderators and above may look at somebody else.
func (u *UseCase) GetSubscriptions(ctx context.Context, viewerID, targetID int64) (*dto.SubscriptionsView, error) {
	if viewerID <= 0 {
		return nil, suberrors.ErrInvalidUserID
	}
	if targetID <= 0 {
		targetID = viewerID
	}

	if targetID != viewerID && !u.tiers.Classify(ctx, viewerID).AtLeast(tier.Moderator) {
		u.metrics.RecordRejection(consts.CommandInfo, string(suberrors.KindPermissionDenied))
		return nil, fmt.Errorf("%w: only moderators may view other users", suberrors.ErrPermissionDenied)
	}

	exists, err := u.repo.Exists(ctx, targetID)
	if err != nil {
		u.metrics.RecordStorageFailure()
		return nil, err
	}

	sub, err := u.repo.Get(ctx, targetID)
	if err != nil {
		u.metrics.RecordStorageFailure()
		return nil, err
	}

	supporter := u.tiers.Classify(ctx, targetID).AtLeast(tier.Supporter)

	view := &dto.SubscriptionsView{
		UserID:             targetID,
		Subscribed:         exists,
		Enabled:            sub.Enabled,
		NotificationsToday: sub.NotificationsToday,
		Creatures:          make([]dto.CreatureView, 0, len(sub.Creatures)),
		Raids:              []dto.RaidView{},
	}

	for _, c := range sub.Creatures {
		view.Creatures = append(view.Creatures, dto.CreatureView{
			SpeciesID:    c.SpeciesID,
			Name:         u.catalog.DisplayName(c.SpeciesID),
			MinimumIV:    c.MinimumIV,
			MinimumLevel: c.MinimumLevel,
			Gender:       c.Gender,
		})
	}
	sort.Slice(view.Creatures, func(i, j int) bool { return view.Creatures[i].SpeciesID < view.Creatures[j].SpeciesID })

	bySpecies := make(map[int]int)
	for _, r := range sub.Raids {
		i, ok := bySpecies[r.SpeciesID]
		if !ok {
			i = len(view.Raids)
			bySpecies[r.SpeciesID] = i
			view.Raids = append(view.Raids, dto.RaidView{
				SpeciesID: r.SpeciesID,
				Name:      u.catalog.DisplayName(r.SpeciesID),
			})
		}
		view.Raids[i].Cities = append(view.Raids[i].Cities, r.City)
	}
	for i := range view.Raids {
		sort.Strings(view.Raids[i].Cities)
	}
	sort.Slice(view.Raids, func(i, j int) bool { return view.Raids[i].SpeciesID < view.Raids[j].SpeciesID })

	view.CreatureUsage = usage(len(view.Creatures), consts.MaxCreatureSubscriptions, supporter)
	view.RaidUsage = usage(len(view.Raids), consts.MaxRaidSubscriptions, supporter)

	return view, nil
}

func usage(used, limit int, unlimited bool) dto.Usage {
	if unlimited {
		return dto.Usage{Used: used, Unlimited: true, Display: strconv.Itoa(used) + "/∞"}
	}
	return dto.Usage{Used: used, Limit: limit, Display: fmt.Sprintf("%d/%d", used, limit)}
}
