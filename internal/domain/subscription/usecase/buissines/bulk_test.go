package buissines

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCreatures(t *testing.T, f *fixture, userID int64, species string) {
	t.Helper()
	_, err := f.uc.AddCreatureFilters(ctx(), dto.CreatureFilterRequest{UserID: userID, Species: species, MinimumIV: 100}, tier.Standard)
	require.NoError(t, err)
}

func TestRemoveAll_Declined(t *testing.T) {
	f := setup(t)
	seedCreatures(t, f, 1, "1,2,3")
	saves := f.repo.saves

	ticket, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard)
	require.NoError(t, err)
	assert.Equal(t, 3, ticket.Affected)
	assert.Contains(t, ticket.Prompt, "3")
	assert.Equal(t, saves, f.repo.saves)

	res, err := f.uc.ConfirmBulk(ctx(), 1, ticket.Token, false)
	assert.ErrorIs(t, err, suberrors.ErrConfirmationDeclined)
	assert.Equal(t, dto.OutcomeAborted, res.Outcome)
	assert.Equal(t, suberrors.KindConfirmationDeclined, res.Kind)

	assert.Len(t, f.repo.stored(1).Creatures, 3)
	assert.Equal(t, saves, f.repo.saves)

	_, err = f.uc.ConfirmBulk(ctx(), 1, ticket.Token, true)
	assert.ErrorIs(t, err, suberrors.ErrConfirmationDeclined)
	assert.Len(t, f.repo.stored(1).Creatures, 3)
}

func TestRemoveAll_Confirmed(t *testing.T) {
	f := setup(t)
	seedCreatures(t, f, 1, "1,2,3")

	ticket, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard)
	require.NoError(t, err)

	res, err := f.uc.ConfirmBulk(ctx(), 1, ticket.Token, true)
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeApplied, res.Outcome)
	assert.Equal(t, 3, res.Count(dto.OutcomeRemoved))
	assert.Empty(t, f.repo.stored(1).Creatures)
}

func TestRemoveAll_Expired(t *testing.T) {
	f := setup(t)
	seedCreatures(t, f, 1, "1")

	ticket, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard)
	require.NoError(t, err)

	f.pending.expire()

	res, err := f.uc.ConfirmBulk(ctx(), 1, ticket.Token, true)
	assert.ErrorIs(t, err, suberrors.ErrConfirmationDeclined)
	assert.Equal(t, dto.OutcomeAborted, res.Outcome)
	assert.Len(t, f.repo.stored(1).Creatures, 1)
}

func TestRemoveAll_TokenOfAnotherUser(t *testing.T) {
	f := setup(t)
	seedCreatures(t, f, 1, "1")

	ticket, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard)
	require.NoError(t, err)

	_, err = f.uc.ConfirmBulk(ctx(), 2, ticket.Token, true)
	assert.ErrorIs(t, err, suberrors.ErrConfirmationDeclined)
	assert.Len(t, f.repo.stored(1).Creatures, 1)
}

func TestRemoveAll_NothingToRemove(t *testing.T) {
	f := setup(t)

	_, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllRaids}, tier.Standard)
	assert.ErrorIs(t, err, suberrors.ErrNotSubscribed)
}

func TestRemoveAllRaids(t *testing.T) {
	f := setup(t)
	_, err := f.uc.AddRaidFilters(ctx(), dto.RaidFilterRequest{UserID: 1, Species: "150,382"}, tier.Standard)
	require.NoError(t, err)

	ticket, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllRaids}, tier.Standard)
	require.NoError(t, err)
	assert.Equal(t, 14, ticket.Affected)

	res, err := f.uc.ConfirmBulk(ctx(), 1, ticket.Token, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mewtwo", "Kyogre"}, res.Names(dto.OutcomeRemoved))
	assert.Empty(t, f.repo.stored(1).Raids)
}

func TestSubscribeAllCreatures_Gates(t *testing.T) {
	f := setup(t)

	_, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkSubscribeAllCreatures, MinimumIV: 90}, tier.Standard)
	assert.ErrorIs(t, err, suberrors.ErrSupporterRequired)

	_, err = f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkSubscribeAllCreatures, MinimumIV: 79}, tier.Supporter)
	assert.ErrorIs(t, err, suberrors.ErrInvalidRange)

	_, err = f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkSubscribeAllRaids}, tier.Standard)
	assert.ErrorIs(t, err, suberrors.ErrSupporterRequired)

	_, err = f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: "remove_everything"}, tier.Administrator)
	assert.ErrorIs(t, err, suberrors.ErrInvalidRange)

	assert.Equal(t, 0, f.repo.saves)
}

func TestSubscribeAllCreatures_SkipsPremium(t *testing.T) {
	f := setup(t)
	f.tiers.set(1, tier.Supporter)

	ticket, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkSubscribeAllCreatures, MinimumIV: 80}, tier.Supporter)
	require.NoError(t, err)
	assert.Equal(t, 385, ticket.Affected)

	res, err := f.uc.ConfirmBulk(ctx(), 1, ticket.Token, true)
	require.NoError(t, err)

	assert.Equal(t, dto.OutcomeApplied, res.Outcome)
	assert.Equal(t, 385, res.Count(dto.OutcomeCreated))
	assert.Equal(t, []string{"Ditto"}, res.Names(dto.OutcomeSkipped))
	for _, it := range res.Items {
		assert.NotEqual(t, suberrors.KindQuotaExceeded, it.Kind)
		if it.Outcome == dto.OutcomeSkipped {
			assert.Equal(t, suberrors.KindSupporterRequired, it.Kind)
		}
	}
	assert.Equal(t, 1, f.repo.saves)

	stored := f.repo.stored(1)
	assert.Len(t, stored.Creatures, 385)
	i, ok := stored.FindCreature(201)
	require.True(t, ok)
	assert.Equal(t, 0, stored.Creatures[i].MinimumIV)
	i, ok = stored.FindCreature(16)
	require.True(t, ok)
	assert.Equal(t, 80, stored.Creatures[i].MinimumIV)
}

func TestSubscribeAll_TierRecheckedOnConfirm(t *testing.T) {
	f := setup(t)
	f.tiers.set(1, tier.Supporter)

	ticket, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkSubscribeAllRaids, City: "Ontario"}, tier.Supporter)
	require.NoError(t, err)
	assert.Equal(t, 386, ticket.Affected)

	f.tiers.set(1, tier.Standard)

	_, err = f.uc.ConfirmBulk(ctx(), 1, ticket.Token, true)
	assert.ErrorIs(t, err, suberrors.ErrSupporterRequired)
	assert.Nil(t, f.repo.stored(1))
}

func TestRunBulk(t *testing.T) {
	f := setup(t)
	seedCreatures(t, f, 1, "1,2")

	confirmer := &confirmerMock{answer: true}
	res, err := f.uc.RunBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard, confirmer)
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeApplied, res.Outcome)
	assert.Contains(t, confirmer.prompt, "remove all 2")
	assert.Empty(t, f.repo.stored(1).Creatures)
}

func TestRunBulk_ConfirmerFailureDeclines(t *testing.T) {
	f := setup(t)
	seedCreatures(t, f, 1, "1,2")

	res, err := f.uc.RunBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard, &confirmerMock{err: errors.New("chat closed")})
	assert.ErrorIs(t, err, suberrors.ErrConfirmationDeclined)
	assert.Equal(t, dto.OutcomeAborted, res.Outcome)
	assert.Len(t, f.repo.stored(1).Creatures, 2)
	assert.Empty(t, f.pending.ops)
}

func TestRunBulk_Timeout(t *testing.T) {
	f := setup(t)
	f.uc.confirmTimeout = 20 * time.Millisecond
	seedCreatures(t, f, 1, "1")

	res, err := f.uc.RunBulk(context.Background(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard, slowConfirmer{})
	assert.ErrorIs(t, err, suberrors.ErrConfirmationDeclined)
	assert.Equal(t, dto.OutcomeAborted, res.Outcome)
	assert.Len(t, f.repo.stored(1).Creatures, 1)
}

func TestRunBulk_RequestRejected(t *testing.T) {
	f := setup(t)

	res, err := f.uc.RunBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard, &confirmerMock{answer: true})
	assert.ErrorIs(t, err, suberrors.ErrNotSubscribed)
	assert.Equal(t, dto.OutcomeRejected, res.Outcome)
	assert.Equal(t, suberrors.KindNotSubscribed, res.Kind)
}

func TestRequestBulk_LockNotHeldWhileAwaiting(t *testing.T) {
	f := setup(t)
	seedCreatures(t, f, 1, "1")

	_, err := f.uc.RequestBulk(ctx(), dto.BulkRequest{UserID: 1, Kind: entities.BulkRemoveAllCreatures}, tier.Standard)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.uc.AddCreatureFilters(ctx(), dto.CreatureFilterRequest{UserID: 1, Species: "2", MinimumIV: 100}, tier.Standard)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user lock still held after the bulk request returned")
	}
	assert.Len(t, f.repo.stored(1).Creatures, 2)
}
