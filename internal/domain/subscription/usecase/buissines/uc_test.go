package buissines

import (
	"context"
	"testing"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/catalog"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uc      *UseCase
	repo    *memRepo
	pending *memPending
	pub     *publisherMock
	tiers   *tierMock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	cat, err := catalog.Load("")
	require.NoError(t, err)

	f := &fixture{
		repo:    newMemRepo(),
		pending: newMemPending(),
		pub:     &publisherMock{},
		tiers:   &tierMock{tiers: make(map[int64]tier.Tier)},
	}
	f.uc = NewUseCase(f.repo, cat, f.pending, f.pub, f.tiers, metricsMock{}, time.Minute, zerolog.Nop())

	return f
}

func ctx() context.Context {
	return context.Background()
}
