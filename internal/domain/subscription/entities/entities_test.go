package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGender(t *testing.T) {
	tests := map[string]Gender{
		"":       GenderAny,
		"*":      GenderAny,
		"ANY":    GenderAny,
		"m":      GenderMale,
		"Male":   GenderMale,
		"f":      GenderFemale,
		"female": GenderFemale,
	}
	for in, want := range tests {
		got, err := ParseGender(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseGender("x")
	assert.Error(t, err)
}

func TestSubscription_CloneIsIndependent(t *testing.T) {
	s := NewSubscription(1)
	s.Creatures = []CreatureSubscription{{SpeciesID: 1}}
	s.Raids = []RaidSubscription{{SpeciesID: 150, City: "Ontario"}}

	c := s.Clone()
	c.Creatures[0].MinimumIV = 90
	c.Raids = append(c.Raids, RaidSubscription{SpeciesID: 150, City: "Upland"})
	c.Enabled = false

	assert.Equal(t, 0, s.Creatures[0].MinimumIV)
	assert.Len(t, s.Raids, 1)
	assert.True(t, s.Enabled)
}

func TestSubscription_Raids(t *testing.T) {
	s := NewSubscription(1)
	s.Raids = []RaidSubscription{
		{SpeciesID: 150, City: "Ontario"},
		{SpeciesID: 150, City: "Upland"},
		{SpeciesID: 382, City: "Ontario"},
	}

	assert.True(t, s.HasRaid(150, "ontario"))
	assert.Equal(t, 2, s.RaidSpeciesCount())

	assert.Equal(t, 1, s.RemoveRaids(150, "UPLAND"))
	assert.Equal(t, 0, s.RemoveRaids(150, "Upland"))
	assert.Equal(t, 1, s.RemoveRaids(150, ""))
	assert.False(t, s.HasRaidSpecies(150))
	assert.Len(t, s.Raids, 1)
}

func TestSubscription_RemoveCreature(t *testing.T) {
	s := NewSubscription(1)
	s.Creatures = []CreatureSubscription{{SpeciesID: 1}, {SpeciesID: 2}}

	assert.True(t, s.RemoveCreature(1))
	assert.False(t, s.RemoveCreature(1))
	require.Len(t, s.Creatures, 1)
	assert.Equal(t, 2, s.Creatures[0].SpeciesID)
}

func TestBulkKind_Valid(t *testing.T) {
	assert.True(t, BulkRemoveAllRaids.Valid())
	assert.False(t, BulkKind("remove_everything").Valid())
}
