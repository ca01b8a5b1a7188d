package entities

import (
	"fmt"
	"strings"
	"time"
)

// Gender restricts a creature filter to one gender or none
type Gender string

const (
	GenderAny    Gender = "any"
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender accepts the long forms and the short chat aliases *, m and f.
// An empty value means any.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "*", "any":
		return GenderAny, nil
	case "m", "male":
		return GenderMale, nil
	case "f", "female":
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// Subscription is the per-user aggregate root
type Subscription struct {
	UserID             int64                  `gorm:"primaryKey;autoIncrement:false"`
	Enabled            bool                   `gorm:"not null"`
	NotificationsToday int64                  `gorm:"not null"`
	Creatures          []CreatureSubscription `gorm:"foreignKey:UserID;references:UserID"`
	Raids              []RaidSubscription     `gorm:"foreignKey:UserID;references:UserID"`
	CreatedAt          time.Time              `gorm:"autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// CreatureSubscription is a wild spawn filter, unique per user and species
type CreatureSubscription struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       int64     `gorm:"not null;uniqueIndex:idx_creature_user_species"`
	SpeciesID    int       `gorm:"not null;uniqueIndex:idx_creature_user_species"`
	MinimumIV    int       `gorm:"not null"`
	MinimumLevel int       `gorm:"not null"`
	Gender       Gender    `gorm:"type:varchar(8);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (CreatureSubscription) TableName() string {
	return "creature_subscriptions"
}

// RaidSubscription is a raid boss filter, unique per user, species and city
type RaidSubscription struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_raid_user_species_city"`
	SpeciesID int       `gorm:"not null;uniqueIndex:idx_raid_user_species_city"`
	City      string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_raid_user_species_city"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RaidSubscription) TableName() string {
	return "raid_subscriptions"
}

// NewSubscription returns the default aggregate of a user that has none yet
func NewSubscription(userID int64) *Subscription {
	return &Subscription{UserID: userID, Enabled: true}
}

// Clone returns a deep copy safe to mutate as a working copy
func (s *Subscription) Clone() *Subscription {
	c := *s
	c.Creatures = append([]CreatureSubscription(nil), s.Creatures...)
	c.Raids = append([]RaidSubscription(nil), s.Raids...)
	return &c
}

func (s *Subscription) FindCreature(speciesID int) (int, bool) {
	for i := range s.Creatures {
		if s.Creatures[i].SpeciesID == speciesID {
			return i, true
		}
	}
	return -1, false
}

func (s *Subscription) RemoveCreature(speciesID int) bool {
	i, ok := s.FindCreature(speciesID)
	if !ok {
		return false
	}
	s.Creatures = append(s.Creatures[:i], s.Creatures[i+1:]...)
	return true
}

// HasRaid matches city case-insensitively
func (s *Subscription) HasRaid(speciesID int, city string) bool {
	for _, r := range s.Raids {
		if r.SpeciesID == speciesID && strings.EqualFold(r.City, city) {
			return true
		}
	}
	return false
}

// RaidSpeciesCount returns the number of distinct raid species
func (s *Subscription) RaidSpeciesCount() int {
	seen := make(map[int]struct{}, len(s.Raids))
	for _, r := range s.Raids {
		seen[r.SpeciesID] = struct{}{}
	}
	return len(seen)
}

func (s *Subscription) HasRaidSpecies(speciesID int) bool {
	for _, r := range s.Raids {
		if r.SpeciesID == speciesID {
			return true
		}
	}
	return false
}

// RemoveRaids drops rows of speciesID, limited to city unless city is empty.
// Returns the number of rows removed.
func (s *Subscription) RemoveRaids(speciesID int, city string) int {
	kept := s.Raids[:0]
	removed := 0
	for _, r := range s.Raids {
		if r.SpeciesID == speciesID && (city == "" || strings.EqualFold(r.City, city)) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.Raids = kept
	return removed
}
