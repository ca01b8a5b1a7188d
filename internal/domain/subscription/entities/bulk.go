package entities

import "time"

// BulkKind names an entire-catalog operation
type BulkKind string

const (
	BulkSubscribeAllCreatures BulkKind = "subscribe_all_creatures"
	BulkSubscribeAllRaids     BulkKind = "subscribe_all_raids"
	BulkRemoveAllCreatures    BulkKind = "remove_all_creatures"
	BulkRemoveAllRaids        BulkKind = "remove_all_raids"
)

func (k BulkKind) Valid() bool {
	switch k {
	case BulkSubscribeAllCreatures, BulkSubscribeAllRaids, BulkRemoveAllCreatures, BulkRemoveAllRaids:
		return true
	}
	return false
}

// BulkState tracks a bulk operation through its confirmation
type BulkState string

const (
	BulkRequested            BulkState = "requested"
	BulkAwaitingConfirmation BulkState = "awaiting_confirmation"
	BulkConfirmed            BulkState = "confirmed"
	BulkApplied              BulkState = "applied"
	BulkAborted              BulkState = "aborted"
)

// PendingBulk is a bulk intent parked until the user confirms it
type PendingBulk struct {
	Token        string    `json:"token"`
	UserID       int64     `json:"user_id"`
	Kind         BulkKind  `json:"kind"`
	MinimumIV    int       `json:"minimum_iv,omitempty"`
	MinimumLevel int       `json:"minimum_level,omitempty"`
	Gender       Gender    `json:"gender,omitempty"`
	City         string    `json:"city,omitempty"`
	Affected     int       `json:"affected"`
	ExpiresAt    time.Time `json:"expires_at"`
}
