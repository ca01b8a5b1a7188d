package dto

import (
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
)

// Outcome is the result of one item or of a whole operation
type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeUpdated       Outcome = "updated"
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeRemoved       Outcome = "removed"
	OutcomeNotSubscribed Outcome = "not_subscribed"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeRejected      Outcome = "rejected"
	OutcomeApplied       Outcome = "applied"
	OutcomeAborted       Outcome = "aborted"
	OutcomePending       Outcome = "pending"
)

// ItemResult reports what happened to one species of a request
type ItemResult struct {
	Input     string         `json:"input"`
	SpeciesID int            `json:"species_id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Outcome   Outcome        `json:"outcome"`
	Kind      suberrors.Kind `json:"kind,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Result is returned by every mutating operation
type Result struct {
	UserID    int64          `json:"user_id"`
	Operation string         `json:"operation"`
	Outcome   Outcome        `json:"outcome"`
	Kind      suberrors.Kind `json:"kind,omitempty"`
	Message   string         `json:"message,omitempty"`
	City      string         `json:"city,omitempty"`
	Items     []ItemResult   `json:"items,omitempty"`
}

// Names returns the display names of items with the given outcome
func (r *Result) Names(outcome Outcome) []string {
	var names []string
	for _, it := range r.Items {
		if it.Outcome != outcome {
			continue
		}
		if it.Name != "" {
			names = append(names, it.Name)
		} else {
			names = append(names, it.Input)
		}
	}
	return names
}

// Count returns the number of items with the given outcome
func (r *Result) Count(outcome Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == outcome {
			n++
		}
	}
	return n
}

// Changed reports whether any item mutated the aggregate
func (r *Result) Changed() bool {
	for _, it := range r.Items {
		switch it.Outcome {
		case OutcomeCreated, OutcomeUpdated, OutcomeRemoved:
			return true
		}
	}
	return false
}

type CreatureFilterRequest struct {
	UserID       int64
	Species      string
	MinimumIV    int
	MinimumLevel int
	Gender       string
}

type RaidFilterRequest struct {
	UserID  int64
	Species string
	City    string
}

type BulkRequest struct {
	UserID       int64
	Kind         entities.BulkKind
	MinimumIV    int
	MinimumLevel int
	Gender       string
	City         string
}

// BulkTicket is handed back while a bulk operation awaits confirmation
type BulkTicket struct {
	Token     string            `json:"token"`
	UserID    int64             `json:"user_id"`
	Kind      entities.BulkKind `json:"kind"`
	Affected  int               `json:"affected"`
	Prompt    string            `json:"prompt"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Usage is a used/limit counter; Limit 0 means unlimited
type Usage struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit,omitempty"`
	Unlimited bool   `json:"unlimited"`
	Display   string `json:"display"`
}

type CreatureView struct {
	SpeciesID    int             `json:"species_id"`
	Name         string          `json:"name"`
	MinimumIV    int             `json:"minimum_iv"`
	MinimumLevel int             `json:"minimum_level"`
	Gender       entities.Gender `json:"gender"`
}

type RaidView struct {
	SpeciesID int      `json:"species_id"`
	Name      string   `json:"name"`
	Cities    []string `json:"cities"`
}

// SubscriptionsView is the read-only projection of a user's settings
type SubscriptionsView struct {
	UserID             int64          `json:"user_id"`
	Subscribed         bool           `json:"subscribed"`
	Enabled            bool           `json:"enabled"`
	NotificationsToday int64          `json:"notifications_today"`
	Creatures          []CreatureView `json:"creatures"`
	Raids              []RaidView     `json:"raids"`
	CreatureUsage      Usage          `json:"creature_usage"`
	RaidUsage          Usage          `json:"raid_usage"`
}

// CommandEvent is a parsed user intent consumed from subscription.commands
type CommandEvent struct {
	Type         string            `json:"type"`
	RequestID    string            `json:"request_id"`
	UserID       int64             `json:"user_id"`
	TargetUserID int64             `json:"target_user_id,omitempty"`
	Species      string            `json:"species,omitempty"`
	IV           int               `json:"iv,omitempty"`
	Level        int               `json:"level,omitempty"`
	Gender       string            `json:"gender,omitempty"`
	City         string            `json:"city,omitempty"`
	Bulk         entities.BulkKind `json:"bulk,omitempty"`
	Enabled      bool              `json:"enabled,omitempty"`
	Token        string            `json:"token,omitempty"`
	Confirm      bool              `json:"confirm,omitempty"`
}

// ResultEvent answers a CommandEvent on subscription.results
type ResultEvent struct {
	Type      string             `json:"type"`
	RequestID string             `json:"request_id"`
	UserID    int64              `json:"user_id"`
	Result    *Result            `json:"result,omitempty"`
	Ticket    *BulkTicket        `json:"ticket,omitempty"`
	View      *SubscriptionsView `json:"view,omitempty"`
	Kind      suberrors.Kind     `json:"kind,omitempty"`
	Error     string             `json:"error,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

type RaidRow struct {
	SpeciesID int    `json:"species_id"`
	City      string `json:"city"`
}

// ChangedEvent carries the full filter set after a successful save
type ChangedEvent struct {
	UserID    int64          `json:"user_id"`
	Enabled   bool           `json:"enabled"`
	Creatures []CreatureView `json:"creatures"`
	Raids     []RaidRow      `json:"raids"`
	Timestamp int64          `json:"timestamp"`
}

// NewChangedEvent snapshots sub with the current timestamp
func NewChangedEvent(sub *entities.Subscription, displayName func(int) string) *ChangedEvent {
	event := &ChangedEvent{
		UserID:    sub.UserID,
		Enabled:   sub.Enabled,
		Creatures: make([]CreatureView, 0, len(sub.Creatures)),
		Raids:     make([]RaidRow, 0, len(sub.Raids)),
		Timestamp: time.Now().Unix(),
	}
	for _, c := range sub.Creatures {
		event.Creatures = append(event.Creatures, CreatureView{
			SpeciesID:    c.SpeciesID,
			Name:         displayName(c.SpeciesID),
			MinimumIV:    c.MinimumIV,
			MinimumLevel: c.MinimumLevel,
			Gender:       c.Gender,
		})
	}
	for _, r := range sub.Raids {
		event.Raids = append(event.Raids, RaidRow{SpeciesID: r.SpeciesID, City: r.City})
	}
	return event
}
