package domain

import "time"

// EventCategory classifies a news entry.
type EventCategory string

const (
	EventCombatDeath EventCategory = "combat-death"
	EventForestKill  EventCategory = "forest-kill"
	EventLevelUp     EventCategory = "level-up"
	EventMarriage    EventCategory = "marriage"
	EventDuel        EventCategory = "duel-outcome"
	EventDailyReset  EventCategory = "daily-reset"
)

// Event is a single daily-news entry. Entries are immutable once written;
// they are appended at the moment of the triggering outcome and never
// updated afterwards.
type Event struct {
	ID        int64         `json:"id"`
	Category  EventCategory `json:"category"`
	Message   string        `json:"message"`
	Actor     string        `json:"actor,omitempty"`
	Target    string        `json:"target,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewEvent builds an unsaved news entry stamped with the current time.
func NewEvent(category EventCategory, message, actor, target string) Event {
	return Event{
		Category:  category,
		Message:   message,
		Actor:     actor,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
}
