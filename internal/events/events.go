// Package events defines cross-component event payloads and their transport.
package events

import "time"

// Topics carrying tribe service events.
const (
	TopicLogEvents          = "tribe_log_events"
	TopicGamificationEvents = "tribe_gamification_events"
	TopicSyncEvents         = "tribe_sync_events"
)

// LogSaved is emitted after a workout log is durably stored.
type LogSaved struct {
	LogID      string    `json:"log_id"`
	UserID     string    `json:"user_id"`
	TribeID    string    `json:"tribe_id,omitempty"`
	Type       string    `json:"type"`
	XP         int       `json:"xp"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LogDeleted is emitted when a log is tombstoned.
type LogDeleted struct {
	LogID      string    `json:"log_id"`
	UserID     string    `json:"user_id"`
	TribeID    string    `json:"tribe_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// QuestUpdated signals quest progress or completion for UI refresh.
type QuestUpdated struct {
	UserID     string    `json:"user_id"`
	QuestID    string    `json:"quest_id"`
	Progress   int       `json:"progress"`
	Completed  bool      `json:"completed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BadgeUnlocked is emitted once per newly earned badge.
type BadgeUnlocked struct {
	UserID     string    `json:"user_id"`
	BadgeID    string    `json:"badge_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SyncStarted marks the beginning of an offline queue drain.
type SyncStarted struct {
	DeviceID   string    `json:"device_id"`
	Pending    int       `json:"pending"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SyncFinished reports the outcome of a queue drain.
type SyncFinished struct {
	DeviceID    string    `json:"device_id"`
	Applied     int       `json:"applied"`
	Failed      int       `json:"failed"`
	Quarantined int       `json:"quarantined"`
	OccurredAt  time.Time `json:"occurred_at"`
}
