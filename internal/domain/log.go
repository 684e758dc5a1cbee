// Package domain defines the core data model for the tribe service.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrLogNotFound is returned when a workout log cannot be located.
	ErrLogNotFound = errors.New("workout log not found")
	// ErrProfileNotFound is returned when a user profile cannot be located.
	ErrProfileNotFound = errors.New("user profile not found")
	// ErrInvalidLog wraps per-variant validation failures at the store boundary.
	ErrInvalidLog = errors.New("invalid workout log")
)

// WorkoutType tags the variant of a workout log.
type WorkoutType string

const (
	WorkoutTypeA          WorkoutType = "A"
	WorkoutTypeB          WorkoutType = "B"
	WorkoutTypeCustom     WorkoutType = "CUSTOM"
	WorkoutTypeCommitment WorkoutType = "COMMITMENT"
)

// Set is a single set within an exercise.
type Set struct {
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	Completed bool    `json:"completed"`
}

// Exercise is an ordered group of sets under one movement name.
type Exercise struct {
	Name string `json:"name"`
	Sets []Set  `json:"sets"`
}

// WorkoutLog is the append-only activity record. Logs are replaced in place
// (same ID) when a commitment is upgraded, and soft-deleted via the tombstone
// flag; they are never otherwise mutated.
type WorkoutLog struct {
	ID             string      `json:"log_id"`
	UserID         string      `json:"user_id"`
	TribeID        string      `json:"tribe_id,omitempty"`
	Date           time.Time   `json:"date"`
	Type           WorkoutType `json:"type"`
	Exercises      []Exercise  `json:"exercises,omitempty"`
	DurationMin    int         `json:"duration_min"`
	Calories       int         `json:"calories,omitempty"`
	Vibes          int         `json:"vibes,omitempty"`
	CustomActivity string      `json:"custom_activity,omitempty"`
	Deleted        bool        `json:"deleted,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Qualifying reports whether the log counts toward streaks and workout
// totals. Commitments signal intent only and tombstones are invisible.
func (l WorkoutLog) Qualifying() bool {
	return !l.Deleted && l.Type != WorkoutTypeCommitment
}

// CompletedVolume sums reps x weight over completed sets.
func (l WorkoutLog) CompletedVolume() float64 {
	var total float64
	for _, exercise := range l.Exercises {
		for _, set := range exercise.Sets {
			if set.Completed {
				total += float64(set.Reps) * set.Weight
			}
		}
	}
	return total
}

// Validate checks the per-variant payload shape before the log reaches the store.
func (l WorkoutLog) Validate() error {
	if strings.TrimSpace(l.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidLog)
	}
	if l.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidLog)
	}

	switch l.Type {
	case WorkoutTypeA, WorkoutTypeB:
		if len(l.Exercises) == 0 {
			return fmt.Errorf("%w: structured %s log requires exercises", ErrInvalidLog, l.Type)
		}
		for _, exercise := range l.Exercises {
			if strings.TrimSpace(exercise.Name) == "" {
				return fmt.Errorf("%w: exercise name is required", ErrInvalidLog)
			}
		}
	case WorkoutTypeCustom:
		if strings.TrimSpace(l.CustomActivity) == "" && l.Calories <= 0 && l.Vibes <= 0 {
			return fmt.Errorf("%w: custom log requires an activity label, calories, or a vibes score", ErrInvalidLog)
		}
	case WorkoutTypeCommitment:
		if len(l.Exercises) > 0 {
			return fmt.Errorf("%w: commitment log must not carry exercises", ErrInvalidLog)
		}
	default:
		return fmt.Errorf("%w: unknown workout type %q", ErrInvalidLog, l.Type)
	}
	return nil
}
