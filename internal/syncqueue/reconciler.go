package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/events"
	"example.com/tribe/internal/observability"
)

// Applier is the remote side the queue drains into. Implementations enforce
// the conflict policy: last-write-wins by operation timestamp, with delete
// tombstones overriding concurrent edits of the same log id.
type Applier interface {
	ApplySaveLog(ctx context.Context, log domain.WorkoutLog) error
	ApplyUpdateLog(ctx context.Context, log domain.WorkoutLog) error
	ApplyDeleteLog(ctx context.Context, logID string, at time.Time) error
	ApplyUpdateProfile(ctx context.Context, profile domain.UserProfile) error
}

// deleteLogPayload is the wire shape for queued deletions.
type deleteLogPayload struct {
	LogID      string    `json:"log_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Reconciler drains the offline queue strictly in enqueue order. An entry is
// removed only after its remote apply succeeds; on failure it stays queued
// and the drain stops so later operations on the same entity cannot jump
// ahead. Entries that repeatedly fail are quarantined instead of blocking
// the queue forever.
type Reconciler struct {
	store       Store
	applier     Applier
	emitter     events.Emitter
	maxAttempts int
	logger      *log.Logger
	now         func() time.Time
}

// Option configures optional reconciler behaviour.
type Option func(*Reconciler)

// WithLogger overrides the logger used to report failures.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// WithMaxAttempts overrides the quarantine threshold.
func WithMaxAttempts(attempts int) Option {
	return func(r *Reconciler) { r.maxAttempts = attempts }
}

// NewReconciler constructs a Reconciler.
func NewReconciler(store Store, applier Applier, emitter events.Emitter, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:       store,
		applier:     applier,
		emitter:     emitter,
		maxAttempts: 5,
		logger:      log.New(log.Writer(), "[reconciler] ", log.LstdFlags),
		now:         time.Now,
	}
	if r.emitter == nil {
		r.emitter = events.Noop{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enqueue buffers a mutation for later replay.
func (r *Reconciler) Enqueue(ctx context.Context, deviceID string, op Operation, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	entry := Entry{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		Operation:  op,
		Payload:    body,
		EnqueuedAt: r.now().UTC(),
	}
	return r.store.Append(ctx, entry)
}

// EnqueueDeleteLog buffers a tombstone for the given log id.
func (r *Reconciler) EnqueueDeleteLog(ctx context.Context, deviceID, logID string) error {
	return r.Enqueue(ctx, deviceID, OpDeleteLog, deleteLogPayload{LogID: logID, OccurredAt: r.now().UTC()})
}

// DrainAll drains every device with pending entries. Used by the background
// worker; the API drains a single device right after a sync upload.
func (r *Reconciler) DrainAll(ctx context.Context) {
	devices, err := r.store.Devices(ctx)
	if err != nil {
		r.logger.Printf("device listing failed: %v", err)
		return
	}
	for _, deviceID := range devices {
		if ctx.Err() != nil {
			return
		}
		r.Drain(ctx, deviceID)
	}
}

// Drain replays the device's queued operations. It never returns an error
// for apply failures: those are reported via the side channel (events and
// metrics) and retried on the next drain, preserving order.
func (r *Reconciler) Drain(ctx context.Context, deviceID string) {
	entries, err := r.store.List(ctx, deviceID)
	if err != nil {
		r.logger.Printf("list failed for device %s: %v", deviceID, err)
		return
	}
	if len(entries) == 0 {
		return
	}

	started := r.now().UTC()
	r.emit(ctx, "sync.started", deviceID, events.SyncStarted{DeviceID: deviceID, Pending: len(entries), OccurredAt: started})

	applied, failed, quarantined := 0, 0, 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			break
		}

		applyErr := r.applyEntry(ctx, entry)
		if applyErr == nil {
			if removeErr := r.store.Remove(ctx, entry.ID); removeErr != nil {
				r.logger.Printf("remove failed for entry %s: %v", entry.ID, removeErr)
				break
			}
			applied++
			observability.RecordSyncApplied(string(entry.Operation))
			continue
		}

		entry.Attempts++
		entry.LastError = applyErr.Error()

		var parseErr *parseError
		exhausted := entry.Attempts >= r.maxAttempts
		if errors.As(applyErr, &parseErr) || exhausted {
			// Corrupt or repeatedly failing entries are isolated so the
			// rest of the queue is not blocked forever.
			at := r.now().UTC()
			entry.QuarantinedAt = &at
			if updateErr := r.store.Update(ctx, entry); updateErr != nil {
				r.logger.Printf("quarantine failed for entry %s: %v", entry.ID, updateErr)
				break
			}
			quarantined++
			observability.RecordSyncQuarantined(string(entry.Operation))
			r.logger.Printf("quarantined entry %s (%s) after %d attempts: %v", entry.ID, entry.Operation, entry.Attempts, applyErr)
			continue
		}

		if updateErr := r.store.Update(ctx, entry); updateErr != nil {
			r.logger.Printf("update failed for entry %s: %v", entry.ID, updateErr)
		}
		failed++
		observability.RecordSyncFailed(string(entry.Operation))
		r.logger.Printf("apply failed for entry %s (%s), stopping drain: %v", entry.ID, entry.Operation, applyErr)
		// Stop here: replaying later entries out of order could resurrect
		// deleted logs or revert edits.
		break
	}

	finished := r.now().UTC()
	observability.RecordDrainFinished(finished)
	r.emit(ctx, "sync.finished", deviceID, events.SyncFinished{
		DeviceID:    deviceID,
		Applied:     applied,
		Failed:      failed,
		Quarantined: quarantined,
		OccurredAt:  finished,
	})
}

func (r *Reconciler) applyEntry(ctx context.Context, entry Entry) error {
	switch entry.Operation {
	case OpSaveLog, OpUpdateLog:
		var logEntry domain.WorkoutLog
		if err := json.Unmarshal(entry.Payload, &logEntry); err != nil {
			return &parseError{cause: err}
		}
		if logEntry.ID == "" {
			return &parseError{cause: errors.New("missing log_id")}
		}
		if entry.Operation == OpSaveLog {
			return r.applier.ApplySaveLog(ctx, logEntry)
		}
		return r.applier.ApplyUpdateLog(ctx, logEntry)
	case OpDeleteLog:
		var payload deleteLogPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return &parseError{cause: err}
		}
		if payload.LogID == "" {
			return &parseError{cause: errors.New("missing log_id")}
		}
		return r.applier.ApplyDeleteLog(ctx, payload.LogID, payload.OccurredAt)
	case OpUpdateProfile:
		var profile domain.UserProfile
		if err := json.Unmarshal(entry.Payload, &profile); err != nil {
			return &parseError{cause: err}
		}
		if profile.UserID == "" {
			return &parseError{cause: errors.New("missing user_id")}
		}
		return r.applier.ApplyUpdateProfile(ctx, profile)
	default:
		return &parseError{cause: fmt.Errorf("unknown operation %q", entry.Operation)}
	}
}

func (r *Reconciler) emit(ctx context.Context, eventType, deviceID string, payload interface{}) {
	if err := r.emitter.Emit(ctx, events.TopicSyncEvents, eventType, deviceID, payload); err != nil {
		r.logger.Printf("emit %s failed: %v", eventType, err)
	}
}

// parseError marks an entry as structurally unrecoverable: retrying cannot
// fix it, so it is quarantined immediately.
type parseError struct {
	cause error
}

func (e *parseError) Error() string { return "unparseable queue entry: " + e.cause.Error() }
func (e *parseError) Unwrap() error { return e.cause }
