package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/tribe/internal/syncqueue"
)

// QueueStore is the Postgres implementation of the offline sync queue.
type QueueStore struct {
	pool *pgxpool.Pool
}

// NewQueueStore constructs a QueueStore.
func NewQueueStore(pool *pgxpool.Pool) *QueueStore {
	return &QueueStore{pool: pool}
}

// Append implements syncqueue.Store.
func (s *QueueStore) Append(ctx context.Context, entry syncqueue.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_queue (entry_id, device_id, operation, payload, enqueued_at, attempts, last_error, quarantined_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		entry.ID,
		entry.DeviceID,
		string(entry.Operation),
		[]byte(entry.Payload),
		entry.EnqueuedAt,
		entry.Attempts,
		entry.LastError,
		entry.QuarantinedAt,
	)
	return err
}

// List implements syncqueue.Store: live entries only, append order. The
// seq column breaks ties between equal enqueue timestamps.
func (s *QueueStore) List(ctx context.Context, deviceID string) ([]syncqueue.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entry_id, seq, device_id, operation, payload, enqueued_at, attempts, last_error, quarantined_at
		FROM sync_queue
		WHERE device_id=$1 AND quarantined_at IS NULL
		ORDER BY seq`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []syncqueue.Entry
	for rows.Next() {
		var (
			entry   syncqueue.Entry
			op      string
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Seq, &entry.DeviceID, &op, &payload, &entry.EnqueuedAt, &entry.Attempts, &entry.LastError, &entry.QuarantinedAt); err != nil {
			return nil, err
		}
		entry.Operation = syncqueue.Operation(op)
		entry.Payload = payload
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Devices implements syncqueue.Store.
func (s *QueueStore) Devices(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT device_id FROM sync_queue WHERE quarantined_at IS NULL ORDER BY device_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var deviceID string
		if err := rows.Scan(&deviceID); err != nil {
			return nil, err
		}
		out = append(out, deviceID)
	}
	return out, rows.Err()
}

// Update implements syncqueue.Store.
func (s *QueueStore) Update(ctx context.Context, entry syncqueue.Entry) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_queue SET attempts=$2, last_error=$3, quarantined_at=$4 WHERE entry_id=$1`,
		entry.ID,
		entry.Attempts,
		entry.LastError,
		entry.QuarantinedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("queue entry not found")
	}
	return nil
}

// Remove implements syncqueue.Store.
func (s *QueueStore) Remove(ctx context.Context, entryID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sync_queue WHERE entry_id=$1`, entryID)
	return err
}

var _ syncqueue.Store = (*QueueStore)(nil)
