package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/lib/pq"
)

// Session identifies one run of the recognition loop.
type Session struct {
	ID        uuid.UUID
	Strategy  string
	StartedAt time.Time
	Records   int
}

// AttendanceRepository stores attendance records per session.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// CreateSession registers a new session and returns its ID.
func (r *AttendanceRepository) CreateSession(ctx context.Context, strategy string, startedAt time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		"INSERT INTO attendance_sessions (id, strategy, started_at) VALUES ($1, $2, $3)",
		id, strategy, startedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// SaveRecords upserts records for a session. Stored times only widen: the earliest
// first_seen and the latest last_seen win.
func (r *AttendanceRepository) SaveRecords(ctx context.Context, session uuid.UUID, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance_records (session_id, name, first_seen, last_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, name) DO UPDATE SET
			first_seen = LEAST(attendance_records.first_seen, EXCLUDED.first_seen),
			last_seen = GREATEST(attendance_records.last_seen, EXCLUDED.last_seen)
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, session, rec.Name, rec.FirstSeen, rec.LastSeen); err != nil {
			return fmt.Errorf("upsert record %s: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}

// List returns the records of a session in first-seen order.
func (r *AttendanceRepository) List(ctx context.Context, session uuid.UUID) ([]attendance.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, first_seen, last_seen
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY first_seen, name
	`, session)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.Name, &rec.FirstSeen, &rec.LastSeen); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// ListByNames returns records of a session restricted to the given names.
func (r *AttendanceRepository) ListByNames(ctx context.Context, session uuid.UUID, names []string) ([]attendance.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, first_seen, last_seen
		FROM attendance_records
		WHERE session_id = $1 AND name = ANY($2)
		ORDER BY first_seen, name
	`, session, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("list records by names: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.Name, &rec.FirstSeen, &rec.LastSeen); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// LatestSession returns the most recently started session, or nil if there is none.
func (r *AttendanceRepository) LatestSession(ctx context.Context) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.strategy, s.started_at, COUNT(a.name)
		FROM attendance_sessions s
		LEFT JOIN attendance_records a ON a.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT 1
	`).Scan(&s.ID, &s.Strategy, &s.StartedAt, &s.Records)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return &s, nil
}
