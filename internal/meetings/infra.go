package meetings

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) ListMeetings(ctx context.Context, ownerID string, status Status) ([]Meeting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_user_id, start_time, duration_minutes, status, created_at
		FROM meetings
		WHERE owner_user_id = $1 AND status = $2
		ORDER BY start_time ASC
	`, ownerID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meeting
	for rows.Next() {
		var m Meeting
		var id, st string
		var minutes int
		if err := rows.Scan(&id, &m.OwnerID, &m.StartTime, &minutes, &st, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		m.Duration = time.Duration(minutes) * time.Minute
		m.Status = Status(st)
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertScheduled takes a per-owner advisory lock for the duration of the
// transaction, then rechecks the overlap before inserting. Two transactions
// for the same owner cannot both pass the check, even from different
// processes; a plain row lock would not cover the no-existing-rows case.
func (s *store) InsertScheduled(ctx context.Context, ownerID string, start time.Time, duration time.Duration) (Meeting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Meeting{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		return Meeting{}, err
	}

	var clash bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM meetings
			WHERE owner_user_id = $1
			  AND status = 'scheduled'
			  AND start_time < $3
			  AND start_time + make_interval(mins => duration_minutes) > $2
		)
	`, ownerID, start, start.Add(duration)).Scan(&clash)
	if err != nil {
		return Meeting{}, err
	}
	if clash {
		return Meeting{}, ErrConflict
	}

	m := Meeting{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		StartTime: start,
		Duration:  duration,
		Status:    StatusScheduled,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO meetings (id, owner_user_id, start_time, duration_minutes, status)
		VALUES ($1, $2, $3, $4, 'scheduled')
		RETURNING created_at
	`, m.ID.String(), ownerID, start, int(duration.Minutes())).Scan(&m.CreatedAt)
	if err != nil {
		return Meeting{}, err
	}

	if err := tx.Commit(); err != nil {
		return Meeting{}, err
	}
	return m, nil
}

func (s *store) Cancel(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE meetings
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'scheduled'
	`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
