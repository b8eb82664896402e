package outreach

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

// ActiveContacts returns contacts eligible for recomputation: not archived
// and with at least one outgoing message.
func (r *repo) ActiveContacts(ctx context.Context) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.state, c.stage, c.next_action, c.updated_at
		FROM contacts c
		WHERE NOT c.archived
		  AND EXISTS (
			SELECT 1 FROM messages m
			WHERE m.contact_id = c.id AND m.direction = 'outgoing'
		  )
		ORDER BY c.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContacts(rows)
}

func (r *repo) Contact(ctx context.Context, contactID string) (Contact, error) {
	var c Contact
	var state, stage, action string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, state, stage, next_action, updated_at
		FROM contacts
		WHERE id = $1
	`, contactID).Scan(&c.ID, &c.Name, &state, &stage, &action, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, err
	}
	c.State = EngagementState(state)
	c.Stage = OutreachStage(stage)
	c.NextAction = NextAction(action)
	return c, nil
}

func (r *repo) FetchTimeline(ctx context.Context, contactID string) ([]Message, error) {
	if _, err := r.Contact(ctx, contactID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contact_id, direction, body, sent_at
		FROM messages
		WHERE contact_id = $1
		ORDER BY sent_at ASC, id ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var direction string
		if err := rows.Scan(&m.ID, &m.ContactID, &direction, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		m.Direction = Direction(direction)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := ValidateTimeline(out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateState writes state, stage and next action in a single statement so a
// contact is never left with a half-applied decision.
func (r *repo) UpdateState(ctx context.Context, contactID string, state EngagementState, stage OutreachStage, action NextAction, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		SET state = $2, stage = $3, next_action = $4, updated_at = $5
		WHERE id = $1
	`, contactID, string(state), string(stage), string(action), at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) LogTransition(ctx context.Context, t Transition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO state_transitions (contact_id, from_state, to_state, at)
		VALUES ($1, $2, $3, $4)
	`, t.ContactID, string(t.From), string(t.To), t.At)
	return err
}

func (r *repo) Transitions(ctx context.Context, contactID string) ([]Transition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT contact_id, from_state, to_state, at
		FROM state_transitions
		WHERE contact_id = $1
		ORDER BY at ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var from, to string
		if err := rows.Scan(&t.ContactID, &from, &to, &t.At); err != nil {
			return nil, err
		}
		t.From = EngagementState(from)
		t.To = EngagementState(to)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repo) ContactsByStage(ctx context.Context, stage OutreachStage) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, state, stage, next_action, updated_at
		FROM contacts
		WHERE stage = $1 AND NOT archived
		ORDER BY updated_at DESC
	`, string(stage))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]Contact, error) {
	var out []Contact
	for rows.Next() {
		var c Contact
		var state, stage, action string
		if err := rows.Scan(&c.ID, &c.Name, &state, &stage, &action, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.State = EngagementState(state)
		c.Stage = OutreachStage(stage)
		c.NextAction = NextAction(action)
		out = append(out, c)
	}
	return out, rows.Err()
}
