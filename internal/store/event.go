package store

import (
	"database/sql"
	"time"
)

// DefaultEventLimit caps event listings when no limit is given.
const DefaultEventLimit = 500

// Event is one journaled pointer action and the gesture that produced it.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Gesture   string    `json:"gesture"`
	Action    string    `json:"action"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Delta     int       `json:"delta"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository provides access to journaled events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create appends an event. CreatedAt is set to now when zero.
func (r *EventRepository) Create(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO events (session_id, gesture, action, x, y, delta, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Gesture, e.Action, e.X, e.Y, e.Delta, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns up to limit events of a session, oldest first.
// A non-positive limit uses DefaultEventLimit.
func (r *EventRepository) ListBySession(sessionID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, gesture, action, x, y, delta, created_at
		 FROM events WHERE session_id = ? ORDER BY id ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Gesture, &e.Action, &e.X, &e.Y, &e.Delta, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// CountBySession returns the number of events journaled for a session.
func (r *EventRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
