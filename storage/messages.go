package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SaveMessage stores a message, filling in id and creation time.
func (s *SQLiteStorage) SaveMessage(ctx context.Context, m Message) (Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, from_id, to_id, body, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.From, m.To, m.Body, boolInt(m.Read), FormatTimestamp(m.CreatedAt))
	if err != nil {
		return Message{}, fmt.Errorf("failed to save message: %w", err)
	}
	return m, nil
}

// ListMessagesFor returns every message sent or received by participant,
// oldest first.
func (s *SQLiteStorage) ListMessagesFor(ctx context.Context, participant string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_id, to_id, body, is_read, created_at FROM messages
		WHERE from_id = ? OR to_id = ? ORDER BY created_at, rowid`, participant, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		var read int
		var created any
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Body, &read, &created); err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable message row")
			continue
		}
		m.Read = read != 0
		m.CreatedAt, _ = ParseTimestamp(created)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkThreadRead marks every message from other to viewer as read and
// returns how many changed.
func (s *SQLiteStorage) MarkThreadRead(ctx context.Context, viewer, other string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE to_id = ? AND from_id = ? AND is_read = 0`, viewer, other)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return res.RowsAffected()
}
