package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/tutord/internal/core"
)

func (s *Store) BufferedMessages(ctx context.Context, sessionID string) ([]core.Message, error) {
	query := `SELECT id, role, content, created_at FROM messages
		WHERE session_id = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: query messages: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", core.ErrPersistence, err)
		}
		msg.Role = core.Role(role)
		msg.CreatedAt = time.Unix(createdAt, 0).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %v", core.ErrPersistence, err)
	}
	return messages, nil
}

func (s *Store) Summaries(ctx context.Context, sessionID string) ([]core.Summary, error) {
	query := `SELECT id, seq, content, created_at FROM summaries
		WHERE session_id = ? ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: query summaries: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var summaries []core.Summary
	for rows.Next() {
		var sum core.Summary
		var createdAt int64
		if err := rows.Scan(&sum.ID, &sum.Seq, &sum.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan summary: %v", core.ErrPersistence, err)
		}
		sum.CreatedAt = time.Unix(createdAt, 0).UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate summaries: %v", core.ErrPersistence, err)
	}
	return summaries, nil
}
