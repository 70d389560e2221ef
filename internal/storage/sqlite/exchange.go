package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/tutord/internal/core"
)

// CommitExchange applies the staged ops of one exchange and the updated
// session row in a single transaction. Ops execute in order: an Append
// inserts at the buffer tail; a Compact inserts the summary with the next
// sequence number and clears the buffer. Compactions fire exactly when the
// buffer holds a full block, so clearing equals deleting that block.
func (s *Store) CommitExchange(ctx context.Context, sess *core.Session, ops []core.ExchangeOp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin exchange: %v", core.ErrPersistence, err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		switch {
		case op.Append != nil:
			msg := op.Append
			if !msg.Role.Valid() {
				return fmt.Errorf("%w: invalid message role %q", core.ErrValidation, msg.Role)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
				sess.ID, string(msg.Role), msg.Content, msg.CreatedAt.Unix())
			if err != nil {
				return fmt.Errorf("%w: insert message: %v", core.ErrPersistence, err)
			}

		case op.Compact != nil:
			var nextSeq int
			err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(seq), 0) + 1 FROM summaries WHERE session_id = ?`,
				sess.ID).Scan(&nextSeq)
			if err != nil {
				return fmt.Errorf("%w: next summary seq: %v", core.ErrPersistence, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO summaries (session_id, seq, content, created_at) VALUES (?, ?, ?, ?)`,
				sess.ID, nextSeq, op.Compact.Content, time.Now().Unix())
			if err != nil {
				return fmt.Errorf("%w: insert summary: %v", core.ErrPersistence, err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM messages WHERE session_id = ?`, sess.ID); err != nil {
				return fmt.Errorf("%w: clear buffer: %v", core.ErrPersistence, err)
			}

		default:
			return fmt.Errorf("%w: empty exchange op", core.ErrValidation)
		}
	}

	res, err := s.execUpdateSession(ctx, tx, sess)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", core.ErrPersistence, err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit exchange: %v", core.ErrPersistence, err)
	}
	return nil
}
