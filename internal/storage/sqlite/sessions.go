package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/tutord/internal/core"
)

const sessionColumns = `session_id, user_id, topic, total_days, time_per_day,
	status, lesson_plan, current_day, current_topic_index,
	created_at, updated_at, completed_at`

func (s *Store) CreateSession(ctx context.Context, sess *core.Session) error {
	plan, err := marshalPlan(sess.LessonPlan)
	if err != nil {
		return err
	}

	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		sess.ID, sess.UserID, sess.Topic, sess.TotalDays, sess.TimePerDay,
		string(sess.Status), plan, sess.CurrentDay, sess.CurrentTopicIndex,
		sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(), nullableUnix(sess.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: insert session: %v", core.ErrPersistence, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*core.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id)
	return scanSession(row)
}

func (s *Store) ListSessions(ctx context.Context, f core.SessionFilter) ([]*core.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ?`
	args := []any{f.UserID}

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}

	query += ` ORDER BY created_at DESC`
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query sessions: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var sessions []*core.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %v", core.ErrPersistence, err)
	}
	return sessions, nil
}

func (s *Store) CountSessions(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count sessions: %v", core.ErrPersistence, err)
	}
	return count, nil
}

func (s *Store) UpdateSession(ctx context.Context, sess *core.Session) error {
	res, err := s.execUpdateSession(ctx, s.db, sess)
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
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete: %v", core.ErrPersistence, err)
	}
	defer tx.Rollback()

	// Messages and summaries cascade via foreign keys, but delete them
	// explicitly so the behavior does not depend on the connection's
	// foreign_keys pragma.
	for _, q := range []string{
		`DELETE FROM messages WHERE session_id = ?`,
		`DELETE FROM summaries WHERE session_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("%w: cascade delete: %v", core.ErrPersistence, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete session: %v", core.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", core.ErrPersistence, err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete: %v", core.ErrPersistence, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execUpdateSession(ctx context.Context, db execer, sess *core.Session) (sql.Result, error) {
	plan, err := marshalPlan(sess.LessonPlan)
	if err != nil {
		return nil, err
	}

	query := `UPDATE sessions SET
		status = ?, lesson_plan = ?, current_day = ?, current_topic_index = ?,
		updated_at = ?, completed_at = ?
		WHERE session_id = ?`
	res, err := db.ExecContext(ctx, query,
		string(sess.Status), plan, sess.CurrentDay, sess.CurrentTopicIndex,
		sess.UpdatedAt.Unix(), nullableUnix(sess.CompletedAt), sess.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: update session: %v", core.ErrPersistence, err)
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*core.Session, error) {
	var sess core.Session
	var status string
	var plan sql.NullString
	var createdAt, updatedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.Topic, &sess.TotalDays, &sess.TimePerDay,
		&status, &plan, &sess.CurrentDay, &sess.CurrentTopicIndex,
		&createdAt, &updatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan session: %v", core.ErrPersistence, err)
	}

	sess.Status = core.SessionStatus(status)
	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		sess.CompletedAt = &t
	}

	if plan.Valid && plan.String != "" {
		var lp core.LessonPlan
		if err := json.Unmarshal([]byte(plan.String), &lp); err != nil {
			return nil, fmt.Errorf("%w: unmarshal lesson plan: %v", core.ErrPersistence, err)
		}
		sess.LessonPlan = &lp
	}

	return &sess, nil
}

func marshalPlan(plan *core.LessonPlan) (sql.NullString, error) {
	if plan == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("%w: marshal lesson plan: %v", core.ErrPersistence, err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
