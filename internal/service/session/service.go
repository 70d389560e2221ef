// Package session holds the lifecycle operations for learning sessions:
// creation with asynchronous plan generation, listing, progress queries
// and explicit day navigation.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/internal/service/plan"
	"github.com/sandevgo/tutord/internal/service/progress"
	"github.com/sandevgo/tutord/pkg/log"
)

const (
	minTopicLen = 3
	maxTopicLen = 500
	maxDays     = 90

	defaultDays       = 7
	defaultTimePerDay = "1 hour"
)

type Service struct {
	repo    core.Repository
	planner *plan.Service

	// baseCtx outlives incoming requests; plan generation keeps running
	// after the creating request returns.
	baseCtx context.Context
}

func NewService(baseCtx context.Context, repo core.Repository, planner *plan.Service) *Service {
	return &Service{repo: repo, planner: planner, baseCtx: baseCtx}
}

type CreateInput struct {
	Topic      string `json:"topic"`
	TotalDays  int    `json:"total_days"`
	TimePerDay string `json:"time_per_day"`
}

func (in *CreateInput) validate() error {
	in.Topic = strings.TrimSpace(in.Topic)
	if len(in.Topic) < minTopicLen || len(in.Topic) > maxTopicLen {
		return fmt.Errorf("%w: topic must be %d to %d characters", core.ErrValidation, minTopicLen, maxTopicLen)
	}
	if in.TotalDays == 0 {
		in.TotalDays = defaultDays
	}
	if in.TotalDays < 1 || in.TotalDays > maxDays {
		return fmt.Errorf("%w: total_days must be between 1 and %d", core.ErrValidation, maxDays)
	}
	if strings.TrimSpace(in.TimePerDay) == "" {
		in.TimePerDay = defaultTimePerDay
	}
	return nil
}

// Create persists a new PLANNING session and kicks off plan generation in
// the background. The returned session reflects the pre-generation state.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*core.Session, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &core.Session{
		ID:                uuid.NewString(),
		UserID:            userID,
		Topic:             in.Topic,
		TotalDays:         in.TotalDays,
		TimePerDay:        in.TimePerDay,
		Status:            core.StatusPlanning,
		CurrentDay:        1,
		CurrentTopicIndex: 0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	log.FromCtx(ctx).Info().
		Str("session_id", sess.ID).
		Str("topic", sess.Topic).
		Int("total_days", sess.TotalDays).
		Msg("session created, generating plan")

	genSess := *sess
	go s.planner.Generate(s.baseCtx, &genSess)

	return sess, nil
}

// Get returns the session when it belongs to userID. Foreign sessions are
// indistinguishable from missing ones.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (*core.Session, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, fmt.Errorf("%w: session %s", core.ErrNotFound, sessionID)
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context, userID string, status core.SessionStatus, limit, offset int) ([]*core.Session, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := s.repo.ListSessions(ctx, core.SessionFilter{
		UserID: userID,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountSessions(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (s *Service) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := s.Get(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, sessionID)
}

// Plan returns the full lesson plan, or ErrStateConflict while generation
// is still pending or has failed.
func (s *Service) Plan(ctx context.Context, userID, sessionID string) (*core.LessonPlan, error) {
	sess, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.LessonPlan == nil {
		return nil, fmt.Errorf("%w: no lesson plan for %s session", core.ErrStateConflict, sess.Status)
	}
	return sess.LessonPlan, nil
}

// DayPlan returns a single day of the lesson plan.
func (s *Service) DayPlan(ctx context.Context, userID, sessionID string, day int) (*core.DayPlan, error) {
	sess, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.LessonPlan == nil {
		return nil, fmt.Errorf("%w: no lesson plan for %s session", core.ErrStateConflict, sess.Status)
	}
	if day < 1 || day > sess.TotalDays {
		return nil, fmt.Errorf("%w: day must be between 1 and %d", core.ErrInvalidDayRange, sess.TotalDays)
	}
	dp := sess.Day(day)
	if dp == nil {
		return nil, fmt.Errorf("%w: day %d", core.ErrNotFound, day)
	}
	return dp, nil
}

// Progress is the projection reported by read and mutation endpoints.
type Progress struct {
	SessionID          string             `json:"session_id"`
	Status             core.SessionStatus `json:"status"`
	CurrentDay         int                `json:"current_day"`
	CurrentTopicIndex  int                `json:"current_topic_index"`
	TotalDays          int                `json:"total_days"`
	IsComplete         bool               `json:"is_complete"`
	ProgressPercentage float64            `json:"progress_percentage"`
}

func projectProgress(sess *core.Session) *Progress {
	return &Progress{
		SessionID:          sess.ID,
		Status:             sess.Status,
		CurrentDay:         sess.CurrentDay,
		CurrentTopicIndex:  sess.CurrentTopicIndex,
		TotalDays:          sess.TotalDays,
		IsComplete:         sess.Status == core.StatusCompleted,
		ProgressPercentage: progress.Percentage(sess),
	}
}

func (s *Service) Progress(ctx context.Context, userID, sessionID string) (*Progress, error) {
	sess, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return projectProgress(sess), nil
}

// AdvanceDay moves the session to the next day.
func (s *Service) AdvanceDay(ctx context.Context, userID, sessionID string) (*Progress, error) {
	return s.navigate(ctx, userID, sessionID, progress.AdvanceDay)
}

// GotoDay moves the session to an arbitrary day within the plan.
func (s *Service) GotoDay(ctx context.Context, userID, sessionID string, day int) (*Progress, error) {
	return s.navigate(ctx, userID, sessionID, func(sess *core.Session) error {
		return progress.GotoDay(sess, day)
	})
}

func (s *Service) navigate(ctx context.Context, userID, sessionID string, move func(*core.Session) error) (*Progress, error) {
	sess, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := move(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}
	return projectProgress(sess), nil
}

// UpdateProgressInput is the generic progress patch. Nil fields are left
// untouched.
type UpdateProgressInput struct {
	CurrentDay        *int                `json:"current_day"`
	CurrentTopicIndex *int                `json:"current_topic_index"`
	Status            *core.SessionStatus `json:"status"`
}

// UpdateProgress applies a partial progress patch.
func (s *Service) UpdateProgress(ctx context.Context, userID, sessionID string, in UpdateProgressInput) (*Progress, error) {
	return s.navigate(ctx, userID, sessionID, func(sess *core.Session) error {
		if in.CurrentDay != nil {
			if err := progress.GotoDay(sess, *in.CurrentDay); err != nil {
				return err
			}
		}
		if in.CurrentTopicIndex != nil {
			if *in.CurrentTopicIndex < 0 {
				return fmt.Errorf("%w: current_topic_index must not be negative", core.ErrValidation)
			}
			sess.CurrentTopicIndex = *in.CurrentTopicIndex
		}
		if in.Status != nil {
			switch *in.Status {
			case core.StatusInProgress, core.StatusCompleted:
				sess.Status = *in.Status
				if *in.Status == core.StatusCompleted && sess.CompletedAt == nil {
					now := time.Now().UTC()
					sess.CompletedAt = &now
				}
			default:
				return fmt.Errorf("%w: status %q cannot be set directly", core.ErrValidation, *in.Status)
			}
		}
		return nil
	})
}

// HistoryEntry is one item of the visible conversation: either a live
// buffered message or a compacted summary that stands in for an older
// block.
type HistoryEntry struct {
	Kind      string    `json:"kind"` // "summary" or "message"
	Role      core.Role `json:"role,omitempty"`
	Content   string    `json:"content"`
	Seq       int       `json:"seq,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// History is the read-only conversation projection: summaries in order,
// then the current buffer, with counts and the session's position.
type History struct {
	Entries      []HistoryEntry `json:"history"`
	MessageCount int            `json:"message_count"`
	SummaryCount int            `json:"summary_count"`
	CurrentDay   int            `json:"current_day"`
}

func (s *Service) History(ctx context.Context, userID, sessionID string) (*History, error) {
	sess, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.repo.Summaries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.BufferedMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(summaries)+len(messages))
	for _, sum := range summaries {
		entries = append(entries, HistoryEntry{
			Kind:      "summary",
			Content:   sum.Content,
			Seq:       sum.Seq,
			CreatedAt: sum.CreatedAt,
		})
	}
	for _, msg := range messages {
		entries = append(entries, HistoryEntry{
			Kind:      "message",
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return &History{
		Entries:      entries,
		MessageCount: len(messages),
		SummaryCount: len(summaries),
		CurrentDay:   sess.CurrentDay,
	}, nil
}
