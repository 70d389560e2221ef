// Package plan generates lesson plans through the planner model and
// drives the session out of the PLANNING status.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/pkg/log"
	"github.com/sandevgo/tutord/pkg/retry"
)

type Service struct {
	provider core.ChatProvider
	repo     core.Repository
	retryCfg *retry.Config
}

func NewService(provider core.ChatProvider, repo core.Repository, maxRetries int) *Service {
	cfg := retry.NewDefaultConfig()
	cfg.MaxRetries = maxRetries
	return &Service{
		provider: provider,
		repo:     repo,
		retryCfg: cfg,
	}
}

// Generate builds the lesson plan for sess and persists the outcome:
// READY with the plan attached on success, FAILED when every attempt is
// exhausted. It is meant to run in its own goroutine after session
// creation, with a context detached from the originating request.
func (s *Service) Generate(ctx context.Context, sess *core.Session) {
	ctx = log.WithSession(ctx, sess.ID)
	logger := log.FromCtx(ctx)

	plan, err := s.generate(ctx, sess.Topic, sess.TotalDays, sess.TimePerDay)

	now := time.Now()
	sess.UpdatedAt = now
	if err != nil {
		logger.Error().Err(err).Msg("lesson plan generation failed")
		sess.Status = core.StatusFailed
	} else {
		sess.LessonPlan = plan
		sess.Status = core.StatusReady
	}

	if uerr := s.repo.UpdateSession(ctx, sess); uerr != nil {
		logger.Error().Err(uerr).Msg("failed to persist plan generation outcome")
		return
	}

	if err == nil {
		logger.Info().Int("days", len(plan.Days)).Msg("lesson plan ready")
	}
}

func (s *Service) generate(ctx context.Context, topic string, totalDays int, timePerDay string) (*core.LessonPlan, error) {
	logger := log.FromCtx(ctx)

	prompt := buildPlanPrompt(topic, totalDays, timePerDay)
	messages := []core.Message{
		{Role: core.RoleSystem, Content: planSystemPrompt},
		{Role: core.RoleHuman, Content: prompt},
	}

	retrier := retry.NewRetrier(s.retryCfg)
	retrier.OnRetry = func(attempt int, err error) {
		logger.Warn().Err(err).Int("attempt", attempt).Msg("retrying plan generation")
	}

	var plan *core.LessonPlan
	err := retrier.Do(ctx, func() error {
		reply, err := s.provider.Chat(ctx, messages)
		if err != nil {
			return err
		}
		parsed, err := parsePlan(reply.Content, totalDays)
		if err != nil {
			return err
		}
		plan = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: plan generation: %v", core.ErrUpstream, err)
	}
	return plan, nil
}

// parsePlan decodes the model output into a LessonPlan, tolerating
// markdown code fences around the JSON body.
func parsePlan(raw string, totalDays int) (*core.LessonPlan, error) {
	text := stripFences(raw)

	var plan core.LessonPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if len(plan.Days) == 0 {
		return nil, fmt.Errorf("plan has no days")
	}
	if plan.TotalDays == 0 {
		plan.TotalDays = totalDays
	}
	for i := range plan.Days {
		if plan.Days[i].Day == 0 {
			plan.Days[i].Day = i + 1
		}
		if len(plan.Days[i].Topics) == 0 {
			return nil, fmt.Errorf("day %d has no topics", plan.Days[i].Day)
		}
	}
	return &plan, nil
}

func stripFences(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
