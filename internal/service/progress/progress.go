// Package progress is the day/topic state machine. It is pure logic over a
// session's progress fields; persistence and event delivery live elsewhere.
package progress

import (
	"fmt"
	"time"

	"github.com/sandevgo/tutord/internal/core"
)

// Signal is the tutoring collaborator's completion verdict for one
// exchange, parsed from the reply's trailing markers.
type Signal struct {
	TopicComplete bool
	DayComplete   bool
}

// Snapshot is the progress state reported in a terminal done event.
type Snapshot struct {
	CurrentDay        int  `json:"current_day"`
	CurrentTopicIndex int  `json:"current_topic_index"`
	IsDayComplete     bool `json:"is_day_complete"`
	IsCourseComplete  bool `json:"is_course_complete"`
}

// Apply advances the session according to the signal and returns the
// resulting snapshot. COMPLETED sessions never mutate on the signal-driven
// path; only explicit navigation moves them.
func Apply(s *core.Session, sig Signal) Snapshot {
	if s.Status == core.StatusCompleted {
		return Snapshot{
			CurrentDay:        s.CurrentDay,
			CurrentTopicIndex: s.CurrentTopicIndex,
			IsDayComplete:     sig.DayComplete,
			IsCourseComplete:  true,
		}
	}

	snap := Snapshot{
		IsDayComplete: sig.DayComplete,
	}

	switch {
	case sig.DayComplete && s.CurrentDay >= s.TotalDays:
		now := time.Now().UTC()
		s.Status = core.StatusCompleted
		s.CompletedAt = &now
		snap.IsCourseComplete = true

	case sig.DayComplete:
		s.CurrentDay++
		s.CurrentTopicIndex = 0

	case sig.TopicComplete:
		s.CurrentTopicIndex++
		if day := s.Day(s.CurrentDay); day != nil && s.CurrentTopicIndex > len(day.Topics)-1 {
			s.CurrentTopicIndex = len(day.Topics) - 1
		}
	}

	snap.CurrentDay = s.CurrentDay
	snap.CurrentTopicIndex = s.CurrentTopicIndex
	return snap
}

// Start performs the READY -> IN_PROGRESS transition, optionally jumping to
// a requested day first. Resuming an IN_PROGRESS session is permitted.
func Start(s *core.Session, day *int) error {
	switch s.Status {
	case core.StatusPlanning:
		return fmt.Errorf("%w: lesson plan is still being generated", core.ErrStateConflict)
	case core.StatusFailed:
		return fmt.Errorf("%w: plan generation failed", core.ErrStateConflict)
	}

	if day != nil {
		if err := GotoDay(s, *day); err != nil {
			return err
		}
	}
	if s.Status == core.StatusReady {
		s.Status = core.StatusInProgress
		if s.CurrentDay < 1 {
			s.CurrentDay = 1
		}
	}
	return nil
}

// GotoDay moves to an arbitrary day within range and resets the topic
// index. It does not reopen a COMPLETED session.
func GotoDay(s *core.Session, day int) error {
	if day < 1 || day > s.TotalDays {
		return fmt.Errorf("%w: day must be between 1 and %d", core.ErrInvalidDayRange, s.TotalDays)
	}
	s.CurrentDay = day
	s.CurrentTopicIndex = 0
	return nil
}

// AdvanceDay moves to the next day.
func AdvanceDay(s *core.Session) error {
	if s.CurrentDay >= s.TotalDays {
		return fmt.Errorf("%w: already on the last day", core.ErrStateConflict)
	}
	s.CurrentDay++
	s.CurrentTopicIndex = 0
	return nil
}

// Percentage computes course completion as completed topics over total
// topics, rounded to one decimal.
func Percentage(s *core.Session) float64 {
	if s.LessonPlan == nil || len(s.LessonPlan.Days) == 0 {
		return 0
	}

	total := 0
	completed := 0
	for i, day := range s.LessonPlan.Days {
		n := len(day.Topics)
		total += n

		dayNum := i + 1
		switch {
		case s.Status == core.StatusCompleted, dayNum < s.CurrentDay:
			completed += n
		case dayNum == s.CurrentDay:
			if s.CurrentTopicIndex < n {
				completed += s.CurrentTopicIndex
			} else {
				completed += n
			}
		}
	}
	if total == 0 {
		return 0
	}

	pct := float64(completed) / float64(total) * 100
	return float64(int(pct*10+0.5)) / 10
}
