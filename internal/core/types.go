package core

import "time"

const (
	TutordName    = "tutord"
	TutordVersion = "0.1.0"
)

// Role is the closed set of message authors. Stored values are stable;
// provider adapters map RoleHuman to the wire-level "user" role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAssistant:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a learning session.
type SessionStatus string

const (
	StatusPlanning   SessionStatus = "PLANNING"
	StatusReady      SessionStatus = "READY"
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusCompleted  SessionStatus = "COMPLETED"
	StatusFailed     SessionStatus = "FAILED"
)

// Chatable reports whether the session accepts tutoring exchanges.
func (s SessionStatus) Chatable() bool {
	return s == StatusReady || s == StatusInProgress
}

// Session is the durable record of one learner's course instance.
// Topic, TotalDays and TimePerDay are immutable after creation; progress
// fields mutate only through the progress state machine.
type Session struct {
	ID                string        `json:"session_id"`
	UserID            string        `json:"user_id"`
	Topic             string        `json:"topic"`
	TotalDays         int           `json:"total_days"`
	TimePerDay        string        `json:"time_per_day"`
	Status            SessionStatus `json:"status"`
	LessonPlan        *LessonPlan   `json:"lesson_plan,omitempty"`
	CurrentDay        int           `json:"current_day"`
	CurrentTopicIndex int           `json:"current_topic_index"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// Day returns the plan for the session's current day, or nil when the plan
// is missing or the day is out of plan range.
func (s *Session) Day(day int) *DayPlan {
	if s.LessonPlan == nil || day < 1 || day > len(s.LessonPlan.Days) {
		return nil
	}
	return &s.LessonPlan.Days[day-1]
}

// LessonPlan is the generated curriculum. Immutable once attached.
type LessonPlan struct {
	Title      string    `json:"title,omitempty"`
	Overview   string    `json:"overview,omitempty"`
	TotalDays  int       `json:"total_days"`
	TimePerDay string    `json:"time_per_day,omitempty"`
	Days       []DayPlan `json:"days"`
}

type DayPlan struct {
	Day               int         `json:"day"`
	Title             string      `json:"title"`
	Objectives        []string    `json:"objectives,omitempty"`
	EstimatedDuration string      `json:"estimated_duration,omitempty"`
	Topics            []TopicPlan `json:"topics"`
	DaySummary        string      `json:"day_summary,omitempty"`
}

type TopicPlan struct {
	Name             string   `json:"name"`
	Duration         string   `json:"duration,omitempty"`
	KeyConcepts      []string `json:"key_concepts,omitempty"`
	TeachingApproach string   `json:"teaching_approach,omitempty"`
	CheckQuestions   []string `json:"check_questions,omitempty"`
}

// Message is one chat exchange entry. Append-only once written.
type Message struct {
	ID        int64     `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// Summary is one compacted block of buffered messages. Seq is 1-based and
// gapless per session: summary k covers exactly the k-th block of N
// buffered messages in chronological order.
type Summary struct {
	ID        int64     `json:"id,omitempty"`
	Seq       int       `json:"seq"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
