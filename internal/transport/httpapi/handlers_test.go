package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tutord/internal/config"
	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/internal/service/chat"
	"github.com/sandevgo/tutord/internal/service/memory"
	"github.com/sandevgo/tutord/internal/service/plan"
	"github.com/sandevgo/tutord/internal/service/session"
	"github.com/sandevgo/tutord/internal/service/tutor"
)

type memRepo struct {
	mu        sync.Mutex
	sessions  map[string]*core.Session
	messages  map[string][]core.Message
	summaries map[string][]core.Summary
}

func newMemRepo() *memRepo {
	return &memRepo{
		sessions:  make(map[string]*core.Session),
		messages:  make(map[string][]core.Message),
		summaries: make(map[string][]core.Summary),
	}
}

func (r *memRepo) CreateSession(ctx context.Context, s *core.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memRepo) GetSession(ctx context.Context, id string) (*core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	cp := *s
	return &cp, nil
}

func (r *memRepo) ListSessions(ctx context.Context, f core.SessionFilter) ([]*core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*core.Session
	for _, s := range r.sessions {
		if s.UserID == f.UserID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) CountSessions(ctx context.Context, userID string) (int, error) {
	s, _ := r.ListSessions(ctx, core.SessionFilter{UserID: userID})
	return len(s), nil
}

func (r *memRepo) UpdateSession(ctx context.Context, s *core.Session) error {
	return r.CreateSession(ctx, s)
}

func (r *memRepo) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

func (r *memRepo) BufferedMessages(ctx context.Context, sessionID string) ([]core.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Message(nil), r.messages[sessionID]...), nil
}

func (r *memRepo) Summaries(ctx context.Context, sessionID string) ([]core.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Summary(nil), r.summaries[sessionID]...), nil
}

func (r *memRepo) CommitExchange(ctx context.Context, s *core.Session, ops []core.ExchangeOp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range ops {
		if op.Append != nil {
			r.messages[s.ID] = append(r.messages[s.ID], *op.Append)
		}
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memRepo) Ping(ctx context.Context) error { return nil }
func (r *memRepo) Close() error                   { return nil }

// scriptedProvider answers Chat with a fixed reply and streams fragments.
type scriptedProvider struct {
	reply     string
	fragments []string
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []core.Message) (core.Message, error) {
	return core.Message{Role: core.RoleAssistant, Content: p.reply}, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, messages []core.Message, onDelta func(string) error) (string, error) {
	var full strings.Builder
	for _, f := range p.fragments {
		if err := onDelta(f); err != nil {
			return "", err
		}
		full.WriteString(f)
	}
	return full.String(), nil
}

type summarizerStub struct{}

func (summarizerStub) Summarize(ctx context.Context, messages []core.Message) (string, error) {
	return "summary", nil
}

func testRouter(repo *memRepo, tutorProvider core.ChatProvider, threshold int) http.Handler {
	planProvider := &scriptedProvider{reply: `{"days": [
		{"day": 1, "title": "Day 1", "topics": [{"name": "A"}, {"name": "B"}]},
		{"day": 2, "title": "Day 2", "topics": [{"name": "C"}]}
	]}`}

	sessions := session.NewService(context.Background(), repo, plan.NewService(planProvider, repo, 0))
	orchestrator := chat.NewOrchestrator(repo, tutor.New(tutorProvider),
		memory.NewBuffer(summarizerStub{}, 10), chat.NewResponsePlanner(threshold))

	cfg := &config.ServerConfig{AllowedOrigin: "*"}
	return Router(cfg, NewHandler(sessions, orchestrator, repo))
}

func seedSession(repo *memRepo, status core.SessionStatus) *core.Session {
	sess := &core.Session{
		ID:         "sess-1",
		UserID:     "u1",
		Topic:      "Go",
		TotalDays:  2,
		TimePerDay: "1 hour",
		Status:     status,
		CurrentDay: 1,
		LessonPlan: &core.LessonPlan{
			TotalDays: 2,
			Days: []core.DayPlan{
				{Day: 1, Title: "Day 1", Topics: []core.TopicPlan{{Name: "A"}, {Name: "B"}}},
				{Day: 2, Title: "Day 2", Topics: []core.TopicPlan{{Name: "C"}}},
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	repo.CreateSession(context.Background(), sess)
	return sess
}

func doJSON(t *testing.T, router http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := testRouter(newMemRepo(), &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestIdentityRequired(t *testing.T) {
	router := testRouter(newMemRepo(), &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/sessions/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSession(t *testing.T) {
	repo := newMemRepo()
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/", "u1",
		`{"topic": "Quantum Computing", "total_days": 5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var sess core.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, core.StatusPlanning, sess.Status)
	assert.Equal(t, 5, sess.TotalDays)
	assert.NotEmpty(t, sess.ID)
}

func TestCreateSession_Invalid(t *testing.T) {
	router := testRouter(newMemRepo(), &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/", "u1", `{"topic": "ab"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_OwnershipAndMissing(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusReady)
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/", "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/", "intruder", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/missing/", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlanEndpoints(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusReady)
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/plan", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Day 1"`)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/plan/day/2", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Day 2"`)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/plan/day/9", "u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressAndNavigation(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusInProgress)
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/progress", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var p session.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 1, p.CurrentDay)
	assert.False(t, p.IsComplete)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/sess-1/advance-day", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 2, p.CurrentDay)

	// Already on the last day.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/sess-1/advance-day", "u1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/sess-1/goto-day", "u1", `{"day": 1}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/sess-1/goto-day", "u1", `{"day": 42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_Burst(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusInProgress)
	provider := &scriptedProvider{fragments: []string{"Short answer.", "\n[TOPIC_COMPLETE]"}}
	router := testRouter(repo, provider, 100)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat", "u1",
		`{"session_id": "sess-1", "message": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Response string `json:"response"`
		Progress struct {
			CurrentTopicIndex int `json:"current_topic_index"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Short answer.", body.Response)
	assert.Equal(t, 1, body.Progress.CurrentTopicIndex)
}

func TestChat_Streamed(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusInProgress)
	provider := &scriptedProvider{fragments: []string{
		"A much longer explanation ",
		"that keeps going word after word ",
		"until it crosses the threshold.",
	}}
	router := testRouter(repo, provider, 5)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat", "u1",
		`{"session_id": "sess-1", "message": "explain"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := rec.Body.String()
	assert.Contains(t, events, "event: token\n")
	assert.Contains(t, events, "event: done\n")
	assert.Contains(t, events, `"is_course_complete":false`)
	assert.NotContains(t, events, "event: error")
}

func TestChat_StatusConflict(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusPlanning)
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat", "u1",
		`{"session_id": "sess-1", "message": "hello"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChat_EmptyMessage(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusInProgress)
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat", "u1",
		`{"session_id": "sess-1", "message": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartLesson(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusReady)
	provider := &scriptedProvider{fragments: []string{"Welcome to Day 1!"}}
	router := testRouter(repo, provider, 100)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/start-lesson", "u1",
		`{"session_id": "sess-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to Day 1!")

	sess, err := repo.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, sess.Status)
}

func TestHistory(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusInProgress)
	repo.summaries["sess-1"] = []core.Summary{{Seq: 1, Content: "old stuff"}}
	repo.messages["sess-1"] = []core.Message{{Role: core.RoleHuman, Content: "hi"}}
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/history", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"summary"`)
	assert.Contains(t, rec.Body.String(), `"old stuff"`)
	assert.Contains(t, rec.Body.String(), `"hi"`)
	assert.Contains(t, rec.Body.String(), `"message_count":1`)
	assert.Contains(t, rec.Body.String(), `"summary_count":1`)
}

func TestDeleteSession(t *testing.T) {
	repo := newMemRepo()
	seedSession(repo, core.StatusReady)
	router := testRouter(repo, &scriptedProvider{}, 100)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/sessions/sess-1/", "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/sess-1/", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
