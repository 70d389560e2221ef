package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sandevgo/tutord/internal/config"
	"github.com/sandevgo/tutord/pkg/log"
)

// Server is the HTTP front of the engine. It satisfies the srv.Service
// contract so the command layer can run it next to other services.
type Server struct {
	cfg  *config.ServerConfig
	http *http.Server
}

func NewServer(cfg *config.ServerConfig, h *Handler) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           Router(cfg, h),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}
}

// Router assembles the full route tree. Exposed separately so tests can
// drive the API through httptest without a listening socket.
func Router(cfg *config.ServerConfig, h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigin))
	r.Use(RequestLogger)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Identity)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleCreateSession)
			r.Get("/", h.handleListSessions)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.handleGetSession)
				r.Delete("/", h.handleDeleteSession)
				r.Get("/plan", h.handleGetPlan)
				r.Get("/plan/day/{day}", h.handleGetDayPlan)
				r.Get("/progress", h.handleGetProgress)
				r.Patch("/progress", h.handlePatchProgress)
				r.Post("/advance-day", h.handleAdvanceDay)
				r.Post("/goto-day", h.handleGotoDay)
				r.Get("/history", h.handleHistory)
			})
		})

		r.Post("/chat", h.handleChat)
		r.Post("/chat/start-lesson", h.handleStartLesson)
	})

	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.http.Addr).Msg("http server listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	log.FromCtx(ctx).Info().Msg("http server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
