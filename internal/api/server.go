package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"vidlingo/internal/history"
	"vidlingo/internal/job"
	"vidlingo/internal/language"
	"vidlingo/internal/logging"
	"vidlingo/internal/services"
	"vidlingo/internal/workflow"
)

const maxBodyBytes = 64 << 10

// Engine is the intake view of the pipeline.
type Engine interface {
	Submit(videoID string, lang language.Language, requester job.RequesterContext) (*job.Job, int, error)
	QueueView() []job.ViewItem
	QueueLength() int
}

// HistoryReader lists terminal outcomes.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// StatusFunc produces the daemon status payload.
type StatusFunc func(ctx context.Context) DaemonStatus

// Options configures the intake server.
type Options struct {
	Auth *Authenticator
	// Languages are the enabled targets. Empty means every supported language.
	Languages []language.Language
	// AllowedEmailDomain restricts requesters when set ("example.com").
	AllowedEmailDomain string
	// HasCredentials reports whether the channel for a language can publish.
	HasCredentials func(channel string) bool
	History        HistoryReader
	Status         StatusFunc
	HistoryLimit   int
}

// Server routes intake requests to the engine.
type Server struct {
	engine   Engine
	opts     Options
	enabled  map[language.Language]struct{}
	validate *validator.Validate
	logger   *slog.Logger
	router   chi.Router
}

// NewServer builds the router.
func NewServer(engine Engine, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		engine:   engine,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logging.NewComponentLogger(logger, "api-server"),
	}
	if len(opts.Languages) > 0 {
		s.enabled = make(map[language.Language]struct{}, len(opts.Languages))
		for _, lang := range opts.Languages {
			s.enabled[lang] = struct{}{}
		}
	}
	if s.opts.HistoryLimit <= 0 {
		s.opts.HistoryLimit = 50
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(s.opts.Auth.Middleware)
		r.Post("/jobs", s.handleSubmit)
		r.Get("/queue", s.handleQueue)
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
	})
	s.router = r
	return s
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: validationFields(err)})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	email := strings.TrimSpace(principal.Email)
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}
	if email == "" && principal.Static && s.opts.Auth.Enabled() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email is required", Fields: map[string]string{"email": "required"}})
		return
	}
	if !s.emailAllowed(email) {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: fmt.Sprintf("requester must use an @%s address", s.allowedDomain())})
		return
	}

	videoID, err := ParseVideoRef(req.Video)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	lang, err := language.Parse(req.Language)
	if err != nil || !s.languageEnabled(lang) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("language %q is not enabled", req.Language)})
		return
	}
	if s.opts.HasCredentials != nil && !s.opts.HasCredentials(lang.String()) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: fmt.Sprintf("no channel credentials for %s; run `vidlingo channel setup %s`", lang, lang),
		})
		return
	}

	j, position, err := s.engine.Submit(videoID, lang, job.RequesterContext{Email: email})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("job accepted",
		logging.String(logging.FieldEventType, "job_accepted"),
		logging.String(logging.FieldJobID, j.ID),
		logging.String(logging.FieldVideoID, videoID),
		logging.String(logging.FieldLanguage, lang.String()),
		logging.Int("position", position),
	)
	writeJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:       j.ID,
		VideoID:     videoID,
		Language:    lang.String(),
		Position:    position,
		QueueLength: s.engine.QueueLength(),
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, _ *http.Request) {
	items := s.engine.QueueView()
	if items == nil {
		items = []job.ViewItem{}
	}
	writeJSON(w, http.StatusOK, QueueResponse{Length: len(items), Items: items})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.opts.Status == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "status unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Status(r.Context()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Entries: []history.Entry{}})
		return
	}
	limit := s.opts.HistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(parsed, 500)
	}
	entries, err := s.opts.History.List(r.Context(), limit)
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Error("history read failed", logging.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "history unavailable"})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}

func (s *Server) languageEnabled(lang language.Language) bool {
	if !lang.Valid() {
		return false
	}
	if s.enabled == nil {
		return true
	}
	_, ok := s.enabled[lang]
	return ok
}

func (s *Server) allowedDomain() string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s.opts.AllowedEmailDomain), "@"))
}

func (s *Server) emailAllowed(email string) bool {
	domain := s.allowedDomain()
	if domain == "" {
		return true
	}
	_, host, ok := strings.Cut(strings.ToLower(email), "@")
	return ok && host == domain
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrConfiguration):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrStopped):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = services.WithRequestID(ctx, id)
			r = r.WithContext(ctx)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		logging.WithContext(ctx, s.logger).Debug("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
