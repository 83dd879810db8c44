package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/schema"
	"github.com/cmusatyalab/OpenWorkflow/pkg/session"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// MaxDocumentSize bounds request bodies. Documents embed images and videos.
const MaxDocumentSize = 32 << 20

// Server serves the document API on top of a session manager.
type Server struct {
	Documents  *session.Manager
	Streams    *StreamManager
	Processors *zoo.Registry
	Predicates *zoo.Registry

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistries serves custom zoos on /zoo.
func WithRegistries(processors, predicates *zoo.Registry) Option {
	return func(s *Server) {
		s.Processors = processors
		s.Predicates = predicates
	}
}

// WithGatherer serves the metrics of g on /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a Server.
func NewServer(docs *session.Manager, opts ...Option) *Server {
	s := &Server{
		Documents:  docs,
		Streams:    NewStreamManager(),
		Processors: zoo.Processors,
		Predicates: zoo.Predicates,
		gatherer:   prometheus.DefaultGatherer,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for the document API.
func NewHandler(docs *session.Manager, opts ...Option) http.Handler {
	return NewServer(docs, opts...).Routes()
}

// Routes registers every endpoint on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/zoo/{role}", s.GetZoo)
	r.Post("/build", s.Build)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.ListDocuments)
		r.Post("/", s.CreateDocument)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetDocument)
			r.Put("/", s.PutDocument)
			r.Delete("/", s.DeleteDocument)

			r.Get("/graph", s.GetGraph)
			r.Get("/validate", s.Validate)
			r.Get("/table", s.GetTable)
			r.Get("/yaml", s.GetYAML)
			r.Put("/yaml", s.PutYAML)
			r.Get("/events", s.SubscribeEvents)

			r.Post("/states", s.AddState)
			r.Patch("/states/{element}", s.UpdateState)
			r.Delete("/states/{element}", s.DeleteState)

			r.Post("/transitions", s.AddTransition)
			r.Patch("/transitions/{element}", s.UpdateTransition)
			r.Delete("/transitions/{element}", s.DeleteTransition)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, Location")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "openworkflow-http",
		"version": openworkflow.Version,
	})
}

// GetZoo handles the GET /zoo/{role} request.
func (s *Server) GetZoo(w http.ResponseWriter, r *http.Request) {
	role, err := zoo.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	registry := s.Processors
	if role == zoo.RolePredicate {
		registry = s.Predicates
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"role":  role.String(),
		"kinds": registry.Kinds(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps an error to the HTTP status reported for it.
func StatusFor(err error) int {
	var ve *schema.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidFormat), errors.Is(err, domain.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateName), errors.Is(err, domain.ErrUnsafeDelete):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnsupportedElementType), errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write([]byte(body)); err != nil {
		s.logger.Debug("response write failed", "err", err)
	}
}
