package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/wricardo/courtqueue/game/engine"
	"github.com/wricardo/courtqueue/game/service"
	"github.com/wricardo/courtqueue/logging"
	"github.com/wricardo/courtqueue/metrics"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Broadcaster pushes session updates to WebSocket subscribers
type Broadcaster interface {
	BroadcastSession(area string, s *engine.Session)
	ServeWS(w http.ResponseWriter, r *http.Request, area string)
}

// Server represents the REST API server
type Server struct {
	service service.RotationService
	hub     Broadcaster
	router  *mux.Router
	handler http.Handler
	logger  *slog.Logger
	limiter *rateLimiter
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimit limits mutating requests to rps per client address with the
// given burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = newRateLimiter(rps, burst)
		} else {
			s.limiter = nil
		}
	}
}

// NewServer creates a new API server. hub may be nil, in which case /ws is
// not served and nothing is pushed.
func NewServer(rotation service.RotationService, hub Broadcaster, opts ...Option) *Server {
	s := &Server{
		service: rotation,
		hub:     hub,
		router:  mux.NewRouter().UseEncodedPath(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(s.router)
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.metricsMiddleware)
	if s.limiter != nil {
		s.router.Use(s.rateLimitMiddleware)
	}

	api := s.router.PathPrefix("/api").Subrouter()

	// Areas
	api.HandleFunc("/areas", s.handleListAreas).Methods(http.MethodGet)

	// Session lifecycle
	api.HandleFunc("/queue/{area}", s.handleGetQueue).Methods(http.MethodGet)
	api.HandleFunc("/queue/{area}", s.handleConfigure).Methods(http.MethodPost)

	// Queue operations
	api.HandleFunc("/queue/{area}/teams", s.handleAddTeam).Methods(http.MethodPost)
	api.HandleFunc("/queue/{area}/teams/{teamId}", s.handleRemoveTeam).Methods(http.MethodDelete)
	api.HandleFunc("/queue/{area}/reorder", s.handleReorder).Methods(http.MethodPost)

	// Game operations
	api.HandleFunc("/queue/{area}/start-game", s.handleStartGame).Methods(http.MethodPost)
	api.HandleFunc("/queue/{area}/game-result", s.handleGameResult).Methods(http.MethodPost)
	api.HandleFunc("/queue/{area}/score", s.handleScore).Methods(http.MethodPost)

	// Operational endpoints
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}

// respondServiceError maps an error kind to its HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	kind := engine.Kind(err)
	respondError(w, statusForKind(kind), kind, err.Error())
}

func statusForKind(kind string) int {
	switch kind {
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindInvalidInput, engine.KindDuplicateName, engine.KindInvalidTeamReference,
		engine.KindInvalidGameResult, engine.KindNotConfigurable:
		return http.StatusBadRequest
	case engine.KindGameInProgress:
		return http.StatusConflict
	case engine.KindInsufficientTeams, engine.KindModeNotSet:
		return http.StatusUnprocessableEntity
	case engine.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads an optional JSON object. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, engine.KindInvalidInput, "invalid JSON body: "+err.Error())
}

// pathVar returns a decoded route variable. Routes match on the escaped path
// so that an encoded "/" stays inside a single segment.
func pathVar(r *http.Request, name string) string {
	v := mux.Vars(r)[name]
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// respondSession writes the session and pushes it to subscribers
func (s *Server) respondSession(w http.ResponseWriter, area string, sess *engine.Session, broadcast bool) {
	if broadcast && s.hub != nil {
		s.hub.BroadcastSession(area, sess)
	}
	respondJSON(w, http.StatusOK, sess)
}

// Area Handlers

func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.service.ListAreas(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, areas)
}

// Session Handlers

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	sess, err := s.service.GetOrCreate(r.Context(), area)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondSession(w, area, sess, false)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	var req struct {
		Mode *string `json:"mode"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	mode := ""
	if req.Mode != nil {
		mode = *req.Mode
	}

	sess, err := s.service.Configure(r.Context(), area, mode)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondSession(w, area, sess, true)
}

// Queue Handlers

func (s *Server) handleAddTeam(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	sess, err := s.service.AddTeam(r.Context(), area, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondSession(w, area, sess, true)
}

func (s *Server) handleRemoveTeam(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	sess, err := s.service.RemoveTeam(r.Context(), area, pathVar(r, "teamId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondSession(w, area, sess, true)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	var req struct {
		Teams json.RawMessage `json:"teams"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	// anything that is not a list of teams reaches the service as nil, which
	// it rejects once the area is known to exist
	var order []engine.Team
	if err := json.Unmarshal(req.Teams, &order); err != nil {
		order = nil
	}

	result, err := s.service.ReorderQueue(r.Context(), area, order)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if s.hub != nil && result.Session != nil {
		s.hub.BroadcastSession(area, result.Session)
	}
	respondJSON(w, http.StatusOK, result)
}

// Game Handlers

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	sess, err := s.service.StartGame(r.Context(), area)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondSession(w, area, sess, true)
}

func (s *Server) handleGameResult(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	var req service.GameResult
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	sess, err := s.service.RecordResult(r.Context(), area, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondSession(w, area, sess, true)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	area := pathVar(r, "area")

	var req service.ScoreUpdate
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	sess, err := s.service.UpdateScore(r.Context(), area, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondSession(w, area, sess, true)
}

// Operational Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	area := r.URL.Query().Get("area")
	if area == "" {
		respondError(w, http.StatusBadRequest, engine.KindInvalidInput, "area query parameter is required")
		return
	}
	s.hub.ServeWS(w, r, area)
}
