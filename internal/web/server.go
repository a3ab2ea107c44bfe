package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Div1912/Ageis/internal/agent"
	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// DataSource is the read-only view of the agent the API serves from.
type DataSource interface {
	Status() agent.Status
	CurrentPosition() types.PositionSnapshot
	RecentDecisions(ctx context.Context, n int) ([]types.DecisionLogEntry, error)
}

// WebServer handles HTTP requests for agent observability
type WebServer struct {
	router *mux.Router
	server *http.Server
	source DataSource
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, source DataSource) *WebServer {
	if port == "" {
		port = "8080"
	}

	ws := &WebServer{
		router: mux.NewRouter(),
		source: source,
		port:   port,
	}

	ws.setupRoutes()
	return ws
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// Prometheus scrape endpoint
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/status", ws.handleGetStatus).Methods("GET")
	api.HandleFunc("/position", ws.handleGetPosition).Methods("GET")
	api.HandleFunc("/decisions", ws.handleGetDecisions).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server and blocks until it stops.
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	ws.server = &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return ws.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	return ws.server.Shutdown(ctx)
}

// handleHealth reports liveness and the most recent cycle outcome
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := ws.source.Status()

	healthy := true
	if !status.LastCycleAt.IsZero() && time.Since(status.LastCycleAt) > 5*time.Minute {
		// The loop has stalled if no cycle completed for several intervals.
		healthy = false
	}

	response := map[string]interface{}{
		"status":        "ok",
		"healthy":       healthy,
		"cycle_count":   status.CycleCount,
		"last_cycle_at": status.LastCycleAt,
		"last_action":   status.LastAction,
		"dry_run":       status.DryRun,
		"timestamp":     time.Now().UTC(),
	}
	if !healthy {
		response["status"] = "stalled"
		ws.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	ws.writeJSON(w, http.StatusOK, response)
}

// handleGetStatus returns the full agent status
func (ws *WebServer) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.source.Status())
}

// handleGetPosition returns the position observed in the latest cycle
func (ws *WebServer) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.source.CurrentPosition())
}

// handleGetDecisions returns recent decision log entries, newest last
func (ws *WebServer) handleGetDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			ws.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = parsed
	}

	entries, err := ws.source.RecentDecisions(r.Context(), limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to read recent decisions")
		ws.writeError(w, http.StatusInternalServerError, "failed to read decision log")
		return
	}

	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(entries),
		"decisions": entries,
	})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, message string) {
	ws.writeJSON(w, status, map[string]string{"error": message})
}

// corsMiddleware adds CORS headers for dashboard access
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request at debug level
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
