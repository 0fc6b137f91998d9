package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/creature-forge/internal/domain"
	"github.com/creature-forge/internal/service"
	"github.com/creature-forge/internal/websocket"
)

// Handler provides HTTP handlers for the game API
type Handler struct {
	service *service.GameService
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.GameService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/creatures", func(r chi.Router) {
			r.Get("/", h.ListCreatures)
			r.Post("/generate", h.GenerateCreature)

			r.Route("/{creatureID}", func(r chi.Router) {
				r.Get("/", h.GetCreature)
				r.Post("/sell", h.SellCreature)
			})
		})

		r.Get("/wallet", h.GetWallet)

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", h.GetLeaderboard)
			r.Post("/", h.SaveScore)
		})

		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeActionError maps a failed action to a status code. Every action
// failure ends here: nothing propagates unhandled past the boundary.
func (h *Handler) writeActionError(w http.ResponseWriter, action string, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInsufficientBalance):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrUnknownRarity), errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrGenerationFailed):
		h.logger.Error("generation upstream failed", "error", err)
		h.writeError(w, http.StatusBadGateway, err)
	default:
		h.logger.Error("action failed", "action", action, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// GenerateCreature handles the generate action
func (h *Handler) GenerateCreature(w http.ResponseWriter, r *http.Request) {
	creature, err := h.service.Generate(r.Context())
	if err != nil {
		h.writeActionError(w, "generate", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    creature,
	})
}

// ListCreatures returns one page of the collection
func (h *Handler) ListCreatures(w http.ResponseWriter, r *http.Request) {
	query := domain.CollectionQuery{
		Rarity: domain.Rarity(r.URL.Query().Get("rarity")),
		Sort:   domain.SortOrder(r.URL.Query().Get("sort")),
	}
	if query.Sort != "" && !domain.ValidSortOrder(query.Sort) {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			query.Page = p
		}
	}
	if perStr := r.URL.Query().Get("per_page"); perStr != "" {
		if p, err := strconv.Atoi(perStr); err == nil && p > 0 {
			query.PerPage = p
		}
	}

	page, err := h.service.Collection(r.Context(), query)
	if err != nil {
		h.writeActionError(w, "list creatures", err)
		return
	}

	h.writeSuccess(w, page)
}

// GetCreature returns a single creature by id
func (h *Handler) GetCreature(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "creatureID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	creature, err := h.service.Creature(r.Context(), id)
	if err != nil {
		h.writeActionError(w, "get creature", err)
		return
	}

	h.writeSuccess(w, creature)
}

// SellCreature handles the sell action
func (h *Handler) SellCreature(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "creatureID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	saleValue, err := h.service.Sell(r.Context(), id)
	if err != nil {
		h.writeActionError(w, "sell", err)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"status":     "sold",
		"sale_value": saleValue,
	})
}

// GetWallet returns the economy snapshot: tokens, profit and total score
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.service.Wallet(r.Context())
	if err != nil {
		h.writeActionError(w, "wallet", err)
		return
	}

	h.writeSuccess(w, wallet)
}

// GetLeaderboard returns the top session scores
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeActionError(w, "leaderboard", err)
		return
	}

	h.writeSuccess(w, entries)
}

// SaveScore snapshots the current total score to the leaderboard
func (h *Handler) SaveScore(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveScoreRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
	}

	entry, err := h.service.SaveScore(r.Context(), req.Nickname)
	if err != nil {
		h.writeActionError(w, "save score", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    entry,
	})
}
