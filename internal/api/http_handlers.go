package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	catalogapp "overworld-server/internal/app/catalog"
	gameapp "overworld-server/internal/app/game"
	sessionapp "overworld-server/internal/app/session"
	"overworld-server/internal/domain/world"
	"overworld-server/internal/platform/registry"
)

// SessionFactory builds a game session bound to the given render surface.
type SessionFactory func(renderer gameapp.Renderer) *gameapp.Session

type Handler struct {
	logger     zerolog.Logger
	sessions   *sessionapp.Service
	catalog    *catalogapp.Service
	generator  *world.Generator
	services   *registry.Registry
	newSession SessionFactory
	corsOrigin string
}

func NewHandler(logger zerolog.Logger, sessions *sessionapp.Service, catalog *catalogapp.Service, generator *world.Generator, services *registry.Registry, newSession SessionFactory, corsOrigin string) *Handler {
	return &Handler{
		logger:     logger,
		sessions:   sessions,
		catalog:    catalog,
		generator:  generator,
		services:   services,
		newSession: newSession,
		corsOrigin: corsOrigin,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.cors)

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/session", h.createSession)
		v1.Get("/catalog", h.listCatalog)
		v1.Get("/world/terrain", h.terrainAt)
		v1.Get("/debug/services", h.listServices)
		v1.Get("/game/ws", h.gameWS)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "active_games": h.sessions.Count()})
}

func (h *Handler) createSession(w http.ResponseWriter, _ *http.Request) {
	id, token, err := h.sessions.IssueToken()
	if err != nil {
		h.logger.Error().Err(err).Msg("session token issue failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session_id": id, "token": token})
}

func (h *Handler) listCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.catalog.Templates()})
}

// terrainAt exposes the deterministic generator for debugging and for the
// client's minimap prefetch.
func (h *Handler) terrainAt(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "x and y must be integers"})
		return
	}
	writeJSON(w, http.StatusOK, h.generator.TerrainAt(x, y))
}

func (h *Handler) listServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"services": h.services.Names()})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type clientMessage struct {
	Type   string `json:"type"`
	Key    string `json:"key,omitempty"`
	Target string `json:"target,omitempty"`
}

func (h *Handler) gameWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing token"})
		return
	}
	sessionID, err := h.sessions.ParseToken(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	game := h.newSession(newWSRenderer(conn))
	if err := h.sessions.Attach(sessionID, game); err != nil {
		h.logger.Warn().Str("session_id", sessionID.String()).Msg("rejected second game for session")
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "session already active"})
		return
	}
	defer h.sessions.Detach(sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go game.Run(ctx)
	go keepAlive(ctx, conn)

	h.logger.Info().Str("session_id", sessionID.String()).Str("game_session", game.ID().String()).Msg("game started")

	conn.SetReadLimit(2048)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "key":
			game.Offer(gameapp.InputEvent{Key: msg.Key})
		case "click":
			game.Offer(gameapp.InputEvent{Target: msg.Target})
		default:
			// Unknown client messages are ignored.
		}
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) cors(next http.Handler) http.Handler {
	origin := h.corsOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
