package handler

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// anonymousSubject identifies clients when authentication is disabled
const anonymousSubject = "anonymous"

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	validator      websocket.TokenValidator
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. A nil validator
// accepts every connection as the anonymous subject.
func NewWebSocketHandler(hub *websocket.Hub, validator websocket.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		validator:      validator,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin header
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// authenticate resolves the subject of a connection request
func (h *WebSocketHandler) authenticate(c echo.Context) (string, error) {
	if h.validator == nil {
		return anonymousSubject, nil
	}

	token := c.QueryParam("token")
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	subject, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return subject, nil
}

// HandleWS godoc
// @Summary Subscribe to notifications
// @Description Upgrade to a WebSocket that streams entity changes, limit alerts and reminders
// @Tags notifications
// @Param token query string false "Access token (required when authentication is enabled)"
// @Success 101
// @Failure 401 {object} ProblemDetails
// @Router /ws [get]
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	subject, err := h.authenticate(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, subject, h.hub)
	h.hub.Register(client)

	log.Info().
		Str("subject", subject).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
