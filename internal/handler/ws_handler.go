package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/engine"
	"github.com/stemsi/exsim-backend/internal/logger"
	"github.com/stemsi/exsim-backend/internal/middleware"
	"github.com/stemsi/exsim-backend/internal/service"
	ws "github.com/stemsi/exsim-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams an owner's session events over WebSocket.
type WSHandler struct {
	rdb            *redis.Client
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		sessionService: sessionService,
		log:            logger.Component(log, "ws_handler"),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// invalidAction marks a client frame that could not be decoded.
const invalidAction ws.Action = ""

// ExamEventStream godoc
// WS /ws/v1/exam/stream?user_id=...
// Sends the current session state, then forwards every published session event.
// All writes happen on this goroutine; gorilla connections allow one writer.
func (h *WSHandler) ExamEventStream(c *gin.Context) {
	owner := middleware.GetOwnerID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	wsLog := h.log.With().Str("owner_id", owner).Logger()

	// Subscribe before sending the initial state so no event falls in between.
	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.ExamEventsChannel(owner))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Event subscription failed")
		ws.WriteError(conn, "event subscription failed")
		return
	}
	events := pubsub.Channel()

	if err := h.writeState(ctx, conn, owner); err != nil {
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.ReadWait))
	})

	actions := make(chan ws.Action)
	go h.readActions(ctx, cancel, conn, wsLog, actions)

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	wsLog.Info().Msg("Client attached to session stream")

	for {
		var writeErr error

		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Client detached from session stream")
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			writeErr = ws.WriteTyped(conn, ws.SessionResponse{
				Event: ws.EventSession,
				Data:  json.RawMessage(msg.Payload),
			})

		case action := <-actions:
			switch action {
			case ws.ActionPing:
				writeErr = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionState:
				writeErr = h.writeState(ctx, conn, owner)
			case invalidAction:
				writeErr = ws.WriteError(conn, "invalid message")
			default:
				wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
				writeErr = ws.WriteError(conn, "unknown action: "+string(action))
			}

		case <-keepAliveTicker.C:
			writeErr = ws.WritePing(conn)
		}

		if writeErr != nil {
			wsLog.Debug().Err(writeErr).Msg("Write failed, closing stream")
			return
		}
	}
}

// readActions pumps client frames into actions until the connection closes.
func (h *WSHandler) readActions(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, log zerolog.Logger, actions chan<- ws.Action) {
	defer cancel()

	for {
		var msg ws.RequestEnvelope
		err := ws.ReadJSON(conn, &msg)

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil:
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			msg.Action = invalidAction
		case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
			log.Warn().Err(err).Msg("Unexpected close")
			return
		default:
			log.Debug().Msg("Connection closed")
			return
		}

		select {
		case actions <- msg.Action:
		case <-ctx.Done():
			return
		}
	}
}

func (h *WSHandler) writeState(ctx context.Context, conn *websocket.Conn, owner string) error {
	state, err := h.sessionService.State(ctx, owner)
	if errors.Is(err, engine.ErrNoSession) {
		return ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Data: nil})
	}
	if err != nil {
		h.log.Error().Err(err).Str("owner_id", owner).Msg("Failed to load session state")
		return ws.WriteError(conn, "failed to load session state")
	}
	return ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Data: state})
}
