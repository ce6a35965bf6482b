package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/engine"
	"github.com/stemsi/exsim-backend/internal/logger"
	"github.com/stemsi/exsim-backend/internal/middleware"
	"github.com/stemsi/exsim-backend/internal/response"
	"github.com/stemsi/exsim-backend/internal/service"
	ws "github.com/stemsi/exsim-backend/internal/websocket"
)

const (
	keepAliveInterval = 30 * time.Second
	stateTimeout      = 5 * time.Second // keep a slow snapshot store from stalling the stream
)

// MonitorHandler streams an owner's session events as Server-Sent Events,
// for runners that cannot hold a WebSocket open.
type MonitorHandler struct {
	rdb            *redis.Client
	sessionService *service.ExamSessionService
	log            zerolog.Logger
}

func NewMonitorHandler(rdb *redis.Client, sessionService *service.ExamSessionService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		sessionService: sessionService,
		log:            logger.Component(log, "monitor_handler"),
	}
}

// StreamSessionEvents godoc
// GET /api/v1/exam/events
func (h *MonitorHandler) StreamSessionEvents(c *gin.Context) {
	owner := middleware.GetOwnerID(c)
	reqCtx := c.Request.Context()

	// 1. Subscribe first so nothing published after the snapshot is missed
	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.ExamEventsChannel(owner))
	defer pubsub.Close()
	if _, err := pubsub.Receive(reqCtx); err != nil {
		h.log.Error().Err(err).Str("owner_id", owner).Msg("Event subscription failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}
	ch := pubsub.Channel()

	// 2. SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// 3. Initial state
	h.sendState(c, reqCtx, owner)

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.log.Info().Str("owner_id", owner).Msg("Client attached to session SSE")

	// Pre-allocate a reusable ping payload (never changes)
	pingPayload, _ := json.Marshal(map[string]string{"event": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("owner_id", owner).Msg("Client detached from session SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(ws.SessionResponse{
				Event: ws.EventSession,
				Data:  json.RawMessage(msg.Payload),
			})
			if err != nil {
				continue
			}
			writeSSE(c, payload)

		case <-keepAliveTicker.C:
			writeSSE(c, pingPayload)
		}
	}
}

// sendState writes the owner's current state as the first SSE event.
func (h *MonitorHandler) sendState(c *gin.Context, reqCtx context.Context, owner string) {
	ctx, cancel := context.WithTimeout(reqCtx, stateTimeout)
	defer cancel()

	state, err := h.sessionService.State(ctx, owner)
	if err != nil && !errors.Is(err, engine.ErrNoSession) {
		h.log.Error().Err(err).Str("owner_id", owner).Msg("Failed to load session state")
		payload, _ := json.Marshal(ws.ErrorResponse{Event: ws.EventError, Error: "failed to load session state"})
		writeSSE(c, payload)
		return
	}

	out := ws.StateResponse{Event: ws.EventState}
	if state != nil {
		out.Data = state
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return
	}
	writeSSE(c, payload)
}

func writeSSE(c *gin.Context, payload []byte) {
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
