package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"superyield/internal/agent"
	"superyield/internal/service"
)

const wsRequestTimeout = 10 * time.Second

// @Summary Stream an optimization over a websocket
// @Description The client sends one optimize request as JSON; the server answers with one event per text message and closes normally.
// @Tags agents
// @Router /api/agents/stream/ws [get]
func (h *AgentHandler) streamWS(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("ws accept failed", zap.Error(err))
		}
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	ctx := c.Request.Context()
	readCtx, cancel := context.WithTimeout(ctx, wsRequestTimeout)
	var req optimizeRequest
	err = wsjson.Read(readCtx, conn, &req)
	cancel()
	if err != nil || req.VaultState == nil || len(req.Opportunities) == 0 {
		h.wsSingle(ctx, conn, msgMissingParams, websocket.StatusPolicyViolation)
		return
	}
	if err := validateInputs(req.VaultState, req.Opportunities); err != nil {
		h.wsSingle(ctx, conn, err.Error(), websocket.StatusPolicyViolation)
		return
	}
	if !h.Agent.Configured() {
		h.wsSingle(ctx, conn, msgNotConfigured, websocket.StatusTryAgainLater)
		return
	}

	// No further client messages are expected; a peer close cancels ctx.
	ctx = conn.CloseRead(ctx)

	state := *req.VaultState
	constraints := req.Constraints.Resolve()
	start := time.Now()
	res, err := h.pump(ctx, state, req.Opportunities, constraints, func(ev agent.Event) error {
		return wsjson.Write(ctx, conn, ev)
	})
	h.Journal.Record(ctx, service.Entry{
		Source:      service.SourceWebSocket,
		Model:       h.model(),
		State:       &state,
		Constraints: constraints,
		Result:      res,
		Err:         err,
		Latency:     time.Since(start),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Info("ws stream ended early", zap.Error(err))
		}
		_ = conn.Close(websocket.StatusGoingAway, "stream aborted")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "done")
}

func (h *AgentHandler) wsSingle(ctx context.Context, conn *websocket.Conn, msg string, code websocket.StatusCode) {
	_ = wsjson.Write(ctx, conn, agent.Event{Type: agent.EventError, Message: msg})
	_ = conn.Close(code, "")
}
