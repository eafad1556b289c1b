package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"superyield/internal/agent"
	"superyield/internal/domain"
	"superyield/internal/service"
)

const defaultStreamBuffer = 32

// @Summary Stream an optimization as server-sent events
// @Description Each event is a line "data: <json>" followed by a blank line.
// @Tags agents
// @Accept json
// @Produce text/event-stream
// @Param body body optimizeRequest true "vault state, opportunities and optional constraints"
// @Success 200 {object} agent.Event
// @Failure 400 {object} agent.Event
// @Failure 503 {object} agent.Event
// @Router /api/agents/stream [post]
func (h *AgentHandler) stream(c *gin.Context) {
	var req optimizeRequest
	if err := decodeBody(c.Request.Body, &req); err != nil || req.VaultState == nil || len(req.Opportunities) == 0 {
		h.sseSingle(c, http.StatusBadRequest, msgMissingParams)
		return
	}
	if err := validateInputs(req.VaultState, req.Opportunities); err != nil {
		h.sseSingle(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.Agent.Configured() {
		h.sseSingle(c, http.StatusServiceUnavailable, msgNotConfigured)
		return
	}

	sseHeaders(c)
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ctx := c.Request.Context()
	state := *req.VaultState
	constraints := req.Constraints.Resolve()
	start := time.Now()
	res, err := h.pump(ctx, state, req.Opportunities, constraints, func(ev agent.Event) error {
		if err := writeSSE(c, ev); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	h.Journal.Record(ctx, service.Entry{
		Source:      service.SourceStream,
		Model:       h.model(),
		State:       &state,
		Constraints: constraints,
		Result:      res,
		Err:         err,
		Latency:     time.Since(start),
	})
	if err != nil && h.Logger != nil {
		h.Logger.Info("stream ended early", zap.Error(err))
	}
}

// pump runs DecideStream on its own goroutine and hands each event to send
// in order. A send failure cancels the producer and drains the rest.
func (h *AgentHandler) pump(ctx context.Context, state domain.VaultState, opps []domain.YieldOpportunity, c domain.OptimizationConstraints, send func(agent.Event) error) (agent.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	buffer := h.StreamBuffer
	if buffer <= 0 {
		buffer = defaultStreamBuffer
	}
	events := make(chan agent.Event, buffer)

	var (
		res agent.Result
		err error
	)
	go func() {
		defer close(events)
		res, err = h.Agent.DecideStream(ctx, state, opps, c, events)
	}()

	var sendErr error
	for ev := range events {
		if sendErr != nil {
			continue
		}
		if sendErr = send(ev); sendErr != nil {
			cancel()
		}
	}
	if err == nil && sendErr != nil {
		err = sendErr
	}
	return res, err
}

func (h *AgentHandler) sseSingle(c *gin.Context, status int, msg string) {
	sseHeaders(c)
	c.Status(status)
	_ = writeSSE(c, agent.Event{Type: agent.EventError, Message: msg})
	c.Writer.Flush()
}

func sseHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
}

func writeSSE(c *gin.Context, ev agent.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	return err
}
