package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"superyield/internal/agent"
	"superyield/internal/domain"
	"superyield/internal/service"
	"superyield/internal/vaultstate"
)

const (
	msgMissingParams   = "Missing required parameters: vaultState and opportunities are required"
	msgNotConfigured   = "AI service not configured. Please set OPENAI_KEY environment variable."
	msgInvalidDecision = "AI failed to generate valid decision. Constraints may be too strict."
)

// AgentHandler serves the decision endpoints under /api/agents.
type AgentHandler struct {
	Agent   *agent.Agent
	State   vaultstate.Provider
	Journal *service.JournalService
	Logger  *zap.Logger
	// DefaultModel is reported when no reasoning service is configured.
	DefaultModel string
	// StreamBuffer is the capacity of the per-request event channel.
	StreamBuffer int
}

func (h *AgentHandler) Register(r *gin.Engine) {
	g := r.Group("/api/agents")
	g.POST("/optimize", h.optimize)
	g.POST("/optimize-auto", h.optimizeAuto)
	g.POST("/stream", h.stream)
	g.GET("/stream/ws", h.streamWS)
}

type optimizeRequest struct {
	VaultState    *domain.VaultState        `json:"vaultState"`
	Opportunities []domain.YieldOpportunity `json:"opportunities"`
	Constraints   *domain.ConstraintsInput  `json:"constraints,omitempty"`
}

type autoRequest struct {
	Opportunities []domain.YieldOpportunity `json:"opportunities"`
	Constraints   *domain.ConstraintsInput  `json:"constraints,omitempty"`
}

type vaultSummary struct {
	TotalAssets      string `json:"totalAssets"`
	IdleAssets       string `json:"idleAssets"`
	AllocationsCount int    `json:"allocationsCount"`
}

type optimizeResponse struct {
	Success    bool                       `json:"success"`
	Decision   *domain.AllocationDecision `json:"decision"`
	Error      string                     `json:"error,omitempty"`
	Reason     string                     `json:"reason,omitempty"`
	Timestamp  int64                      `json:"timestamp"`
	Model      string                     `json:"model"`
	VaultState *vaultSummary              `json:"vaultState,omitempty"`
}

// @Summary Optimize allocation for a supplied vault state
// @Tags agents
// @Accept json
// @Produce json
// @Param body body optimizeRequest true "vault state, opportunities and optional constraints"
// @Success 200 {object} optimizeResponse
// @Failure 400 {object} optimizeResponse
// @Failure 422 {object} optimizeResponse
// @Failure 500 {object} optimizeResponse
// @Failure 503 {object} optimizeResponse
// @Router /api/agents/optimize [post]
func (h *AgentHandler) optimize(c *gin.Context) {
	var req optimizeRequest
	if err := decodeBody(c.Request.Body, &req); err != nil || req.VaultState == nil || len(req.Opportunities) == 0 {
		h.fail(c, http.StatusBadRequest, msgMissingParams, "")
		return
	}
	if err := validateInputs(req.VaultState, req.Opportunities); err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if !h.Agent.Configured() {
		h.fail(c, http.StatusServiceUnavailable, msgNotConfigured, "")
		return
	}

	state := *req.VaultState
	h.decide(c, service.SourceOptimize, state, req.Opportunities, req.Constraints.Resolve(), nil)
}

// @Summary Optimize allocation using the on-chain vault state
// @Tags agents
// @Accept json
// @Produce json
// @Param body body autoRequest true "opportunities and optional constraints"
// @Success 200 {object} optimizeResponse
// @Failure 400 {object} optimizeResponse
// @Failure 422 {object} optimizeResponse
// @Failure 500 {object} optimizeResponse
// @Failure 503 {object} optimizeResponse
// @Router /api/agents/optimize-auto [post]
func (h *AgentHandler) optimizeAuto(c *gin.Context) {
	var req autoRequest
	if err := decodeBody(c.Request.Body, &req); err != nil || len(req.Opportunities) == 0 {
		h.fail(c, http.StatusBadRequest, msgMissingParams, "")
		return
	}
	if err := validateInputs(nil, req.Opportunities); err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if !h.Agent.Configured() {
		h.fail(c, http.StatusServiceUnavailable, msgNotConfigured, "")
		return
	}
	constraints := req.Constraints.Resolve()
	if h.State == nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch vault state: state provider not configured", "")
		return
	}

	start := time.Now()
	state, err := h.State.FetchVaultState(c.Request.Context())
	if err != nil {
		h.logWarn("fetch vault state failed", err)
		h.Journal.Record(c.Request.Context(), service.Entry{
			Source:      service.SourceAuto,
			Model:       h.model(),
			Constraints: constraints,
			Err:         err,
			Latency:     time.Since(start),
		})
		h.fail(c, http.StatusInternalServerError, "Failed to fetch vault state: "+err.Error(), "")
		return
	}
	summary := &vaultSummary{
		TotalAssets:      state.TotalAssets,
		IdleAssets:       state.IdleAssets,
		AllocationsCount: len(state.CurrentAllocations),
	}
	h.decide(c, service.SourceAuto, state, req.Opportunities, constraints, summary)
}

func (h *AgentHandler) decide(c *gin.Context, source string, state domain.VaultState, opps []domain.YieldOpportunity, constraints domain.OptimizationConstraints, summary *vaultSummary) {
	start := time.Now()
	res, err := h.Agent.Decide(c.Request.Context(), state, opps, constraints)
	h.Journal.Record(c.Request.Context(), service.Entry{
		Source:      source,
		Model:       h.model(),
		State:       &state,
		Constraints: constraints,
		Result:      res,
		Err:         err,
		Latency:     time.Since(start),
	})
	if err != nil {
		h.logWarn("optimization failed", err)
		h.fail(c, http.StatusInternalServerError, "Optimization failed: "+err.Error(), "")
		return
	}
	if !res.OK() {
		h.fail(c, http.StatusUnprocessableEntity, msgInvalidDecision, res.Reason.Message())
		return
	}
	c.JSON(http.StatusOK, optimizeResponse{
		Success:    true,
		Decision:   res.Decision,
		Timestamp:  time.Now().UnixMilli(),
		Model:      h.model(),
		VaultState: summary,
	})
}

func (h *AgentHandler) fail(c *gin.Context, status int, msg, reason string) {
	c.JSON(status, optimizeResponse{
		Success:   false,
		Error:     msg,
		Reason:    reason,
		Timestamp: time.Now().UnixMilli(),
		Model:     h.model(),
	})
}

func (h *AgentHandler) model() string {
	if m := h.Agent.Model(); m != "" {
		return m
	}
	return h.DefaultModel
}

func (h *AgentHandler) logWarn(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, zap.Error(err))
	}
}

func decodeBody(body io.Reader, v any) error {
	if body == nil {
		return io.EOF
	}
	return json.NewDecoder(body).Decode(v)
}

func validateInputs(state *domain.VaultState, opps []domain.YieldOpportunity) error {
	if state != nil {
		if err := state.Validate(); err != nil {
			return fmt.Errorf("invalid vaultState: %w", err)
		}
	}
	for i, o := range opps {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("invalid opportunity %d: %w", i, err)
		}
	}
	return nil
}
