package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"superyield/internal/repository"
)

type DecisionHandler struct {
	Repo repository.DecisionRepository
}

func (h *DecisionHandler) Register(r *gin.Engine) {
	g := r.Group("/api/decisions")
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

// @Summary List journaled decisions
// @Tags decisions
// @Produce json
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Param outcome query string false "accepted|rejected|service_error|state_error|cancelled"
// @Param source query string false "optimize|auto|stream|ws|scheduled"
// @Param target_vault query string false "target vault address"
// @Param since query string false "RFC3339 lower bound on created_at"
// @Success 200 {object} apiResponse
// @Router /api/decisions [get]
func (h *DecisionHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListDecisionRecordsParams{
		Limit:       limit,
		Offset:      offset,
		Outcome:     stringQueryPtr(c, "outcome"),
		Source:      stringQueryPtr(c, "source"),
		TargetVault: stringQueryPtr(c, "target_vault"),
		OrderBy:     "created_at",
		Asc:         boolPtr(false),
	}
	if v := strings.TrimSpace(c.Query("since")); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid since", nil)
			return
		}
		t := ts.UTC()
		params.Since = &t
	}
	items, err := h.Repo.ListDecisionRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountDecisionRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get one journaled decision
// @Tags decisions
// @Produce json
// @Param id path string true "record id (uuid)"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/decisions/{id} [get]
func (h *DecisionHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetDecisionRecord(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "decision not found", nil)
		return
	}
	Ok(c, item, nil)
}

func stringQueryPtr(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}
