package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"superyield/internal/agent"
	"superyield/internal/domain"
	"superyield/internal/models"
	"superyield/internal/repository"
)

// Journal sources.
const (
	SourceOptimize  = "optimize"
	SourceAuto      = "auto"
	SourceStream    = "stream"
	SourceWebSocket = "ws"
	SourceScheduled = "scheduled"
)

// Entry is one terminal outcome to journal.
type Entry struct {
	Source      string
	Model       string
	State       *domain.VaultState
	Constraints domain.OptimizationConstraints
	Result      agent.Result
	Err         error
	Latency     time.Duration
}

// JournalService writes decision outcomes. Failures are logged and never
// surface to the caller.
type JournalService struct {
	Repo   repository.DecisionRepository
	Logger *zap.Logger
}

func (s *JournalService) Record(ctx context.Context, e Entry) {
	if s == nil || s.Repo == nil {
		return
	}
	item := BuildRecord(e)
	// Outcomes of cancelled requests are still journaled.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.Repo.InsertDecisionRecord(writeCtx, item); err != nil && s.Logger != nil {
		s.Logger.Warn("journal: insert failed", zap.String("source", e.Source), zap.Error(err))
	}
}

// BuildRecord maps an entry onto a journal row.
func BuildRecord(e Entry) *models.DecisionRecord {
	item := &models.DecisionRecord{
		ID:        uuid.NewString(),
		Source:    e.Source,
		Model:     e.Model,
		LatencyMs: e.Latency.Milliseconds(),
	}
	item.Constraints = marshalJSON(e.Constraints)
	if e.State != nil {
		item.VaultState = marshalJSON(e.State)
	}

	switch {
	case e.Err != nil:
		item.Outcome = outcomeForError(e.Err)
		item.Error = e.Err.Error()
	case e.Result.OK():
		d := e.Result.Decision
		item.Outcome = models.OutcomeAccepted
		item.TargetVault = d.TargetVault
		if amt, err := domain.ParseAmount(d.Amount); err == nil {
			item.Amount = &amt
		}
		confidence := d.Confidence
		improvement := d.Improvement
		item.Confidence = &confidence
		item.Improvement = &improvement
		item.Decision = marshalJSON(d)
	default:
		item.Outcome = models.OutcomeRejected
		item.Reason = string(e.Result.Reason)
	}
	return item
}

func outcomeForError(err error) string {
	var svcErr *agent.ServiceError
	switch {
	case errors.Is(err, context.Canceled):
		return models.OutcomeCancelled
	case errors.As(err, &svcErr):
		return models.OutcomeServiceError
	default:
		return models.OutcomeStateError
	}
}

func marshalJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
