package repository

import (
	"context"
	"time"

	"superyield/internal/models"
)

type DecisionRepository interface {
	InsertDecisionRecord(ctx context.Context, item *models.DecisionRecord) error
	GetDecisionRecord(ctx context.Context, id string) (*models.DecisionRecord, error)
	ListDecisionRecords(ctx context.Context, params ListDecisionRecordsParams) ([]models.DecisionRecord, error)
	CountDecisionRecords(ctx context.Context, params ListDecisionRecordsParams) (int64, error)
}

type Repository interface {
	DecisionRepository
}

type ListDecisionRecordsParams struct {
	Limit       int
	Offset      int
	Outcome     *string
	Source      *string
	TargetVault *string
	Since       *time.Time
	OrderBy     string
	Asc         *bool
}
