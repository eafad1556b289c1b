package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Outcome values for DecisionRecord.
const (
	OutcomeAccepted     = "accepted"
	OutcomeRejected     = "rejected"
	OutcomeServiceError = "service_error"
	OutcomeStateError   = "state_error"
	OutcomeCancelled    = "cancelled"
)

// DecisionRecord journals one terminal outcome of a decision request.
type DecisionRecord struct {
	ID string `gorm:"type:uuid;primaryKey"`

	Source  string `gorm:"type:varchar(20);not null;index"`
	Model   string `gorm:"type:varchar(80)"`
	Outcome string `gorm:"type:varchar(20);not null;index"`
	Reason  string `gorm:"type:varchar(40);index"`

	TargetVault string           `gorm:"type:varchar(66);index"`
	Amount      *decimal.Decimal `gorm:"type:numeric(78,0)"`
	Confidence  *float64         `gorm:"type:double precision"`
	Improvement *float64         `gorm:"type:double precision"`

	Decision    datatypes.JSON `gorm:"type:jsonb"`
	Constraints datatypes.JSON `gorm:"type:jsonb"`
	VaultState  datatypes.JSON `gorm:"type:jsonb"`

	Error     string `gorm:"type:text"`
	LatencyMs int64  `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (DecisionRecord) TableName() string {
	return "decision_records"
}
