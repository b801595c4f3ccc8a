package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AgentUsage is one metered attempt against the agent service. Rows are never updated.
type AgentUsage struct {
	ID              uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID         `json:"user_id" gorm:"type:uuid;index:idx_agent_usage_user_created,priority:1;not null"`
	Action          string            `json:"action" gorm:"size:200;not null"`
	UnitsConsumed   int               `json:"units_consumed" gorm:"default:1;not null"`
	RequestMetadata datatypes.JSONMap `json:"request_metadata,omitempty"`
	ResponseStatus  *int              `json:"response_status"`
	CreatedAt       time.Time         `json:"created_at" gorm:"index:idx_agent_usage_user_created,priority:2"`
}

func (u *AgentUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
