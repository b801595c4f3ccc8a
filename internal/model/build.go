package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BuildStatus string

const (
	BuildPending   BuildStatus = "pending"
	BuildRunning   BuildStatus = "running"
	BuildCompleted BuildStatus = "completed"
	BuildFailed    BuildStatus = "failed"
)

// Terminal reports whether no further lifecycle transition is defined.
func (s BuildStatus) Terminal() bool {
	return s == BuildCompleted || s == BuildFailed
}

type Build struct {
	ID           uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID         `json:"user_id" gorm:"type:uuid;index;not null"`
	Website      string            `json:"website" gorm:"size:500;not null"`
	Action       string            `json:"action" gorm:"size:200;not null"`
	Status       BuildStatus       `json:"status" gorm:"size:50;default:'pending'"`
	Output       *string           `json:"output"`
	ErrorMessage *string           `json:"error_message"`
	Metadata     datatypes.JSONMap `json:"metadata" gorm:"column:metadata"`
	StartedAt    *time.Time        `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at"`
	CreatedAt    time.Time         `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (b *Build) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Build) OwnerID() uuid.UUID {
	return b.UserID
}
