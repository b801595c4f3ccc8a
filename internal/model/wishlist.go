package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WishlistItem struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string            `json:"email" gorm:"size:255;not null"`
	Name      string            `json:"name" gorm:"size:200;not null"`
	Website   string            `json:"website" gorm:"size:500;not null"`
	Action    string            `json:"action" gorm:"size:200;not null"`
	Metadata  datatypes.JSONMap `json:"metadata" gorm:"column:metadata"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	IsDeleted bool              `json:"is_deleted" gorm:"default:false;not null"`
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
