package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

// AuthProvider tags how an account proves its identity. google is the federated provider.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

// Owned is implemented by every resource that belongs to exactly one account.
type Owned interface {
	OwnerID() uuid.UUID
}

type User struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string       `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Name         string       `json:"name" gorm:"size:200;not null"`
	PasswordHash *string      `json:"-" gorm:"size:255"`
	AuthProvider AuthProvider `json:"auth_provider" gorm:"size:50;default:'local'"`
	GoogleID     *string      `json:"-" gorm:"size:255;uniqueIndex"`
	Plan         Plan         `json:"plan" gorm:"size:50;default:'free'"`
	IsActive     bool         `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// OwnerID makes an account its own resource for authorization checks.
func (u *User) OwnerID() uuid.UUID {
	return u.ID
}
