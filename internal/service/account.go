package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bugzero-api/internal/model"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService is the account directory: identity storage, credentials and plan.
type AccountService struct {
	db         *gorm.DB
	bcryptCost int
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db, bcryptCost: bcrypt.DefaultCost}
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.first(ctx, "email = ?", normalizeEmail(email))
}

func (s *AccountService) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return s.first(ctx, "google_id = ?", googleID)
}

func (s *AccountService) first(ctx context.Context, query string, args ...any) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Create registers a new account on the free plan.
func (s *AccountService) Create(ctx context.Context, in model.UserCreate) (*model.User, error) {
	provider := in.AuthProvider
	if provider == "" {
		provider = model.ProviderLocal
	}

	switch provider {
	case model.ProviderLocal:
		if in.Password == nil || *in.Password == "" {
			return nil, fmt.Errorf("%w: password is required for local authentication", ErrInvalidInput)
		}
	case model.ProviderGoogle:
		if in.GoogleID == nil || *in.GoogleID == "" {
			return nil, fmt.Errorf("%w: google id is required for google authentication", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown auth provider %q", ErrInvalidInput, provider)
	}

	email := normalizeEmail(in.Email)
	if _, err := s.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Name:         in.Name,
		AuthProvider: provider,
		GoogleID:     in.GoogleID,
		Plan:         model.PlanFree,
		IsActive:     true,
	}
	if in.Password != nil && *in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash := string(hashed)
		user.PasswordHash = &hash
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Update applies the non-nil fields of in; only name, plan and is_active are mutable.
func (s *AccountService) Update(ctx context.Context, user *model.User, in model.UserUpdate) error {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Plan != nil {
		updates["plan"] = string(*in.Plan)
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Plan != nil {
		user.Plan = *in.Plan
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	return nil
}

// Authenticate verifies an email/password pair. Accounts without a stored
// password hash never authenticate by password.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginWithGoogle resolves a google identity to an account: by google id, then
// by email (linking the google id to it), otherwise a new account is created.
func (s *AccountService) LoginWithGoogle(ctx context.Context, googleID, email, name string) (*model.User, error) {
	user, err := s.GetByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user, err = s.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
			"google_id":     googleID,
			"auth_provider": string(model.ProviderGoogle),
		}).Error; err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		user.GoogleID = &googleID
		user.AuthProvider = model.ProviderGoogle
		return user, nil
	case errors.Is(err, ErrNotFound):
		return s.Create(ctx, model.UserCreate{
			Email:        email,
			Name:         name,
			AuthProvider: model.ProviderGoogle,
			GoogleID:     &googleID,
		})
	default:
		return nil, err
	}
}

func (s *AccountService) RecordLogin(ctx context.Context, userID uuid.UUID, ip, userAgent, status string) error {
	entry := &model.LoginLog{
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Status:    status,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (s *AccountService) LoginLogs(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]model.LoginLog, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var logs []model.LoginLog
	var total int64

	db := s.db.WithContext(ctx).Model(&model.LoginLog{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count login logs: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list login logs: %w", err)
	}
	return logs, total, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
