package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bugzero-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BuildService owns the build job records and their status machine:
// pending -> running -> completed | failed.
type BuildService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBuildService(db *gorm.DB) *BuildService {
	return &BuildService{db: db, now: time.Now}
}

func (s *BuildService) Create(ctx context.Context, userID uuid.UUID, website, action string, metadata map[string]any) (*model.Build, error) {
	build := &model.Build{
		UserID:  userID,
		Website: website,
		Action:  action,
		Status:  model.BuildPending,
	}
	if metadata != nil {
		build.Metadata = datatypes.JSONMap(metadata)
	}

	if err := s.db.WithContext(ctx).Create(build).Error; err != nil {
		return nil, fmt.Errorf("create build: %w", err)
	}
	return build, nil
}

func (s *BuildService) Get(ctx context.Context, id uuid.UUID) (*model.Build, error) {
	var build model.Build
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&build).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get build: %w", err)
	}
	return &build, nil
}

// List returns one page of an account's builds, newest first, and the total count.
func (s *BuildService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Build, int64, error) {
	limit, offset = clampPage(limit, offset)

	db := s.db.WithContext(ctx).Model(&model.Build{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count builds: %w", err)
	}

	var builds []model.Build
	if err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&builds).Error; err != nil {
		return nil, 0, fmt.Errorf("list builds: %w", err)
	}
	return builds, total, nil
}

// Start moves a pending build to running. Any other current status is rejected
// with ErrInvalidTransition.
func (s *BuildService) Start(ctx context.Context, build *model.Build) error {
	if build.Status != model.BuildPending {
		return fmt.Errorf("%w: build cannot be started, current status: %s", ErrInvalidTransition, build.Status)
	}

	now := s.now().UTC()
	res := s.db.WithContext(ctx).
		Model(&model.Build{}).
		Where("id = ? AND status = ?", build.ID, string(model.BuildPending)).
		Updates(map[string]any{
			"status":     string(model.BuildRunning),
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("start build: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: build is no longer pending", ErrInvalidTransition)
	}

	build.Status = model.BuildRunning
	build.StartedAt = &now
	build.UpdatedAt = now
	return nil
}

// Complete finishes a build as completed or failed and stores output and error verbatim.
func (s *BuildService) Complete(ctx context.Context, build *model.Build, output, errorMessage *string, success bool) error {
	if build.Status.Terminal() {
		return fmt.Errorf("%w: build already %s", ErrInvalidTransition, build.Status)
	}

	status := model.BuildFailed
	if success {
		status = model.BuildCompleted
	}

	now := s.now().UTC()
	res := s.db.WithContext(ctx).
		Model(&model.Build{}).
		Where("id = ? AND status NOT IN ?", build.ID, []string{string(model.BuildCompleted), string(model.BuildFailed)}).
		Updates(map[string]any{
			"status":        string(status),
			"completed_at":  now,
			"output":        nullableString(output),
			"error_message": nullableString(errorMessage),
			"updated_at":    now,
		})
	if res.Error != nil {
		return fmt.Errorf("complete build: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: build already finished", ErrInvalidTransition)
	}

	build.Status = status
	build.CompletedAt = &now
	build.Output = output
	build.ErrorMessage = errorMessage
	build.UpdatedAt = now
	return nil
}

// Update patches the non-nil fields of in. It does not check the status machine;
// callers that need the lifecycle rules use Start and Complete.
func (s *BuildService) Update(ctx context.Context, build *model.Build, in model.BuildUpdate) error {
	updates := map[string]any{}
	if in.Status != nil {
		updates["status"] = string(*in.Status)
	}
	if in.Output != nil {
		updates["output"] = *in.Output
	}
	if in.ErrorMessage != nil {
		updates["error_message"] = *in.ErrorMessage
	}
	if len(updates) == 0 {
		return nil
	}

	now := s.now().UTC()
	updates["updated_at"] = now
	if err := s.db.WithContext(ctx).Model(&model.Build{}).Where("id = ?", build.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update build: %w", err)
	}

	if in.Status != nil {
		build.Status = *in.Status
	}
	if in.Output != nil {
		build.Output = in.Output
	}
	if in.ErrorMessage != nil {
		build.ErrorMessage = in.ErrorMessage
	}
	build.UpdatedAt = now
	return nil
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
