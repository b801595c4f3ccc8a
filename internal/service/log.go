package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bugzero-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OperationLogger keeps the per-account audit trail of mutating requests.
type OperationLogger struct {
	db *gorm.DB
}

func NewOperationLogger(db *gorm.DB) *OperationLogger {
	return &OperationLogger{db: db}
}

func (l *OperationLogger) LogOperation(ctx context.Context, userID uuid.UUID, action, target, targetID string, details any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode operation details: %w", err)
	}

	entry := &model.OperationLog{
		UserID:    userID,
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Details:   string(detailsJSON),
		CreatedAt: time.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("write operation log: %w", err)
	}
	return nil
}

// UserOperationLogs pages through an account's own entries, newest first.
func (l *OperationLogger) UserOperationLogs(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]model.OperationLog, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var logs []model.OperationLog
	var total int64

	db := l.db.WithContext(ctx).Model(&model.OperationLog{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count operation logs: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list operation logs: %w", err)
	}
	return logs, total, nil
}
