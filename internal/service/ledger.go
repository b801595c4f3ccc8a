package service

import (
	"context"
	"fmt"
	"time"

	"bugzero-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// UsageLedger is the append-only log of metered agent calls.
type UsageLedger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUsageLedger(db *gorm.DB) *UsageLedger {
	return &UsageLedger{db: db, now: time.Now}
}

// MonthStart returns the first instant of the UTC calendar month containing t.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Append records one attempt. responseStatus is nil when no status was obtained.
func (l *UsageLedger) Append(ctx context.Context, userID uuid.UUID, action string, units int, metadata map[string]any, responseStatus *int) (*model.AgentUsage, error) {
	if units < 1 {
		units = 1
	}

	usage := &model.AgentUsage{
		UserID:         userID,
		Action:         action,
		UnitsConsumed:  units,
		ResponseStatus: responseStatus,
		CreatedAt:      l.now().UTC(),
	}
	if metadata != nil {
		usage.RequestMetadata = datatypes.JSONMap(metadata)
	}

	if err := l.db.WithContext(ctx).Create(usage).Error; err != nil {
		return nil, fmt.Errorf("append usage record: %w", err)
	}
	return usage, nil
}

// MonthlyTotal sums the units an account consumed since the start of asOf's month.
func (l *UsageLedger) MonthlyTotal(ctx context.Context, userID uuid.UUID, asOf time.Time) (int64, error) {
	var total int64
	err := l.db.WithContext(ctx).
		Model(&model.AgentUsage{}).
		Select("COALESCE(SUM(units_consumed), 0)").
		Where("user_id = ? AND created_at >= ?", userID, MonthStart(asOf)).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum monthly usage: %w", err)
	}
	return total, nil
}

// History returns an account's records newest first.
func (l *UsageLedger) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.AgentUsage, error) {
	limit, offset = clampPage(limit, offset)

	var usages []model.AgentUsage
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&usages).Error
	if err != nil {
		return nil, fmt.Errorf("query usage history: %w", err)
	}
	return usages, nil
}

// MonthlyStatistics breaks the current month's usage down by action.
// A call counts as failed when it got no status or an error status.
func (l *UsageLedger) MonthlyStatistics(ctx context.Context, userID uuid.UUID, asOf time.Time) (*model.UsageStatistics, error) {
	start := MonthStart(asOf)

	var rows []struct {
		Action string
		Units  int64
		Calls  int64
		Failed int64
	}
	err := l.db.WithContext(ctx).
		Model(&model.AgentUsage{}).
		Select(`action,
			COALESCE(SUM(units_consumed), 0) AS units,
			COUNT(*) AS calls,
			COALESCE(SUM(CASE WHEN response_status IS NULL OR response_status >= 400 THEN 1 ELSE 0 END), 0) AS failed`).
		Where("user_id = ? AND created_at >= ?", userID, start).
		Group("action").
		Order("action").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly usage: %w", err)
	}

	stats := &model.UsageStatistics{
		PeriodStart:   start,
		UsageByAction: make([]model.ActionUsage, 0, len(rows)),
	}
	for _, r := range rows {
		stats.TotalUnits += r.Units
		stats.TotalCalls += r.Calls
		stats.FailedCalls += r.Failed
		stats.UsageByAction = append(stats.UsageByAction, model.ActionUsage{
			Action: r.Action,
			Units:  r.Units,
			Calls:  r.Calls,
		})
	}
	return stats, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
