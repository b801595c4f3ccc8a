package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageSummary is the quota view returned to an account
type UsageSummary struct {
	UserID    uuid.UUID `json:"user_id"`
	Plan      Plan      `json:"plan"`
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
}

// ActionUsage is the consumption of one action within the period
type ActionUsage struct {
	Action string `json:"action"`
	Units  int64  `json:"units"`
	Calls  int64  `json:"calls"`
}

// UsageStatistics breaks an account's monthly consumption down by action
type UsageStatistics struct {
	PeriodStart   time.Time     `json:"period_start"`
	TotalUnits    int64         `json:"total_units"`
	TotalCalls    int64         `json:"total_calls"`
	FailedCalls   int64         `json:"failed_calls"`
	UsageByAction []ActionUsage `json:"usage_by_action"`
}

// GetSuccessRate returns the share of calls that got a non-error response
func (s *UsageStatistics) GetSuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.TotalCalls-s.FailedCalls) / float64(s.TotalCalls)
}

// GetUsageByAction returns the units consumed by one action, 0 if absent
func (s *UsageStatistics) GetUsageByAction(action string) int64 {
	for _, u := range s.UsageByAction {
		if u.Action == action {
			return u.Units
		}
	}
	return 0
}
