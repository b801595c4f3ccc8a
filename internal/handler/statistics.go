package handler

import (
	"time"

	"bugzero-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// HandleUsageStatistics breaks down the current month's agent usage by action.
func (h *Handler) HandleUsageStatistics(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	stats, err := h.ledger.MonthlyStatistics(c.UserContext(), user.ID, time.Now())
	if err != nil {
		return err
	}

	decision, err := h.quota.Evaluate(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"period_start":    stats.PeriodStart,
		"total_units":     stats.TotalUnits,
		"total_calls":     stats.TotalCalls,
		"failed_calls":    stats.FailedCalls,
		"success_rate":    stats.GetSuccessRate(),
		"usage_by_action": stats.UsageByAction,
		"limit":           decision.Limit,
		"remaining":       decision.Remaining(),
	})
}
