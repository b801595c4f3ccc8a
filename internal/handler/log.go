package handler

import (
	"bugzero-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleGetUserLogs(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 10)

	logs, total, err := h.oplog.UserOperationLogs(c.UserContext(), middleware.CurrentUser(c).ID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}
