package handler

import (
	"errors"
	"slices"
	"strings"

	"bugzero-api/internal/middleware"
	"bugzero-api/internal/model"
	"bugzero-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AgentResponse is the envelope for every agent call that reached the agent service.
type AgentResponse struct {
	Success    bool           `json:"success"`
	Action     string         `json:"action"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
}

// HandleAgentAction runs a metered agent call. Agent failures are reported in
// the envelope with 200; only quota rejections change the HTTP status.
func (h *Handler) HandleAgentAction(c *fiber.Ctx) error {
	action := c.Params("action")
	if !slices.Contains(model.ValidActions, action) {
		return fiber.NewError(fiber.StatusBadRequest,
			"Invalid action. Must be one of: "+strings.Join(model.ValidActions, ", "))
	}

	input := new(model.AgentRequest)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	result, err := h.agent.Call(c.UserContext(), middleware.CurrentUser(c), action, input.Website, input.Metadata)
	if err != nil {
		var agentErr *service.AgentServiceError
		if errors.As(err, &agentErr) && !isJoined(err) {
			return c.JSON(AgentResponse{
				Success:    false,
				Action:     action,
				Error:      agentErr.Message,
				StatusCode: agentErr.StatusCode,
			})
		}
		return respondError(c, err)
	}

	return c.JSON(AgentResponse{
		Success: true,
		Action:  action,
		Result:  result,
	})
}

// isJoined reports whether err carries more than one error, as when the usage
// record could not be written after the call.
func isJoined(err error) bool {
	multi, ok := err.(interface{ Unwrap() []error })
	return ok && len(multi.Unwrap()) > 1
}

func (h *Handler) HandleUsageHistory(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	usages, err := h.ledger.History(c.UserContext(), user.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(usages)
}
