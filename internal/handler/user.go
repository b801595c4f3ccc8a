package handler

import (
	"errors"

	"bugzero-api/internal/middleware"
	"bugzero-api/internal/model"
	"bugzero-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (h *Handler) HandleUserRegister(c *fiber.Ctx) error {
	input := new(model.UserCreate)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	user, err := h.accounts.Create(c.UserContext(), *input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) HandleUserLogin(c *fiber.Ctx) error {
	input := new(model.LoginRequest)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	user, err := h.accounts.Authenticate(c.UserContext(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if known, lookupErr := h.accounts.GetByEmail(c.UserContext(), input.Email); lookupErr == nil {
				h.recordLogin(c, known, model.LoginFailed)
			}
		}
		return respondError(c, err)
	}

	return h.issueToken(c, user)
}

func (h *Handler) HandleGoogleLogin(c *fiber.Ctx) error {
	input := new(model.GoogleLoginRequest)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	user, err := h.accounts.LoginWithGoogle(c.UserContext(), input.GoogleID, input.Email, input.Name)
	if err != nil {
		return respondError(c, err)
	}
	return h.issueToken(c, user)
}

// issueToken is the shared tail of both login paths.
func (h *Handler) issueToken(c *fiber.Ctx, user *model.User) error {
	if !user.IsActive {
		return respondError(c, service.ErrInactive)
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		return err
	}
	h.recordLogin(c, user, model.LoginSuccess)

	return c.JSON(model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (h *Handler) recordLogin(c *fiber.Ctx, user *model.User, status string) {
	if err := h.accounts.RecordLogin(c.UserContext(), user.ID, c.IP(), c.Get(fiber.HeaderUserAgent), status); err != nil {
		h.log.Warn("failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (h *Handler) HandleUserInfo(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// HandleUserUsage reports the current month's quota position.
func (h *Handler) HandleUserUsage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	decision, err := h.quota.Evaluate(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(model.UsageSummary{
		UserID:    user.ID,
		Plan:      user.Plan,
		Limit:     decision.Limit,
		Used:      decision.Used,
		Remaining: decision.Remaining(),
	})
}

func (h *Handler) HandleGetLoginLogs(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 10)

	logs, total, err := h.accounts.LoginLogs(c.UserContext(), user.ID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"size":  pageSize,
	})
}

// HandleUpdateUser lets an account change its own name, plan or active flag.
func (h *Handler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	current := middleware.CurrentUser(c)
	target, err := h.accounts.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if err := service.Authorize(current, target); err != nil {
		return respondError(c, err)
	}

	input := new(model.UserUpdate)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	if err := h.accounts.Update(c.UserContext(), target, *input); err != nil {
		return respondError(c, err)
	}
	h.logOperation(c, current.ID, "update", "user", target.ID.String(), input)

	return c.JSON(target)
}

func (h *Handler) HandleValidateToken(c *fiber.Ctx) error {
	type TokenInput struct {
		Token string `json:"token"`
	}

	input := new(TokenInput)
	if err := c.BodyParser(input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if input.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token is required",
			"valid": false,
		})
	}

	userID, err := h.tokens.ValidateToken(input.Token)
	if err != nil {
		return c.JSON(fiber.Map{
			"valid": false,
			"error": err.Error(),
		})
	}

	user, err := h.accounts.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(fiber.Map{
				"valid": false,
				"error": "user not found",
			})
		}
		return err
	}

	return c.JSON(fiber.Map{
		"valid": user.IsActive,
		"user":  user,
	})
}
