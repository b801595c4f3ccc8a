package middleware

import (
	"context"
	"errors"
	"strings"

	"bugzero-api/internal/model"
	"bugzero-api/internal/service"
	"bugzero-api/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userKey = "user"

// AccountLookup resolves the token subject to an account.
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Auth resolves the bearer token to an active account and stores it in the
// request locals for CurrentUser.
func Auth(tokens *util.TokenManager, accounts AccountLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization token",
			})
		}

		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization format",
			})
		}

		userID, err := tokens.ValidateToken(tokenParts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, util.ErrExpiredToken) {
				msg = "token has expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": msg,
			})
		}

		user, err := accounts.GetByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "user not found",
				})
			}
			return err
		}
		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": service.ErrInactive.Error(),
			})
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// CurrentUser returns the account set by Auth, or nil on public routes.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(userKey).(*model.User)
	return user
}
