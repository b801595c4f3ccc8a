package handler

import (
	"errors"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"bugzero-api/internal/model"
	"bugzero-api/internal/service"
	"bugzero-api/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves the HTTP API on top of the service layer.
type Handler struct {
	accounts *service.AccountService
	builds   *service.BuildService
	ledger   *service.UsageLedger
	quota    *service.QuotaPolicy
	agent    *service.AgentProxy
	wishlist *service.WishlistService
	oplog    *service.OperationLogger
	tokens   *util.TokenManager
	validate *validator.Validate
	log      *zap.Logger
}

type Deps struct {
	Accounts *service.AccountService
	Builds   *service.BuildService
	Ledger   *service.UsageLedger
	Quota    *service.QuotaPolicy
	Agent    *service.AgentProxy
	Wishlist *service.WishlistService
	OpLog    *service.OperationLogger
	Tokens   *util.TokenManager
	Log      *zap.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		accounts: d.Accounts,
		builds:   d.Builds,
		ledger:   d.Ledger,
		quota:    d.Quota,
		agent:    d.Agent,
		wishlist: d.Wishlist,
		oplog:    d.OpLog,
		tokens:   d.Tokens,
		validate: newValidator(),
		log:      d.Log.Named("http"),
	}
}

// Register mounts every route on router. auth guards the account-scoped routes.
func (h *Handler) Register(router fiber.Router, auth fiber.Handler) {
	router.Post("/auth/validate-token", h.HandleValidateToken)

	users := router.Group("/users")
	users.Post("/", h.HandleUserRegister)
	users.Post("/login", h.HandleUserLogin)
	users.Post("/login/google", h.HandleGoogleLogin)
	users.Get("/me", auth, h.HandleUserInfo)
	users.Get("/me/usage", auth, h.HandleUserUsage)
	users.Get("/me/login-logs", auth, h.HandleGetLoginLogs)
	users.Get("/me/logs", auth, h.HandleGetUserLogs)
	users.Patch("/:id", auth, h.HandleUpdateUser)

	builds := router.Group("/builds", auth)
	builds.Post("/", h.HandleBuildCreate)
	builds.Get("/", h.HandleBuildList)
	builds.Get("/:id", h.HandleGetBuild)
	builds.Patch("/:id", h.HandleBuildUpdate)
	builds.Post("/:id/start", h.HandleBuildStart)
	builds.Post("/:id/complete", h.HandleBuildComplete)

	agent := router.Group("/agent", auth)
	agent.Get("/usage/history", h.HandleUsageHistory)
	agent.Get("/usage/statistics", h.HandleUsageStatistics)
	agent.Post("/:action", h.HandleAgentAction)

	router.Post("/wishlist", h.HandleWishlistCreate)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("agent_action", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.ValidActions, fl.Field().String())
	})
	return v
}

type validationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// bind parses the JSON body into out and validates it. On failure the 400
// response has already been written and the returned bool is false.
func (h *Handler) bind(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := h.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, err
		}
		details := make([]validationDetail, 0, len(verrs))
		for _, e := range verrs {
			details = append(details, validationDetail{Field: e.Field(), Message: validationMessage(e)})
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "request validation failed",
			"details": details,
		})
	}
	return true, nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "max":
		return "Must be at most " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "agent_action":
		return "Must be one of: " + strings.Join(model.ValidActions, ", ")
	default:
		return "Invalid value"
	}
}

// respondError maps service errors onto status codes. Unknown errors go to the
// fiber error handler as 500.
func respondError(c *fiber.Ctx, err error) error {
	var quotaErr *service.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"message": quotaErr.Error(),
			"limit":   quotaErr.Limit,
			"used":    quotaErr.Used,
		})
	}

	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrInactive):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEmailTaken):
		status = fiber.StatusBadRequest
	default:
		return err
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// ErrorHandler renders errors that reached fiber as {"error": ...}. Only
// *fiber.Error messages are shown to clients.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// logOperation writes the audit entry; failures never fail the request.
func (h *Handler) logOperation(c *fiber.Ctx, userID uuid.UUID, action, target, targetID string, details any) {
	if err := h.oplog.LogOperation(c.UserContext(), userID, action, target, targetID, details); err != nil {
		h.log.Warn("failed to write operation log",
			zap.String("action", action),
			zap.String("target", target),
			zap.String("target_id", targetID),
			zap.Error(err))
	}
}
