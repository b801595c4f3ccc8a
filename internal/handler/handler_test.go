package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bugzero-api/internal/config"
	"bugzero-api/internal/database"
	"bugzero-api/internal/middleware"
	"bugzero-api/internal/model"
	"bugzero-api/internal/service"
	"bugzero-api/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	tokens   *util.TokenManager
	accounts *service.AccountService
	ledger   *service.UsageLedger
}

func setupApp(t *testing.T, agentURL string) *testEnv {
	t.Helper()

	db := database.InitTestDB()
	t.Cleanup(func() { database.Close(db) })

	log := zap.NewNop()
	tokens := util.NewTokenManager("test-secret", time.Hour)
	accounts := service.NewAccountService(db)
	ledger := service.NewUsageLedger(db)
	quota := service.NewQuotaPolicy(service.DefaultPlanLimits(), ledger)
	agent := service.NewAgentProxy(config.AgentConfig{BaseURL: agentURL, Timeout: 2 * time.Second}, quota, ledger, log)

	h := New(Deps{
		Accounts: accounts,
		Builds:   service.NewBuildService(db),
		Ledger:   ledger,
		Quota:    quota,
		Agent:    agent,
		Wishlist: service.NewWishlistService(db, nil, log),
		OpLog:    service.NewOperationLogger(db),
		Tokens:   tokens,
		Log:      log,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	h.Register(app.Group("/api/v0"), middleware.Auth(tokens, accounts))

	return &testEnv{app: app, db: db, tokens: tokens, accounts: accounts, ledger: ledger}
}

// do sends a JSON request and decodes the JSON response body into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	if out != nil {
		defer resp.Body.Close()
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// signUp creates a local account directly and returns it with a valid token.
func (e *testEnv) signUp(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	password := "password123"
	user, err := e.accounts.Create(context.Background(), model.UserCreate{
		Email:    email,
		Name:     "Test User",
		Password: &password,
	})
	require.NoError(t, err)

	token, err := e.tokens.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}
