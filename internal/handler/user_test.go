package handler

import (
	"context"
	"testing"

	"bugzero-api/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleUserRegister(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")

	tests := []struct {
		name       string
		input      fiber.Map
		wantStatus int
	}{
		{
			name:       "valid_registration",
			input:      fiber.Map{"email": "test@example.com", "name": "Test", "password": "password123"},
			wantStatus: fiber.StatusCreated,
		},
		{
			name:       "duplicate_email",
			input:      fiber.Map{"email": "test@example.com", "name": "Again", "password": "password123"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "local_without_password",
			input:      fiber.Map{"email": "nopass@example.com", "name": "No Pass"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "invalid_email",
			input:      fiber.Map{"email": "not-an-email", "name": "Bad", "password": "x"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "google_account",
			input:      fiber.Map{"email": "g@example.com", "name": "G", "auth_provider": "google", "google_id": "sub-1"},
			wantStatus: fiber.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, "POST", "/api/v0/users", "", tt.input, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHandleUserLogin(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")
	user, _ := env.signUp(t, "login@example.com")

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	resp := env.do(t, "POST", "/api/v0/users/login", "", fiber.Map{"email": "login@example.com", "password": "password123"}, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", body.TokenType)
	assert.Equal(t, user.ID.String(), body.User.ID)
	assert.NotEmpty(t, body.AccessToken)

	var me map[string]any
	resp = env.do(t, "GET", "/api/v0/users/me", body.AccessToken, nil, &me)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "login@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")

	resp = env.do(t, "POST", "/api/v0/users/login", "", fiber.Map{"email": "login@example.com", "password": "wrong"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	logs, total, err := env.accounts.LoginLogs(context.Background(), user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	statuses := []string{logs[0].Status, logs[1].Status}
	assert.ElementsMatch(t, []string{model.LoginSuccess, model.LoginFailed}, statuses)
}

func TestHandleUserLogin_Inactive(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")
	user, _ := env.signUp(t, "inactive@example.com")

	inactive := false
	require.NoError(t, env.accounts.Update(context.Background(), user, model.UserUpdate{IsActive: &inactive}))

	resp := env.do(t, "POST", "/api/v0/users/login", "", fiber.Map{"email": "inactive@example.com", "password": "password123"}, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHandleGoogleLogin(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")
	existing, _ := env.signUp(t, "linked@example.com")

	var body struct {
		User struct {
			ID           string `json:"id"`
			AuthProvider string `json:"auth_provider"`
		} `json:"user"`
	}
	resp := env.do(t, "POST", "/api/v0/users/login/google", "",
		fiber.Map{"google_id": "sub-42", "email": "linked@example.com", "name": "Linked"}, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, existing.ID.String(), body.User.ID)
	assert.Equal(t, "google", body.User.AuthProvider)

	// password login still works for the linked account
	resp = env.do(t, "POST", "/api/v0/users/login", "", fiber.Map{"email": "linked@example.com", "password": "password123"}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// google-only accounts never pass a password login
	resp = env.do(t, "POST", "/api/v0/users/login/google", "",
		fiber.Map{"google_id": "sub-43", "email": "fresh@example.com", "name": "Fresh"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = env.do(t, "POST", "/api/v0/users/login", "", fiber.Map{"email": "fresh@example.com", "password": "anything"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleUserUsage(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")
	user, token := env.signUp(t, "usage@example.com")

	for i := 0; i < 3; i++ {
		_, err := env.ledger.Append(context.Background(), user.ID, model.ActionAnalyzePerformance, 1, nil, nil)
		require.NoError(t, err)
	}

	var usage model.UsageSummary
	resp := env.do(t, "GET", "/api/v0/users/me/usage", token, nil, &usage)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, user.ID, usage.UserID)
	assert.Equal(t, model.PlanFree, usage.Plan)
	assert.Equal(t, int64(10), usage.Limit)
	assert.Equal(t, int64(3), usage.Used)
	assert.Equal(t, int64(7), usage.Remaining)
}

func TestHandleUpdateUser(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")
	alice, aliceToken := env.signUp(t, "alice@example.com")
	bob, _ := env.signUp(t, "bob@example.com")

	resp := env.do(t, "PATCH", "/api/v0/users/"+bob.ID.String(), aliceToken, fiber.Map{"name": "Hacked"}, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, "PATCH", "/api/v0/users/"+alice.ID.String(), aliceToken, fiber.Map{"plan": "platinum"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var updated map[string]any
	resp = env.do(t, "PATCH", "/api/v0/users/"+alice.ID.String(), aliceToken, fiber.Map{"name": "Alice", "plan": "starter"}, &updated)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice", updated["name"])
	assert.Equal(t, "starter", updated["plan"])

	var logs struct {
		Total int64 `json:"total"`
	}
	resp = env.do(t, "GET", "/api/v0/users/me/logs", aliceToken, nil, &logs)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), logs.Total)
}

func TestHandleUserInfo_Unauthenticated(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")

	resp := env.do(t, "GET", "/api/v0/users/me", "", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleValidateToken(t *testing.T) {
	env := setupApp(t, "http://127.0.0.1:1")
	_, token := env.signUp(t, "token@example.com")

	var body map[string]any
	resp := env.do(t, "POST", "/api/v0/auth/validate-token", "", fiber.Map{"token": token}, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	body = nil
	resp = env.do(t, "POST", "/api/v0/auth/validate-token", "", fiber.Map{"token": "garbage"}, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])

	resp = env.do(t, "POST", "/api/v0/auth/validate-token", "", fiber.Map{}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
