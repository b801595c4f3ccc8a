package model

// Agent actions accepted at the HTTP boundary
const (
	ActionAnalyzePerformance   = "analyze-performance"
	ActionGenerateTestCases    = "generate-test-cases"
	ActionWritePlaywrightTests = "write-playwright-tests"
)

// ValidActions lists the actions in the order they are reported to clients
var ValidActions = []string{
	ActionAnalyzePerformance,
	ActionGenerateTestCases,
	ActionWritePlaywrightTests,
}

type UserCreate struct {
	Email        string       `json:"email" validate:"required,email,max=255"`
	Name         string       `json:"name" validate:"required,max=200"`
	Password     *string      `json:"password" validate:"omitempty,min=1"`
	AuthProvider AuthProvider `json:"auth_provider" validate:"omitempty,oneof=local google"`
	GoogleID     *string      `json:"google_id"`
}

// UserUpdate carries the only account fields mutable after creation
type UserUpdate struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Plan     *Plan   `json:"plan" validate:"omitempty,oneof=free starter business enterprise"`
	IsActive *bool   `json:"is_active"`
}

type BuildCreate struct {
	Website  string         `json:"website" validate:"required,max=500"`
	Action   string         `json:"action" validate:"required,agent_action"`
	Metadata map[string]any `json:"metadata"`
}

// BuildUpdate is the generic patch; nil fields are left untouched
type BuildUpdate struct {
	Status       *BuildStatus `json:"status" validate:"omitempty,oneof=pending running completed failed"`
	Output       *string      `json:"output"`
	ErrorMessage *string      `json:"error_message"`
}

type BuildComplete struct {
	Output       *string `json:"output"`
	ErrorMessage *string `json:"error_message"`
	Success      *bool   `json:"success"`
}

type AgentRequest struct {
	Website  string         `json:"website" validate:"required,max=500"`
	Metadata map[string]any `json:"metadata"`
}

type WishlistCreate struct {
	Email    string         `json:"email" validate:"required,max=255"`
	Name     string         `json:"name" validate:"required,max=200"`
	Website  string         `json:"website" validate:"required,max=500"`
	Action   string         `json:"action" validate:"required,max=200"`
	Metadata map[string]any `json:"metadata"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries an identity already verified by the client's Google sign-in
type GoogleLoginRequest struct {
	GoogleID string `json:"google_id" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}
