package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"bugzero-api/internal/config"
	"bugzero-api/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgAgentTimeout         = "Agent service timeout"
	msgAgentUnavailable     = "Agent service unavailable"
	msgAgentInvalidResponse = "Agent service returned an invalid response"
)

// QuotaEvaluator is the quota check run before every agent call.
type QuotaEvaluator interface {
	Evaluate(ctx context.Context, user *model.User) (QuotaDecision, error)
}

// UsageRecorder is the part of the ledger the proxy writes to.
type UsageRecorder interface {
	Append(ctx context.Context, userID uuid.UUID, action string, units int, metadata map[string]any, responseStatus *int) (*model.AgentUsage, error)
}

type agentPayload struct {
	Website  string         `json:"website"`
	Metadata map[string]any `json:"metadata"`
}

// agentOutcome is the classified result of one attempt. status is what gets
// recorded; errStatus is what the caller sees when failed is set.
type agentOutcome struct {
	status    *int
	result    map[string]any
	failed    bool
	errStatus int
	errMsg    string
}

// AgentProxy forwards metered actions to the agent service and records every attempt.
type AgentProxy struct {
	baseURL string
	client  *http.Client
	quota   QuotaEvaluator
	ledger  UsageRecorder
	log     *zap.Logger
}

func NewAgentProxy(cfg config.AgentConfig, quota QuotaEvaluator, ledger UsageRecorder, log *zap.Logger) *AgentProxy {
	return &AgentProxy{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		quota:   quota,
		ledger:  ledger,
		log:     log.Named("agent"),
	}
}

// Call runs action for user against website. A quota rejection returns
// *QuotaExceededError and records nothing; every other path records exactly
// one usage entry before returning.
func (p *AgentProxy) Call(ctx context.Context, user *model.User, action, website string, metadata map[string]any) (result map[string]any, err error) {
	decision, err := p.quota.Evaluate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("evaluate quota: %w", err)
	}
	if !decision.Allowed {
		return nil, &QuotaExceededError{Limit: decision.Limit, Used: decision.Used}
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	body, err := json.Marshal(agentPayload{Website: website, Metadata: metadata})
	if err != nil {
		return nil, fmt.Errorf("encode agent request: %w", err)
	}

	var outcome agentOutcome
	defer func() {
		recorded := make(map[string]any, len(metadata)+1)
		for k, v := range metadata {
			recorded[k] = v
		}
		recorded["website"] = website

		if _, recErr := p.ledger.Append(context.WithoutCancel(ctx), user.ID, action, 1, recorded, outcome.status); recErr != nil {
			p.log.Error("failed to record agent usage",
				zap.String("user_id", user.ID.String()),
				zap.String("action", action),
				zap.Error(recErr))
			result = nil
			err = errors.Join(err, recErr)
		}
	}()

	outcome = p.attempt(ctx, action, body)
	if outcome.failed {
		return nil, &AgentServiceError{Message: outcome.errMsg, StatusCode: outcome.errStatus}
	}
	return outcome.result, nil
}

func (p *AgentProxy) attempt(ctx context.Context, action string, body []byte) agentOutcome {
	start := time.Now()
	endpoint := p.baseURL + "/v0/agent/" + url.PathEscape(action)

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failedOutcome(http.StatusServiceUnavailable, fmt.Sprintf("%s: %v", msgAgentUnavailable, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		out := classifyTransportError(err)
		p.log.Warn("agent call failed",
			zap.String("action", action),
			zap.Int("status", out.errStatus),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return out
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(err)
	}

	status := resp.StatusCode
	p.log.Info("agent call",
		zap.String("action", action),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)))

	if status < 200 || status >= 300 {
		return agentOutcome{status: &status, failed: true, errStatus: status, errMsg: string(raw)}
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return agentOutcome{status: &status, failed: true, errStatus: http.StatusBadGateway, errMsg: msgAgentInvalidResponse}
	}
	return agentOutcome{status: &status, result: result}
}

func classifyTransportError(err error) agentOutcome {
	if isTimeout(err) {
		return failedOutcome(http.StatusGatewayTimeout, msgAgentTimeout)
	}
	return failedOutcome(http.StatusServiceUnavailable, fmt.Sprintf("%s: %v", msgAgentUnavailable, err))
}

func failedOutcome(status int, msg string) agentOutcome {
	return agentOutcome{status: &status, failed: true, errStatus: status, errMsg: msg}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
