package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bugzero-api/internal/config"
	"bugzero-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingUsage struct {
	used  int64
	err   error
	calls int
}

func (c *countingUsage) MonthlyTotal(ctx context.Context, userID uuid.UUID, asOf time.Time) (int64, error) {
	c.calls++
	return c.used, c.err
}

func TestQuotaPolicy_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		plan        model.Plan
		used        int64
		wantAllowed bool
		wantLimit   int64
	}{
		{"free under limit", model.PlanFree, 9, true, 10},
		{"free at limit", model.PlanFree, 10, false, 10},
		{"free over limit", model.PlanFree, 12, false, 10},
		{"starter fresh month", model.PlanStarter, 0, true, 100},
		{"business at limit", model.PlanBusiness, 1000, false, 1000},
		{"unknown plan", model.Plan("platinum"), 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := &countingUsage{used: tt.used}
			policy := NewQuotaPolicy(DefaultPlanLimits(), usage)

			decision, err := policy.Evaluate(context.Background(), &model.User{ID: uuid.New(), Plan: tt.plan})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, decision.Allowed)
			assert.Equal(t, tt.wantLimit, decision.Limit)
			assert.Equal(t, tt.used, decision.Used)
			assert.Equal(t, 1, usage.calls)
		})
	}
}

func TestQuotaPolicy_UnlimitedSkipsLedger(t *testing.T) {
	usage := &countingUsage{used: 1_000_000}
	policy := NewQuotaPolicy(DefaultPlanLimits(), usage)

	decision, err := policy.Evaluate(context.Background(), &model.User{ID: uuid.New(), Plan: model.PlanEnterprise})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, Unlimited, decision.Limit)
	assert.Zero(t, decision.Used)
	assert.Equal(t, Unlimited, decision.Remaining())
	assert.Zero(t, usage.calls, "unlimited plans must not query the ledger")
}

func TestQuotaPolicy_LedgerError(t *testing.T) {
	boom := errors.New("db down")
	policy := NewQuotaPolicy(DefaultPlanLimits(), &countingUsage{err: boom})

	_, err := policy.Evaluate(context.Background(), &model.User{ID: uuid.New(), Plan: model.PlanFree})
	assert.ErrorIs(t, err, boom)
}

func TestQuotaPolicy_CopiesLimits(t *testing.T) {
	limits := DefaultPlanLimits()
	policy := NewQuotaPolicy(limits, &countingUsage{})

	limits[model.PlanFree] = 500
	assert.Equal(t, int64(10), policy.Limit(model.PlanFree))
}

func TestQuotaDecision_Remaining(t *testing.T) {
	assert.Equal(t, int64(3), QuotaDecision{Limit: 10, Used: 7}.Remaining())
	assert.Equal(t, int64(-2), QuotaDecision{Limit: 10, Used: 12}.Remaining())
	assert.Equal(t, Unlimited, QuotaDecision{Limit: Unlimited, Used: 0}.Remaining())
}

func TestPlanLimitsFromConfig(t *testing.T) {
	limits := PlanLimitsFromConfig(config.PlansConfig{Free: 5, Starter: 50, Business: 500, Enterprise: -1})
	assert.Equal(t, int64(5), limits[model.PlanFree])
	assert.Equal(t, int64(50), limits[model.PlanStarter])
	assert.Equal(t, int64(500), limits[model.PlanBusiness])
	assert.Equal(t, Unlimited, limits[model.PlanEnterprise])
}

func TestQuotaPolicy_WithLedger(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "quota@example.com", model.PlanFree)
	ledger := NewUsageLedger(db)
	policy := NewQuotaPolicy(DefaultPlanLimits(), ledger)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := ledger.Append(ctx, user.ID, model.ActionAnalyzePerformance, 1, nil, nil)
		require.NoError(t, err)
	}

	decision, err := policy.Evaluate(ctx, user)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(10), decision.Used)
	assert.Zero(t, decision.Remaining())
}
