package service

import (
	"context"
	"time"

	"bugzero-api/internal/config"
	"bugzero-api/internal/model"

	"github.com/google/uuid"
)

// Unlimited is the plan limit sentinel for plans without a monthly cap.
const Unlimited int64 = -1

// PlanLimits maps a plan tier to its monthly call allowance.
type PlanLimits map[model.Plan]int64

func DefaultPlanLimits() PlanLimits {
	return PlanLimits{
		model.PlanFree:       10,
		model.PlanStarter:    100,
		model.PlanBusiness:   1000,
		model.PlanEnterprise: Unlimited,
	}
}

func PlanLimitsFromConfig(cfg config.PlansConfig) PlanLimits {
	return PlanLimits{
		model.PlanFree:       int64(cfg.Free),
		model.PlanStarter:    int64(cfg.Starter),
		model.PlanBusiness:   int64(cfg.Business),
		model.PlanEnterprise: int64(cfg.Enterprise),
	}
}

// UsageCounter is the part of the ledger the quota policy reads.
type UsageCounter interface {
	MonthlyTotal(ctx context.Context, userID uuid.UUID, asOf time.Time) (int64, error)
}

type QuotaDecision struct {
	Allowed bool
	Limit   int64
	Used    int64
}

// Remaining is for display only; it is -1 for unlimited plans and may be negative on overshoot.
func (d QuotaDecision) Remaining() int64 {
	if d.Limit == Unlimited {
		return Unlimited
	}
	return d.Limit - d.Used
}

// QuotaPolicy decides whether an account may make another metered call this month.
type QuotaPolicy struct {
	limits PlanLimits
	usage  UsageCounter
	now    func() time.Time
}

// NewQuotaPolicy copies limits; later changes to the caller's map are not observed.
func NewQuotaPolicy(limits PlanLimits, usage UsageCounter) *QuotaPolicy {
	own := make(PlanLimits, len(limits))
	for plan, limit := range limits {
		own[plan] = limit
	}
	return &QuotaPolicy{limits: own, usage: usage, now: time.Now}
}

// Limit returns the allowance for plan; unknown plans get 0.
func (p *QuotaPolicy) Limit(plan model.Plan) int64 {
	return p.limits[plan]
}

func (p *QuotaPolicy) Evaluate(ctx context.Context, user *model.User) (QuotaDecision, error) {
	limit := p.Limit(user.Plan)
	if limit == Unlimited {
		return QuotaDecision{Allowed: true, Limit: Unlimited, Used: 0}, nil
	}

	used, err := p.usage.MonthlyTotal(ctx, user.ID, p.now())
	if err != nil {
		return QuotaDecision{}, err
	}
	return QuotaDecision{Allowed: used < limit, Limit: limit, Used: used}, nil
}
