package response_models

import "time"

type Plan struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Price     int64            `json:"price"` // KRW per month
	Currency  string           `json:"currency"`
	TrialDays int              `json:"trial_days"`
	Features  []string         `json:"features"`
	Limits    map[string]int64 `json:"limits"` // absent kind = unlimited
}

type SubscriptionView struct {
	UserID             string     `json:"user_id"`
	PlanID             string     `json:"plan_id"`
	PendingPlanID      string     `json:"pending_plan_id,omitempty"`
	Status             string     `json:"status"`
	EffectivePlan      Plan       `json:"effective_plan"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}
