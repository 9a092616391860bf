package response_models

import "time"

type KPIBlock struct {
	TotalIdeas             int64 `json:"total_ideas"`
	EnhancedIdeas          int64 `json:"enhanced_ideas"`
	NewIdeas               int64 `json:"new_ideas"`
	TotalBookmarks         int64 `json:"total_bookmarks"`
	ActiveSubscriptions    int64 `json:"active_subscriptions"`
	TrialingSubscriptions  int64 `json:"trialing_subscriptions"`
	CancelledSubscriptions int64 `json:"cancelled_subscriptions"`
	ActiveSubscribers      int64 `json:"active_newsletter_subscribers"`

	MRR int64 `json:"mrr_krw"`
}

type PlanMixItem struct {
	PlanID  string  `json:"plan_id"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type DashboardReport struct {
	Since         time.Time       `json:"since"`
	KPIs          KPIBlock        `json:"kpis"`
	PlanMix       []PlanMixItem   `json:"plan_mix"`
	TopCategories []CategoryCount `json:"top_categories"`
	TopBookmarked []CategoryCount `json:"top_bookmarked_ideas"`
}
