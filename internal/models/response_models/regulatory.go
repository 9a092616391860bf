package response_models

import "time"

type Impact string

const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

type Regulation struct {
	Name        string `json:"name"`
	Authority   string `json:"authority"`
	Description string `json:"description"`
	Mandatory   bool   `json:"mandatory"`
}

type CostItem struct {
	Name      string `json:"name"`
	AmountKRW int64  `json:"amount_krw"`
	Display   string `json:"display"`
}

type CostEstimate struct {
	Items        []CostItem `json:"items"`
	TotalKRW     int64      `json:"total_krw"`
	TotalDisplay string     `json:"total_display"`
}

type RegulatoryAnalysis struct {
	Category        string       `json:"category"`
	RiskScore       int          `json:"risk_score"`
	SensitiveTopics []string     `json:"sensitive_topics"`
	Regulations     []Regulation `json:"regulations"`
	Costs           CostEstimate `json:"costs"`
	Competitors     []string     `json:"competitors"`
	SuccessStories  []string     `json:"success_stories"`
	Timeline        string       `json:"timeline"`
	Verdict         string       `json:"verdict"`
}

type RegulatoryUpdate struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Ministry           string     `json:"ministry"`
	Summary            string     `json:"summary"`
	PublishedAt        time.Time  `json:"published_at"`
	EffectiveAt        *time.Time `json:"effective_at,omitempty"`
	DeadlineAt         *time.Time `json:"deadline_at,omitempty"`
	Impact             Impact     `json:"business_impact"`
	Category           string     `json:"category"`    // regulation, funding, market
	Credibility        string     `json:"credibility"` // high, medium, low
	AffectedIndustries []string   `json:"affected_industries"`
	ActionItems        []string   `json:"action_items"`
	SourceURL          string     `json:"source_url,omitempty"`
}

type RegulatoryAlert struct {
	Update             RegulatoryUpdate `json:"update"`
	Severity           Impact           `json:"severity"`
	Message            string           `json:"message"`
	DaysUntilEffective *int             `json:"days_until_effective,omitempty"`
}
