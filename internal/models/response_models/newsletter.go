package response_models

import "time"

type NewsletterSection struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	Items    int    `json:"items"`
}

type NewsletterMetrics struct {
	UpdateCount       int `json:"update_count"`
	IdeaCount         int `json:"idea_count"`
	HighImpactCount   int `json:"high_impact_count"`
	EstimatedReadMins int `json:"estimated_read_mins"`
}

type Newsletter struct {
	Subject     string              `json:"subject"`
	Edition     string              `json:"edition"`
	GeneratedAt time.Time           `json:"generated_at"`
	Sections    []NewsletterSection `json:"sections"`
	Metrics     NewsletterMetrics   `json:"metrics"`
	HTML        string              `json:"html"`
	Text        string              `json:"text"`
}

type Bucket string

const (
	BucketImmediate  Bucket = "immediate"
	BucketUrgent     Bucket = "urgent"
	BucketRelevant   Bucket = "relevant"
	BucketBackground Bucket = "background"
	BucketStale      Bucket = "stale"
)

type TimelinessItem struct {
	Text        string     `json:"text"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
	DeadlineAt  *time.Time `json:"deadline_at,omitempty"`
	Category    string     `json:"category"`
	Urgency     string     `json:"urgency"`
	Credibility string     `json:"credibility"`
	Score       int        `json:"score"`
	Bucket      Bucket     `json:"bucket"`
}

type TimelinessReport struct {
	Items      []TimelinessItem `json:"items"`
	Include    []int            `json:"include"`
	Defer      []int            `json:"defer"`
	Archive    []int            `json:"archive"`
	Confidence float64          `json:"confidence"`
	Status     string           `json:"status"`
}

type FactCheckFinding struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Excerpt string `json:"excerpt"`
}

type FactCheckReport struct {
	Errors     []FactCheckFinding `json:"errors"`
	Warnings   []FactCheckFinding `json:"warnings"`
	Sources    int                `json:"sources"`
	Confidence float64            `json:"confidence"`
	CanSend    bool               `json:"can_send"`
}

type NewsletterPreview struct {
	Newsletter Newsletter       `json:"newsletter"`
	Timeliness TimelinessReport `json:"timeliness"`
	FactCheck  FactCheckReport  `json:"fact_check"`
	CanSend    bool             `json:"can_send"`
	BlockedBy  []string         `json:"blocked_by,omitempty"`
}

type NewsletterSendResult struct {
	Subject    string   `json:"subject"`
	Recipients int      `json:"recipients"`
	Sent       int      `json:"sent"`
	Failed     int      `json:"failed"`
	Simulated  bool     `json:"simulated"`
	Blocked    bool     `json:"blocked"`
	BlockedBy  []string `json:"blocked_by,omitempty"`
	Confidence float64  `json:"confidence"`
}
