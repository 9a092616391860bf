package request_models

const (
	ContentNewsletter        = "newsletter"
	ContentRegulatorySummary = "regulatory_summary"
	ContentSocialPosts       = "social_posts"
	ContentExpertContent     = "expert_content"
)

type ContentRequest struct {
	Type       string   `json:"type" binding:"required"`
	IdeaIDs    []string `json:"idea_ids"`
	Industries []string `json:"industries"`
	Topic      string   `json:"topic"`
	Platform   string   `json:"platform"` // social_posts only; defaults to linkedin
}

const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionSendTest    = "send_test"
	ActionSendAlert   = "send_alert"
)

type NotificationRequest struct {
	Action     string   `json:"action" binding:"required"`
	Email      string   `json:"email"`
	Industries []string `json:"industries"`
}

// DeliveryEvent is the inbound webhook payload from the email provider.
type DeliveryEvent struct {
	Type      string `json:"type" binding:"required"`
	CreatedAt string `json:"created_at"`
	Data      struct {
		EmailID string   `json:"email_id"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
	} `json:"data"`
}
