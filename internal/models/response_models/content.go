package response_models

type SocialPost struct {
	IdeaID   string   `json:"idea_id"`
	Platform string   `json:"platform"`
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags"`
}

type ContentResult struct {
	Type     string             `json:"type"`
	Title    string             `json:"title,omitempty"`
	Body     string             `json:"body,omitempty"`
	Preview  *NewsletterPreview `json:"preview,omitempty"`
	Posts    []SocialPost       `json:"posts,omitempty"`
	Skipped  []string           `json:"skipped,omitempty"`
	Provider string             `json:"provider"`
}

type NotificationResult struct {
	Action  string `json:"action"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
	Sent    int    `json:"sent,omitempty"`
}
