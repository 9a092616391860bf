package db_models

import "github.com/lib/pq"

type NewsletterSubscriber struct {
	BaseModel
	Email      string         `gorm:"uniqueIndex;not null"`
	UserID     *string
	Active     bool           `gorm:"default:true;index"`
	Industries pq.StringArray `gorm:"type:text[]"`
	// bounced | complained | unsubscribed
	DeactivatedReason string
}

// All lists the models handed to AutoMigrate.
func All() []any {
	return []any{
		&Idea{},
		&Bookmark{},
		&Subscription{},
		&NewsletterSubscriber{},
	}
}
