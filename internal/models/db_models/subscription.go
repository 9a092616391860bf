package db_models

type SubscriptionStatus string

const (
	SubStatusTrialing  SubscriptionStatus = "trialing"
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is one row per user. Plans themselves are a static catalog,
// so PlanID is the catalog id ("free", "premium", "enterprise").
// PendingPlanID holds a plan change requested while active; PlanID stays in
// force until the change is activated.
type Subscription struct {
	BaseModel
	UserID        string `gorm:"uniqueIndex;not null"`
	PlanID        string `gorm:"index;not null"`
	PendingPlanID string `gorm:"not null;default:''"`

	Status             SubscriptionStatus `gorm:"index;not null"`
	CurrentPeriodStart int64              `gorm:"not null"`
	CurrentPeriodEnd   int64              `gorm:"not null"`
	CancelledAt        *int64
}
