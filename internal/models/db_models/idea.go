package db_models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Idea rows tolerate additive fields: every nested block is jsonb and every
// score is nullable.
type Idea struct {
	BaseModel
	Title         string         `gorm:"not null"`
	Summary       string         `gorm:"type:text"`
	LongSummary   string         `gorm:"type:text"`
	Category      string         `gorm:"index"`
	Tags          pq.StringArray `gorm:"type:text[]"`
	KoreaFit      *float64       `gorm:"index"`
	TrendData     datatypes.JSON `gorm:"type:jsonb"`
	Metrics       datatypes.JSON `gorm:"type:jsonb"`
	Effort        *int
	TargetUser    string
	BusinessModel string
	WhyNow        string         `gorm:"type:text"`
	Risks         pq.StringArray `gorm:"type:text[]"`

	ExecutionRoadmap datatypes.JSON `gorm:"type:jsonb"`
	ExecutionPack    datatypes.JSON `gorm:"type:jsonb"`
	ExecutionMetrics datatypes.JSON `gorm:"type:jsonb"`

	SourceURL   string
	SourceName  string
	PublishedAt *int64 `gorm:"index"`
	Upvotes     int    `gorm:"default:0"`
	Downvotes   int    `gorm:"default:0"`
}

type Bookmark struct {
	// {ideaId}_{userId}
	ID        string    `gorm:"primaryKey"`
	IdeaID    uuid.UUID `gorm:"type:uuid;index"`
	UserID    string    `gorm:"index"`
	CreatedAt int64     `gorm:"autoCreateTime"`
}

func BookmarkKey(ideaID uuid.UUID, userID string) string {
	return ideaID.String() + "_" + userID
}
