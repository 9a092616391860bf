package request_models

import (
	"time"

	resp "koreafit/internal/models/response_models"
)

// CreateIdeaRequest doubles as the seed-file record, hence the yaml tags.
type CreateIdeaRequest struct {
	Title            string                 `json:"title" yaml:"title" binding:"required,min=3,max=200"`
	Summary          string                 `json:"summary" yaml:"summary" binding:"required"`
	LongSummary      string                 `json:"long_summary" yaml:"long_summary"`
	Category         string                 `json:"category" yaml:"category" binding:"required"`
	Tags             []string               `json:"tags" yaml:"tags"`
	Metrics          *resp.IdeaMetrics      `json:"metrics" yaml:"metrics"`
	Effort           *int                   `json:"effort" yaml:"effort" binding:"omitempty,min=1,max=5"`
	TargetUser       string                 `json:"target_user" yaml:"target_user"`
	BusinessModel    string                 `json:"business_model" yaml:"business_model"`
	WhyNow           string                 `json:"why_now" yaml:"why_now"`
	Risks            []string               `json:"risks" yaml:"risks"`
	ExecutionRoadmap []resp.RoadmapStep     `json:"execution_roadmap" yaml:"execution_roadmap"`
	ExecutionPack    *resp.ExecutionPack    `json:"execution_pack" yaml:"execution_pack"`
	ExecutionMetrics *resp.ExecutionMetrics `json:"execution_metrics" yaml:"execution_metrics"`
	SourceURL        string                 `json:"source_url" yaml:"source_url"`
	SourceName       string                 `json:"source_name" yaml:"source_name"`
	PublishedAt      *time.Time             `json:"published_at" yaml:"published_at"`
	CreatedAt        *time.Time             `json:"created_at" yaml:"created_at"`
}

type ExportRequest struct {
	Format         string   `json:"format" binding:"required,oneof=pdf excel"`
	IdeaIDs        []string `json:"idea_ids" binding:"required,min=1,max=200"`
	FileName       string   `json:"file_name"`
	IncludeMetrics bool     `json:"include_metrics"`
	IncludeRoadmap bool     `json:"include_roadmap"`
}

type AnalyzeRequest struct {
	IdeaText string `json:"idea_text"`
}

type SubscribeRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

type ActivateRequest struct {
	UserID string `json:"user_id" binding:"required"`
}
