package services

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"koreafit/internal/models/db_models"
	"koreafit/internal/models/request_models"
	resp "koreafit/internal/models/response_models"
)

func toIdeaView(row db_models.Idea) resp.Idea {
	view := resp.Idea{
		ID:            row.ID.String(),
		Title:         row.Title,
		Summary:       row.Summary,
		LongSummary:   row.LongSummary,
		Category:      row.Category,
		Tags:          []string(row.Tags),
		KoreaFit:      row.KoreaFit,
		Effort:        row.Effort,
		TargetUser:    row.TargetUser,
		BusinessModel: row.BusinessModel,
		WhyNow:        row.WhyNow,
		Risks:         []string(row.Risks),
		SourceURL:     row.SourceURL,
		SourceName:    row.SourceName,
		Upvotes:       row.Upvotes,
		Downvotes:     row.Downvotes,
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}

	view.TrendData = decodeJSON[resp.TrendData](row.TrendData, row.ID.String(), "trend_data")
	view.Metrics = decodeJSON[resp.IdeaMetrics](row.Metrics, row.ID.String(), "metrics")
	view.ExecutionPack = decodeJSON[resp.ExecutionPack](row.ExecutionPack, row.ID.String(), "execution_pack")
	view.ExecutionMetrics = decodeJSON[resp.ExecutionMetrics](row.ExecutionMetrics, row.ID.String(), "execution_metrics")
	if steps := decodeJSON[[]resp.RoadmapStep](row.ExecutionRoadmap, row.ID.String(), "execution_roadmap"); steps != nil {
		view.ExecutionRoadmap = *steps
	}

	if row.PublishedAt != nil && *row.PublishedAt > 0 {
		t := time.Unix(*row.PublishedAt, 0).UTC()
		view.PublishedAt = &t
	}
	view.CreatedAt = row.Created()
	return view
}

func toIdeaViews(rows []db_models.Idea) []resp.Idea {
	out := make([]resp.Idea, 0, len(rows))
	for _, row := range rows {
		out = append(out, toIdeaView(row))
	}
	return out
}

func toIdeaModel(req request_models.CreateIdeaRequest) *db_models.Idea {
	row := &db_models.Idea{
		Title:            strings.TrimSpace(req.Title),
		Summary:          strings.TrimSpace(req.Summary),
		LongSummary:      req.LongSummary,
		Category:         strings.ToLower(strings.TrimSpace(req.Category)),
		Tags:             req.Tags,
		Metrics:          encodeJSON(req.Metrics),
		Effort:           req.Effort,
		TargetUser:       req.TargetUser,
		BusinessModel:    req.BusinessModel,
		WhyNow:           req.WhyNow,
		Risks:            req.Risks,
		ExecutionRoadmap: encodeJSON(req.ExecutionRoadmap),
		ExecutionPack:    encodeJSON(req.ExecutionPack),
		ExecutionMetrics: encodeJSON(req.ExecutionMetrics),
		SourceURL:        req.SourceURL,
		SourceName:       req.SourceName,
	}
	if req.PublishedAt != nil {
		ts := req.PublishedAt.Unix()
		row.PublishedAt = &ts
	}
	if req.CreatedAt != nil {
		row.CreatedAt = req.CreatedAt.Unix()
	}
	return row
}

// decodeJSON returns nil for empty or null columns; a malformed column is
// logged and treated as absent.
func decodeJSON[T any](raw datatypes.JSON, id, column string) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		zap.L().Warn("malformed idea column", zap.String("idea_id", id), zap.String("column", column), zap.Error(err))
		return nil
	}
	return &v
}

func encodeJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return datatypes.JSON(b)
}
