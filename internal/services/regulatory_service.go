package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/utils"
)

// UpdateSource is anything that yields regulatory updates, newest first.
type UpdateSource interface {
	Fetch(ctx context.Context) ([]resp.RegulatoryUpdate, error)
}

type RegulatoryService interface {
	Analyze(ctx context.Context, ideaText string) (*resp.RegulatoryAnalysis, error)
	Updates(ctx context.Context, industries []string, limit int) ([]resp.RegulatoryUpdate, error)
	Alerts(ctx context.Context, industries []string) ([]resp.RegulatoryAlert, error)
}

type regulatoryService struct {
	analyzer RegulatoryAnalyzer
	source   UpdateSource
	now      func() time.Time
}

func NewRegulatoryService(analyzer RegulatoryAnalyzer, source UpdateSource) RegulatoryService {
	return &regulatoryService{analyzer: analyzer, source: source, now: time.Now}
}

func (s *regulatoryService) Analyze(ctx context.Context, ideaText string) (*resp.RegulatoryAnalysis, error) {
	return s.analyzer.Analyze(ctx, ideaText)
}

// Updates filters by industry overlap; an empty filter returns everything.
// limit <= 0 means no limit.
func (s *regulatoryService) Updates(ctx context.Context, industries []string, limit int) ([]resp.RegulatoryUpdate, error) {
	all, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: regulatory updates: %v", utils.ErrUpstream, err)
	}

	out := make([]resp.RegulatoryUpdate, 0, len(all))
	for _, u := range all {
		if matchesIndustries(u.AffectedIndustries, industries) {
			out = append(out, u)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Alerts keeps high and critical updates whose effective date or deadline
// has not passed.
func (s *regulatoryService) Alerts(ctx context.Context, industries []string) ([]resp.RegulatoryAlert, error) {
	updates, err := s.Updates(ctx, industries, 0)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alerts := []resp.RegulatoryAlert{}
	for _, u := range updates {
		if u.Impact != resp.ImpactHigh && u.Impact != resp.ImpactCritical {
			continue
		}
		alert := resp.RegulatoryAlert{Update: u, Severity: u.Impact}
		switch {
		case u.EffectiveAt != nil:
			d := utils.DaysBetween(now, *u.EffectiveAt)
			if d < 0 {
				continue
			}
			alert.DaysUntilEffective = &d
			alert.Message = fmt.Sprintf("%s: %s 시행 (D-%d)", u.Title, utils.FormatDateKST(*u.EffectiveAt), d)
		case u.DeadlineAt != nil:
			d := utils.DaysBetween(now, *u.DeadlineAt)
			if d < 0 {
				continue
			}
			alert.Message = fmt.Sprintf("%s: %s 마감 (D-%d)", u.Title, utils.FormatDateKST(*u.DeadlineAt), d)
		default:
			alert.Message = u.Title
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func matchesIndustries(affected, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, a := range affected {
		if a == IndustryAll {
			return true
		}
		for _, w := range wanted {
			if strings.EqualFold(a, strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}
