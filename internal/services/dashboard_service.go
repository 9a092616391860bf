package services

import (
	"context"
	"fmt"
	"time"

	dbm "koreafit/internal/models/db_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/utils"
)

const dashboardTopN = 10

type DashboardService interface {
	BuildDashboard(ctx context.Context, since time.Time) (*resp.DashboardReport, error)
}

type dashboardService struct {
	repo repositories.DashboardRepository
	now  func() time.Time
}

func NewDashboardService(repo repositories.DashboardRepository) DashboardService {
	return &dashboardService{repo: repo, now: time.Now}
}

// normalizeSince defaults to the last 30 days and never points past now.
func (s *dashboardService) normalizeSince(since time.Time) time.Time {
	now := s.now()
	if since.IsZero() {
		return now.AddDate(0, 0, -30)
	}
	if since.After(now) {
		return now
	}
	return since
}

func (s *dashboardService) BuildDashboard(ctx context.Context, since time.Time) (*resp.DashboardReport, error) {
	since = s.normalizeSince(since)
	var kpi resp.KPIBlock
	var err error

	// ---------- Core counts ----------
	if kpi.TotalIdeas, err = s.repo.CountIdeas(ctx); err != nil {
		return nil, dashboardErr("count ideas", err)
	}
	if kpi.EnhancedIdeas, err = s.repo.CountEnhancedIdeas(ctx); err != nil {
		return nil, dashboardErr("count enhanced ideas", err)
	}
	if kpi.NewIdeas, err = s.repo.CountNewIdeas(ctx, since); err != nil {
		return nil, dashboardErr("count new ideas", err)
	}
	if kpi.TotalBookmarks, err = s.repo.CountBookmarks(ctx); err != nil {
		return nil, dashboardErr("count bookmarks", err)
	}
	if kpi.ActiveSubscriptions, err = s.repo.CountSubscriptionsByStatus(ctx, dbm.SubStatusActive); err != nil {
		return nil, dashboardErr("count subscriptions", err)
	}
	if kpi.TrialingSubscriptions, err = s.repo.CountSubscriptionsByStatus(ctx, dbm.SubStatusTrialing); err != nil {
		return nil, dashboardErr("count subscriptions", err)
	}
	if kpi.CancelledSubscriptions, err = s.repo.CountSubscriptionsByStatus(ctx, dbm.SubStatusCancelled); err != nil {
		return nil, dashboardErr("count subscriptions", err)
	}
	if kpi.ActiveSubscribers, err = s.repo.CountActiveSubscribers(ctx); err != nil {
		return nil, dashboardErr("count newsletter subscribers", err)
	}

	// ---------- Plan mix / MRR ----------
	planRows, err := s.repo.PlanMix(ctx)
	if err != nil {
		return nil, dashboardErr("plan mix", err)
	}
	var totalActive int64
	for _, r := range planRows {
		totalActive += r.Count
	}
	planMix := make([]resp.PlanMixItem, 0, len(planRows))
	for _, r := range planRows {
		var pct float64
		if totalActive > 0 {
			pct = round1(float64(r.Count) * 100.0 / float64(totalActive))
		}
		planMix = append(planMix, resp.PlanMixItem{PlanID: r.PlanID, Count: r.Count, Percent: pct})
		if p, ok := findPlan(r.PlanID); ok {
			kpi.MRR += p.Price * r.Count
		}
	}

	// ---------- Rankings ----------
	catRows, err := s.repo.TopCategories(ctx, dashboardTopN)
	if err != nil {
		return nil, dashboardErr("top categories", err)
	}
	bookmarkRows, err := s.repo.TopBookmarkedIdeas(ctx, dashboardTopN)
	if err != nil {
		return nil, dashboardErr("top bookmarked ideas", err)
	}

	return &resp.DashboardReport{
		Since:         since,
		KPIs:          kpi,
		PlanMix:       planMix,
		TopCategories: toCategoryCounts(catRows),
		TopBookmarked: toCategoryCounts(bookmarkRows),
	}, nil
}

func toCategoryCounts(rows []repositories.GroupCountRow) []resp.CategoryCount {
	out := make([]resp.CategoryCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, resp.CategoryCount{Category: r.Label, Count: r.Count})
	}
	return out
}

func dashboardErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", utils.ErrDatabaseError, op, err)
}
