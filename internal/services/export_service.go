package services

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"koreafit/internal/models/request_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/metrics"
	"koreafit/pkg/utils"
)

const (
	FormatPDF   = "pdf"
	FormatExcel = "excel"
)

const (
	msgExportPDFLocked   = "현재 플랜에서는 PDF 내보내기를 사용할 수 없습니다. 프리미엄 플랜으로 업그레이드하세요."
	msgExportExcelLocked = "현재 플랜에서는 엑셀 내보내기를 사용할 수 없습니다. 프리미엄 플랜으로 업그레이드하세요."
	msgExportQuota       = "이번 달 내보내기 한도(%d회)를 초과했습니다."
	msgExportFormat      = "지원하지 않는 내보내기 형식입니다."
	msgExportEmpty       = "내보낼 아이디어를 선택하세요."
	msgExportUnavailable = "내보내기 상태를 확인할 수 없습니다. 잠시 후 다시 시도하세요."
)

// ExportOptions selects what goes into a document. Ideas are rendered in
// the given order.
type ExportOptions struct {
	Format         string
	Ideas          []resp.Idea
	FileName       string
	IncludeMetrics bool
	IncludeRoadmap bool
}

// ExportService renders idea reports after entitlement and quota checks.
// Documents are built fully in memory and returned as a data URL, so the
// practical size ceiling is whatever one string can hold; ExportRequest caps
// a request at 200 ideas.
type ExportService interface {
	ExportIdeas(ctx context.Context, userID string, opts ExportOptions) (*resp.ExportResult, error)
	ExportByIDs(ctx context.Context, userID string, req request_models.ExportRequest) (*resp.ExportResult, error)
	Status(ctx context.Context, userID string) (*resp.ExportStatus, error)
}

type exportService struct {
	subs    SubscriptionService
	ideas   IdeaService
	usage   repositories.UsageRepository
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

func NewExportService(subs SubscriptionService, ideas IdeaService, usage repositories.UsageRepository, m *metrics.Collector, log *zap.Logger) ExportService {
	return &exportService{subs: subs, ideas: ideas, usage: usage, metrics: m, log: log, now: time.Now}
}

func (s *exportService) ExportIdeas(ctx context.Context, userID string, opts ExportOptions) (*resp.ExportResult, error) {
	if res, err := s.authorize(ctx, userID, opts.Format); err != nil {
		return res, err
	}
	if len(opts.Ideas) == 0 {
		return s.fail(opts.Format, "invalid", msgExportEmpty, utils.ErrInvalidExport)
	}
	return s.render(ctx, userID, opts), nil
}

// ExportByIDs authorizes before touching the catalog so a denied user learns
// nothing about which ids exist.
func (s *exportService) ExportByIDs(ctx context.Context, userID string, req request_models.ExportRequest) (*resp.ExportResult, error) {
	if res, err := s.authorize(ctx, userID, req.Format); err != nil {
		return res, err
	}
	if len(req.IdeaIDs) == 0 {
		return s.fail(req.Format, "invalid", msgExportEmpty, utils.ErrInvalidExport)
	}

	ideas, err := s.ideas.GetIdeasByIDs(ctx, req.IdeaIDs)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, userID, ExportOptions{
		Format:         req.Format,
		Ideas:          ideas,
		FileName:       req.FileName,
		IncludeMetrics: req.IncludeMetrics,
		IncludeRoadmap: req.IncludeRoadmap,
	}), nil
}

func (s *exportService) Status(ctx context.Context, userID string) (*resp.ExportStatus, error) {
	now := s.now()
	plan, err := s.subs.GetUserPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	used, err := s.usage.GetMonthly(ctx, userID, repositories.UsageExports, now)
	if err != nil {
		return nil, fmt.Errorf("%w: read export usage: %v", utils.ErrDatabaseError, err)
	}

	status := &resp.ExportStatus{
		PlanID:         plan.ID,
		CanExportPDF:   featureGates[plan.ID][FeatureExportPDF],
		CanExportExcel: featureGates[plan.ID][FeatureExportExcel],
		Used:           used,
		Period:         utils.MonthKey(now),
	}
	if limit, ok := planLimit(plan, LimitExportsPerMonth); ok {
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		status.Limit = &limit
		status.Remaining = &remaining
	}
	return status, nil
}

// authorize runs the entitlement check, then the quota check. A nil error
// means the export may proceed.
func (s *exportService) authorize(ctx context.Context, userID, format string) (*resp.ExportResult, error) {
	var feature, lockedMsg string
	switch format {
	case FormatPDF:
		feature, lockedMsg = FeatureExportPDF, msgExportPDFLocked
	case FormatExcel:
		feature, lockedMsg = FeatureExportExcel, msgExportExcelLocked
	default:
		return s.fail("unknown", "invalid", msgExportFormat, utils.ErrInvalidExport)
	}

	allowed, err := s.subs.CanAccessFeature(ctx, userID, feature)
	if err != nil {
		s.log.Error("entitlement lookup failed", zap.String("user_id", userID), zap.Error(err))
		return s.fail(format, "error", msgExportUnavailable, err)
	}
	if !allowed {
		return s.fail(format, "denied", lockedMsg, utils.ErrExportDenied)
	}

	used, err := s.usage.GetMonthly(ctx, userID, repositories.UsageExports, s.now())
	if err != nil {
		s.log.Error("export usage lookup failed", zap.String("user_id", userID), zap.Error(err))
		return s.fail(format, "error", msgExportUnavailable, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err))
	}
	ok, err := s.subs.CheckUsageLimit(ctx, userID, LimitExportsPerMonth, used)
	if err != nil {
		return s.fail(format, "error", msgExportUnavailable, err)
	}
	if !ok {
		plan, _ := s.subs.GetUserPlan(ctx, userID)
		limit, _ := planLimit(plan, LimitExportsPerMonth)
		return s.fail(format, "quota", fmt.Sprintf(msgExportQuota, limit), utils.ErrExportDenied)
	}
	return nil, nil
}

func (s *exportService) render(ctx context.Context, userID string, opts ExportOptions) *resp.ExportResult {
	now := s.now()
	var body, mime, ext string
	switch opts.Format {
	case FormatExcel:
		body, mime, ext = RenderCSV(opts.Ideas, opts.IncludeMetrics, opts.IncludeRoadmap), "text/csv", ".csv"
	default:
		body, mime, ext = RenderTextReport(opts.Ideas, opts.IncludeMetrics, opts.IncludeRoadmap, now), "text/plain", ".pdf"
	}

	name := strings.TrimSpace(opts.FileName)
	if name == "" {
		name = "korea-fit-ideas-" + now.In(utils.KST()).Format("20060102")
	}
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}

	// best-effort: a failed increment under-counts but never fails the export
	if _, err := s.usage.IncrementMonthly(ctx, userID, repositories.UsageExports, now); err != nil {
		s.log.Warn("failed to increment export usage", zap.String("user_id", userID), zap.Error(err))
	}
	s.metrics.RecordExport(opts.Format, "success")

	return &resp.ExportResult{
		Success:     true,
		DownloadURL: "data:" + mime + ";charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(body)),
		FileName:    name,
		MimeType:    mime,
	}
}

func (s *exportService) fail(format, result, msg string, err error) (*resp.ExportResult, error) {
	s.metrics.RecordExport(format, result)
	return &resp.ExportResult{Success: false, Error: msg}, err
}

// ---- rendering ----

// RenderTextReport builds the line-oriented report served as the pdf format.
func RenderTextReport(ideas []resp.Idea, includeMetrics, includeRoadmap bool, at time.Time) string {
	var b strings.Builder
	b.WriteString("Korea Fit 아이디어 리포트\n")
	fmt.Fprintf(&b, "생성일: %s\n", utils.FormatDateKST(at))
	fmt.Fprintf(&b, "아이디어 수: %d\n", len(ideas))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	for i, idea := range ideas {
		fmt.Fprintf(&b, "%d. %s\n", i+1, idea.Title)
		fmt.Fprintf(&b, "카테고리: %s\n", idea.Category)
		if idea.KoreaFit != nil {
			fmt.Fprintf(&b, "Korea Fit: %.1f/10\n", *idea.KoreaFit)
		}
		if idea.Effort != nil {
			fmt.Fprintf(&b, "실행 난이도: %d/5\n", *idea.Effort)
		}
		if idea.TrendData != nil && idea.TrendData.GrowthRate != "" {
			fmt.Fprintf(&b, "성장률: %s\n", idea.TrendData.GrowthRate)
		}
		fmt.Fprintf(&b, "요약: %s\n", idea.Summary)
		if idea.TargetUser != "" {
			fmt.Fprintf(&b, "타겟 고객: %s\n", idea.TargetUser)
		}
		if idea.BusinessModel != "" {
			fmt.Fprintf(&b, "비즈니스 모델: %s\n", idea.BusinessModel)
		}

		if includeMetrics && idea.Metrics != nil {
			m := idea.Metrics
			b.WriteString("\n[지표]\n")
			fmt.Fprintf(&b, "  시장 기회: %.1f\n", m.MarketOpportunity)
			fmt.Fprintf(&b, "  실행 난이도: %.1f\n", m.ExecutionDifficulty)
			fmt.Fprintf(&b, "  수익 잠재력: %.1f\n", m.RevenuePotential)
			fmt.Fprintf(&b, "  타이밍: %.1f\n", m.TimingScore)
			fmt.Fprintf(&b, "  규제 리스크: %.1f\n", m.RegulatoryRisk)
		}
		if includeRoadmap && len(idea.ExecutionRoadmap) > 0 {
			b.WriteString("\n[실행 로드맵]\n")
			for j, step := range idea.ExecutionRoadmap {
				fmt.Fprintf(&b, "  %d) %s", j+1, step.Title)
				if step.Timeframe != "" {
					fmt.Fprintf(&b, " (%s)", step.Timeframe)
				}
				if step.Description != "" {
					fmt.Fprintf(&b, " - %s", step.Description)
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("\n" + strings.Repeat("-", 40) + "\n\n")
	}
	return b.String()
}

// RenderCSV writes one header row and one row per idea with CRLF line ends.
// Missing numbers and metrics become empty cells.
func RenderCSV(ideas []resp.Idea, includeMetrics, includeRoadmap bool) string {
	header := []string{"ID", "Title", "Category", "Korea Fit", "Effort", "Summary", "Target User", "Business Model", "Growth Rate"}
	if includeMetrics {
		header = append(header, "Market Opportunity", "Execution Difficulty", "Revenue Potential", "Timing Score", "Regulatory Risk")
	}
	if includeRoadmap {
		header = append(header, "Roadmap")
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	w.UseCRLF = true
	// strings.Builder never fails a write, so Write errors are not checked.
	_ = w.Write(header)

	for _, idea := range ideas {
		growth := ""
		if idea.TrendData != nil {
			growth = idea.TrendData.GrowthRate
		}
		row := []string{
			idea.ID,
			idea.Title,
			idea.Category,
			csvFloat(idea.KoreaFit),
			csvInt(idea.Effort),
			idea.Summary,
			idea.TargetUser,
			idea.BusinessModel,
			growth,
		}
		if includeMetrics {
			if m := idea.Metrics; m != nil {
				row = append(row,
					csvNum(m.MarketOpportunity), csvNum(m.ExecutionDifficulty), csvNum(m.RevenuePotential),
					csvNum(m.TimingScore), csvNum(m.RegulatoryRisk))
			} else {
				row = append(row, "", "", "", "", "")
			}
		}
		if includeRoadmap {
			steps := make([]string, 0, len(idea.ExecutionRoadmap))
			for _, step := range idea.ExecutionRoadmap {
				if step.Timeframe != "" {
					steps = append(steps, fmt.Sprintf("%s (%s)", step.Title, step.Timeframe))
				} else {
					steps = append(steps, step.Title)
				}
			}
			row = append(row, strings.Join(steps, " | "))
		}
		_ = w.Write(row)
	}
	w.Flush()
	return b.String()
}

func csvNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func csvFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return csvNum(*f)
}

func csvInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
