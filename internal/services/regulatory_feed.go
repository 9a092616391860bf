package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	resp "koreafit/internal/models/response_models"
)

const (
	UpdateCategoryRegulation = "regulation"
	UpdateCategoryFunding    = "funding"
	UpdateCategoryMarket     = "market"

	maxItemsPerFeed = 20
)

// IndustryAll marks an update that concerns every industry.
const IndustryAll = "all"

// RegulatoryFeed is one source of regulatory updates.
type RegulatoryFeed interface {
	Name() string
	Fetch(ctx context.Context) ([]resp.RegulatoryUpdate, error)
}

// ---- template feed ----

type updateTemplate struct {
	title        string
	ministry     string
	summary      string
	publishedAgo int  // days before now
	effectiveIn  *int // days after now
	deadlineIn   *int
	impact       resp.Impact
	category     string
	industries   []string
	actions      []string
}

func days(n int) *int { return &n }

// Dates are relative to now, so the sample always looks current.
var updateTemplates = []updateTemplate{
	{
		title:        "전자금융거래법 시행령 개정안 입법예고",
		ministry:     "금융위원회",
		summary:      "선불전자지급수단 발행자의 이용자 자금 보호 의무가 강화됩니다. 미이행 시 최대 1억원 이하의 과태료가 부과될 수 있습니다.",
		publishedAgo: 1,
		deadlineIn:   days(20),
		impact:       resp.ImpactCritical,
		category:     UpdateCategoryRegulation,
		industries:   []string{CategoryFintech},
		actions:      []string{"이용자 자금 별도 관리 체계 점검", "입법예고 기간 내 의견 제출 검토"},
	},
	{
		title:        "개인정보 처리방침 작성지침 개정",
		ministry:     "개인정보보호위원회",
		summary:      "자동화된 결정에 대한 설명 항목이 처리방침 필수 기재사항에 추가됩니다.",
		publishedAgo: 2,
		effectiveIn:  days(14),
		impact:       resp.ImpactHigh,
		category:     UpdateCategoryRegulation,
		industries:   []string{IndustryAll},
		actions:      []string{"처리방침에 자동화 결정 항목 추가", "동의 화면 문구 검토"},
	},
	{
		title:        "창업도약패키지 참여기업 모집 공고",
		ministry:     "중소벤처기업부",
		summary:      "업력 3년 초과 7년 이내 창업기업을 대상으로 최대 3억원 이내의 사업화 자금을 지원합니다.",
		publishedAgo: 3,
		deadlineIn:   days(12),
		impact:       resp.ImpactMedium,
		category:     UpdateCategoryFunding,
		industries:   []string{IndustryAll},
		actions:      []string{"신청 자격 확인", "사업계획서 준비"},
	},
	{
		title:        "디지털 헬스케어 의료기기 인허가 가이드라인 개정",
		ministry:     "식품의약품안전처",
		summary:      "소프트웨어 의료기기의 임상 평가 자료 제출 범위가 구체화됩니다.",
		publishedAgo: 5,
		effectiveIn:  days(45),
		impact:       resp.ImpactHigh,
		category:     UpdateCategoryRegulation,
		industries:   []string{CategoryHealthtech},
		actions:      []string{"제품의 의료기기 해당 여부 재검토", "임상 평가 계획 수립"},
	},
	{
		title:        "모빌리티 플랫폼 운송사업 제도 개선안 발표",
		ministry:     "국토교통부",
		summary:      "플랫폼 운송사업 허가 총량 산정 기준이 조정됩니다.",
		publishedAgo: 9,
		effectiveIn:  days(60),
		impact:       resp.ImpactHigh,
		category:     UpdateCategoryRegulation,
		industries:   []string{CategoryMobility},
		actions:      []string{"허가 요건 변경 사항 검토"},
	},
	{
		title:        "온라인 플랫폼 표시광고 심사지침 개정",
		ministry:     "공정거래위원회",
		summary:      "뒷광고 표시 의무 위반에 대한 심사 기준이 명확해집니다.",
		publishedAgo: 12,
		effectiveIn:  days(7),
		impact:       resp.ImpactMedium,
		category:     UpdateCategoryRegulation,
		industries:   []string{CategoryEcommerce, CategoryFoodtech},
		actions:      []string{"광고 표기 가이드 배포"},
	},
	{
		title:        "에듀테크 산업 실태조사 결과 발표",
		ministry:     "교육부",
		summary:      "에듀테크 시장 규모와 기업 현황 조사 결과가 공개되었습니다.",
		publishedAgo: 25,
		impact:       resp.ImpactLow,
		category:     UpdateCategoryMarket,
		industries:   []string{CategoryEdtech},
		actions:      []string{"시장 보고서 검토"},
	},
}

type templateFeed struct {
	now func() time.Time
}

func NewTemplateFeed() RegulatoryFeed {
	return &templateFeed{now: time.Now}
}

func (f *templateFeed) Name() string { return "template" }

func (f *templateFeed) Fetch(_ context.Context) ([]resp.RegulatoryUpdate, error) {
	now := f.now()
	out := make([]resp.RegulatoryUpdate, 0, len(updateTemplates))
	for i, t := range updateTemplates {
		u := resp.RegulatoryUpdate{
			ID:                 fmt.Sprintf("tmpl-%d", i+1),
			Title:              t.title,
			Ministry:           t.ministry,
			Summary:            t.summary,
			PublishedAt:        now.AddDate(0, 0, -t.publishedAgo),
			Impact:             t.impact,
			Category:           t.category,
			Credibility:        "high",
			AffectedIndustries: append([]string(nil), t.industries...),
			ActionItems:        append([]string(nil), t.actions...),
		}
		if t.effectiveIn != nil {
			at := now.AddDate(0, 0, *t.effectiveIn)
			u.EffectiveAt = &at
		}
		if t.deadlineIn != nil {
			at := now.AddDate(0, 0, *t.deadlineIn)
			u.DeadlineAt = &at
		}
		out = append(out, u)
	}
	return out, nil
}

// ---- RSS feed ----

type rssFeed struct {
	url     string
	timeout time.Duration
	parser  *gofeed.Parser
}

func NewRSSFeed(url string, timeout time.Duration) RegulatoryFeed {
	return &rssFeed{url: url, timeout: timeout, parser: gofeed.NewParser()}
}

func (f *rssFeed) Name() string { return f.url }

func (f *rssFeed) Fetch(ctx context.Context) ([]resp.RegulatoryUpdate, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.url, err)
	}

	out := make([]resp.RegulatoryUpdate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(out) >= maxItemsPerFeed {
			break
		}
		if u, ok := updateFromItem(item, feed.Title); ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func updateFromItem(item *gofeed.Item, source string) (resp.RegulatoryUpdate, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return resp.RegulatoryUpdate{}, false
	}
	link := item.Link
	if link == "" {
		link = item.GUID
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	default:
		published = time.Now()
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	summary = htmlText(summary)
	text := strings.ToLower(title + " " + summary)

	id := item.GUID
	if id == "" {
		id = link
	}
	return resp.RegulatoryUpdate{
		ID:                 id,
		Title:              title,
		Ministry:           strings.TrimSpace(source),
		Summary:            summary,
		PublishedAt:        published,
		Impact:             classifyImpact(text),
		Category:           classifyUpdateCategory(text),
		Credibility:        "medium",
		AffectedIndustries: industriesIn(text),
		SourceURL:          link,
	}, true
}

func htmlText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func classifyImpact(text string) resp.Impact {
	switch {
	case containsAny(text, []string{"과징금", "형사처벌", "영업정지", "금지"}):
		return resp.ImpactCritical
	case containsAny(text, []string{"의무", "과태료", "시행령", "시행"}):
		return resp.ImpactHigh
	case containsAny(text, []string{"개정", "가이드라인", "지침"}):
		return resp.ImpactMedium
	default:
		return resp.ImpactLow
	}
}

func classifyUpdateCategory(text string) string {
	switch {
	case containsAny(text, []string{"지원사업", "모집", "공고", "펀드", "보조금"}):
		return UpdateCategoryFunding
	case containsAny(text, []string{"시장", "조사", "통계", "동향"}):
		return UpdateCategoryMarket
	default:
		return UpdateCategoryRegulation
	}
}

// industriesIn maps free text onto the analyzer's categories.
func industriesIn(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range categoryRules {
		if !seen[r.category] && containsAny(text, r.keywords) {
			seen[r.category] = true
			out = append(out, r.category)
		}
	}
	if len(out) == 0 {
		return []string{IndustryAll}
	}
	return out
}

// ---- composite ----

// CompositeFeed merges every source; a failing source is logged and skipped
// as long as at least one source answers.
type CompositeFeed struct {
	feeds []RegulatoryFeed
	log   *zap.Logger
}

func NewCompositeFeed(log *zap.Logger, feeds ...RegulatoryFeed) *CompositeFeed {
	return &CompositeFeed{feeds: feeds, log: log}
}

func (c *CompositeFeed) Fetch(ctx context.Context) ([]resp.RegulatoryUpdate, error) {
	var all []resp.RegulatoryUpdate
	var lastErr error
	answered := 0
	for _, f := range c.feeds {
		items, err := f.Fetch(ctx)
		if err != nil {
			c.log.Warn("regulatory feed failed", zap.String("feed", f.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		answered++
		all = append(all, items...)
	}
	if answered == 0 && lastErr != nil {
		return nil, lastErr
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	return all, nil
}
