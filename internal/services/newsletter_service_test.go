package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/models/db_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/metrics"
	"koreafit/pkg/utils"
)

var newsletterNow = time.Date(2026, 10, 17, 10, 0, 0, 0, utils.KST())

func kstDay(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 9, 0, 0, 0, utils.KST())
}

func tptr(t time.Time) *time.Time { return &t }

// freshWeek is a week of updates that should pass both gates.
func freshWeek() []resp.RegulatoryUpdate {
	return []resp.RegulatoryUpdate{
		{
			ID:                 "u1",
			Title:              "전자금융거래법 시행령 개정",
			Ministry:           "금융위원회",
			Summary:            "간편결제 사업자의 이용자 자금 보호 의무가 강화됩니다.",
			PublishedAt:        kstDay(time.October, 16),
			EffectiveAt:        tptr(kstDay(time.October, 20)),
			Impact:             resp.ImpactCritical,
			Category:           UpdateCategoryRegulation,
			Credibility:        "high",
			AffectedIndustries: []string{CategoryFintech},
			ActionItems:        []string{"이용자 자금 별도 관리 계좌 점검"},
		},
		{
			ID:                 "u2",
			Title:              "청년창업사관학교 입교생 모집",
			Ministry:           "중소벤처기업부",
			Summary:            "예비 창업자 대상 지원사업 모집이 시작되었습니다.",
			PublishedAt:        kstDay(time.October, 15),
			DeadlineAt:         tptr(kstDay(time.October, 30)),
			Impact:             resp.ImpactHigh,
			Category:           UpdateCategoryFunding,
			Credibility:        "high",
			AffectedIndustries: []string{IndustryAll},
		},
	}
}

func staleWeek() []resp.RegulatoryUpdate {
	return []resp.RegulatoryUpdate{
		{ID: "s1", Title: "지난 봄 시장 동향", Ministry: "산업통상자원부", Summary: "수출 동향 정리", PublishedAt: kstDay(time.March, 2), Impact: resp.ImpactLow, Category: UpdateCategoryMarket, Credibility: "low"},
		{ID: "s2", Title: "지난 봄 소비 동향", Ministry: "기획재정부", Summary: "소비 동향 정리", PublishedAt: kstDay(time.March, 3), Impact: resp.ImpactLow, Category: UpdateCategoryMarket, Credibility: "low"},
	}
}

type newsletterFixture struct {
	svc    *newsletterService
	mailer *recordingMailer
	subs   *memSubscriberRepo
	reg    *stubRegulatory
	ideas  *mockIdeaRepo
}

func newNewsletterFixture(updates []resp.RegulatoryUpdate, testEmail string, subscribers ...string) *newsletterFixture {
	ideaRepo := new(mockIdeaRepo)
	ideaRepo.On("ListAll", mock.Anything).Return([]db_models.Idea{
		ideaRow("B2B 협업 SaaS", fptr(7.2)),
		ideaRow("반려동물 구독 커머스", fptr(8.4)),
	}, nil)

	f := &newsletterFixture{
		mailer: &recordingMailer{failFor: map[string]error{}},
		subs:   newMemSubscriberRepo(subscribers...),
		reg:    &stubRegulatory{updates: updates},
		ideas:  ideaRepo,
	}
	ideas := NewIdeaService(ideaRepo, NewScoringService(NewHashTrendAnalyzer()), zap.NewNop())
	svc := NewNewsletterService(f.reg, ideas, f.subs, f.mailer,
		config.NewsletterConfig{MaxIdeas: 3, MaxUpdates: 5}, testEmail, metrics.NewCollector(), zap.NewNop())
	f.svc = svc.(*newsletterService)
	f.svc.now = func() time.Time { return newsletterNow }
	return f
}

func TestPreview_FreshWeekPassesBothGates(t *testing.T) {
	f := newNewsletterFixture(freshWeek(), "")

	p, err := f.svc.Preview(context.Background())
	require.NoError(t, err)

	assert.True(t, p.CanSend, "blocked by %v, findings %+v", p.BlockedBy, p.FactCheck.Errors)
	assert.Empty(t, p.BlockedBy)
	assert.Empty(t, p.FactCheck.Errors)
	assert.Empty(t, p.FactCheck.Warnings)
	assert.Equal(t, 4, p.FactCheck.Sources)
	assert.Equal(t, 100.0, p.FactCheck.Confidence)

	assert.Equal(t, TimelinessReady, p.Timeliness.Status)
	require.Len(t, p.Timeliness.Items, 2, "idea articles carry no dates")
	for _, item := range p.Timeliness.Items {
		assert.Equal(t, resp.BucketImmediate, item.Bucket, item.Text)
	}
	first := p.Timeliness.Items[0]
	require.NotNil(t, first.PublishedAt)
	require.NotNil(t, first.EffectiveAt)
	assert.Equal(t, "2026-10-16", utils.FormatDateKST(*first.PublishedAt))
	assert.Equal(t, "2026-10-20", utils.FormatDateKST(*first.EffectiveAt))
	assert.Equal(t, UpdateCategoryRegulation, first.Category)
	assert.Equal(t, "high", first.Urgency)

	n := p.Newsletter
	assert.Equal(t, "2026-10-17", n.Edition)
	assert.Equal(t, "[Korea Fit 2026-10-17] 주요 규제 변화: 전자금융거래법 시행령 개정", n.Subject)
	assert.Equal(t, 2, n.Metrics.UpdateCount)
	assert.Equal(t, 2, n.Metrics.IdeaCount)
	assert.Equal(t, 2, n.Metrics.HighImpactCount)
	require.Len(t, n.Sections, 2)
	assert.Equal(t, SectionRegulatory, n.Sections[0].Key)
	assert.Contains(t, n.Sections[0].Markdown, "(출처: 금융위원회, 2026-10-16)")
	assert.Contains(t, n.Sections[0].Markdown, "- 시행일: 2026-10-20")
	ideasMD := n.Sections[1].Markdown
	assert.Less(t, strings.Index(ideasMD, "반려동물 구독 커머스"), strings.Index(ideasMD, "B2B 협업 SaaS"), "ideas sorted by korea fit")
	assert.Contains(t, n.HTML, `data-category="regulation"`)
	assert.Contains(t, n.Text, "## 이번 주 규제 업데이트")
}

func TestAssemble_RespectsLimitsAndEscapesMarkdown(t *testing.T) {
	f := newNewsletterFixture(nil, "")
	ideas := []resp.Idea{
		{ID: "1", Title: "*굵게* [링크](x)", Summary: "요약"},
		{ID: "2", Title: "second", Summary: "요약"},
	}

	n, err := f.svc.Assemble(freshWeek(), ideas, NewsletterOptions{MaxUpdates: 1, MaxIdeas: 1, Edition: "vol-12"})
	require.NoError(t, err)
	assert.Equal(t, 1, n.Metrics.UpdateCount)
	assert.Equal(t, 1, n.Metrics.IdeaCount)
	assert.Equal(t, "vol-12", n.Edition)
	assert.Contains(t, n.Sections[1].Markdown, `\*굵게\* \[링크\](x)`)
	assert.NotContains(t, n.HTML, "<em>굵게</em>")
	assert.Contains(t, n.Sections[1].Markdown, "(출처: Korea Fit 분석)")
}

func TestAssemble_EmptyInputsNeedContent(t *testing.T) {
	f := newNewsletterFixture(nil, "")

	n, err := f.svc.Assemble(nil, nil, NewsletterOptions{})
	require.NoError(t, err)
	assert.Empty(t, n.Sections)
	assert.Equal(t, "[Korea Fit 2026-10-17] 이번 주 규제와 시장 기회", n.Subject)

	p := f.svc.Gate(n)
	assert.Equal(t, TimelinessNeedsContent, p.Timeliness.Status)
	assert.Equal(t, 50.0, p.Timeliness.Confidence)
	assert.True(t, p.CanSend, "an empty edition is not blocked by itself")
}

func TestPreview_StaleWeekIsBlocked(t *testing.T) {
	f := newNewsletterFixture(staleWeek(), "", "a@example.com")

	res, err := f.svc.SendScheduled(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, []string{"timeliness"}, res.BlockedBy)
	assert.Empty(t, f.mailer.sent)

	_, err = f.svc.SendTest(context.Background(), "qa@example.com")
	assert.ErrorIs(t, err, utils.ErrNewsletterBlocked)
	assert.Empty(t, f.mailer.sent)
}

func TestGate_FactCheckBlocksUnattributedClaims(t *testing.T) {
	f := newNewsletterFixture(nil, "")
	n := &resp.Newsletter{HTML: `<html><body>
		<p>금융위원회가 어제(2026-10-10) 새 지침을 내놓았습니다.</p>
	</body></html>`}

	p := f.svc.Gate(n)
	assert.False(t, p.CanSend)
	assert.Equal(t, []string{"fact_check"}, p.BlockedBy)
	require.Len(t, p.FactCheck.Errors, 2)
	assert.Equal(t, FindingUnattributedAgency, p.FactCheck.Errors[0].Kind)
	assert.Equal(t, FindingRelativeDate, p.FactCheck.Errors[1].Kind)
	assert.Equal(t, 50.0, p.FactCheck.Confidence)
}

func TestSendScheduled_IsolatesRecipientFailures(t *testing.T) {
	f := newNewsletterFixture(freshWeek(), "", "a@example.com", "b@example.com", "c@example.com")
	f.mailer.failFor["b@example.com"] = errors.New("mailbox full")
	_, _ = f.subs.Deactivate(context.Background(), "c@example.com", "unsubscribed")

	res, err := f.svc.SendScheduled(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Equal(t, 2, res.Recipients)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "a@example.com", f.mailer.sent[0].To)
	assert.Equal(t, res.Subject, f.mailer.sent[0].Subject)
}

func TestSendScheduled_TestRecipientOverridesList(t *testing.T) {
	f := newNewsletterFixture(freshWeek(), "qa@koreafit.kr", "a@example.com")
	f.subs.listErr = errors.New("must not be called")

	res, err := f.svc.SendScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "qa@koreafit.kr", f.mailer.sent[0].To)
}

func TestSendScheduled_SubscriberListFailure(t *testing.T) {
	f := newNewsletterFixture(freshWeek(), "")
	f.subs.listErr = errors.New("conn reset")

	_, err := f.svc.SendScheduled(context.Background())
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
}

func TestPreview_FailsWhenEitherSourceFails(t *testing.T) {
	f := newNewsletterFixture(freshWeek(), "")
	f.reg.err = errors.New("feed down")
	_, err := f.svc.Preview(context.Background())
	assert.Error(t, err)

	g := newNewsletterFixture(freshWeek(), "")
	g.ideas.ExpectedCalls = nil
	g.ideas.On("ListAll", mock.Anything).Return(nil, errors.New("db down"))
	_, err = g.svc.Preview(context.Background())
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
}

// ---- gates ----

func TestTimelinessEvaluate_ConfidenceFormula(t *testing.T) {
	g := &TimelinessGate{now: func() time.Time { return newsletterNow }}
	items := []resp.TimelinessItem{
		{
			PublishedAt: tptr(kstDay(time.October, 16)),
			EffectiveAt: tptr(kstDay(time.October, 20)),
			Category:    UpdateCategoryRegulation,
			Urgency:     "high",
			Credibility: "high",
		},
		{PublishedAt: tptr(kstDay(time.March, 1)), Urgency: "low", Credibility: "low"},
	}

	r := g.Evaluate(items)
	assert.Equal(t, 100, r.Items[0].Score)
	assert.Equal(t, 15, r.Items[1].Score)
	assert.Equal(t, []int{0}, r.Include)
	assert.Equal(t, []int{1}, r.Archive)
	// 70 + (0.5-0.5)*40 + (57.5-50)*0.3 + 5 - 5
	assert.InDelta(t, 72.25, r.Confidence, 0.06)
	assert.Equal(t, TimelinessReady, r.Status, "half stale is not too_stale")

	empty := g.Evaluate(nil)
	assert.Equal(t, 50.0, empty.Confidence)
	assert.Equal(t, TimelinessNeedsContent, empty.Status)
	assert.NotNil(t, empty.Items)
}

func TestScoreTimeliness_PassedDeadline(t *testing.T) {
	item := resp.TimelinessItem{
		PublishedAt: tptr(kstDay(time.October, 7)),
		DeadlineAt:  tptr(kstDay(time.October, 15)),
		Category:    UpdateCategoryRegulation,
		Urgency:     "low",
		Credibility: "medium",
	}
	// 50 + 5 - 25 + 10 + 5
	assert.Equal(t, 45, ScoreTimeliness(item, newsletterNow))
	assert.Equal(t, resp.BucketRelevant, bucketFor(45))
	assert.Equal(t, resp.BucketBackground, bucketFor(44))
	assert.Equal(t, resp.BucketStale, bucketFor(24))
}

func TestTimelinessEvaluateHTML_ReadsArticlesAndLooseBlocks(t *testing.T) {
	g := &TimelinessGate{now: func() time.Time { return newsletterNow }}
	html := `<article data-category="regulation" data-urgency="high" data-credibility="high">
		<p>시행일: 2026년 10월 20일</p><p>(출처: 금융위원회, 2026.10.16)</p>
	</article>
	<p>2026-03-01 발표된 자료</p>
	<p>날짜 없는 문단</p>`

	r := g.EvaluateHTML(html)
	require.Len(t, r.Items, 2)
	assert.Equal(t, "2026-10-20", utils.FormatDateKST(*r.Items[0].EffectiveAt))
	assert.Equal(t, "2026-10-16", utils.FormatDateKST(*r.Items[0].PublishedAt))
	assert.Equal(t, "general", r.Items[1].Category)
	assert.Equal(t, resp.BucketStale, r.Items[1].Bucket)
}

func TestFactCheckBlocks(t *testing.T) {
	g := &FactCheckGate{now: func() time.Time { return newsletterNow }}

	cases := []struct {
		name     string
		block    string
		errors   []string
		warnings []string
	}{
		{"sourced relative date", "금융위원회는 어제(2026-10-16) 지침을 발표했습니다. (출처: 금융위원회)", nil, nil},
		{"relative date mismatch", "오늘 2026-10-12 공개된 자료 (출처: 국세청)", []string{FindingRelativeDate}, nil},
		{"unqualified penalty", "위반 시 과태료 3천만원이 부과됩니다. (출처: 개인정보보호위원회)", nil, []string{FindingUnqualifiedPenalty}},
		{"qualified penalty", "위반 시 최대 3천만원의 과태료가 부과됩니다. (출처: 개인정보보호위원회)", nil, nil},
		{"unsourced figure", "국내 시장 규모는 2조 원에 달합니다.", nil, []string{FindingUnsourcedFigure}},
		{"already before effective date", "이미 시행 중인 제도입니다. 시행일: 2026-10-20 (출처: 금융위원회)", []string{FindingRelativeDate}, nil},
		{"already after effective date", "이미 시행 중인 제도입니다. 시행일: 2026-10-01 (출처: 금융위원회)", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := g.CheckBlocks([]string{tc.block})
			assert.Equal(t, tc.errors, kinds(r.Errors))
			assert.Equal(t, tc.warnings, kinds(r.Warnings))
		})
	}
}

func kinds(fs []resp.FactCheckFinding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Kind)
	}
	return out
}

func TestFactCheckConfidence(t *testing.T) {
	assert.Equal(t, 100.0, FactCheckConfidence(0, 0, 0))
	assert.Equal(t, 75.0, FactCheckConfidence(1, 0, 0))
	assert.Equal(t, 85.0, FactCheckConfidence(0, 2, 1))
	assert.Equal(t, 100.0, FactCheckConfidence(0, 0, 10))
	assert.Equal(t, 0.0, FactCheckConfidence(5, 0, 0))

	g := &FactCheckGate{now: func() time.Time { return newsletterNow }}
	r := g.CheckBlocks([]string{"과태료 부과", "벌금 부과"})
	assert.Equal(t, 80.0, r.Confidence)
	assert.False(t, r.CanSend, "below the send threshold even without errors")
}
