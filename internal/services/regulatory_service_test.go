package services

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/utils"
)

// countingSource records how often the analyzer asks for randomness.
type countingSource struct {
	rand.Source
	calls int
}

func (c *countingSource) Int63() int64 {
	c.calls++
	return c.Source.Int63()
}

func newCountingAnalyzer(seed int64) (RegulatoryAnalyzer, *countingSource) {
	src := &countingSource{Source: rand.NewSource(seed)}
	return NewRegulatoryAnalyzer(rand.New(src), nil), src
}

func TestAnalyze_StripeBrandOverride(t *testing.T) {
	a, src := newCountingAnalyzer(1)

	res, err := a.Analyze(context.Background(), "Stripe 같은 온라인 결제 서비스를 한국에서 운영하고 싶습니다")
	require.NoError(t, err)
	assert.Equal(t, CategoryFintech, res.Category)
	assert.Equal(t, 75, res.RiskScore)
	assert.Equal(t, "MODERATE RISK - SIGNIFICANT PREPARATION NEEDED", res.Verdict)
	assert.Equal(t, "6-12 months", res.Timeline)
	assert.Equal(t, 0, src.calls, "override path skips jitter")
	assert.Contains(t, res.SensitiveTopics, "payment")
	assert.NotEmpty(t, res.Regulations)
	assert.Regexp(t, `^[0-9,]+원$`, res.Costs.TotalDisplay)
}

func TestAnalyze_BrandCheckedBeforeGenericKeywords(t *testing.T) {
	a, _ := newCountingAnalyzer(1)

	res, err := a.Analyze(context.Background(), "Uber for food delivery in Busan")
	require.NoError(t, err)
	assert.Equal(t, CategoryMobility, res.Category)
	assert.Equal(t, 85, res.RiskScore)
	assert.Equal(t, "HIGH RISK - MAJOR REGULATORY BARRIERS", res.Verdict)
}

func TestAnalyze_BrandLookalikesDoNotMatch(t *testing.T) {
	a, _ := newCountingAnalyzer(1)

	for _, text := range []string{
		"동네 토스트 가게를 프랜차이즈로 키우고 싶어요",
		"토스터 렌탈 없이 쓰는 주방 가전 큐레이션",
		"tossed salad bowls for office lunch crowds",
	} {
		res, err := a.Analyze(context.Background(), text)
		require.NoError(t, err)
		assert.NotEqual(t, CategoryFintech, res.Category, text)
	}
}

func TestAnalyze_BrandWithParticleStillMatches(t *testing.T) {
	a, src := newCountingAnalyzer(1)

	for _, text := range []string{"토스처럼 간편한 송금 앱을 만들고 싶어요", "a toss-style remittance app for expats"} {
		res, err := a.Analyze(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, CategoryFintech, res.Category, text)
		assert.Equal(t, 70, res.RiskScore, text)
	}
	assert.Equal(t, 0, src.calls)
}

func TestAnalyze_ShortTextRejectedBeforeRandomness(t *testing.T) {
	a, src := newCountingAnalyzer(1)

	for _, text := range []string{"", "   ", "짧은 아이디어", "123456789"} {
		res, err := a.Analyze(context.Background(), text)
		assert.ErrorIs(t, err, utils.ErrIdeaTextTooShort, text)
		assert.Nil(t, res)
	}
	assert.Equal(t, 0, src.calls)
}

func TestAnalyze_ScoreAlwaysClamped(t *testing.T) {
	a, _ := newCountingAnalyzer(42)
	texts := []string{
		"simple note taking app for writers",
		"원격진료 의료 플랫폼으로 아동 건강정보와 개인정보, 해외 결제까지 처리",
		"교육 콘텐츠 구독 서비스를 만들고 싶어요",
		"해외 직구 쇼핑몰 커머스 with card payment and location tracking for kids",
	}
	for i := 0; i < 200; i++ {
		res, err := a.Analyze(context.Background(), texts[i%len(texts)])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.RiskScore, 20)
		assert.LessOrEqual(t, res.RiskScore, 95)
	}
}

func TestAnalyze_SeededGeneratorIsReproducible(t *testing.T) {
	a1, _ := newCountingAnalyzer(7)
	a2, _ := newCountingAnalyzer(7)
	text := "배달 음식 구독 서비스를 서울에서 시작"

	for i := 0; i < 10; i++ {
		r1, err := a1.Analyze(context.Background(), text)
		require.NoError(t, err)
		r2, _ := a2.Analyze(context.Background(), text)
		assert.Equal(t, r1.RiskScore, r2.RiskScore)
		assert.Equal(t, CategoryFoodtech, r1.Category)
		assert.InDelta(t, 40, r1.RiskScore, 5)
	}
}

func TestVerdictThresholds(t *testing.T) {
	cases := map[int]string{
		95: "12-18 months", 81: "12-18 months", 80: "6-12 months",
		61: "6-12 months", 60: "3-6 months", 41: "3-6 months",
		40: "1-3 months", 20: "1-3 months",
	}
	for score, want := range cases {
		_, timeline, _ := verdictFor(score)
		assert.Equal(t, want, timeline, score)
	}
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>금융위원회 보도자료</title>
<item>
  <title>전자금융업 과징금 부과 기준 개정</title>
  <link>https://example.go.kr/1</link>
  <guid>news-1</guid>
  <description>&lt;p&gt;결제 대행업체의 &lt;b&gt;과징금&lt;/b&gt; 기준이 바뀝니다.&lt;/p&gt;</description>
  <pubDate>Mon, 05 Oct 2026 09:00:00 +0900</pubDate>
</item>
<item>
  <title>청년 창업 지원사업 모집 공고</title>
  <link>https://example.go.kr/2</link>
  <pubDate>Sun, 04 Oct 2026 09:00:00 +0900</pubDate>
</item>
<item><title></title><link>https://example.go.kr/3</link></item>
</channel></rss>`

func TestRSSFeed_ParsesAndClassifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	items, err := NewRSSFeed(srv.URL, 2*time.Second).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2, "untitled items are dropped")

	first := items[0]
	assert.Equal(t, "news-1", first.ID)
	assert.Equal(t, "금융위원회 보도자료", first.Ministry)
	assert.Equal(t, "결제 대행업체의 과징금 기준이 바뀝니다.", first.Summary)
	assert.Equal(t, resp.ImpactCritical, first.Impact)
	assert.Equal(t, []string{CategoryFintech}, first.AffectedIndustries)
	assert.Equal(t, "medium", first.Credibility)

	second := items[1]
	assert.Equal(t, UpdateCategoryFunding, second.Category)
	assert.Equal(t, "https://example.go.kr/2", second.ID)
	assert.Equal(t, []string{IndustryAll}, second.AffectedIndustries)
}

type failingFeed struct{}

func (failingFeed) Name() string { return "broken" }
func (failingFeed) Fetch(context.Context) ([]resp.RegulatoryUpdate, error) {
	return nil, errors.New("timeout")
}

func TestCompositeFeed_SkipsFailingSource(t *testing.T) {
	feed := NewCompositeFeed(zap.NewNop(), failingFeed{}, NewTemplateFeed())
	items, err := feed.Fetch(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].PublishedAt.After(items[i-1].PublishedAt), "newest first")
	}

	_, err = NewCompositeFeed(zap.NewNop(), failingFeed{}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestRegulatoryService_AlertsByIndustry(t *testing.T) {
	svc := NewRegulatoryService(nil, NewTemplateFeed())

	alerts, err := svc.Alerts(context.Background(), []string{CategoryFintech})
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	for _, a := range alerts {
		assert.Contains(t, []resp.Impact{resp.ImpactHigh, resp.ImpactCritical}, a.Severity)
		ok := false
		for _, ind := range a.Update.AffectedIndustries {
			ok = ok || ind == CategoryFintech || ind == IndustryAll
		}
		assert.True(t, ok, a.Update.Title)
		assert.Contains(t, a.Message, "D-")
	}

	updates, err := svc.Updates(context.Background(), []string{CategoryEdtech}, 0)
	require.NoError(t, err)
	for _, u := range updates {
		assert.NotContains(t, u.AffectedIndustries, CategoryMobility)
	}

	limited, err := svc.Updates(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRegulatoryService_SourceFailureIsUpstream(t *testing.T) {
	svc := NewRegulatoryService(nil, NewCompositeFeed(zap.NewNop(), failingFeed{}))
	_, err := svc.Updates(context.Background(), nil, 0)
	assert.ErrorIs(t, err, utils.ErrUpstream)
}
