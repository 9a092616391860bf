package services

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/metrics"
	"koreafit/pkg/utils"
)

const (
	minIdeaTextRunes = 10
	minRiskScore     = 20
	maxRiskScore     = 95
)

const (
	CategoryFintech    = "fintech"
	CategoryHealthtech = "healthtech"
	CategoryMobility   = "mobility"
	CategoryProptech   = "proptech"
	CategoryEdtech     = "edtech"
	CategoryFoodtech   = "foodtech"
	CategoryEcommerce  = "ecommerce"
	CategoryGeneral    = "general"
)

type categoryRule struct {
	category string
	keywords []string
}

// Brand names are checked before categoryRules so "Uber for food delivery"
// is mobility, not food.
var brandRules = []categoryRule{
	{CategoryFintech, []string{"stripe", "paypal", "toss", "토스", "카카오페이", "venmo"}},
	{CategoryMobility, []string{"uber", "lyft", "grab", "타다"}},
	{CategoryProptech, []string{"airbnb", "에어비앤비"}},
}

// brandLookalikes are everyday words that begin with a brand name.
var brandLookalikes = map[string][]string{
	"토스": {"토스트", "토스터"},
}

var categoryRules = []categoryRule{
	{CategoryFintech, []string{"결제", "송금", "payment", "핀테크", "fintech", "대출", "lending", "암호화폐", "crypto", "보험"}},
	{CategoryHealthtech, []string{"의료", "병원", "health", "medical", "원격진료", "telemedicine", "약국", "의약품", "헬스케어"}},
	{CategoryMobility, []string{"모빌리티", "차량공유", "ride-sharing", "ridesharing", "택시", "taxi", "카풀", "킥보드"}},
	{CategoryProptech, []string{"숙박", "부동산", "real estate", "공유숙박", "임대", "rental"}},
	{CategoryEdtech, []string{"교육", "학원", "education", "tutoring", "과외", "edtech", "강의"}},
	{CategoryFoodtech, []string{"배달", "음식", "food", "식품", "restaurant", "밀키트", "레스토랑"}},
	{CategoryEcommerce, []string{"쇼핑몰", "커머스", "e-commerce", "ecommerce", "marketplace", "마켓플레이스", "온라인 판매"}},
}

var baseRisk = map[string]int{
	CategoryFintech:    65,
	CategoryHealthtech: 70,
	CategoryMobility:   60,
	CategoryProptech:   55,
	CategoryEdtech:     35,
	CategoryFoodtech:   40,
	CategoryEcommerce:  35,
	CategoryGeneral:    30,
}

type sensitiveTopic struct {
	name      string
	increment int
	keywords  []string
}

var sensitiveTopics = []sensitiveTopic{
	{"personal_data", 10, []string{"개인정보", "personal data", "위치정보", "location", "생체", "biometric"}},
	{"payment", 8, []string{"결제", "payment", "송금", "카드", "card"}},
	{"medical", 12, []string{"의료", "medical", "진료", "건강정보", "처방"}},
	{"minors", 10, []string{"아동", "청소년", "미성년", "어린이", "children", "kids", "minor"}},
	{"cross_border", 7, []string{"해외", "글로벌", "cross-border", "직구", "overseas", "수입"}},
}

type brandOverride struct {
	keywords []string
	score    int
}

// Overrides replace the additive score outright and skip jitter.
var brandOverrides = map[string][]brandOverride{
	CategoryFintech: {
		{[]string{"stripe", "paypal"}, 75},
		{[]string{"toss", "토스"}, 70},
	},
	CategoryMobility: {
		{[]string{"uber", "lyft"}, 85},
		{[]string{"grab"}, 80},
	},
	CategoryProptech: {
		{[]string{"airbnb", "에어비앤비"}, 80},
	},
}

type RegulatoryAnalyzer interface {
	Analyze(ctx context.Context, ideaText string) (*resp.RegulatoryAnalysis, error)
}

type regulatoryAnalyzer struct {
	mu      sync.Mutex
	rng     *rand.Rand
	metrics *metrics.Collector
	krw     *message.Printer
}

// NewRegulatoryAnalyzer takes the jitter source explicitly; tests pass a
// seeded generator to pin scores.
func NewRegulatoryAnalyzer(rng *rand.Rand, m *metrics.Collector) RegulatoryAnalyzer {
	return &regulatoryAnalyzer{rng: rng, metrics: m, krw: message.NewPrinter(language.Korean)}
}

func (a *regulatoryAnalyzer) Analyze(_ context.Context, ideaText string) (*resp.RegulatoryAnalysis, error) {
	text := strings.TrimSpace(ideaText)
	if utf8.RuneCountInString(text) < minIdeaTextRunes {
		return nil, utils.ErrIdeaTextTooShort
	}
	lower := strings.ToLower(text)

	category := categorize(lower)
	score := baseRisk[category]
	topics := []string{}
	for _, t := range sensitiveTopics {
		if containsAny(lower, t.keywords) {
			score += t.increment
			topics = append(topics, t.name)
		}
	}

	if override, ok := brandOverrideFor(category, lower); ok {
		score = override
	} else {
		score += a.jitter()
	}
	score = clampInt(score, minRiskScore, maxRiskScore)

	verdict, timeline, band := verdictFor(score)
	a.metrics.RecordAnalysis(category, band)

	return &resp.RegulatoryAnalysis{
		Category:        category,
		RiskScore:       score,
		SensitiveTopics: topics,
		Regulations:     regulationsFor(category, topics),
		Costs:           a.costsFor(category, topics),
		Competitors:     append([]string(nil), competitorsByCategory[category]...),
		SuccessStories:  append([]string(nil), successStoriesByCategory[category]...),
		Timeline:        timeline,
		Verdict:         verdict,
	}, nil
}

func (a *regulatoryAnalyzer) jitter() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Intn(11) - 5
}

func categorize(lower string) string {
	for _, r := range brandRules {
		if containsBrand(lower, r.keywords) {
			return r.category
		}
	}
	for _, r := range categoryRules {
		if containsAny(lower, r.keywords) {
			return r.category
		}
	}
	return CategoryGeneral
}

func brandOverrideFor(category, lower string) (int, bool) {
	for _, o := range brandOverrides[category] {
		if containsBrand(lower, o.keywords) {
			return o.score, true
		}
	}
	return 0, false
}

// verdictFor steps on 40/60/80; the band is the metrics label.
func verdictFor(score int) (verdict, timeline, band string) {
	switch {
	case score > 80:
		return "HIGH RISK - MAJOR REGULATORY BARRIERS", "12-18 months", "high"
	case score > 60:
		return "MODERATE RISK - SIGNIFICANT PREPARATION NEEDED", "6-12 months", "moderate"
	case score > 40:
		return "MANAGEABLE RISK - STANDARD COMPLIANCE", "3-6 months", "manageable"
	default:
		return "LOW RISK - READY TO LAUNCH", "1-3 months", "low"
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// containsBrand matches whole words for latin brand names and skips
// occurrences that start a known lookalike word. Korean particles may follow
// a Hangul brand directly, so those are not boundary checked.
func containsBrand(s string, keywords []string) bool {
	for _, k := range keywords {
		for i := 0; i < len(s); {
			j := strings.Index(s[i:], k)
			if j < 0 {
				break
			}
			at := i + j
			if brandMatchAt(s, k, at) {
				return true
			}
			i = at + len(k)
		}
	}
	return false
}

func brandMatchAt(s, k string, at int) bool {
	for _, w := range brandLookalikes[k] {
		if strings.HasPrefix(s[at:], w) {
			return false
		}
	}
	if !isASCII(k) {
		return true
	}
	if at > 0 && isWordByte(s[at-1]) {
		return false
	}
	end := at + len(k)
	return end >= len(s) || !isWordByte(s[end])
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ---- canned knowledge ----

var commonRegulations = []resp.Regulation{
	{Name: "사업자등록", Authority: "국세청", Description: "개업 후 20일 이내 사업자등록 신청", Mandatory: true},
	{Name: "통신판매업 신고", Authority: "관할 시·군·구청", Description: "온라인으로 재화나 용역을 판매하는 경우 신고", Mandatory: true},
}

var regulationsByCategory = map[string][]resp.Regulation{
	CategoryFintech: {
		{Name: "전자금융업 등록", Authority: "금융위원회", Description: "전자지급결제대행(PG) 등 전자금융업 영위 시 등록 및 자본금 요건 충족", Mandatory: true},
		{Name: "특정금융정보법 준수", Authority: "금융정보분석원", Description: "자금세탁방지 의무와 고객확인 절차 마련", Mandatory: true},
		{Name: "금융규제 샌드박스", Authority: "금융위원회", Description: "혁신금융서비스 지정을 통한 한시적 규제 특례", Mandatory: false},
	},
	CategoryHealthtech: {
		{Name: "의료기기 허가", Authority: "식품의약품안전처", Description: "소프트웨어 의료기기 해당 여부 판단 및 인허가", Mandatory: true},
		{Name: "의료법 준수", Authority: "보건복지부", Description: "원격의료와 의료광고 제한 규정 확인", Mandatory: true},
	},
	CategoryMobility: {
		{Name: "여객자동차운수사업법", Authority: "국토교통부", Description: "운송플랫폼사업 허가 및 기여금 요건", Mandatory: true},
		{Name: "위치정보사업 신고", Authority: "방송통신위원회", Description: "위치기반서비스사업 신고", Mandatory: true},
	},
	CategoryProptech: {
		{Name: "관광진흥법 숙박업 등록", Authority: "문화체육관광부", Description: "외국인관광 도시민박업 등 숙박업 지정", Mandatory: true},
		{Name: "공인중개사법", Authority: "국토교통부", Description: "중개 행위 해당 시 개설등록 필요", Mandatory: false},
	},
	CategoryEdtech: {
		{Name: "학원법 신고", Authority: "교육청", Description: "오프라인 교습 병행 시 학원 또는 교습소 신고", Mandatory: false},
	},
	CategoryFoodtech: {
		{Name: "식품위생법 영업신고", Authority: "식품의약품안전처", Description: "식품 제조·판매 영업 신고 및 위생교육 이수", Mandatory: true},
	},
	CategoryEcommerce: {
		{Name: "전자상거래법 준수", Authority: "공정거래위원회", Description: "청약철회와 표시광고 의무 이행", Mandatory: true},
	},
}

var topicRegulations = map[string]resp.Regulation{
	"personal_data": {Name: "개인정보보호법", Authority: "개인정보보호위원회", Description: "개인정보 수집·이용 동의와 처리방침 공개", Mandatory: true},
	"minors":        {Name: "청소년보호법", Authority: "여성가족부", Description: "청소년 유해매체 및 법정대리인 동의 요건 확인", Mandatory: true},
	"cross_border":  {Name: "개인정보 국외 이전 요건", Authority: "개인정보보호위원회", Description: "국외 이전 시 별도 동의 또는 인정 요건 충족", Mandatory: true},
}

func regulationsFor(category string, topics []string) []resp.Regulation {
	out := append([]resp.Regulation(nil), commonRegulations...)
	out = append(out, regulationsByCategory[category]...)
	for _, t := range topics {
		if r, ok := topicRegulations[t]; ok {
			out = append(out, r)
		}
	}
	return out
}

var costsByCategory = map[string][]resp.CostItem{
	CategoryFintech:    {{Name: "전자금융업 등록 자본금", AmountKRW: 300_000_000}, {Name: "보안 인증 및 취약점 점검", AmountKRW: 50_000_000}},
	CategoryHealthtech: {{Name: "의료기기 인허가 컨설팅", AmountKRW: 80_000_000}, {Name: "임상 데이터 검증", AmountKRW: 120_000_000}},
	CategoryMobility:   {{Name: "운송플랫폼 허가 및 기여금", AmountKRW: 100_000_000}, {Name: "보험 가입", AmountKRW: 30_000_000}},
	CategoryProptech:   {{Name: "숙박업 등록 및 시설 요건", AmountKRW: 20_000_000}},
	CategoryEdtech:     {{Name: "콘텐츠 저작권 검토", AmountKRW: 5_000_000}},
	CategoryFoodtech:   {{Name: "영업신고 및 위생 설비", AmountKRW: 15_000_000}},
	CategoryEcommerce:  {{Name: "전자상거래 약관 검토", AmountKRW: 3_000_000}},
}

func (a *regulatoryAnalyzer) costsFor(category string, topics []string) resp.CostEstimate {
	items := []resp.CostItem{{Name: "법인 설립 및 사업자등록", AmountKRW: 2_000_000}, {Name: "법률 자문", AmountKRW: 10_000_000}}
	items = append(items, costsByCategory[category]...)
	for _, t := range topics {
		if t == "personal_data" {
			items = append(items, resp.CostItem{Name: "개인정보보호 관리체계 구축", AmountKRW: 20_000_000})
		}
	}

	var total int64
	for i := range items {
		items[i].Display = a.formatKRW(items[i].AmountKRW)
		total += items[i].AmountKRW
	}
	return resp.CostEstimate{Items: items, TotalKRW: total, TotalDisplay: a.formatKRW(total)}
}

func (a *regulatoryAnalyzer) formatKRW(n int64) string {
	return a.krw.Sprintf("%d원", n)
}

var competitorsByCategory = map[string][]string{
	CategoryFintech:    {"토스", "카카오페이", "네이버페이"},
	CategoryHealthtech: {"닥터나우", "굿닥", "똑닥"},
	CategoryMobility:   {"카카오모빌리티", "타다", "우티"},
	CategoryProptech:   {"직방", "다방", "야놀자"},
	CategoryEdtech:     {"클래스101", "뤼이드", "콴다"},
	CategoryFoodtech:   {"배달의민족", "쿠팡이츠", "요기요"},
	CategoryEcommerce:  {"쿠팡", "네이버 스마트스토어", "11번가"},
	CategoryGeneral:    {},
}

var successStoriesByCategory = map[string][]string{
	CategoryFintech:    {"토스: 간편송금으로 시작해 종합 금융 플랫폼으로 확장"},
	CategoryHealthtech: {"닥터나우: 한시적 비대면 진료 허용 기간에 빠르게 성장"},
	CategoryMobility:   {"카카오T: 기존 택시 사업자와의 협력 모델로 시장 진입"},
	CategoryProptech:   {"야놀자: 숙박 예약에서 여가 플랫폼으로 확장"},
	CategoryEdtech:     {"콴다: 사진 한 장으로 문제 풀이를 제공해 해외 진출"},
	CategoryFoodtech:   {"배달의민족: 지역 음식점 데이터베이스로 시장 선점"},
	CategoryEcommerce:  {"쿠팡: 로켓배송 물류 투자로 차별화"},
	CategoryGeneral:    {},
}
