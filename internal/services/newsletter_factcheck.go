package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/utils"
)

// MinSendConfidence is the fact-check confidence a newsletter needs to go out.
const MinSendConfidence = 85

const (
	FindingUnattributedAgency = "unattributed_agency"
	FindingRelativeDate       = "relative_date"
	FindingUnqualifiedPenalty = "unqualified_penalty"
	FindingUnsourcedFigure    = "unsourced_figure"
)

var agencyNames = []string{
	"금융위원회", "금융감독원", "개인정보보호위원회", "공정거래위원회", "방송통신위원회",
	"중소벤처기업부", "과학기술정보통신부", "산업통상자원부", "보건복지부", "국토교통부",
	"교육부", "기획재정부", "식품의약품안전처", "국세청", "관세청", "금융정보분석원", "정부",
}

var (
	sourceMarker   = regexp.MustCompile(`(출처\s*[:：]|\(source:|source:)`)
	penaltyWords   = []string{"과태료", "과징금", "벌금", "징역", "형사처벌", "penalty", "fine of"}
	qualifierWords = []string{"최대", "이하", "이내", "까지", "up to", "or less", "at most"}
	figurePattern  = regexp.MustCompile(`\d+(?:\.\d+)?\s*%|\d+(?:\.\d+)?\s*(?:조|억|만)\s*원|시장\s*규모|market size`)
)

type relativeWord struct {
	pattern *regexp.Regexp
	label   string
	// ok reports whether a date delta (now minus date, in days) fits the word.
	ok func(delta int) bool
	// effective words are checked against the effective date when one is stated.
	effective bool
}

var relativeWords = []relativeWord{
	{regexp.MustCompile(`어제|yesterday`), "어제", func(d int) bool { return d == 1 }, false},
	{regexp.MustCompile(`오늘|today`), "오늘", func(d int) bool { return d == 0 }, false},
	{regexp.MustCompile(`방금|just now`), "방금", func(d int) bool { return d == 0 }, false},
	{regexp.MustCompile(`이미(?:\s|$)|already`), "이미", func(d int) bool { return d >= 0 }, true},
}

// FactCheckGate lints generated newsletter HTML for citation gaps and
// internal inconsistencies. It cannot establish that anything is true.
type FactCheckGate struct {
	now func() time.Time
}

func NewFactCheckGate() *FactCheckGate {
	return &FactCheckGate{now: time.Now}
}

// CheckHTML inspects each article, plus p and li blocks outside articles.
func (g *FactCheckGate) CheckHTML(html string) resp.FactCheckReport {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return g.score(nil, nil, 0)
	}

	var blocks []*goquery.Selection
	doc.Find("article").Each(func(_ int, s *goquery.Selection) { blocks = append(blocks, s) })
	doc.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("article").Length() == 0 {
			blocks = append(blocks, s)
		}
	})

	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		texts = append(texts, normalizeSpace(b.Text()))
	}
	return g.CheckBlocks(texts)
}

// CheckBlocks runs every rule over plain-text blocks. A block counts as
// sourced when it carries an explicit source marker.
func (g *FactCheckGate) CheckBlocks(blocks []string) resp.FactCheckReport {
	now := g.now()
	var errs, warns []resp.FactCheckFinding
	sources := 0

	for _, text := range blocks {
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		sourced := sourceMarker.MatchString(lower)
		if sourced {
			sources++
		}
		excerpt := truncateRunes(text, 80)

		if !sourced {
			if agency, ok := firstContained(text, agencyNames); ok {
				errs = append(errs, resp.FactCheckFinding{
					Kind:    FindingUnattributedAgency,
					Message: fmt.Sprintf("%s 관련 주장에 출처가 없습니다", agency),
					Excerpt: excerpt,
				})
			}
		}

		if dated := extractDates(text); len(dated.all) > 0 {
			for _, w := range relativeWords {
				if !w.pattern.MatchString(lower) {
					continue
				}
				dates := dated.all
				if w.effective && dated.effective != nil {
					dates = []time.Time{*dated.effective}
				}
				if !anyDateFits(dates, now, w.ok) {
					errs = append(errs, resp.FactCheckFinding{
						Kind:    FindingRelativeDate,
						Message: fmt.Sprintf("'%s' 표현이 실제 날짜와 맞지 않습니다", w.label),
						Excerpt: excerpt,
					})
				}
			}
		}

		if _, ok := firstContained(lower, penaltyWords); ok {
			if _, qualified := firstContained(lower, qualifierWords); !qualified {
				warns = append(warns, resp.FactCheckFinding{
					Kind:    FindingUnqualifiedPenalty,
					Message: "처벌 규정에 '최대' 또는 '이하' 같은 한정 표현이 없습니다",
					Excerpt: excerpt,
				})
			}
		}

		if !sourced && figurePattern.MatchString(lower) {
			warns = append(warns, resp.FactCheckFinding{
				Kind:    FindingUnsourcedFigure,
				Message: "수치 또는 시장 규모 주장에 출처가 없습니다",
				Excerpt: excerpt,
			})
		}
	}
	return g.score(errs, warns, sources)
}

func (g *FactCheckGate) score(errs, warns []resp.FactCheckFinding, sources int) resp.FactCheckReport {
	if errs == nil {
		errs = []resp.FactCheckFinding{}
	}
	if warns == nil {
		warns = []resp.FactCheckFinding{}
	}
	confidence := FactCheckConfidence(len(errs), len(warns), sources)
	return resp.FactCheckReport{
		Errors:     errs,
		Warnings:   warns,
		Sources:    sources,
		Confidence: confidence,
		CanSend:    confidence >= MinSendConfidence && len(errs) == 0,
	}
}

// FactCheckConfidence is 100 - 25e - 10w + min(5s, 20), clamped to 0..100.
func FactCheckConfidence(errors, warnings, sources int) float64 {
	c := 100 - 25*float64(errors) - 10*float64(warnings) + math.Min(5*float64(sources), 20)
	return clamp(c, 0, 100)
}

// ---- helpers ----

func firstContained(s string, words []string) (string, bool) {
	for _, w := range words {
		if strings.Contains(s, w) {
			return w, true
		}
	}
	return "", false
}

func anyDateFits(dates []time.Time, now time.Time, ok func(int) bool) bool {
	for _, d := range dates {
		if ok(utils.DaysBetween(d, now)) {
			return true
		}
	}
	return false
}
