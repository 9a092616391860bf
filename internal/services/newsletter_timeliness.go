package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/utils"
)

const (
	TimelinessReady        = "ready"
	TimelinessNeedsContent = "needs_content"
	TimelinessTooStale     = "too_stale"
	TimelinessIssues       = "timing_issues"
)

// datePattern matches 2026-10-16, 2026.10.16 and 2026년 10월 16일, with an
// optional role label in front.
var datePattern = regexp.MustCompile(`(?:(발표일|시행일|마감일)\s*[:：]?\s*)?(\d{4})\s*[-./년]\s*(\d{1,2})\s*[-./월]\s*(\d{1,2})일?`)

type datedText struct {
	published *time.Time
	effective *time.Time
	deadline  *time.Time
	all       []time.Time
}

func extractDates(text string) datedText {
	var out datedText
	for _, m := range datePattern.FindAllStringSubmatch(text, -1) {
		y, _ := strconv.Atoi(m[2])
		mo, _ := strconv.Atoi(m[3])
		d, _ := strconv.Atoi(m[4])
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			continue
		}
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, utils.KST())
		out.all = append(out.all, t)

		switch m[1] {
		case "시행일":
			if out.effective == nil {
				out.effective = &t
			}
		case "마감일":
			if out.deadline == nil {
				out.deadline = &t
			}
		default:
			if out.published == nil {
				out.published = &t
			}
		}
	}
	return out
}

// TimelinessGate scores how current the dated items of a rendered
// newsletter are. It reads dates from text, so it can only judge what the
// HTML states.
type TimelinessGate struct {
	now func() time.Time
}

func NewTimelinessGate() *TimelinessGate {
	return &TimelinessGate{now: time.Now}
}

// EvaluateHTML treats every <article> as one item, plus any dated p or li
// outside an article. Articles may carry data-category, data-urgency and
// data-credibility attributes.
func (g *TimelinessGate) EvaluateHTML(html string) resp.TimelinessReport {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return g.Evaluate(nil)
	}

	var items []resp.TimelinessItem
	collect := func(sel *goquery.Selection) {
		text := normalizeSpace(sel.Text())
		dates := extractDates(text)
		if len(dates.all) == 0 {
			return
		}
		items = append(items, resp.TimelinessItem{
			Text:        truncateRunes(text, 120),
			PublishedAt: dates.published,
			EffectiveAt: dates.effective,
			DeadlineAt:  dates.deadline,
			Category:    attrOr(sel, "data-category", "general"),
			Urgency:     attrOr(sel, "data-urgency", "low"),
			Credibility: attrOr(sel, "data-credibility", "medium"),
		})
	}

	doc.Find("article").Each(func(_ int, s *goquery.Selection) { collect(s) })
	doc.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("article").Length() == 0 {
			collect(s)
		}
	})
	return g.Evaluate(items)
}

// Evaluate scores and buckets items and computes the report confidence.
// Zero items is valid input.
func (g *TimelinessGate) Evaluate(items []resp.TimelinessItem) resp.TimelinessReport {
	now := g.now()
	report := resp.TimelinessReport{
		Items:   make([]resp.TimelinessItem, 0, len(items)),
		Include: []int{},
		Defer:   []int{},
		Archive: []int{},
	}

	var sum, immediate, relevant, stale int
	for i, item := range items {
		item.Score = ScoreTimeliness(item, now)
		item.Bucket = bucketFor(item.Score)
		report.Items = append(report.Items, item)
		sum += item.Score

		switch item.Bucket {
		case resp.BucketImmediate:
			immediate++
			relevant++
			report.Include = append(report.Include, i)
		case resp.BucketUrgent, resp.BucketRelevant:
			relevant++
			report.Include = append(report.Include, i)
		case resp.BucketBackground:
			report.Defer = append(report.Defer, i)
		default:
			stale++
			report.Archive = append(report.Archive, i)
		}
	}

	n := len(items)
	confidence := 70.0
	if n == 0 {
		confidence -= 20
	} else {
		ratio := float64(relevant) / float64(n)
		avg := float64(sum) / float64(n)
		confidence += (ratio - 0.5) * 40
		confidence += (avg - 50) * 0.3
	}
	confidence += math.Min(float64(5*immediate), 15)
	confidence -= math.Min(float64(5*stale), 25)
	report.Confidence = round1(clamp(confidence, 0, 100))

	switch {
	case n == 0:
		report.Status = TimelinessNeedsContent
	case float64(stale)/float64(n) > 0.5:
		report.Status = TimelinessTooStale
	case report.Confidence < 60:
		report.Status = TimelinessIssues
	default:
		report.Status = TimelinessReady
	}
	return report
}

// ScoreTimeliness applies the additive rules to one item, clamped to 0..100.
func ScoreTimeliness(item resp.TimelinessItem, now time.Time) int {
	score := 50

	if item.PublishedAt != nil {
		age := utils.DaysBetween(*item.PublishedAt, now)
		switch {
		case age <= 1:
			score += 25
		case age <= 3:
			score += 20
		case age <= 7:
			score += 15
		case age <= 14:
			score += 5
		case age <= 30:
			score -= 5
		case age <= 90:
			score -= 20
		default:
			score -= 35
		}
	}

	if item.EffectiveAt != nil {
		until := utils.DaysBetween(now, *item.EffectiveAt)
		switch {
		case until >= 0 && until <= 7:
			score += 20
		case until > 7 && until <= 30:
			score += 15
		case until > 30 && until <= 90:
			score += 5
		case until < 0 && until >= -30:
			score += 5
		case until < -30:
			score -= 10
		}
	}

	if item.DeadlineAt != nil {
		until := utils.DaysBetween(now, *item.DeadlineAt)
		switch {
		case until < 0:
			score -= 25
		case until <= 7:
			score += 20
		case until <= 30:
			score += 10
		}
	}

	switch item.Category {
	case UpdateCategoryRegulation:
		score += 10
	case UpdateCategoryFunding:
		score += 8
	case UpdateCategoryMarket:
		score += 5
	}
	switch item.Urgency {
	case "high":
		score += 10
	case "medium":
		score += 5
	}
	switch item.Credibility {
	case "high":
		score += 10
	case "medium":
		score += 5
	}

	return clampInt(score, 0, 100)
}

func bucketFor(score int) resp.Bucket {
	switch {
	case score >= 80:
		return resp.BucketImmediate
	case score >= 65:
		return resp.BucketUrgent
	case score >= 45:
		return resp.BucketRelevant
	case score >= 25:
		return resp.BucketBackground
	default:
		return resp.BucketStale
	}
}

// ---- helpers ----

func attrOr(s *goquery.Selection, name, fallback string) string {
	if v, ok := s.Attr(name); ok && v != "" {
		return v
	}
	return fallback
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
