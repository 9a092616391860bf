package services

import (
	"sort"
	"strconv"
	"strings"
	"time"

	resp "koreafit/internal/models/response_models"
)

type SortKey string

const (
	SortKoreaFit SortKey = "koreaFit"
	SortTrending SortKey = "trending"
	SortEffort   SortKey = "effort"
	SortNewest   SortKey = "newest"
)

const IdeasPageSize = 12

// IdeaFilter holds the optional predicates; zero values mean "any".
type IdeaFilter struct {
	Query         string
	Category      string
	KoreaFitRange string // "min-max", inclusive
	Effort        *int
}

// FilterIdeas applies every predicate with AND and returns a sorted copy.
// It never fails: a malformed range token matches nothing.
func FilterIdeas(ideas []resp.Idea, f IdeaFilter, key SortKey) []resp.Idea {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	category := strings.TrimSpace(f.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}

	rangeSet := false
	var lo, hi float64
	if tok := strings.TrimSpace(f.KoreaFitRange); tok != "" && !strings.EqualFold(tok, "all") {
		var ok bool
		lo, hi, ok = parseRange(tok)
		if !ok {
			return []resp.Idea{}
		}
		rangeSet = true
	}

	out := make([]resp.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if query != "" && !matchesQuery(idea, query) {
			continue
		}
		if category != "" && idea.Category != category {
			continue
		}
		if rangeSet {
			if idea.KoreaFit == nil || *idea.KoreaFit < lo || *idea.KoreaFit > hi {
				continue
			}
		}
		if f.Effort != nil {
			if idea.Effort == nil || *idea.Effort != *f.Effort {
				continue
			}
		}
		out = append(out, idea)
	}

	SortIdeas(out, key)
	return out
}

// SortIdeas sorts in place and is stable. Unknown keys keep input order.
func SortIdeas(ideas []resp.Idea, key SortKey) {
	switch key {
	case SortKoreaFit:
		sort.SliceStable(ideas, func(i, j int) bool {
			return koreaFitOf(ideas[i]) > koreaFitOf(ideas[j])
		})
	case SortTrending:
		sort.SliceStable(ideas, func(i, j int) bool {
			return growthOf(ideas[i]) > growthOf(ideas[j])
		})
	case SortEffort:
		sort.SliceStable(ideas, func(i, j int) bool {
			return effortOf(ideas[i]) < effortOf(ideas[j])
		})
	case SortNewest:
		sort.SliceStable(ideas, func(i, j int) bool {
			return newestOf(ideas[i]).After(newestOf(ideas[j]))
		})
	}
}

// Paginate slices a filtered result; page is 1-based and clamped to 1.
func Paginate(ideas []resp.Idea, page, pageSize int) []resp.Idea {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = IdeasPageSize
	}
	start := (page - 1) * pageSize
	if start >= len(ideas) {
		return []resp.Idea{}
	}
	end := start + pageSize
	if end > len(ideas) {
		end = len(ideas)
	}
	return ideas[start:end]
}

// ParseGrowth strips everything except digits, '.' and '-' from a display
// string like "+25%" and parses the rest. Anything unparseable is 0.
func ParseGrowth(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseRange(tok string) (float64, float64, bool) {
	parts := strings.Split(tok, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func matchesQuery(idea resp.Idea, q string) bool {
	fields := []string{idea.Title, idea.Summary, idea.Category, idea.BusinessModel, idea.TargetUser}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	for _, tag := range idea.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func koreaFitOf(i resp.Idea) float64 {
	if i.KoreaFit == nil {
		return 0
	}
	return *i.KoreaFit
}

func growthOf(i resp.Idea) float64 {
	if i.TrendData == nil {
		return 0
	}
	return ParseGrowth(i.TrendData.GrowthRate)
}

func effortOf(i resp.Idea) int {
	if i.Effort == nil {
		return 5
	}
	return *i.Effort
}

func newestOf(i resp.Idea) time.Time {
	if i.PublishedAt != nil {
		return *i.PublishedAt
	}
	if i.CreatedAt != nil {
		return *i.CreatedAt
	}
	return time.Unix(0, 0)
}
