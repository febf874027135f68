package ranking

import (
	"sort"
	"time"
)

const (
	// general feed
	TopSliceSize   = 6
	MinLatestInTop = 2

	// category and tag feeds
	FirstSixLatest    = 3
	FirstSixRanked    = 3
	MixedSectionEnd   = 24
	MixedLatest       = 8  // ceil(18 * 0.45)
	MixedRanked       = 10 // floor(18 * 0.55)
	mixedRatio        = "45:55"
	remainingTypeName = "latestOnly"
)

// Ranker annotates candidates and blends them into feed orderings. Inputs are
// expected in publish date descending order, which also breaks score ties.
type Ranker struct {
	scorer *Scorer
}

func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

// Annotate scores and classifies every item, keeping input order.
func (r *Ranker) Annotate(items []Item, now time.Time) []ScoredItem {
	scored := make([]ScoredItem, len(items))
	for i, item := range items {
		fresh := IsFresh(item.PublishedAt, now)
		raw := r.scorer.Score(item.Title, item.Description, item.Tags)
		scored[i] = ScoredItem{
			Item:    item,
			Score:   Adjust(raw, fresh),
			IsFresh: fresh,
		}
	}
	return scored
}

// General builds the unfiltered feed: up to MinLatestInTop fresh items lead
// the top slice, relevance fills the rest.
func (r *Ranker) General(items []Item, limit int, now time.Time) ([]ScoredItem, GeneralMeta) {
	scored := r.Annotate(items, now)
	ranked := byScore(scored)
	fresh := freshOnly(scored)

	latest := fresh[:min(MinLatestInTop, len(fresh))]

	used := make(map[string]bool, len(scored))
	top := make([]ScoredItem, 0, TopSliceSize)
	for _, item := range latest {
		top = append(top, item)
		used[item.ID] = true
	}
	for _, item := range ranked {
		if len(top) >= TopSliceSize {
			break
		}
		if !used[item.ID] {
			top = append(top, item)
			used[item.ID] = true
		}
	}

	result := top
	for _, item := range ranked {
		if !used[item.ID] {
			result = append(result, item)
		}
	}

	return truncate(result, limit), GeneralMeta{
		Total:       len(items),
		FreshCount:  len(fresh),
		LatestInTop: len(latest),
	}
}

// Sectioned builds the category and tag feed shape: a date-ordered first six,
// a score-ordered mixed block closing at MixedSectionEnd, then fresh-only
// filler up to limit.
func (r *Ranker) Sectioned(items []Item, limit int, now time.Time) ([]ScoredItem, SectionMeta) {
	scored := r.Annotate(items, now)
	ranked := byScore(scored)
	fresh := freshOnly(scored)

	used := make(map[string]bool, len(scored))

	firstSix, latestPicked := take(fresh, FirstSixLatest, used)
	rankedPart, rankedPicked := take(ranked, FirstSixRanked, used)
	firstSix = append(firstSix, rankedPart...)
	sort.SliceStable(firstSix, func(i, j int) bool {
		return firstSix[i].PublishedAt.After(firstSix[j].PublishedAt)
	})

	mixed, _ := take(fresh, MixedLatest, used)
	mixedRanked, _ := take(ranked, MixedRanked, used)
	mixed = append(mixed, mixedRanked...)
	sort.SliceStable(mixed, func(i, j int) bool {
		return mixed[i].Score > mixed[j].Score
	})

	remaining, remainingCount := take(fresh, max(0, limit-MixedSectionEnd), used)

	result := make([]ScoredItem, 0, len(firstSix)+len(mixed)+len(remaining))
	result = append(result, firstSix...)
	result = append(result, mixed...)
	result = append(result, remaining...)

	return truncate(result, limit), SectionMeta{
		Total:      len(items),
		FreshCount: len(fresh),
		Sections: Sections{
			FirstSix: FirstSix{Latest: latestPicked, Ranked: rankedPicked},
			MixedSection: MixedSection{
				Latest: MixedLatest,
				Ranked: MixedRanked,
				Ratio:  mixedRatio,
			},
			Remaining: Remaining{Type: remainingTypeName, Count: remainingCount},
		},
		FreshnessThreshold: freshnessLabel,
	}
}

// ByScore orders every item by adjusted score and returns the requested page
// together with the total candidate count.
func (r *Ranker) ByScore(items []Item, offset, limit int, now time.Time) ([]ScoredItem, int) {
	ranked := byScore(r.Annotate(items, now))

	if offset >= len(ranked) {
		return []ScoredItem{}, len(ranked)
	}
	return truncate(ranked[max(offset, 0):], limit), len(ranked)
}

// take appends up to n items from source that are not yet used, marking them.
func take(source []ScoredItem, n int, used map[string]bool) ([]ScoredItem, int) {
	picked := make([]ScoredItem, 0, min(n, len(source)))
	for _, item := range source {
		if len(picked) >= n {
			break
		}
		if used[item.ID] {
			continue
		}
		picked = append(picked, item)
		used[item.ID] = true
	}
	return picked, len(picked)
}

func byScore(items []ScoredItem) []ScoredItem {
	ranked := make([]ScoredItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func freshOnly(items []ScoredItem) []ScoredItem {
	fresh := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		if item.IsFresh {
			fresh = append(fresh, item)
		}
	}
	return fresh
}

func truncate(items []ScoredItem, limit int) []ScoredItem {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
