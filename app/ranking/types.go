package ranking

import "time"

// Item is the projection of an article that ranking reads. Items are never
// mutated by the ranker.
type Item struct {
	ID          string
	Title       string
	Description string
	Tags        []string
	PublishedAt time.Time
}

// ScoredItem carries the per-request derived signals. Score is already
// adjusted for freshness.
type ScoredItem struct {
	Item
	Score   float64
	IsFresh bool
}

type GeneralMeta struct {
	Total       int `json:"total"`
	FreshCount  int `json:"freshCount"`
	LatestInTop int `json:"latestInTop"`
}

type FirstSix struct {
	Latest int `json:"latest"`
	Ranked int `json:"ranked"`
}

type MixedSection struct {
	Latest int    `json:"latest"`
	Ranked int    `json:"ranked"`
	Ratio  string `json:"ratio"`
}

type Remaining struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type Sections struct {
	FirstSix     FirstSix     `json:"firstSix"`
	MixedSection MixedSection `json:"mixedSection"`
	Remaining    Remaining    `json:"remaining"`
}

// SectionMeta describes the composition of a category or tag feed. Category
// and Tag are filled in by the caller.
type SectionMeta struct {
	Category           string   `json:"category,omitempty"`
	Tag                string   `json:"tag,omitempty"`
	Total              int      `json:"total"`
	FreshCount         int      `json:"freshCount"`
	Sections           Sections `json:"sections"`
	FreshnessThreshold string   `json:"freshnessThreshold"`
}
