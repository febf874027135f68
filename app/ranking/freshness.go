package ranking

import "time"

const (
	FreshnessWindow = 36 * time.Hour
	StaleDecay      = 0.3

	freshnessLabel = "36 hours"
)

// IsFresh reports whether published lies within FreshnessWindow of now. The
// boundary is inclusive and future timestamps count as fresh.
func IsFresh(published, now time.Time) bool {
	return now.Sub(published) <= FreshnessWindow
}

// Adjust applies the stale decay to a raw score.
func Adjust(score float64, fresh bool) float64 {
	if fresh {
		return score
	}
	return score * StaleDecay
}
