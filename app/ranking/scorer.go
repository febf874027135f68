package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Amplification scales the summed keyword weights into the final score.
const Amplification = 4.5

// Scorer maps item text and tags to a relevance score using a fixed
// keyword-weight table.
type Scorer struct {
	keywords []string // lowercased, sorted so float sums are reproducible
	weights  map[string]float64
}

func NewScorer(weights map[string]float64) (*Scorer, error) {
	s := &Scorer{
		keywords: make([]string, 0, len(weights)),
		weights:  make(map[string]float64, len(weights)),
	}

	for keyword, weight := range weights {
		key := strings.ToLower(strings.TrimSpace(keyword))
		if key == "" {
			return nil, errors.New("keyword must not be empty")
		}
		if weight <= 0 {
			return nil, fmt.Errorf("keyword %q: weight must be positive, got %v", keyword, weight)
		}
		if _, dup := s.weights[key]; dup {
			return nil, fmt.Errorf("keyword %q is defined more than once", key)
		}
		s.weights[key] = weight
		s.keywords = append(s.keywords, key)
	}
	sort.Strings(s.keywords)

	return s, nil
}

// Score sums the weight of every keyword found in the lowercased title and
// description, then adds the weight again for each tag naming a keyword.
// A keyword present both in the text and as a tag counts twice.
func (s *Scorer) Score(title, description string, tags []string) float64 {
	text := strings.ToLower(title + " " + description)

	var sum float64
	for _, keyword := range s.keywords {
		if strings.Contains(text, keyword) {
			sum += s.weights[keyword]
		}
	}

	for _, tag := range tags {
		if weight, ok := s.weights[strings.ToLower(tag)]; ok {
			sum += weight
		}
	}

	return sum * Amplification
}

func (s *Scorer) KeywordCount() int {
	return len(s.keywords)
}
