package ranking

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yml
var defaultKeywords []byte

type keywordsFile struct {
	Keywords map[string]float64 `yaml:"keywords"`
}

// LoadKeywords reads a keyword-weight table from path, or the built-in table
// when path is empty.
func LoadKeywords(path string) (map[string]float64, error) {
	data := defaultKeywords
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read keywords file: %w", err)
		}
	}

	return parseKeywords(data)
}

func parseKeywords(data []byte) (map[string]float64, error) {
	var file keywordsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keywords YAML: %w", err)
	}
	if len(file.Keywords) == 0 {
		return nil, fmt.Errorf("keywords table is empty")
	}
	return file.Keywords, nil
}

// NewDefaultRanker builds a ranker from the keyword table at path, falling
// back to the built-in table when path is empty.
func NewDefaultRanker(path string) (*Ranker, error) {
	weights, err := LoadKeywords(path)
	if err != nil {
		return nil, err
	}

	scorer, err := NewScorer(weights)
	if err != nil {
		return nil, fmt.Errorf("invalid keywords table: %w", err)
	}

	return NewRanker(scorer), nil
}
