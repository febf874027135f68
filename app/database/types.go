package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// BodyKind discriminates the two shapes an article body can take.
type BodyKind string

const (
	BodyPlain BodyKind = "plain"
	BodyLive  BodyKind = "live"
)

type LiveUpdate struct {
	ID          string    `json:"id"`
	Title       string    `json:"content_title"`
	Description string    `json:"content_description"`
	Detail      string    `json:"content_detail"`
	ImageURL    string    `json:"content_image_url,omitempty"`
	PublishedAt time.Time `json:"content_published_at"`
	IsKey       bool      `json:"isKey"`
}

// Body is either plain text or an ordered list of live updates. Kind is
// stored next to the payload and is never inferred from it.
type Body struct {
	Kind    BodyKind
	Text    string
	Updates []LiveUpdate
}

func PlainBody(text string) Body {
	return Body{Kind: BodyPlain, Text: text}
}

func LiveBody(updates ...LiveUpdate) Body {
	return Body{Kind: BodyLive, Updates: updates}
}

func (b Body) IsLive() bool {
	return b.Kind == BodyLive
}

// KeyEvents returns the updates flagged as key events, in publication order.
func (b Body) KeyEvents() []LiveUpdate {
	if b.Kind != BodyLive {
		return nil
	}
	events := make([]LiveUpdate, 0)
	for _, u := range b.Updates {
		if u.IsKey {
			events = append(events, u)
		}
	}
	return events
}

// MarshalJSON renders plain bodies as a string and live bodies as an array,
// which is the wire shape clients of the "content" field expect.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.Kind == BodyLive {
		updates := b.Updates
		if updates == nil {
			updates = []LiveUpdate{}
		}
		return json.Marshal(updates)
	}
	return json.Marshal(b.Text)
}

func (b *Body) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*b = PlainBody(text)
		return nil
	}

	var updates []LiveUpdate
	if err := json.Unmarshal(data, &updates); err != nil {
		return fmt.Errorf("content must be a string or a list of live updates: %w", err)
	}
	*b = LiveBody(updates...)
	return nil
}

type Article struct {
	ID                 string     `json:"id"`
	Slug               string     `json:"slug"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Body               Body       `json:"content"`
	Categories         []string   `json:"category"`
	Tags               []string   `json:"tags"`
	IsLive             bool       `json:"isLive"`
	WasLive            bool       `json:"wasLive"`
	IsBreaking         bool       `json:"isBreaking"`
	BreakingExpiresAt  *time.Time `json:"breakingExpiresAt,omitempty"`
	IsHeadline         bool       `json:"isHeadline"`
	IsCategoryHeadline bool       `json:"isCategoryHeadline"`
	Label              string     `json:"label,omitempty"`
	SourceName         string     `json:"source_name"`
	MetaTitle          string     `json:"meta_title"`
	MetaDescription    string     `json:"meta_description"`
	Creator            string     `json:"creator"`
	ImageURL           string     `json:"image_url,omitempty"`
	PublishedAt        time.Time  `json:"published_at"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ArticleFilter narrows Find and Count. Zero values disable a predicate.
type ArticleFilter struct {
	Category                string   // case-insensitive exact match on any category
	Tag                     string   // case-insensitive substring match on any tag
	AnyTags                 []string // shares at least one tag exactly
	OnlyHeadline            bool
	OnlyCategoryHeadline    bool
	ExcludeHeadline         bool
	ExcludeCategoryHeadline bool
	ExcludeID               string
	ExcludeSlug             string

	Offset int
	Limit  int // 0 means no limit
}
