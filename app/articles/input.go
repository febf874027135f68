package articles

import (
	"encoding/json"
	"strings"
	"time"
)

// StringList accepts either a single string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimNonEmpty([]string{single})
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = trimNonEmpty(many)
	return nil
}

func trimNonEmpty(values []string) StringList {
	out := make(StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type CreateInput struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Content            string     `json:"content"`
	Category           StringList `json:"category"`
	Tags               StringList `json:"tags"`
	IsLive             bool       `json:"isLive"`
	IsBreaking         bool       `json:"isBreaking"`
	IsHeadline         bool       `json:"isHeadline"`
	IsCategoryHeadline bool       `json:"isCategoryHeadline"`
	Label              string     `json:"label"`
	SourceName         string     `json:"source_name"`
	Creator            string     `json:"creator"`
	ImageURL           string     `json:"image_url"`
	ContentImageURL    string     `json:"content_image_url"`
	PublishedAt        *time.Time `json:"published_at"`
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title              *string     `json:"title"`
	Description        *string     `json:"description"`
	Content            *string     `json:"content"`
	Category           *StringList `json:"category"`
	Tags               *StringList `json:"tags"`
	IsLive             *bool       `json:"isLive"`
	WasLive            *bool       `json:"wasLive"`
	IsBreaking         *bool       `json:"isBreaking"`
	IsHeadline         *bool       `json:"isHeadline"`
	IsCategoryHeadline *bool       `json:"isCategoryHeadline"`
	Label              *string     `json:"label"`
	SourceName         *string     `json:"source_name"`
	Creator            *string     `json:"creator"`
	ImageURL           *string     `json:"image_url"`
	PublishedAt        *time.Time  `json:"published_at"`
}

type LiveUpdateInput struct {
	Title       string `json:"content_title"`
	Description string `json:"content_description"`
	Detail      string `json:"content_detail"`
	ImageURL    string `json:"content_image_url"`
	IsKey       bool   `json:"isKey"`
}

// IngestItem is an article arriving from a syndicated source.
type IngestItem struct {
	Title       string
	Description string
	Content     string
	Categories  []string
	Tags        []string
	SourceName  string
	Creator     string
	ImageURL    string
	PublishedAt time.Time
}
