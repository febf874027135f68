package feed

import (
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/ranking"
)

// FeedArticle is an article as it appears in a ranked feed.
type FeedArticle struct {
	database.Article
	Score   float64 `json:"score"`
	IsFresh bool    `json:"isFresh"`
}

type GeneralFeed struct {
	Articles []FeedArticle       `json:"articles"`
	Meta     ranking.GeneralMeta `json:"meta"`
}

type SectionedFeed struct {
	Articles []FeedArticle       `json:"articles"`
	Meta     ranking.SectionMeta `json:"meta"`
}

type NewsMeta struct {
	Category   string `json:"category"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

type NewsPage struct {
	Articles []FeedArticle `json:"articles"`
	Meta     NewsMeta      `json:"meta"`
}
