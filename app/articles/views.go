package articles

import "github.com/lysyi3m/newsdesk/app/database"

// ArticleView is a single article with its key events. KeyEvents is null for
// plain articles.
type ArticleView struct {
	database.Article
	KeyEvents []database.LiveUpdate `json:"keyEvents"`
}

type ArticleList struct {
	Articles []database.Article `json:"articles"`
}

type ArticlePage struct {
	Category    string      `json:"category,omitempty"`
	Results     int         `json:"results"`
	Total       int         `json:"total"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	Data        ArticleList `json:"data"`
}

type HeadlineView struct {
	Headline        database.Article   `json:"headline"`
	SimilarArticles []database.Article `json:"similarArticles"`
}

type CategoryHeadlineView struct {
	CategoryHeadline database.Article   `json:"categoryHeadline"`
	SimilarArticles  []database.Article `json:"similarArticles"`
}
