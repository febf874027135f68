package cache

import (
	"fmt"
	"strings"
)

// Key domains. Every cached response lives under one of these.
const (
	DomainArticles = "articles"
	DomainArticle  = "article"
	DomainHeadline = "headline"
	DomainCategory = "category"
)

// Prefix families swept by write paths. Feeds are cached under the articles
// domain, so FamilyArticles covers them too.
const (
	FamilyArticles = DomainArticles + ":*"
	FamilyHeadline = DomainHeadline + ":*"
	FamilyCategory = DomainCategory + ":*"
	FamilyArticle  = DomainArticle + ":*"
)

// ArticleFamilies is every family that can hold an article or its flags.
// FamilyArticle covers single articles and their similar lists.
var ArticleFamilies = []string{FamilyArticles, FamilyHeadline, FamilyCategory, FamilyArticle}

// Key joins domain and parts with ':'. Callers must pass parts in a fixed
// order or equal requests end up under different keys.
func Key(domain string, parts ...any) string {
	var b strings.Builder
	b.WriteString(domain)
	for _, part := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, part)
	}
	return b.String()
}
