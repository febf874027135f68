package articles

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

const (
	metaTitleMax       = 60
	metaTitleCut       = 57
	metaDescriptionMax = 155
)

var metaTitleDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)

// DeriveSlug turns a title into a URL slug.
func DeriveSlug(title string) string {
	return slug.Make(title)
}

// DeriveMetaTitle strips everything but ASCII letters, digits, whitespace and
// dashes, then shortens titles longer than 60 characters to 57 plus "...".
func DeriveMetaTitle(title string) string {
	cleaned := metaTitleDisallowed.ReplaceAllString(title, "")
	if len(cleaned) <= metaTitleMax {
		return cleaned
	}
	return strings.TrimSpace(cleaned[:metaTitleCut]) + "..."
}

// DeriveMetaDescription uses the first 155 characters of description, or a
// sentence built from the title when there is no description.
func DeriveMetaDescription(title, description string) string {
	if description != "" {
		return strings.TrimSpace(truncateRunes(description, metaDescriptionMax))
	}
	if title == "" {
		title = "Article"
	}
	return truncateRunes(title+". Read the full story.", metaDescriptionMax)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
