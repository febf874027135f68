package syndication

import (
	"cmp"

	"github.com/lysyi3m/newsdesk/app/articles"
)

// ToIngestItems maps the unfiltered items of a source to article candidates,
// keeping at most MaxItems of them. Categories come from the source and
// tags from the item categories.
func ToIngestItems(source *Source, feedTitle string, items []Item) []articles.IngestItem {
	result := make([]articles.IngestItem, 0, len(items))
	for _, item := range items {
		if item.IsFiltered {
			continue
		}
		if source.Settings.MaxItems > 0 && len(result) >= source.Settings.MaxItems {
			break
		}

		var creator string
		if len(item.Authors) > 0 {
			creator = item.Authors[0]
		}

		result = append(result, articles.IngestItem{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Categories:  source.Categories,
			Tags:        item.Categories,
			SourceName:  cmp.Or(source.SourceName, feedTitle),
			Creator:     creator,
			ImageURL:    item.ImageURL,
			PublishedAt: item.PublishedAt,
		})
	}
	return result
}
