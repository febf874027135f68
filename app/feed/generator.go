package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"path"
	"strings"
	"time"
)

// Channel describes the RSS channel wrapping a rendered feed.
type Channel struct {
	Title       string
	Description string
	BaseURL     string
	Language    string
	Version     string
}

type Generator struct {
	channel Channel
}

func NewGenerator(channel Channel) *Generator {
	channel.BaseURL = strings.TrimRight(channel.BaseURL, "/")
	return &Generator{channel: channel}
}

// Run renders the feed as RSS 2.0. Item order follows the ranked order.
func (g *Generator) Run(articles []FeedArticle) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(g.channel.Title, "Newsdesk"), 4)
	g.writeElement(&buf, "link", g.channel.BaseURL, 4)
	g.writeElement(&buf, "description", cmp.Or(g.channel.Description, "Latest ranked stories"), 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.channel.BaseURL+"/feed/rss")))

	// ranked order is not date order, so the newest item sets the build date
	lastBuildDate := time.Now()
	if len(articles) > 0 {
		lastBuildDate = articles[0].PublishedAt
		for _, a := range articles[1:] {
			if a.PublishedAt.After(lastBuildDate) {
				lastBuildDate = a.PublishedAt
			}
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.In(time.Local).Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Newsdesk/%s", cmp.Or(g.channel.Version, "dev")), 4)
	g.writeElement(&buf, "language", g.channel.Language, 4)

	for _, article := range articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article FeedArticle) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(article.ID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", article.Title, 6)
	if article.Slug != "" {
		g.writeElement(buf, "link", g.channel.BaseURL+"/articles/"+article.Slug, 6)
	}
	g.writeElement(buf, "description", cmp.Or(article.Description, "No description available"), 6)

	if text := article.Body.Text; !article.Body.IsLive() && text != "" && text != article.Description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", article.PublishedAt.In(time.Local).Format(time.RFC1123Z), 6)
	g.writeElement(buf, "author", article.Creator, 6)

	for _, category := range article.Categories {
		g.writeElement(buf, "category", category, 6)
	}

	if article.ImageURL != "" {
		if mimeType := mime.TypeByExtension(path.Ext(article.ImageURL)); mimeType != "" {
			buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
				html.EscapeString(article.ImageURL),
				html.EscapeString(mimeType)))
		}
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
