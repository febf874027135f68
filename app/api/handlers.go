package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsdesk/app/articles"
)

const healthTimeout = 2 * time.Second

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		feeds:     deps.Feeds,
		articles:  deps.Articles,
		generator: deps.Generator,
		cache:     deps.Cache,
		db:        deps.DB,
		sources:   deps.Sources,
		scheduler: deps.Scheduler,
		version:   deps.Version,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	result, cached, err := h.feeds.GetFeed(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "get_feed", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) GetFeedByCategory(c *gin.Context) {
	result, cached, err := h.feeds.GetFeedByCategory(c.Request.Context(), c.Param("category"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "get_feed_by_category", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) GetFeedByTag(c *gin.Context) {
	result, cached, err := h.feeds.GetFeedByTag(c.Request.Context(), c.Param("tag"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "get_feed_by_tag", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) GetNewsByCategory(c *gin.Context) {
	result, cached, err := h.feeds.GetNewsByCategory(c.Request.Context(), c.Param("category"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "get_news_by_category", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) GetFeedRSS(c *gin.Context) {
	result, cached, err := h.feeds.GetFeed(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		slog.Error("Feed error", "operation", "get_feed_rss", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(result.Articles)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(result.Articles)))
	c.Header("X-Cache", cacheHeader(cached))

	c.String(http.StatusOK, rss)
}

func (h *Handler) ListArticles(c *gin.Context) {
	result, cached, err := h.articles.List(c.Request.Context(), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "list_articles", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) ListArticlesByCategory(c *gin.Context) {
	result, cached, err := h.articles.ListByCategory(c.Request.Context(), c.Param("category"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "list_articles_by_category", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) GetArticle(c *gin.Context) {
	result, cached, err := h.articles.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, "get_article", err)
		return
	}
	respondCached(c, gin.H{"article": result}, cached)
}

func (h *Handler) GetHeadline(c *gin.Context) {
	result, cached, err := h.articles.Headline(c.Request.Context())
	if err != nil {
		respondError(c, "get_headline", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) GetCategoryHeadline(c *gin.Context) {
	result, cached, err := h.articles.CategoryHeadline(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, "get_category_headline", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) GetSimilarArticles(c *gin.Context) {
	result, cached, err := h.articles.Similar(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, "get_similar_articles", err)
		return
	}
	respondCached(c, result, cached)
}

func (h *Handler) APICreateArticle(c *gin.Context) {
	var input articles.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	article, err := h.articles.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, "create_article", err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"article": article})
}

func (h *Handler) APIUpdateArticle(c *gin.Context) {
	var input articles.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	article, err := h.articles.Update(c.Request.Context(), c.Param("slug"), input)
	if err != nil {
		respondError(c, "update_article", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"article": article})
}

func (h *Handler) APIDeleteArticle(c *gin.Context) {
	if err := h.articles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "delete_article", err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (h *Handler) APIAddLiveUpdate(c *gin.Context) {
	var input articles.LiveUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	update, err := h.articles.AddLiveUpdate(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, "add_live_update", err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"update": update})
}

func (h *Handler) APIMarkKeyEvent(c *gin.Context) {
	update, err := h.articles.MarkKeyEvent(c.Request.Context(), c.Param("id"), c.Param("updateId"))
	if err != nil {
		respondError(c, "mark_key_event", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"update": update})
}

func (h *Handler) APIEndLive(c *gin.Context) {
	article, err := h.articles.EndLive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "end_live", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"article": article})
}

func (h *Handler) APIPromoteHeadline(c *gin.Context) {
	article, err := h.articles.PromoteHeadline(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "promote_headline", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"article": article})
}

func (h *Handler) APIPromoteCategoryHeadline(c *gin.Context) {
	article, err := h.articles.PromoteCategoryHeadline(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "promote_category_headline", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"article": article})
}

func (h *Handler) APIListSources(c *gin.Context) {
	if h.sources == nil {
		respond(c, http.StatusOK, gin.H{"sources": []gin.H{}, "total": 0})
		return
	}

	enabled := h.sources.GetEnabledSources()
	sources := make([]gin.H, 0, len(enabled))
	for _, source := range enabled {
		sources = append(sources, gin.H{
			"name":            source.Name,
			"url":             source.URL,
			"categories":      source.Categories,
			"schedule":        source.Settings.Schedule,
			"max_items":       source.Settings.MaxItems,
			"extract_content": source.Settings.ExtractContent,
			"filters":         len(source.Filters),
		})
	}

	respond(c, http.StatusOK, gin.H{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIImportSource(c *gin.Context) {
	name := c.Param("name")
	if h.sources == nil || h.scheduler == nil {
		fail(c, http.StatusNotFound, "source not found")
		return
	}

	source, err := h.sources.GetSource(name)
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}

	task, err := h.scheduler.ImportNow(source)
	if err != nil {
		slog.Error("Error enqueueing import task", "source", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "failed to enqueue import task: " + err.Error(),
		})
		return
	}

	respond(c, http.StatusAccepted, gin.H{
		"task": gin.H{
			"id":     task.GetID(),
			"type":   task.GetType(),
			"source": task.GetTarget(),
		},
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	health := gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"database":  "ok",
	}

	if err := h.db.PingContext(ctx); err != nil {
		status = http.StatusServiceUnavailable
		health["status"] = "degraded"
		health["database"] = err.Error()
	}

	if h.cache != nil {
		health["cache"] = h.cache.Health(ctx)
	}

	if h.sources != nil {
		health["loaded_sources"] = h.sources.GetSourceCount()
	}

	c.JSON(status, health)
}

func cacheHeader(cached bool) string {
	if cached {
		return "HIT"
	}
	return "MISS"
}
