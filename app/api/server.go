package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP engine with all routes configured. Write
// endpoints are only mounted when apiAccessKey is set.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/feed", handler.GetFeed)
	r.GET("/feed/rss", handler.GetFeedRSS)
	r.GET("/feed/categories/:category", handler.GetFeedByCategory)
	r.GET("/feed/tags/:tag", handler.GetFeedByTag)
	r.GET("/news/category/:category", handler.GetNewsByCategory)

	articles := r.Group("/articles")
	{
		articles.GET("", handler.ListArticles)
		articles.GET("/headline", handler.GetHeadline)
		articles.GET("/category-headline/:category", handler.GetCategoryHeadline)
		articles.GET("/category/:category", handler.ListArticlesByCategory)
		articles.GET("/similar/:slug", handler.GetSimilarArticles)
		articles.GET("/:slug", handler.GetArticle)
	}

	r.GET("/health", handler.GetHealth)

	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			api.POST("/articles", handler.APICreateArticle)
			api.PUT("/articles/:slug", handler.APIUpdateArticle)
			api.DELETE("/articles/:id", handler.APIDeleteArticle)
			api.POST("/articles/:id/live-updates", handler.APIAddLiveUpdate)
			api.PATCH("/articles/:id/end-live", handler.APIEndLive)
			api.PATCH("/articles/:id/mark-key/:updateId", handler.APIMarkKeyEvent)
			api.POST("/articles/:id/headline", handler.APIPromoteHeadline)
			api.POST("/articles/:id/category-headline", handler.APIPromoteCategoryHeadline)

			api.GET("/sources", handler.APIListSources)
			api.POST("/sources/:name/import", handler.APIImportSource)
		}
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Info("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"feed":     "/feed?limit=<n>",
			"rss":      "/feed/rss",
			"category": "/feed/categories/<category>",
			"tag":      "/feed/tags/<tag>",
			"news":     "/news/category/<category>?page=<p>&limit=<n>",
			"articles": "/articles",
			"headline": "/articles/headline",
			"health":   "/health",
		}

		if apiAccessKey != "" {
			endpoints["write"] = "/api/articles (requires X-API-Key header)"
			endpoints["sources"] = "/api/sources (requires X-API-Key header)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "Newsdesk",
			"version":     handler.version,
			"description": "News article store with keyword ranked feeds",
			"endpoints":   endpoints,
			"api_status": gin.H{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware accepts the key in X-API-Key or as an Authorization bearer
// token.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			fail(c, http.StatusUnauthorized, "API key required: provide it in X-API-Key header or Authorization: Bearer <key>")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiAccessKey)) != 1 {
			fail(c, http.StatusUnauthorized, "The provided API key is not valid")
			c.Abort()
			return
		}

		c.Next()
	}
}
