package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsdesk/app/articles"
)

func respondCached(c *gin.Context, data any, cached bool) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"cached": cached,
		"data":   data,
	})
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":  "fail",
		"message": message,
	})
}

// respondError maps service errors to client failures and treats anything
// else as a server error.
func respondError(c *gin.Context, operation string, err error) {
	var validationErr *articles.ValidationError

	switch {
	case errors.As(err, &validationErr):
		fail(c, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, articles.ErrDuplicateSlug), errors.Is(err, articles.ErrNotLive):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, articles.ErrNotFound),
		errors.Is(err, articles.ErrUpdateNotFound),
		errors.Is(err, articles.ErrNoHeadline),
		errors.Is(err, articles.ErrNoCategoryHeadline):
		fail(c, http.StatusNotFound, err.Error())
	default:
		slog.Error("Request failed", "operation", operation, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	}
}

// queryInt reads a positive integer query parameter. Missing, malformed and
// non-positive values read as zero so the services apply their defaults.
func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value <= 0 {
		return 0
	}
	return value
}
