package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ViewRecorder is the slice of the page-view store this middleware needs.
type ViewRecorder interface {
	Record(ctx context.Context, path string) error
}

// PageViewRecorder counts successful GET page loads per day and path.
// API, static asset, and operational endpoints are excluded so the counts
// reflect pages people actually open.
func PageViewRecorder(store ViewRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" ||
			strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/static/") {
			return
		}

		// Recording is best-effort and must not hold up the response
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = store.Record(ctx, path)
	}
}
