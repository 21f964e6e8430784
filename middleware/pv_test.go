package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRecorder struct {
	paths []string
}

func (c *captureRecorder) Record(_ context.Context, path string) error {
	c.paths = append(c.paths, path)
	return nil
}

func viewRouter(rec ViewRecorder) *gin.Engine {
	r := gin.New()
	r.Use(PageViewRecorder(rec))
	r.GET("/post/abc", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/posts", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/post/abc", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPageViewRecorderCountsPageLoads(t *testing.T) {
	rec := &captureRecorder{}
	r := viewRouter(rec)

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/post/abc").Code)

	require.Len(t, rec.paths, 1)
	assert.Equal(t, "/post/abc", rec.paths[0])
}

func TestPageViewRecorderSkipsNonPages(t *testing.T) {
	rec := &captureRecorder{}
	r := viewRouter(rec)

	do(r, http.MethodGet, "/health")
	do(r, http.MethodGet, "/api/v1/posts")
	do(r, http.MethodPost, "/post/abc")
	do(r, http.MethodGet, "/broken")
	do(r, http.MethodGet, "/missing")

	assert.Empty(t, rec.paths)
}
