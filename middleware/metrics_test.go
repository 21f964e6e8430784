package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposesRequestCounters(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	do(r, http.MethodGet, "/posts/abc")
	do(r, http.MethodGet, "/posts/def")

	w := do(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "ripple_http_requests_total")
	assert.Contains(t, body, `route="/posts/:id"`)
	assert.Contains(t, body, "ripple_http_request_duration_seconds")
}

func TestMetricsLabelsUnmatchedRoutes(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	do(r, http.MethodGet, "/nowhere")

	w := do(r, http.MethodGet, "/metrics")
	assert.Contains(t, w.Body.String(), `route="unmatched"`)
}
