package cache

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sprintforge/effort-estimator/internal/monitoring"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)

	data, found := c.Get("missing")
	assert.False(t, found)
	assert.Nil(t, data)

	c.Set("forecast", []byte(`{"p50":14}`))

	data, found = c.Get("forecast")
	assert.True(t, found)
	assert.Equal(t, []byte(`{"p50":14}`), data)
	assert.Equal(t, 1, c.Size())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	c.Set("forecast", []byte("stale"))
	time.Sleep(20 * time.Millisecond)

	_, found := c.Get("forecast")
	assert.False(t, found)
}

func TestCacheClear(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCacheStats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))

	stats := c.Stats()
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 60.0, stats["ttl_seconds"])
}

func TestCacheDelete(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("a", []byte("1"))
	c.Delete("a")

	_, found := c.Get("a")
	assert.False(t, found)
}

func TestMiddlewareServesSecondRequestFromCache(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger()

	handlerCalls := 0
	router := gin.New()
	router.Use(c.Middleware("/forecast", metrics, logger))
	router.POST("/sectors/abc/forecast", func(ctx *gin.Context) {
		handlerCalls++
		ctx.JSON(http.StatusOK, gin.H{"p50_sprints": 14})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/sectors/abc/forecast", strings.NewReader(`{"seed":7}`))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "p50_sprints")
	}

	assert.Equal(t, 1, handlerCalls)
	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
}
