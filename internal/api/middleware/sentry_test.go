package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chordgrid/chordgrid-api/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackedRouter(t *testing.T, cloudwatch *metrics.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestTracking(cloudwatch))
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	return router
}

func TestRequestTracking_AssignsRequestID(t *testing.T) {
	cloudwatch, err := metrics.NewClient(context.Background(), "test")
	require.NoError(t, err)
	router := trackedRouter(t, cloudwatch)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, requestID)
	_, err = uuid.Parse(requestID)
	assert.NoError(t, err, "X-Request-ID should be a uuid")
}

func TestRequestTracking_NilMetricsClient(t *testing.T) {
	router := trackedRouter(t, nil)

	for _, path := range []string{"/ok", "/boom"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), "path %s", path)
	}
}
