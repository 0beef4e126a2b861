package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/examscheduling/pkg/logger"
	"github.com/limaJavier/examscheduling/pkg/metrics"
)

// NewRouter wires every endpoint. m may be nil, in which case /metrics answers 503.
func NewRouter(apiPrefix string, handler *ScheduleHandler, m *metrics.Metrics, l *zap.Logger) *gin.Engine {
	if l == nil {
		l = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(l), observe(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group(apiPrefix)
	api.POST("/schedules", handler.Generate)
	api.GET("/schedules/:id", handler.Get)
	api.POST("/verify", handler.Verify)

	return r
}

func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
