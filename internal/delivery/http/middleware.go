package http

import (
	"github.com/gin-gonic/gin"
	"github.com/ilindan-dev/notification-gateway/internal/metrics"
	"github.com/rs/zerolog"
	"net/http"
	"strconv"
	"time"
)

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

// requestLogger logs one line per request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request handled")
	}
}

// requestMetrics records request counts and latency by route template.
// It runs inside gin.Recovery so aborted requests and panics are counted;
// a panic is recorded as 500 and then re-raised for Recovery.
func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			status := c.Writer.Status()
			r := recover()
			if r != nil {
				status = http.StatusInternalServerError
			}

			endpoint := c.FullPath()
			if endpoint == "" {
				endpoint = unmatchedRoute
			}
			method := c.Request.Method
			m.RequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())

			if r != nil {
				panic(r)
			}
		}()
		c.Next()
	}
}
