package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jfk9w-go/flu/me3x"
	"github.com/sirupsen/logrus"
)

func route(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}

	return "unmatched"
}

// Metrics counts requests and observes their durations.
func Metrics(registry me3x.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		labels := me3x.Labels{}.
			Add("method", c.Request.Method).
			Add("path", route(c))

		registry.Histogram("http_request_duration_seconds", labels, nil).Observe(time.Since(start).Seconds())
		registry.Counter("http_requests", labels.Add("status", strconv.Itoa(c.Writer.Status()))).Inc()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		}).Debugf("http request")
	}
}
