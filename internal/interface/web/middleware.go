package web

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SentryMiddleware captures errors that happened during request handling
// and reports them to Sentry
func SentryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		for _, err := range c.Errors {
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("method", c.Request.Method)
				scope.SetTag("path", c.Request.URL.Path)
				scope.SetTag("status", http.StatusText(c.Writer.Status()))
				scope.SetTag("ip", c.ClientIP())
				scope.SetTag("user-agent", c.Request.UserAgent())
				scope.SetExtra("latency", time.Since(start).String())
				scope.SetRequest(c.Request)

				sentry.CaptureException(err.Err)
			})
		}
	}
}

// LoggerMiddleware logs every request with logrus, errors attached to the
// context are logged at warn level.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			logger.Warn(c.Errors.String())
			return
		}
		logger.Debug("request served")
	}
}
