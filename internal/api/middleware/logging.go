package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// LogApi writes one access-log line per request.
func LogApi() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		line := fmt.Sprintf("%s %-7s %s -> %d in %v from %s",
			p.TimeStamp.Format("2006-01-02T15:04:05Z07:00"),
			p.Method,
			p.Path,
			p.StatusCode,
			p.Latency,
			p.ClientIP,
		)
		if p.ErrorMessage != "" {
			line += " | " + p.ErrorMessage
		}
		return line + "\n"
	})
}
