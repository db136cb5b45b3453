package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/paramgw/internal/observability"
)

// Metrics returns a middleware that records request metrics. Routes are
// labelled with the matched pattern so template names do not inflate
// label cardinality.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		m.IncrementActiveRequests(method)
		start := time.Now()

		defer func() {
			m.DecrementActiveRequests(method)

			route := c.FullPath()
			if route == "" {
				route = observability.UnmatchedRoute
			}
			m.RecordRequest(method, route, c.Writer.Status(), time.Since(start),
				c.Request.ContentLength, int64(c.Writer.Size()))
		}()

		c.Next()
	}
}
