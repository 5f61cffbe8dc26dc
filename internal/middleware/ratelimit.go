package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"boardly/internal/rate"

	"github.com/gin-gonic/gin"
)

// RateLimit allows limit requests per minute for each caller on action.
// Signed-in callers are keyed by user id, others by client IP.
func RateLimit(l *rate.Limiter, action string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:ip:%s", action, c.ClientIP())
		if id := CurrentIdentity(c); id != nil {
			key = fmt.Sprintf("%s:user:%d", action, id.ID)
		}

		ok, retry := l.Allow(key, limit, time.Minute)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			AbortJSON(c, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
			return
		}
		c.Next()
	}
}
