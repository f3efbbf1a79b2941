package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

// CallerKey is the gin context key holding the authenticated models.Address.
const CallerKey = "caller"

// RateLimiter counts actions per identity over a fixed window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, identity, action string, limit int, window time.Duration) (bool, error)
}

func AuthMiddleware(auth services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		addr, err := auth.Authenticate(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(CallerKey, addr)

		c.Next()
	}
}

func RateLimitMiddleware(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CallerKey)
		if !exists || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		addr, _ := v.(models.Address)

		path := c.Request.URL.Path

		var limit int
		window := time.Minute

		switch {
		case strings.HasSuffix(path, "/solo/reveal"):
			limit = 120
		case strings.Contains(path, "/solo/"), strings.Contains(path, "/pvp/"):
			limit = services.DefaultRateLimitSettlements
		default:
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), addr.String(), path, limit, window)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("rate limit check failed")
		}
		if err != nil || !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
