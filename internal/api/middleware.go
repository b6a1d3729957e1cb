package api

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk-api/internal/auth"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const claimsKey = "claims"

// maxTrackedClients bounds the login limiter's memory; the cache is reset past it
const maxTrackedClients = 10000

// authenticator resolves bearer tokens into claims
type authenticator struct {
	services *service.Services
	log      zerolog.Logger
}

func newAuthenticator(services *service.Services, log zerolog.Logger) *authenticator {
	return &authenticator{
		services: services,
		log:      log.With().Str("middleware", "auth").Logger(),
	}
}

// required rejects requests without a valid, unrevoked access token
func (a *authenticator) required(c *gin.Context) {
	claims, err := a.services.Auth.Authenticate(c.Request.Context(), bearerToken(c))
	if err != nil {
		respondError(c, a.log, err)
		c.Abort()
		return
	}
	c.Set(claimsKey, claims)
	c.Next()
}

// requireRoles lets the request through only for the given roles.
// It must run after authenticator.required.
func requireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil || !slices.Contains(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail": "You do not have permission to perform this action.",
			})
			return
		}
		c.Next()
	}
}

// currentClaims returns the claims stored by authenticator.required
func currentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// limiterCache keeps one token bucket per key with double-check locking
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the limiter for key, creating one if needed
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds drops every entry once the cache holds more than maxSize keys
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// loginLimiter throttles login attempts per client IP
type loginLimiter struct {
	cache *limiterCache[string]
	log   zerolog.Logger
}

func newLoginLimiter(rps float64, burst int, log zerolog.Logger) *loginLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 5
	}
	return &loginLimiter{
		cache: newLimiterCache[string](rps, burst),
		log:   log.With().Str("middleware", "login_limit").Logger(),
	}
}

func (l *loginLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.cache.clearIfExceeds(maxTrackedClients) {
			l.log.Warn().Msg("Login limiter cache reset")
		}
		ip := c.ClientIP()
		if !l.cache.get(ip).Allow() {
			l.log.Warn().Str("client_ip", ip).Msg("Login rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "Too many login attempts. Please wait a moment and try again.",
			})
			return
		}
		c.Next()
	}
}
