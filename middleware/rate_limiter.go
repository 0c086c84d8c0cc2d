package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds how many client IPs keep a limiter; the least recently seen are dropped.
const maxTrackedClients = 10000

// rateLimiterStore holds the per-IP rate limiters.
type rateLimiterStore struct {
	limiters *lru.Cache[string, *rate.Limiter]
	perMin   int
	mu       sync.Mutex
}

func newRateLimiterStore(perMin, capacity int) *rateLimiterStore {
	limiters, err := lru.New[string, *rate.Limiter](capacity)
	if err != nil {
		panic(err)
	}
	return &rateLimiterStore{limiters: limiters, perMin: perMin}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters.Get(ip)
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)
		s.limiters.Add(ip, limiter)
	}
	return limiter
}

// RateLimitMiddleware allows perMin requests per minute per client IP, with an equal burst.
func RateLimitMiddleware(perMin int) gin.HandlerFunc {
	if perMin <= 0 {
		perMin = 100
	}
	return rateLimit(newRateLimiterStore(perMin, maxTrackedClients))
}

func rateLimit(store *rateLimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip).Allow() {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
