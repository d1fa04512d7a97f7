package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"acopio/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter is a fixed-window limiter keyed by client IP. With a Redis
// client the counters are shared between server instances; without one they
// live in process memory.
type RateLimiter struct {
	nombre  string
	limit   int
	window  time.Duration
	mensaje string
	rdb     *redis.Client

	mu      sync.Mutex
	entries map[string]*rateEntry
}

type rateEntry struct {
	count     int
	windowEnd time.Time
}

// NewRateLimiter builds a limiter. nombre namespaces its Redis keys.
func NewRateLimiter(nombre string, limit int, window time.Duration, rdb *redis.Client) *RateLimiter {
	return &RateLimiter{
		nombre:  nombre,
		limit:   limit,
		window:  window,
		mensaje: "Demasiadas solicitudes. Intente nuevamente en un momento.",
		rdb:     rdb,
		entries: make(map[string]*rateEntry),
	}
}

// Handler returns the gin middleware.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, windowEnd := l.hit(c.Request.Context(), c.ClientIP())
		if count > l.limit {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(windowEnd).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.mensaje))
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) hit(ctx context.Context, ip string) (int, time.Time) {
	if l.rdb != nil {
		count, windowEnd, err := l.hitRedis(ctx, ip)
		if err == nil {
			return count, windowEnd
		}
		// fall back to local counters while Redis is unreachable
		log.Warn().Err(err).Str("limiter", l.nombre).Msg("rate limiter: redis no disponible")
	}
	return l.hitLocal(ip)
}

func (l *RateLimiter) hitRedis(ctx context.Context, ip string) (int, time.Time, error) {
	now := time.Now()
	slot := now.UnixNano() / int64(l.window)
	windowEnd := time.Unix(0, (slot+1)*int64(l.window))
	key := fmt.Sprintf("acopio:rl:%s:%s:%d", l.nombre, ip, slot)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, windowEnd)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}
	return int(incr.Val()), windowEnd, nil
}

func (l *RateLimiter) hitLocal(ip string) (int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.count, entry.windowEnd
}

// Purge drops expired local entries until ctx is cancelled.
func (l *RateLimiter) Purge(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			purged := 0
			for ip, entry := range l.entries {
				if now.After(entry.windowEnd) {
					delete(l.entries, ip)
					purged++
				}
			}
			remaining := len(l.entries)
			l.mu.Unlock()
			if purged > 0 {
				log.Debug().
					Str("limiter", l.nombre).
					Int("purged", purged).
					Int("remaining", remaining).
					Msg("rate limiter entries purged")
			}
		}
	}
}
