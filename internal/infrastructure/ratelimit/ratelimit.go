package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"ledgerpay-shopify-layer/internal/infrastructure/metrics"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store implements fixed-window rate limit counters backed by Redis:
// INCR plus EXPIRE on a key scoped by the window id.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore creates a new Redis-backed rate limit store.
func NewStore(client *goredis.Client) *Store {
	return &Store{
		client: client,
		prefix: "ratelimit:shopify:",
	}
}

// Allow reports whether another request with the given key fits in the
// current window, and when the window resets.
func (s *Store) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	windowID := time.Now().Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		// Expiry only on the first increment of a new window, with a
		// second of margin.
		s.client.Expire(ctx, redisKey, window+time.Second)
	}

	resetAt := (windowID + 1) * int64(window.Seconds())
	return count <= limit, resetAt, nil
}

// ByRemoteAddress limits requests per remote address. The script-serving and
// reconcile endpoints are unauthenticated, so the caller's address is the
// only identity available. A Redis failure degrades open: the request is
// allowed and the failure logged.
func ByRemoteAddress(store *Store, limit int64, window time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			allowed, resetAt, err := store.Allow(r.Context(), host, limit, window)
			if err != nil {
				logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				metrics.RateLimited.Inc()
				retryAfter := resetAt - time.Now().Unix()
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
