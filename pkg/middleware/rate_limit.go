package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/coursecraft/platform/pkg/composables"
	"github.com/coursecraft/platform/pkg/configuration"
	"github.com/coursecraft/platform/pkg/httpapi"
)

type RateLimitConfig struct {
	Requests int
	Period   time.Duration
	Store    limiter.Store
	// KeyFunc picks the limiting key for a request. Defaults to the client IP.
	KeyFunc func(r *http.Request) string
}

func NewMemoryStore() limiter.Store {
	return memorystore.NewStore()
}

func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)
	return redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
}

// TokenOrIPKey keys the limiter by the intake token path variable when
// present, falling back to the client IP. Respondent links are the
// unauthenticated surface, so each link gets its own budget.
func TokenOrIPKey(r *http.Request) string {
	if token, ok := mux.Vars(r)["token"]; ok && token != "" {
		return "token:" + token
	}
	return "ip:" + clientIP(r)
}

// clientIP prefers the address captured by the request-params middleware,
// which already resolved proxy headers.
func clientIP(r *http.Request) string {
	if ip, ok := composables.UseIP(r.Context()); ok && ip != "" {
		return ip
	}
	return getRealIP(r, configuration.Use())
}

// RateLimit rejects excess requests with 429 before any business logic runs.
func RateLimit(cfg RateLimitConfig) mux.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(r *http.Request) string {
			return "ip:" + clientIP(r)
		}
	}

	instance := limiter.New(cfg.Store, limiter.Rate{
		Period: cfg.Period,
		Limit:  int64(cfg.Requests),
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiterCtx, err := instance.Get(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "RATE_LIMIT_ERROR", "rate limiter unavailable", nil)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiterCtx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(limiterCtx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(limiterCtx.Reset, 10))

			if limiterCtx.Reached {
				_ = httpapi.WriteError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many requests", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
