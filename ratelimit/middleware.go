package ratelimit

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/goliatone/go-router"
)

const (
	HeaderRetryAfter         = "Retry-After"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
)

// Config for the router middleware
type Config struct {
	Limiter *Limiter
	// KeyFunc defaults to client IP plus route path
	KeyFunc func(ctx router.Context) string
	// LimitReached renders the response once the budget is spent
	LimitReached router.HandlerFunc
	// FailOpen lets requests through when Redis is unavailable
	FailOpen bool
	// OnError observes limiter failures
	OnError func(ctx router.Context, err error)
}

// NewMiddleware returns a middleware enforcing cfg.Limiter
func NewMiddleware(cfg Config) router.MiddlewareFunc {
	if cfg.Limiter == nil {
		panic("ratelimit: Limiter is required")
	}

	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(ctx router.Context) string {
			return ctx.IP() + ":" + ctx.Path()
		}
	}

	if cfg.LimitReached == nil {
		cfg.LimitReached = func(ctx router.Context) error {
			return ctx.Status(http.StatusTooManyRequests).SendString("too many requests")
		}
	}

	limit := strconv.Itoa(cfg.Limiter.Max())

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			key := cfg.KeyFunc(ctx)

			remaining, err := cfg.Limiter.Allow(ctx.Context(), key)
			switch {
			case err == nil:
				ctx.SetHeader(HeaderRateLimitLimit, limit)
				ctx.SetHeader(HeaderRateLimitRemaining, strconv.Itoa(remaining))
				return next(ctx)
			case errors.Is(err, ErrRateLimited):
				ctx.SetHeader(HeaderRateLimitLimit, limit)
				ctx.SetHeader(HeaderRateLimitRemaining, "0")
				if ttl, terr := cfg.Limiter.RetryAfter(ctx.Context(), key); terr == nil && ttl > 0 {
					ctx.SetHeader(HeaderRetryAfter, strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
				}
				return cfg.LimitReached(ctx)
			default:
				if cfg.OnError != nil {
					cfg.OnError(ctx, err)
				}
				if cfg.FailOpen {
					return next(ctx)
				}
				return err
			}
		}
	}
}
