package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kirovavto/bus-reservation/internal/config"
)

// tokenBucketScript refills and debits the bucket atomically so that
// concurrent requests against the same key cannot over-spend.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_s = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'refilled_ms')
local tokens = tonumber(state[1])
local refilled = tonumber(state[2])
if tokens == nil or refilled == nil then
  tokens = capacity
  refilled = now_ms
end

if interval_ms > 0 and refill > 0 then
  local intervals = math.floor(math.max(0, now_ms - refilled) / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals * refill)
    refilled = refilled + intervals * interval_ms
  end
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, interval_ms - (now_ms - refilled))
end

redis.call('HMSET', key, 'tokens', tokens, 'refilled_ms', refilled)
redis.call('EXPIRE', key, ttl_s)
return { allowed, tokens, retry_ms }
`)

// TokenBucket rate-limits per client using a Redis-backed token
// bucket. The configured key strategy picks the client identity:
// "ip" keys every request by IP, "user" keys authenticated requests
// by user id and the rest by IP. Redis trouble fails open: blocking
// bookings over an infra hiccup is worse than letting a burst
// through.
func TokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Prefix + clientKey(c, cfg.KeyStrategy)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}
			res, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
			if err != nil || len(res) != 3 {
				return next(c)
			}
			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

			hdr := c.Response().Header()
			hdr.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			hdr.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000))
				hdr.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}
