package config

import "time"

// RateLimitConfig drives the Redis token-bucket limiter applied to
// booking and auth endpoints.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // "ip" or "user"
	Prefix         string
}

// LoadRateLimitConfig reads RATE_LIMIT_* environment variables. The
// defaults allow a burst of twenty requests refilled ten per second
// per client, generous for humans and tight enough to blunt scripted
// seat grabbing.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 20),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 10),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "busres:rl:"),
	}
}
