package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kirovavto/bus-reservation/internal/config"
)

// cachedResponse is what gets serialized into Redis: enough to replay
// the response byte for byte.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body into a buffer, up to limit
// bytes, while still streaming it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.buf.Len()+len(b) <= w.limit {
		w.buf.Write(b)
	} else {
		// Oversized responses are served but never cached.
		w.buf.Reset()
		w.limit = -1
	}
	return w.ResponseWriter.Write(b)
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	// Key on the concrete URL path, not c.Path(): the route pattern
	// ("/v1/trips/:id") is identical for every trip id and would make
	// distinct resources share one cache entry.
	raw := r.Method + " " + r.URL.Path
	if cfg.KeyStrategy == "path_query" {
		raw += "?" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s%x", cfg.Prefix, sum)
}

// ResponseCache serves catalog reads from Redis. Only successful
// responses to the configured methods are stored; everything else
// passes straight through. A nil Redis client disables the cache.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cr cachedResponse
				if json.Unmarshal(raw, &cr) == nil {
					h := c.Response().Header()
					h.Set(echo.HeaderContentType, cr.ContentType)
					h.Set("X-Cache", "HIT")
					c.Response().WriteHeader(cr.Status)
					_, werr := c.Response().Write(cr.Body)
					return werr
				}
			}

			cw := &captureWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          cfg.MaxBodyBytes,
			}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && cw.limit > 0 {
				payload, err := json.Marshal(cachedResponse{
					Status:      cw.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        cw.buf.Bytes(),
				})
				if err == nil {
					// The request context may already be done; store anyway.
					_ = rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return next(c) }
}
