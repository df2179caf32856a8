package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// clientKey identifies the caller for rate-limit keying. The "ip"
// strategy always keys by client IP; any other strategy ("user", the
// default) keys by user id when authenticated and falls back to IP
// for anonymous requests.
func clientKey(c echo.Context, strategy string) string {
	if strategy != "ip" {
		if id, ok := c.Get(CtxUserID).(uint64); ok {
			return "u:" + strconv.FormatUint(id, 10)
		}
	}
	return "ip:" + c.RealIP()
}
