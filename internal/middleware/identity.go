package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desert-paths/internal/utils"
)

// currentUserID identifies the caller for rate-limit keys.  It prefers
// the id stored by JWTAuth and otherwise peeks at the bearer token, so
// the limiter can run in front of authentication.  Unauthenticated
// callers are "anon".
func currentUserID(c echo.Context, secret string) string {
	if id, ok := c.Get("user_id").(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	if secret == "" {
		return "anon"
	}
	raw, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if !ok {
		return "anon"
	}
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil || claims.Subject == "" {
		return "anon"
	}
	return claims.Subject
}
