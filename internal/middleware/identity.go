package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Roles carried in the "role" claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// UserID returns the authenticated user's ID stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the role claim stored by JWTAuth, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// subjectID converts the sub claim to a user ID.  Tokens minted by
// utils.NewAccessToken carry it as a decimal string; numeric claims decode
// as float64.
func subjectID(v any) (uint64, bool) {
	switch s := v.(type) {
	case string:
		id, err := strconv.ParseUint(s, 10, 64)
		return id, err == nil && id != 0
	case float64:
		if s <= 0 || s != float64(uint64(s)) {
			return 0, false
		}
		return uint64(s), true
	}
	return 0, false
}

// rateSubject names the caller for rate limit keys.
func rateSubject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
