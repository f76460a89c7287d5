package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// CurrentUser returns the authenticated user id and role stored by
// JWTAuth.  ok is false for anonymous requests.
func CurrentUser(c echo.Context) (id uint64, role string, ok bool) {
    id, _ = c.Get(CtxUserID).(uint64)
    role, _ = c.Get(CtxRole).(string)
    return id, role, id != 0
}

// identityKey names the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func identityKey(c echo.Context) string {
    if id, _, ok := CurrentUser(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
