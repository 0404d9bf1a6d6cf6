package middleware

// identity.go holds the accessors handlers use to read the verified caller
// out of the Echo context once JWTAuth has run.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

const claimsKey = "claims"

func setClaims(c echo.Context, claims *utils.SessionClaims) {
    c.Set(claimsKey, claims)
    c.Set("user_id", claims.ID)
    c.Set("role", claims.Role)
}

// Claims returns the verified session claims, if any.
func Claims(c echo.Context) (*utils.SessionClaims, bool) {
    claims, ok := c.Get(claimsKey).(*utils.SessionClaims)
    return claims, ok && claims != nil
}

// UserID returns the id of the authenticated caller.
func UserID(c echo.Context) (uint64, bool) {
    claims, ok := Claims(c)
    if !ok {
        return 0, false
    }
    return claims.ID, true
}

// Role returns the role of the authenticated caller.
func Role(c echo.Context) (model.Role, bool) {
    claims, ok := Claims(c)
    if !ok {
        return "", false
    }
    return claims.Role, true
}

// userKey identifies the caller for rate limiting; "anon" before auth.
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
