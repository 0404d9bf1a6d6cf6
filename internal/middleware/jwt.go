package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/utils"
)

// SessionVerifier checks a raw bearer token and returns its session claims.
// utils.TokenIssuer satisfies it.
type SessionVerifier interface {
    VerifySession(raw string) (*utils.SessionClaims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and stores its claims in the request context.  A missing token and an
// expired token are both 401 with different messages so clients can tell
// "log in" apart from "log in again"; anything else that fails to verify
// is 403.
func JWTAuth(v SessionVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token de acceso requerido"})
            }

            claims, err := v.VerifySession(raw)
            if err != nil {
                if errors.Is(err, utils.ErrTokenExpired) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expirado"})
                }
                return c.JSON(http.StatusForbidden, echo.Map{"error": "Token inválido"})
            }

            setClaims(c, claims)
            return next(c)
        }
    }
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.  The scheme is matched case-insensitively.
func bearerToken(header string) string {
    scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
    if !ok || !strings.EqualFold(scheme, "Bearer") {
        return ""
    }
    return strings.TrimSpace(token)
}
