package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// RequireRole returns a middleware that lets the request through only when
// the verified caller's role is one of roles.  It must be mounted after
// JWTAuth: a request without verified claims is 401, a caller with another
// role is 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    return requireRole(roles, func(c echo.Context, role model.Role) error {
        return c.JSON(http.StatusForbidden, echo.Map{
            "error":        "No tienes permisos para acceder a este recurso",
            "rolRequerido": roles,
            "tuRol":        role,
        })
    })
}

// AdminOnly restricts a route to administrators.
func AdminOnly() echo.MiddlewareFunc {
    return requireRole([]model.Role{model.RoleAdmin}, forbidden("Acceso denegado. Se requieren permisos de administrador"))
}

// ModeratorOrAdmin restricts a route to moderators and administrators.
func ModeratorOrAdmin() echo.MiddlewareFunc {
    return requireRole([]model.Role{model.RoleAdmin, model.RoleModerator},
        forbidden("Acceso denegado. Se requieren permisos de moderador o administrador"))
}

func forbidden(msg string) func(echo.Context, model.Role) error {
    return func(c echo.Context, _ model.Role) error {
        return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
    }
}

func requireRole(roles []model.Role, deny func(echo.Context, model.Role) error) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := Role(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Usuario no autenticado"})
            }
            if !allowed[role] {
                return deny(c, role)
            }
            return next(c)
        }
    }
}
