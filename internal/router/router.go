package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/handler"
    "github.com/iliyamo/salvambiente-api/internal/middleware"
)

// APIPrefix is where every JSON endpoint is mounted.
const APIPrefix = "/api"

// Handlers bundles every handler the router mounts.
type Handlers struct {
    Auth      *handler.AuthHandler
    Google    *handler.GoogleHandler
    Reset     *handler.PasswordResetHandler
    Footprint *handler.FootprintHandler
    Profile   *handler.ProfileHandler
    Game      *handler.GameHandler
    Dashboard *handler.DashboardHandler
    Admin     *handler.AdminHandler
    Support   *handler.SupportHandler
    News      *handler.NewsHandler
}

// Guards are the middlewares routes are protected with.  Limit guards the
// credential endpoints; a nil Limit disables rate limiting.
type Guards struct {
    Verifier middleware.SessionVerifier
    Limit    echo.MiddlewareFunc
}

// Register mounts the whole API on e.
func Register(e *echo.Echo, h Handlers, g Guards, db handler.Pinger) {
    RegisterRoutes(e, db)
    api := e.Group(APIPrefix)
    RegisterAuth(api, h, g)
    RegisterUser(api, h, g)
    RegisterStaff(api, h, g)
}

// RegisterRoutes registers routes that do not belong to the API proper.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
    e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers sign-up, sign-in, Google sign-in and password
// reset.  The credential endpoints are rate limited.
func RegisterAuth(api *echo.Group, h Handlers, g Guards) {
    limit := g.Limit
    if limit == nil {
        limit = passThrough
    }
    auth := middleware.JWTAuth(g.Verifier)

    api.POST("/registro", h.Auth.Register, limit)
    api.POST("/login", h.Auth.Login, limit)
    api.POST("/logout", h.Auth.Logout, auth)
    api.GET("/verificar-token", h.Auth.VerifyToken, auth)
    api.POST("/completar-registro-google", h.Auth.CompleteGoogle)

    api.GET("/auth/google", h.Google.Start)
    api.GET("/auth/google/callback", h.Google.Callback)

    api.POST("/solicitar-restablecimiento", h.Reset.Request, limit)
    api.POST("/verificar-codigo", h.Reset.Verify, limit)
    api.POST("/restablecer-contra", h.Reset.Reset)
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
