package router // staff routes: dashboard, user administration and support desk

import (
    "github.com/labstack/echo/v4" // echo groups the routes

    "github.com/iliyamo/salvambiente-api/internal/middleware" // JWT and role guards
)

// RegisterStaff registers the moderator and administrator endpoints.  The
// dashboard and ticket desk are open to both roles; user management is
// admin-only.
func RegisterStaff(api *echo.Group, h Handlers, g Guards) {
    auth := middleware.JWTAuth(g.Verifier)

    // read-only statistics
    d := api.Group("/dashboard", auth, middleware.ModeratorOrAdmin())
    d.GET("/resumen", h.Dashboard.Summary)
    d.GET("/usuarios/por-mes", h.Dashboard.SignupsPerMonth)
    d.GET("/usuarios/por-rol", h.Dashboard.UsersByRole)
    d.GET("/huella/por-transporte", h.Dashboard.FootprintsByTransport)
    d.GET("/huella/tendencia", h.Dashboard.EmissionsTrend)
    d.GET("/huella/energia-renovable", h.Dashboard.FootprintsByRenewable)
    d.GET("/juegos/estadisticas", h.Dashboard.GameStats)
    d.GET("/juegos/top-puntuaciones", h.Dashboard.TopScores)
    d.GET("/juegos/por-dia", h.Dashboard.GamesPerDay)
    d.GET("/actividad/reciente", h.Dashboard.RecentActivity)

    // user management, admins only
    a := api.Group("/admin", auth, middleware.AdminOnly())
    a.GET("/usuarios", h.Admin.ListUsers)
    a.GET("/roles", h.Admin.ListRoles)
    a.PUT("/usuarios/:id/rol", h.Admin.UpdateRole)
    a.DELETE("/usuarios/:id", h.Admin.DeleteUser)

    // ticket desk
    s := api.Group("/soporte/admin", auth, middleware.ModeratorOrAdmin())
    s.GET("/estadisticas", h.Support.AdminStats)
    s.GET("/mensajes", h.Support.List)
    s.GET("/mensaje/:id", h.Support.AdminGet)
    s.POST("/respuesta", h.Support.Reply)
    s.PATCH("/mensaje/:id/estado", h.Support.SetStatus)
    s.PATCH("/mensaje/:id/prioridad", h.Support.SetPriority)
}

