package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/handler"
    "github.com/iliyamo/salvambiente-api/internal/middleware"
)

// RegisterUser registers the endpoints any signed-in user reaches, plus the
// public game, support and news reads that live next to them.
func RegisterUser(api *echo.Group, h Handlers, g Guards) {
    auth := middleware.JWTAuth(g.Verifier)

    // ---- Footprint ----
    api.GET("/puede-calcular", h.Footprint.CanRecord, auth)
    api.POST("/guardar", h.Footprint.Save, auth)
    api.GET("/historial", h.Footprint.History, auth)
    api.GET("/estadisticas", h.Footprint.Stats, auth)

    // ---- Profile ----
    api.GET("/perfil", h.Profile.Get, auth)
    api.PUT("/perfil", h.Profile.Update, auth)
    api.PUT("/cambiar-contra", h.Profile.ChangePassword, auth)

    // ---- Games ----
    g1 := api.Group("/juego1")
    g1.POST("/puntuacion", h.Game.SaveGame1, auth)
    g1.GET("/leaderboard", h.Game.Game1Leaderboard)
    g1.GET("/usuario/:id", h.Game.LatestGame1)

    g2 := api.Group("/juego2")
    g2.POST("/puntuacion", h.Game.SaveGame2, auth)
    g2.GET("/leaderboard", h.Game.Game2Leaderboard)
    g2.GET("/usuario/:id", h.Game.LatestGame2)
    g2.GET("/questions", handler.QuizQuestions)
    g2.GET("/questions/:id", handler.QuizQuestion)
    g2.POST("/check-answer", handler.QuizCheckAnswer)

    // ---- Support ----
    s := api.Group("/soporte")
    s.GET("/categorias", h.Support.Categories)
    s.POST("/mensaje", h.Support.Create, auth)
    s.GET("/mis-mensajes", h.Support.Mine, auth)
    s.GET("/mensaje/:id", h.Support.Get, auth)
    s.GET("/estadisticas", h.Support.MyStats, auth)

    api.GET("/noticias", h.News.List)
}
