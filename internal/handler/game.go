package handler // handler package contains the score and leaderboard endpoints of both games

import (
    "context"  // context bounds each store call
    "log/slog" // slog is the structured logger shared by handlers
    "net/http" // http defines status codes
    "time"     // time stamps each submitted score

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/config"     // config carries the environment flag
    "github.com/iliyamo/salvambiente-api/internal/middleware" // middleware exposes the token's user id
    "github.com/iliyamo/salvambiente-api/internal/model"      // model defines the score rows
)

// ScoreStore persists the latest score per user and game.
type ScoreStore interface {
    SaveGame1(ctx context.Context, s model.Game1Score) (uint64, error)
    Game1Leaderboard(ctx context.Context) ([]model.Game1LeaderboardRow, error)
    LatestGame1(ctx context.Context, userID uint64) (*model.Game1Score, error)
    SaveGame2(ctx context.Context, s model.Game2Score) (uint64, error)
    Game2Leaderboard(ctx context.Context) ([]model.Game2LeaderboardRow, error)
    LatestGame2(ctx context.Context, userID uint64) (*model.Game2Score, error)
}

// GameHandler serves both games.  A submitted score always belongs to the
// token's user; any user id in the body is ignored.
type GameHandler struct {
    base
    scores ScoreStore       // score storage, one row per user and game
    now    func() time.Time // clock, replaced in tests
}

// NewGameHandler wires the score store.
func NewGameHandler(cfg config.Config, scores ScoreStore, logger *slog.Logger) *GameHandler {
    return &GameHandler{
        base:   newBase(logger, cfg.Debug()),
        scores: scores,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// game1Req is the body of POST /juego1/puntuacion.
type game1Req struct {
    Score      int     `json:"puntuacion"`      // points earned
    Seconds    int     `json:"tiempo_segundos"` // time taken, lower ranks higher on ties
    Efficiency float64 `json:"eficiencia"`      // percentage reported by the client
    Hits       int     `json:"aciertos"`        // correctly sorted items
    TotalWaste int     `json:"total_residuos"`  // items shown
}

// game2Req is the body of POST /juego2/puntuacion.
type game2Req struct {
    Score          int     `json:"puntuacion"`
    FinalGrowth    float64 `json:"crecimiento_final"` // tree growth, second ranking key
    Hits           int     `json:"aciertos"`
    TotalQuestions int     `json:"total_preguntas"`
    StageReached   int     `json:"etapa_alcanzada"`
    PlaySeconds    int     `json:"tiempo_juego"` // third ranking key, ascending
}

const (
    msgScoreInvalid = "Datos de puntuación inválidos"
    msgScoreSave    = "Error al guardar la puntuación"
)

// SaveGame1 handles POST /juego1/puntuacion.  The new score replaces the
// user's previous one.
func (h *GameHandler) SaveGame1(c echo.Context) error {
    uid, _ := middleware.UserID(c) // route is behind JWTAuth
    var req game1Req
    if err := c.Bind(&req); err != nil { // malformed JSON
        return fail(c, http.StatusBadRequest, msgScoreInvalid)
    }
    if req.Score < 0 || req.Seconds < 0 || req.Hits < 0 || req.TotalWaste < 0 || req.Efficiency < 0 { // counters cannot be negative
        return fail(c, http.StatusBadRequest, msgScoreInvalid)
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    id, err := h.scores.SaveGame1(ctx, model.Game1Score{
        UserID:     uid,
        Score:      req.Score,
        Seconds:    req.Seconds,
        Efficiency: req.Efficiency,
        Hits:       req.Hits,
        TotalWaste: req.TotalWaste,
        PlayedAt:   h.now(),
    })
    if err != nil {
        return h.internal(c, "game1.save", err, msgScoreSave)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Puntuación guardada correctamente", "id": id})
}

// SaveGame2 handles POST /juego2/puntuacion.
func (h *GameHandler) SaveGame2(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    var req game2Req
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, msgScoreInvalid)
    }
    // growth may be negative when the tree withers
    if req.Score < 0 || req.Hits < 0 || req.TotalQuestions < 0 || req.StageReached < 0 || req.PlaySeconds < 0 {
        return fail(c, http.StatusBadRequest, msgScoreInvalid)
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    id, err := h.scores.SaveGame2(ctx, model.Game2Score{
        UserID:         uid,
        Score:          req.Score,
        FinalGrowth:    req.FinalGrowth,
        Hits:           req.Hits,
        TotalQuestions: req.TotalQuestions,
        StageReached:   req.StageReached,
        PlaySeconds:    req.PlaySeconds,
        PlayedAt:       h.now(),
    })
    if err != nil {
        return h.internal(c, "game2.save", err, msgScoreSave)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Puntuación guardada correctamente", "id": id})
}

// Game1Leaderboard handles GET /juego1/leaderboard: top ten by score,
// ties going to the faster player.
func (h *GameHandler) Game1Leaderboard(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    rows, err := h.scores.Game1Leaderboard(ctx)
    if err != nil {
        return h.internal(c, "game1.leaderboard", err, "Error al obtener el leaderboard")
    }
    return c.JSON(http.StatusOK, rows) // empty board encodes as []
}

// Game2Leaderboard handles GET /juego2/leaderboard.
func (h *GameHandler) Game2Leaderboard(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    rows, err := h.scores.Game2Leaderboard(ctx)
    if err != nil {
        return h.internal(c, "game2.leaderboard", err, "Error al obtener el leaderboard")
    }
    return c.JSON(http.StatusOK, rows)
}

// LatestGame1 answers the user's stored score, or null when there is none.
func (h *GameHandler) LatestGame1(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok { // non-numeric or zero id
        return fail(c, http.StatusBadRequest, "ID de usuario inválido")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    s, err := h.scores.LatestGame1(ctx, id)
    if err != nil {
        return h.internal(c, "game1.latest", err, "Error al obtener la puntuación")
    }
    return c.JSON(http.StatusOK, s) // nil pointer encodes as null
}

// LatestGame2 is LatestGame1 for the second game.
func (h *GameHandler) LatestGame2(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "ID de usuario inválido")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    s, err := h.scores.LatestGame2(ctx, id)
    if err != nil {
        return h.internal(c, "game2.latest", err, "Error al obtener la puntuación")
    }
    return c.JSON(http.StatusOK, s)
}
