package handler // handler package contains the staff dashboard endpoints

import (
    "context"  // context bounds each aggregate query
    "log/slog" // slog records failures
    "net/http" // http defines status codes
    "time"     // time computes the reporting windows

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/config" // config carries the environment flag
    "github.com/iliyamo/salvambiente-api/internal/model"  // model defines the aggregate rows
)

// DashboardStore provides the staff dashboard aggregates.
type DashboardStore interface {
    Summary(ctx context.Context, recentSince time.Time) (model.DashboardSummary, error)
    UsersByRole(ctx context.Context) ([]model.RoleCount, error)
    SignupsPerMonth(ctx context.Context, since time.Time) ([]model.MonthCount, error)
    FootprintsByTransport(ctx context.Context) ([]model.TransportStat, error)
    EmissionsTrend(ctx context.Context, since time.Time) ([]model.EmissionsTrend, error)
    FootprintsByRenewable(ctx context.Context) ([]model.RenewableStat, error)
    Game1Stats(ctx context.Context) (model.Game1Stats, error)
    TopScores(ctx context.Context) ([]model.TopScore, error)
    GamesPerDay(ctx context.Context, since time.Time) ([]model.DayCount, error)
    RecentActivity(ctx context.Context) ([]model.Activity, error)
}

// DashboardHandler serves read-only aggregates to moderators and admins.
type DashboardHandler struct {
    base
    store DashboardStore   // aggregate queries
    now   func() time.Time // clock used for the since windows
}

// NewDashboardHandler wires the aggregate store.
func NewDashboardHandler(cfg config.Config, store DashboardStore, logger *slog.Logger) *DashboardHandler {
    return &DashboardHandler{
        base:  newBase(logger, cfg.Debug()),
        store: store,
        now:   func() time.Time { return time.Now().UTC() },
    }
}

const msgStatsError = "Error al obtener datos"

// stat runs fetch with a bounded context and answers its result as JSON.
func stat[T any](h *DashboardHandler, c echo.Context, op, msg string, fetch func(context.Context) (T, error)) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    v, err := fetch(ctx)
    if err != nil {
        return h.internal(c, op, err, msg)
    }
    return c.JSON(http.StatusOK, v)
}

// Summary handles GET /dashboard/resumen.  "Recent" counts cover the last
// seven days.
func (h *DashboardHandler) Summary(c echo.Context) error {
    since := h.now().AddDate(0, 0, -7) // "new this week" window
    return stat(h, c, "dashboard.summary", "Error al obtener estadísticas", func(ctx context.Context) (model.DashboardSummary, error) {
        return h.store.Summary(ctx, since)
    })
}

// SignupsPerMonth handles GET /dashboard/usuarios/por-mes over the last six
// months.
func (h *DashboardHandler) SignupsPerMonth(c echo.Context) error {
    since := h.now().AddDate(0, -6, 0)
    return stat(h, c, "dashboard.signups", msgStatsError, func(ctx context.Context) ([]model.MonthCount, error) {
        return h.store.SignupsPerMonth(ctx, since)
    })
}

// UsersByRole handles GET /dashboard/usuarios/por-rol.
func (h *DashboardHandler) UsersByRole(c echo.Context) error {
    return stat(h, c, "dashboard.roles", msgStatsError, h.store.UsersByRole)
}

// FootprintsByTransport handles GET /dashboard/huella/por-transporte.
func (h *DashboardHandler) FootprintsByTransport(c echo.Context) error {
    return stat(h, c, "dashboard.transport", msgStatsError, h.store.FootprintsByTransport)
}

// EmissionsTrend handles GET /dashboard/huella/tendencia: monthly average
// emissions for the last six months.
func (h *DashboardHandler) EmissionsTrend(c echo.Context) error {
    since := h.now().AddDate(0, -6, 0)
    return stat(h, c, "dashboard.trend", msgStatsError, func(ctx context.Context) ([]model.EmissionsTrend, error) {
        return h.store.EmissionsTrend(ctx, since)
    })
}

// FootprintsByRenewable handles GET /dashboard/huella/energia-renovable.
func (h *DashboardHandler) FootprintsByRenewable(c echo.Context) error {
    return stat(h, c, "dashboard.renewable", msgStatsError, h.store.FootprintsByRenewable)
}

// GameStats handles GET /dashboard/juegos/estadisticas.
func (h *DashboardHandler) GameStats(c echo.Context) error {
    return stat(h, c, "dashboard.games", msgStatsError, h.store.Game1Stats)
}

// TopScores handles GET /dashboard/juegos/top-puntuaciones.
func (h *DashboardHandler) TopScores(c echo.Context) error {
    return stat(h, c, "dashboard.top_scores", msgStatsError, h.store.TopScores)
}

// GamesPerDay handles GET /dashboard/juegos/por-dia for the last week.
func (h *DashboardHandler) GamesPerDay(c echo.Context) error {
    since := h.now().AddDate(0, 0, -7)
    return stat(h, c, "dashboard.games_per_day", msgStatsError, func(ctx context.Context) ([]model.DayCount, error) {
        return h.store.GamesPerDay(ctx, since)
    })
}

// RecentActivity handles GET /dashboard/actividad/reciente: the newest
// signups, footprints and games merged into one feed.
func (h *DashboardHandler) RecentActivity(c echo.Context) error {
    return stat(h, c, "dashboard.activity", "Error al obtener actividad", h.store.RecentActivity)
}
