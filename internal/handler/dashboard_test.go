package handler

import (
    "context"
    "errors"
    "net/http"
    "testing"
    "time"

    qt "github.com/frankban/quicktest"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/middleware"
    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

type fakeDashboard struct {
    DashboardStore
    since time.Time
    err   error
}

func (f *fakeDashboard) Summary(_ context.Context, since time.Time) (model.DashboardSummary, error) {
    f.since = since
    var s model.DashboardSummary
    s.Users.Total = 12
    return s, f.err
}

func (f *fakeDashboard) SignupsPerMonth(_ context.Context, since time.Time) ([]model.MonthCount, error) {
    f.since = since
    return []model.MonthCount{{Month: "2026-05", Count: 3}}, f.err
}

func newDashboardEcho(store *fakeDashboard) *echo.Echo {
    h := NewDashboardHandler(testConfig(), store, quietLogger())
    h.now = func() time.Time { return may20 }
    e := echo.New()
    g := e.Group("/dashboard", middleware.JWTAuth(utils.NewTokenIssuer(testSecret)), middleware.ModeratorOrAdmin())
    g.GET("/resumen", h.Summary)
    g.GET("/usuarios/por-mes", h.SignupsPerMonth)
    return e
}

func TestDashboardWindows(t *testing.T) {
    c := qt.New(t)
    store := &fakeDashboard{}
    e := newDashboardEcho(store)
    tok := bearer(c, 1, model.RoleModerator)

    code, body := call(c, e, http.MethodGet, "/dashboard/resumen", nil, tok)
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["usuarios"].(map[string]any)["total"], qt.Equals, float64(12))
    c.Assert(store.since, qt.Equals, may20.AddDate(0, 0, -7))

    code, _ = call(c, e, http.MethodGet, "/dashboard/usuarios/por-mes", nil, tok)
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(store.since, qt.Equals, may20.AddDate(0, -6, 0))

    code, _ = call(c, e, http.MethodGet, "/dashboard/resumen", nil, bearer(c, 2, model.RoleUser))
    c.Assert(code, qt.Equals, http.StatusForbidden)
}

func TestDashboardFailureIs500(t *testing.T) {
    c := qt.New(t)
    e := newDashboardEcho(&fakeDashboard{err: errors.New("timeout")})

    code, body := call(c, e, http.MethodGet, "/dashboard/resumen", nil, bearer(c, 1, model.RoleAdmin))
    c.Assert(code, qt.Equals, http.StatusInternalServerError)
    c.Assert(body["error"], qt.Equals, "Error al obtener estadísticas")
}
