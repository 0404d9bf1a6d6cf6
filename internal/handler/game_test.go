package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    qt "github.com/frankban/quicktest"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// fakeScores keeps the latest score per user and game.
type fakeScores struct {
    game1 map[uint64]model.Game1Score
    game2 map[uint64]model.Game2Score
    next  uint64
}

func newFakeScores() *fakeScores {
    return &fakeScores{game1: map[uint64]model.Game1Score{}, game2: map[uint64]model.Game2Score{}}
}

func (f *fakeScores) SaveGame1(_ context.Context, s model.Game1Score) (uint64, error) {
    f.next++
    s.ID = f.next
    f.game1[s.UserID] = s
    return s.ID, nil
}

func (f *fakeScores) Game1Leaderboard(context.Context) ([]model.Game1LeaderboardRow, error) {
    return []model.Game1LeaderboardRow{}, nil
}

func (f *fakeScores) LatestGame1(_ context.Context, userID uint64) (*model.Game1Score, error) {
    s, ok := f.game1[userID]
    if !ok {
        return nil, nil
    }
    return &s, nil
}

func (f *fakeScores) SaveGame2(_ context.Context, s model.Game2Score) (uint64, error) {
    f.next++
    s.ID = f.next
    f.game2[s.UserID] = s
    return s.ID, nil
}

func (f *fakeScores) Game2Leaderboard(context.Context) ([]model.Game2LeaderboardRow, error) {
    return []model.Game2LeaderboardRow{}, nil
}

func (f *fakeScores) LatestGame2(_ context.Context, userID uint64) (*model.Game2Score, error) {
    s, ok := f.game2[userID]
    if !ok {
        return nil, nil
    }
    return &s, nil
}

func newGameEcho(scores *fakeScores) *echo.Echo {
    h := NewGameHandler(testConfig(), scores, quietLogger())
    h.now = func() time.Time { return may20 }
    e := echo.New()
    authed(e, http.MethodPost, "/juego1/puntuacion", h.SaveGame1)
    authed(e, http.MethodPost, "/juego2/puntuacion", h.SaveGame2)
    e.GET("/juego1/usuario/:id", h.LatestGame1)
    e.GET("/juego2/usuario/:id", h.LatestGame2)
    e.GET("/juego1/leaderboard", h.Game1Leaderboard)
    return e
}

func TestGameScoreBelongsToTokenUser(t *testing.T) {
    c := qt.New(t)
    scores := newFakeScores()
    e := newGameEcho(scores)

    req := jsonRequest(http.MethodPost, "/juego1/puntuacion",
        `{"usuario_id": 99, "puntuacion": 80, "tiempo_segundos": 45, "eficiencia": 0.9, "aciertos": 8, "total_residuos": 10}`)
    req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer(c, 4, model.RoleUser))
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    c.Assert(rec.Code, qt.Equals, http.StatusOK)

    c.Assert(scores.game1, qt.HasLen, 1)
    c.Assert(scores.game1[4].Score, qt.Equals, 80)
    c.Assert(scores.game1[4].PlayedAt, qt.Equals, may20)

    code, body := call(c, e, http.MethodGet, "/juego1/usuario/4", nil, "")
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["puntuacion"], qt.Equals, float64(80))
}

func TestGameScoreValidation(t *testing.T) {
    c := qt.New(t)
    e := newGameEcho(newFakeScores())
    tok := bearer(c, 4, model.RoleUser)

    code, body := call(c, e, http.MethodPost, "/juego2/puntuacion", map[string]any{"puntuacion": -1}, tok)
    c.Assert(code, qt.Equals, http.StatusBadRequest)
    c.Assert(body["error"], qt.Equals, "Datos de puntuación inválidos")

    code, _ = call(c, e, http.MethodPost, "/juego2/puntuacion", map[string]any{"puntuacion": 10}, "")
    c.Assert(code, qt.Equals, http.StatusUnauthorized)
}

func TestLatestGameWithoutScoreIsNull(t *testing.T) {
    c := qt.New(t)
    e := newGameEcho(newFakeScores())

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/juego2/usuario/12", nil))
    c.Assert(rec.Code, qt.Equals, http.StatusOK)
    var v any
    c.Assert(json.Unmarshal(rec.Body.Bytes(), &v), qt.IsNil)
    c.Assert(v, qt.IsNil)

    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/juego1/leaderboard", nil))
    c.Assert(rec.Body.String(), qt.Equals, "[]\n")
}
