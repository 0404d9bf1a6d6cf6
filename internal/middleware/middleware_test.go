package middleware

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    qt "github.com/frankban/quicktest"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

func newProtected(issuer *utils.TokenIssuer, guard ...echo.MiddlewareFunc) *echo.Echo {
    e := echo.New()
    chain := append([]echo.MiddlewareFunc{JWTAuth(issuer)}, guard...)
    e.GET("/p", func(c echo.Context) error {
        id, _ := UserID(c)
        role, _ := Role(c)
        return c.JSON(http.StatusOK, echo.Map{"id": id, "rol": role})
    }, chain...)
    return e
}

func do(e *echo.Echo, token string) (int, map[string]any) {
    req := httptest.NewRequest(http.MethodGet, "/p", nil)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    var body map[string]any
    _ = json.Unmarshal(rec.Body.Bytes(), &body)
    return rec.Code, body
}

func session(c *qt.C, issuer *utils.TokenIssuer, role model.Role) string {
    tok, err := issuer.IssueSession(utils.Identity{ID: 42, Username: "ana", Email: "ana@example.com", Role: role}, time.Hour)
    c.Assert(err, qt.IsNil)
    return tok.Token
}

func TestJWTAuthMissingToken(t *testing.T) {
    c := qt.New(t)
    code, body := do(newProtected(utils.NewTokenIssuer("k")), "")
    c.Assert(code, qt.Equals, http.StatusUnauthorized)
    c.Assert(body["error"], qt.Equals, "Token de acceso requerido")
}

func TestJWTAuthExpiredToken(t *testing.T) {
    c := qt.New(t)
    past := utils.NewTokenIssuer("k").WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
    tok := session(c, past, model.RoleUser)

    code, body := do(newProtected(utils.NewTokenIssuer("k")), tok)
    c.Assert(code, qt.Equals, http.StatusUnauthorized)
    c.Assert(body["error"], qt.Equals, "Token expirado")
}

func TestJWTAuthForgedToken(t *testing.T) {
    c := qt.New(t)
    tok := session(c, utils.NewTokenIssuer("other"), model.RoleUser)

    code, body := do(newProtected(utils.NewTokenIssuer("k")), tok)
    c.Assert(code, qt.Equals, http.StatusForbidden)
    c.Assert(body["error"], qt.Equals, "Token inválido")
}

func TestJWTAuthStoresClaims(t *testing.T) {
    c := qt.New(t)
    issuer := utils.NewTokenIssuer("k")
    code, body := do(newProtected(issuer), session(c, issuer, model.RoleModerator))
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["id"], qt.Equals, float64(42))
    c.Assert(body["rol"], qt.Equals, "moderador")
}

func TestRoleGuards(t *testing.T) {
    issuer := utils.NewTokenIssuer("k")
    tests := []struct {
        name  string
        guard echo.MiddlewareFunc
        role  model.Role
        want  int
    }{
        {"admin only allows admin", AdminOnly(), model.RoleAdmin, http.StatusOK},
        {"admin only rejects moderator", AdminOnly(), model.RoleModerator, http.StatusForbidden},
        {"moderator or admin allows moderator", ModeratorOrAdmin(), model.RoleModerator, http.StatusOK},
        {"moderator or admin allows admin", ModeratorOrAdmin(), model.RoleAdmin, http.StatusOK},
        {"moderator or admin rejects user", ModeratorOrAdmin(), model.RoleUser, http.StatusForbidden},
        {"explicit set rejects outsider", RequireRole(model.RoleAdmin), model.RoleUser, http.StatusForbidden},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            c := qt.New(t)
            code, _ := do(newProtected(issuer, tt.guard), session(c, issuer, tt.role))
            c.Assert(code, qt.Equals, tt.want)
        })
    }
}

func TestRequireRoleReportsRoles(t *testing.T) {
    c := qt.New(t)
    issuer := utils.NewTokenIssuer("k")
    code, body := do(newProtected(issuer, RequireRole(model.RoleAdmin, model.RoleModerator)), session(c, issuer, model.RoleUser))
    c.Assert(code, qt.Equals, http.StatusForbidden)
    c.Assert(body["tuRol"], qt.Equals, "usuario")
    c.Assert(body["rolRequerido"], qt.DeepEquals, []any{"admin", "moderador"})
}

func TestRoleGuardWithoutClaimsIsUnauthenticated(t *testing.T) {
    c := qt.New(t)
    e := echo.New()
    e.GET("/p", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, AdminOnly())

    code, body := do(e, "")
    c.Assert(code, qt.Equals, http.StatusUnauthorized)
    c.Assert(body["error"], qt.Equals, "Usuario no autenticado")
}

func TestBearerToken(t *testing.T) {
    c := qt.New(t)
    c.Assert(bearerToken("Bearer abc"), qt.Equals, "abc")
    c.Assert(bearerToken("bearer abc"), qt.Equals, "abc")
    c.Assert(bearerToken("Basic abc"), qt.Equals, "")
    c.Assert(bearerToken("abc"), qt.Equals, "")
    c.Assert(bearerToken(""), qt.Equals, "")
}
