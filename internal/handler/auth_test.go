package handler

import (
    "context"
    "errors"
    "net/http"
    "testing"
    "time"

    qt "github.com/frankban/quicktest"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

func newAuthEcho(users *fakeUsers) *echo.Echo {
    h := NewAuthHandler(testConfig(), users, utils.NewTokenIssuer(testSecret), quietLogger())
    e := echo.New()
    e.POST("/registro", h.Register)
    e.POST("/login", h.Login)
    e.POST("/completar-registro-google", h.CompleteGoogle)
    authed(e, http.MethodGet, "/verificar-token", h.VerifyToken)
    return e
}

func TestRegisterThenLogin(t *testing.T) {
    c := qt.New(t)
    users := newFakeUsers()
    e := newAuthEcho(users)

    code, body := call(c, e, http.MethodPost, "/registro", map[string]string{
        "usuario": "ana", "correo": "Ana@Example.com", "contraseña": "secreta123",
    }, "")
    c.Assert(code, qt.Equals, http.StatusCreated)
    c.Assert(body["message"], qt.Equals, "Usuario registrado exitosamente")
    c.Assert(body["token"], qt.IsNil)

    u, err := users.GetByUsername(context.Background(), "ana")
    c.Assert(err, qt.IsNil)
    c.Assert(u.Email, qt.Equals, "ana@example.com")
    c.Assert(u.Role, qt.Equals, model.RoleUser)
    c.Assert(u.PasswordHash, qt.Not(qt.Equals), "secreta123")

    code, body = call(c, e, http.MethodPost, "/login", map[string]string{"usuario": "ana", "contraseña": "secreta123"}, "")
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["usuario"], qt.DeepEquals, map[string]any{
        "id": float64(u.ID), "usuario": "ana", "correo": "ana@example.com", "rol": "usuario",
    })

    claims, err := utils.NewTokenIssuer(testSecret).VerifySession(body["token"].(string))
    c.Assert(err, qt.IsNil)
    c.Assert(claims.ID, qt.Equals, u.ID)
    c.Assert(claims.Role, qt.Equals, model.RoleUser)
    c.Assert(claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time), qt.Equals, time.Hour)
}

func TestRegisterRejects(t *testing.T) {
    users := newFakeUsers()
    users.add(qt.New(t), "ana", "ana@example.com", "secreta123", model.RoleUser)
    e := newAuthEcho(users)

    tests := []struct {
        name string
        body map[string]string
        msg  string
    }{{
        name: "missing field",
        body: map[string]string{"usuario": "luis", "correo": "luis@example.com"},
        msg:  "Todos los campos son obligatorios",
    }, {
        name: "short password",
        body: map[string]string{"usuario": "luis", "correo": "luis@example.com", "contraseña": "corta"},
        msg:  "La contraseña debe tener al menos 8 caracteres",
    }, {
        name: "bad email",
        body: map[string]string{"usuario": "luis", "correo": "no-es-correo", "contraseña": "secreta123"},
        msg:  "Correo electrónico inválido",
    }, {
        name: "short handle",
        body: map[string]string{"usuario": "lu", "correo": "luis@example.com", "contraseña": "secreta123"},
        msg:  "El nombre de usuario debe tener entre 3 y 50 caracteres",
    }, {
        name: "taken handle",
        body: map[string]string{"usuario": "ana", "correo": "otra@example.com", "contraseña": "secreta123"},
        msg:  "El usuario o correo ya existe",
    }, {
        name: "taken email",
        body: map[string]string{"usuario": "otra", "correo": "ANA@example.com", "contraseña": "secreta123"},
        msg:  "El usuario o correo ya existe",
    }}
    for _, test := range tests {
        t.Run(test.name, func(t *testing.T) {
            c := qt.New(t)
            code, body := call(c, e, http.MethodPost, "/registro", test.body, "")
            c.Assert(code, qt.Equals, http.StatusBadRequest)
            c.Assert(body["error"], qt.Equals, test.msg)
        })
    }
}

func TestLoginFailuresLookTheSame(t *testing.T) {
    c := qt.New(t)
    users := newFakeUsers()
    users.add(c, "ana", "ana@example.com", "secreta123", model.RoleUser)
    e := newAuthEcho(users)

    code1, body1 := call(c, e, http.MethodPost, "/login", map[string]string{"usuario": "nadie", "contraseña": "secreta123"}, "")
    code2, body2 := call(c, e, http.MethodPost, "/login", map[string]string{"usuario": "ana", "contraseña": "incorrecta"}, "")
    c.Assert(code1, qt.Equals, http.StatusUnauthorized)
    c.Assert(code2, qt.Equals, code1)
    c.Assert(body2, qt.DeepEquals, body1)
    c.Assert(body1["error"], qt.Equals, "Credenciales inválidas")

    code, _ := call(c, e, http.MethodPost, "/login", map[string]string{"usuario": "ana"}, "")
    c.Assert(code, qt.Equals, http.StatusBadRequest)
}

func TestLoginStorageFailureIs500(t *testing.T) {
    c := qt.New(t)
    users := newFakeUsers()
    users.err = errors.New("db down")
    e := newAuthEcho(users)

    code, body := call(c, e, http.MethodPost, "/login", map[string]string{"usuario": "ana", "contraseña": "secreta123"}, "")
    c.Assert(code, qt.Equals, http.StatusInternalServerError)
    c.Assert(body["error"], qt.Equals, "Error en el servidor")
    c.Assert(body["detalle"], qt.IsNil)
}

func TestCompleteGoogle(t *testing.T) {
    c := qt.New(t)
    users := newFakeUsers()
    e := newAuthEcho(users)
    issuer := utils.NewTokenIssuer(testSecret)

    pending, err := issuer.IssuePending("nuevo@example.com", "Nuevo", 10*time.Minute)
    c.Assert(err, qt.IsNil)

    code, body := call(c, e, http.MethodPost, "/completar-registro-google", map[string]string{
        "temp_token": pending.Token, "usuario": "nuevo", "contraseña": "secreta123",
    }, "")
    c.Assert(code, qt.Equals, http.StatusCreated)
    c.Assert(body["message"], qt.Equals, "Registro completado exitosamente")
    claims, err := issuer.VerifySession(body["token"].(string))
    c.Assert(err, qt.IsNil)
    c.Assert(claims.Email, qt.Equals, "nuevo@example.com")
    c.Assert(claims.Role, qt.Equals, model.RoleUser)

    // a second completion collides with the account just created
    code, body = call(c, e, http.MethodPost, "/completar-registro-google", map[string]string{
        "temp_token": pending.Token, "usuario": "otro", "contraseña": "secreta123",
    }, "")
    c.Assert(code, qt.Equals, http.StatusBadRequest)
    c.Assert(body["error"], qt.Equals, "El usuario o correo ya existe")
}

func TestCompleteGoogleRejectsBadTokens(t *testing.T) {
    c := qt.New(t)
    e := newAuthEcho(newFakeUsers())
    issuer := utils.NewTokenIssuer(testSecret)

    expired, err := issuer.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).
        IssuePending("a@example.com", "A", 10*time.Minute)
    c.Assert(err, qt.IsNil)
    session, err := issuer.IssueSession(utils.Identity{ID: 1, Role: model.RoleUser}, time.Hour)
    c.Assert(err, qt.IsNil)

    for _, tok := range []string{"", "basura", expired.Token, session.Token} {
        code, body := call(c, e, http.MethodPost, "/completar-registro-google", map[string]string{
            "temp_token": tok, "usuario": "nuevo", "contraseña": "secreta123",
        }, "")
        c.Assert(code, qt.Equals, http.StatusBadRequest)
        c.Assert(body["error"], qt.Equals, "Token inválido o expirado")
    }
}

func TestVerifyToken(t *testing.T) {
    c := qt.New(t)
    e := newAuthEcho(newFakeUsers())

    code, body := call(c, e, http.MethodGet, "/verificar-token", nil, bearer(c, 9, model.RoleModerator))
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["valido"], qt.Equals, true)
    c.Assert(body["usuario"].(map[string]any)["rol"], qt.Equals, "moderador")

    code, _ = call(c, e, http.MethodGet, "/verificar-token", nil, "")
    c.Assert(code, qt.Equals, http.StatusUnauthorized)
}
