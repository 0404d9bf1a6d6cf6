package handler // handler package contains local and completed-Google registration and login

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "net/mail"
    "strings"
    "time"
    "unicode/utf8"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/config"
    "github.com/iliyamo/salvambiente-api/internal/middleware"
    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/repository"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

// AccountStore is the user storage the auth endpoints rely on.
type AccountStore interface {
    GetByUsername(ctx context.Context, username string) (model.User, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    Create(ctx context.Context, username, email, passwordHash string, role model.Role) (model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    base
    users      AccountStore       // account storage
    tokens     *utils.TokenIssuer // signs session tokens, checks pending ones
    sessionTTL time.Duration      // lifetime of issued session tokens
    bcryptCost int                // cost for new password hashes
}

// NewAuthHandler wires the account store and token issuer.
func NewAuthHandler(cfg config.Config, users AccountStore, tokens *utils.TokenIssuer, logger *slog.Logger) *AuthHandler {
    return &AuthHandler{
        base:       newBase(logger, cfg.Debug()),
        users:      users,
        tokens:     tokens,
        sessionTTL: cfg.SessionTTL,
        bcryptCost: cfg.BcryptCost,
    }
}

// ----- DTOs -----

type registerReq struct {
    Username string `json:"usuario"`
    Email    string `json:"correo"`
    Password string `json:"contraseña"`
}

type loginReq struct {
    Username string `json:"usuario"`
    Password string `json:"contraseña"`
}

type completeGoogleReq struct {
    TempToken string `json:"temp_token"`
    Username  string `json:"usuario"`
    Password  string `json:"contraseña"`
}

type sessionResp struct {
    Message string   `json:"message,omitempty"`
    Token   string   `json:"token"`
    User    userPart `json:"usuario"`
}

const (
    minUsernameLen = 3
    maxUsernameLen = 50
)

// validUsername checks the handle length in characters.
func validUsername(s string) bool {
    n := utf8.RuneCountInString(s)
    return n >= minUsernameLen && n <= maxUsernameLen
}

// validEmail accepts a bare address, no display name.
func validEmail(s string) bool {
    a, err := mail.ParseAddress(s)
    return err == nil && a.Address == s
}

// checkNewAccount validates the fields shared by both registration paths
// and returns the message to answer with, or "" when they are fine.
func checkNewAccount(username, password string) string {
    switch {
    case !validUsername(username):
        return "El nombre de usuario debe tener entre 3 y 50 caracteres"
    case !utils.PasswordLongEnough(password):
        return "La contraseña debe tener al menos 8 caracteres"
    }
    return ""
}

// Register creates a local account with the default role.  No token is
// issued; the client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Username == "" || req.Email == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, "Todos los campos son obligatorios")
    }
    if msg := checkNewAccount(req.Username, req.Password); msg != "" {
        return fail(c, http.StatusBadRequest, msg)
    }
    if !validEmail(req.Email) {
        return fail(c, http.StatusBadRequest, "Correo electrónico inválido")
    }

    hash, err := utils.HashPassword(req.Password, h.bcryptCost)
    if err != nil {
        return h.internal(c, "register.hash", err, msgServerError)
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    if _, err := h.users.Create(ctx, req.Username, req.Email, hash, model.DefaultRole); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return fail(c, http.StatusBadRequest, "El usuario o correo ya existe")
        }
        return h.internal(c, "register.create", err, msgServerError)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "Usuario registrado exitosamente"})
}

// Login verifies a handle and password and issues a session token.  Unknown
// handles and wrong passwords get the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, "Usuario y contraseña son obligatorios")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.users.GetByUsername(ctx, req.Username)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            h.logger.Info("login rejected", "usuario", req.Username, "reason", "unknown")
            return fail(c, http.StatusUnauthorized, "Credenciales inválidas")
        }
        return h.internal(c, "login.lookup", err, msgServerError)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        h.logger.Info("login rejected", "usuario", req.Username, "reason", "password")
        return fail(c, http.StatusUnauthorized, "Credenciales inválidas")
    }

    resp, err := h.session(u)
    if err != nil {
        return h.internal(c, "login.token", err, msgServerError)
    }
    h.logger.Info("login", "user_id", u.ID, "rol", u.Role)
    return c.JSON(http.StatusOK, resp)
}

// CompleteGoogle finishes a Google sign-in for an email with no local
// account: the pending token proves the email, the body picks the handle
// and password.
func (h *AuthHandler) CompleteGoogle(c echo.Context) error {
    var req completeGoogleReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    pending, err := h.tokens.VerifyPending(req.TempToken)
    if err != nil {
        return fail(c, http.StatusBadRequest, "Token inválido o expirado")
    }
    if pending.Verified {
        return fail(c, http.StatusBadRequest, "Token ya utilizado")
    }
    req.Username = strings.TrimSpace(req.Username)
    if msg := checkNewAccount(req.Username, req.Password); msg != "" {
        return fail(c, http.StatusBadRequest, msg)
    }

    hash, err := utils.HashPassword(req.Password, h.bcryptCost)
    if err != nil {
        return h.internal(c, "google.complete.hash", err, msgServerError)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.users.Create(ctx, req.Username, pending.Email, hash, model.DefaultRole)
    if err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return fail(c, http.StatusBadRequest, "El usuario o correo ya existe")
        }
        return h.internal(c, "google.complete.create", err, msgServerError)
    }

    resp, err := h.session(u)
    if err != nil {
        return h.internal(c, "google.complete.token", err, msgServerError)
    }
    resp.Message = "Registro completado exitosamente"
    return c.JSON(http.StatusCreated, resp)
}

// Logout only acknowledges; tokens stay valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Sesión cerrada exitosamente"})
}

// VerifyToken echoes the identity carried by the caller's token.
func (h *AuthHandler) VerifyToken(c echo.Context) error {
    claims, ok := middleware.Claims(c)
    if !ok {
        return fail(c, http.StatusUnauthorized, "Usuario no autenticado")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "valido": true,
        "usuario": userPart{
            ID:       claims.ID,
            Username: claims.Username,
            Email:    claims.Email,
            Role:     string(claims.Role),
        },
    })
}

func (h *AuthHandler) session(u model.User) (sessionResp, error) {
    tok, err := h.tokens.IssueSession(identityOf(u), h.sessionTTL)
    if err != nil {
        return sessionResp{}, err
    }
    return sessionResp{
        Token: tok.Token,
        User:  userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)},
    }, nil
}

func identityOf(u model.User) utils.Identity {
    return utils.Identity{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, RoleID: u.RoleID}
}
