package handler

import (
    "context"  // context bounds store calls
    "errors"   // errors matches repository sentinels
    "log/slog" // slog records failures
    "net/http" // http defines status codes
    "strings"  // strings trims the submitted handle
    "time"     // time types the creation date in the view

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/config"     // config supplies the bcrypt cost
    "github.com/iliyamo/salvambiente-api/internal/middleware" // middleware exposes the caller id
    "github.com/iliyamo/salvambiente-api/internal/model"      // model defines User
    "github.com/iliyamo/salvambiente-api/internal/repository" // repository defines sentinel errors
    "github.com/iliyamo/salvambiente-api/internal/utils"      // utils hashes and checks passwords
)

// ProfileStore reads and updates the caller's own account.
type ProfileStore interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
    UpdateUsername(ctx context.Context, id uint64, username string) (model.User, error)
    UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
    base
    users      ProfileStore
    bcryptCost int // cost for new password hashes
}

// NewProfileHandler wires the user store.
func NewProfileHandler(cfg config.Config, users ProfileStore, logger *slog.Logger) *ProfileHandler {
    return &ProfileHandler{base: newBase(logger, cfg.Debug()), users: users, bcryptCost: cfg.BcryptCost}
}

// profileView is the public part of an account; the hash never leaves.
type profileView struct {
    ID        uint64    `json:"id"`
    Username  string    `json:"usuario"`
    Email     string    `json:"correo"`
    CreatedAt time.Time `json:"fecha_creacion"`
}

func viewOf(u model.User) profileView {
    return profileView{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Get handles GET /perfil.
func (h *ProfileHandler) Get(c echo.Context) error {
    uid, _ := middleware.UserID(c) // route is behind JWTAuth
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) { // account deleted after the token was issued
            return fail(c, http.StatusNotFound, "Usuario no encontrado")
        }
        return h.internal(c, "profile.get", err, msgServerError)
    }
    return c.JSON(http.StatusOK, echo.Map{"user": viewOf(u)})
}

// Update changes the caller's handle.  Keeping the current handle is fine.
func (h *ProfileHandler) Update(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    var req struct {
        Username string `json:"usuario"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    req.Username = strings.TrimSpace(req.Username)
    if !validUsername(req.Username) {
        return fail(c, http.StatusBadRequest, "El nombre de usuario debe tener entre 3 y 50 caracteres")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.users.UpdateUsername(ctx, uid, req.Username)
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return fail(c, http.StatusNotFound, "Usuario no encontrado")
    case errors.Is(err, repository.ErrConflict): // handle taken by someone else
        return fail(c, http.StatusBadRequest, "El nombre de usuario ya está en uso")
    case err != nil:
        return h.internal(c, "profile.update", err, msgServerError)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Perfil actualizado exitosamente", "user": viewOf(u)})
}

// ChangePassword requires the current password.
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    var req struct {
        Current string `json:"currentPassword"`
        New     string `json:"newPassword"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusNotFound, "Usuario no encontrado")
        }
        return h.internal(c, "profile.password.lookup", err, msgServerError)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Current) { // wrong current password
        return fail(c, http.StatusUnauthorized, "Contraseña actual incorrecta")
    }
    if !utils.PasswordLongEnough(req.New) {
        return fail(c, http.StatusBadRequest, "La nueva contraseña debe tener al menos 8 caracteres")
    }
    hash, err := utils.HashPassword(req.New, h.bcryptCost)
    if err != nil {
        return h.internal(c, "profile.password.hash", err, msgServerError)
    }
    if err := h.users.UpdatePassword(ctx, uid, hash); err != nil {
        return h.internal(c, "profile.password.update", err, msgServerError)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Contraseña actualizada exitosamente"})
}
