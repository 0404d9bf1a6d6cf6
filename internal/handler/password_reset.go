package handler // handler package contains the password reset endpoints

import (
    "context"  // context bounds store and registry calls
    "errors"   // errors matches registry sentinels
    "log/slog" // slog records failures
    "net/http" // http defines status codes
    "strings"  // strings normalizes emails and codes

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/config"     // config carries the environment flag
    "github.com/iliyamo/salvambiente-api/internal/repository" // repository defines ErrNotFound
    "github.com/iliyamo/salvambiente-api/internal/resetcode"  // resetcode defines the code errors
)

// ResetCodes is the forgot-password code lifecycle.
type ResetCodes interface {
    Issue(ctx context.Context, email string) (string, error)
    Confirm(ctx context.Context, code string) error
    Consume(ctx context.Context, code, newPassword string) error
}

// PasswordResetHandler exposes the three reset steps.
type PasswordResetHandler struct {
    base
    users EmailLookup // confirms the address belongs to an account
    codes ResetCodes  // the process-wide code registry
}

// NewPasswordResetHandler wires the user lookup and the code registry.
func NewPasswordResetHandler(cfg config.Config, users EmailLookup, codes ResetCodes, logger *slog.Logger) *PasswordResetHandler {
    return &PasswordResetHandler{base: newBase(logger, cfg.Debug()), users: users, codes: codes}
}

// Request mails a reset code to a registered address.
func (h *PasswordResetHandler) Request(c echo.Context) error {
    var req struct {
        Email string `json:"correo"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    email := strings.ToLower(strings.TrimSpace(req.Email))
    if email == "" {
        return fail(c, http.StatusBadRequest, "El correo es obligatorio")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    if _, err := h.users.GetByEmail(ctx, email); err != nil {
        if errors.Is(err, repository.ErrNotFound) { // rate limited route, see router
            return fail(c, http.StatusNotFound, "Correo no encontrado")
        }
        return h.internal(c, "reset.request.lookup", err, msgServerError)
    }
    if _, err := h.codes.Issue(ctx, email); err != nil { // includes mail delivery failures
        return h.internal(c, "reset.request.issue", err, msgServerError)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Se ha enviado un código de recuperación a tu correo."})
}

// Verify confirms a code before the new password is chosen.
func (h *PasswordResetHandler) Verify(c echo.Context) error {
    var req struct {
        Code string `json:"token"` // the six-digit code from the mail
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    if err := h.codes.Confirm(c.Request().Context(), strings.TrimSpace(req.Code)); err != nil {
        return h.codeError(c, "reset.verify", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"valido": true})
}

// Reset sets the new password behind a verified code.
func (h *PasswordResetHandler) Reset(c echo.Context) error {
    var req struct {
        Code        string `json:"token"`
        NewPassword string `json:"nuevaContraseña"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.codes.Consume(ctx, strings.TrimSpace(req.Code), req.NewPassword); err != nil {
        return h.codeError(c, "reset.consume", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Contraseña restablecida correctamente"})
}

// codeError maps registry errors to responses.
func (h *PasswordResetHandler) codeError(c echo.Context, op string, err error) error {
    switch {
    case errors.Is(err, resetcode.ErrCodeNotFound):
        return fail(c, http.StatusNotFound, "Código inválido")
    case errors.Is(err, resetcode.ErrCodeExpired): // deleted on this call, later calls get 404
        return fail(c, http.StatusBadRequest, "Código expirado")
    case errors.Is(err, resetcode.ErrCodeNotVerified):
        return fail(c, http.StatusBadRequest, "Código no verificado")
    case errors.Is(err, resetcode.ErrPasswordTooShort):
        return fail(c, http.StatusBadRequest, "La nueva contraseña debe tener al menos 8 caracteres")
    default:
        return h.internal(c, op, err, msgServerError)
    }
}
