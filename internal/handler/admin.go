package handler // handler package contains the admin user management endpoints

import (
    "context"  // context bounds store calls
    "errors"   // errors matches repository sentinels
    "log/slog" // slog records failures and audit lines
    "net/http" // http defines status codes

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/config"     // config carries the environment flag
    "github.com/iliyamo/salvambiente-api/internal/middleware" // middleware exposes the admin's own id
    "github.com/iliyamo/salvambiente-api/internal/model"      // model defines roles
    "github.com/iliyamo/salvambiente-api/internal/repository" // repository defines sentinel errors
)

// UserAdminStore is the user storage behind the admin endpoints.
type UserAdminStore interface {
    List(ctx context.Context) ([]model.UserSummary, error)
    RoleByID(ctx context.Context, id uint8) (model.RoleRecord, error)
    ListRoles(ctx context.Context) ([]model.RoleRecord, error)
    UpdateRole(ctx context.Context, id uint64, roleID uint8) (model.User, error)
    Delete(ctx context.Context, id uint64) error
}

// AdminHandler manages users and their roles.  Routes are admin-only.
type AdminHandler struct {
    base
    users UserAdminStore
}

// NewAdminHandler wires the user store.
func NewAdminHandler(cfg config.Config, users UserAdminStore, logger *slog.Logger) *AdminHandler {
    return &AdminHandler{base: newBase(logger, cfg.Debug()), users: users}
}

// ListUsers handles GET /admin/usuarios.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    users, err := h.users.List(ctx)
    if err != nil {
        return h.internal(c, "admin.users", err, "Error al obtener usuarios")
    }
    return c.JSON(http.StatusOK, users)
}

// ListRoles handles GET /admin/roles.
func (h *AdminHandler) ListRoles(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    roles, err := h.users.ListRoles(ctx)
    if err != nil {
        return h.internal(c, "admin.roles", err, "Error al obtener roles")
    }
    return c.JSON(http.StatusOK, roles)
}

// UpdateRole assigns a role by id.  Admins cannot drop their own admin
// role.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "ID de usuario inválido")
    }
    var req struct {
        RoleID uint8 `json:"rol_id"` // id from /admin/roles
    }
    if err := c.Bind(&req); err != nil || req.RoleID == 0 {
        return fail(c, http.StatusBadRequest, "Rol no válido")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    rec, err := h.users.RoleByID(ctx, req.RoleID)
    if err != nil {
        if errors.Is(err, repository.ErrUnknownRole) {
            return fail(c, http.StatusBadRequest, "Rol no válido")
        }
        return h.internal(c, "admin.role.lookup", err, "Error al actualizar rol")
    }
    role, err := model.ParseRole(rec.Name)
    if err != nil { // roles table holds a name outside the enumeration
        return h.internal(c, "admin.role.parse", err, "Error al actualizar rol")
    }
    self, _ := middleware.UserID(c)
    if id == self && role != model.RoleAdmin { // no self-demotion
        return fail(c, http.StatusBadRequest, "No puedes quitarte el rol de administrador a ti mismo")
    }

    u, err := h.users.UpdateRole(ctx, id, req.RoleID)
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return fail(c, http.StatusNotFound, "Usuario no encontrado")
    case err != nil:
        return h.internal(c, "admin.role.update", err, "Error al actualizar rol")
    }
    h.logger.Info("role changed", "admin_id", self, "user_id", id, "rol", u.Role) // audit line
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Rol actualizado exitosamente",
        "usuario": userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)},
    })
}

// DeleteUser removes an account other than the caller's own.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "ID de usuario inválido")
    }
    self, _ := middleware.UserID(c)
    if id == self { // no self-deletion
        return fail(c, http.StatusBadRequest, "No puedes eliminar tu propia cuenta")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.users.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusNotFound, "Usuario no encontrado")
        }
        return h.internal(c, "admin.delete", err, "Error al eliminar usuario")
    }
    h.logger.Info("user deleted", "admin_id", self, "user_id", id)
    return c.JSON(http.StatusOK, echo.Map{"message": "Usuario eliminado exitosamente"})
}
