package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// UserRepo reads and writes the `usuarios` table.  Password arguments are
// always bcrypt hashes; hashing happens before the repository is called.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const selectUser = `SELECT u.id, u.usuario, u.correo, u.contrasena, u.rol_id, COALESCE(r.nombre, ''), u.fecha_creacion
    FROM usuarios u LEFT JOIN roles r ON u.rol_id = r.id`

func scanUser(row *sql.Row) (model.User, error) {
    var (
        u        model.User
        roleName string
    )
    if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &roleName, &u.CreatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.User{}, ErrNotFound
        }
        return model.User{}, err
    }
    role, err := model.ParseRole(roleName)
    if err != nil {
        return model.User{}, fmt.Errorf("user %d: %w", u.ID, err)
    }
    u.Role = role
    return u, nil
}

// GetByUsername fetches a user by handle.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx, selectUser+" WHERE u.usuario = ? LIMIT 1", strings.TrimSpace(username)))
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx, selectUser+" WHERE u.correo = ? LIMIT 1", strings.TrimSpace(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx, selectUser+" WHERE u.id = ? LIMIT 1", id))
}

// Create inserts a user with the given role and returns it.  A taken handle
// or email yields ErrConflict, whether found by the pre-check or by the
// unique keys.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string, role model.Role) (model.User, error) {
    var taken int
    err := r.DB.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM usuarios WHERE usuario = ? OR correo = ?", username, email).Scan(&taken)
    if err != nil {
        return model.User{}, err
    }
    if taken > 0 {
        return model.User{}, ErrConflict
    }

    roleID, err := r.roleID(ctx, role)
    if err != nil {
        return model.User{}, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO usuarios (usuario, correo, contrasena, rol_id) VALUES (?, ?, ?, ?)",
        username, email, passwordHash, roleID)
    if err != nil {
        if isDuplicate(err) {
            return model.User{}, ErrConflict
        }
        return model.User{}, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.User{}, err
    }
    return r.GetByID(ctx, uint64(id))
}

func (r *UserRepo) roleID(ctx context.Context, role model.Role) (uint8, error) {
    var id uint8
    err := r.DB.QueryRowContext(ctx, "SELECT id FROM roles WHERE nombre = ? LIMIT 1", string(role)).Scan(&id)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, fmt.Errorf("%w: %s", ErrUnknownRole, role)
    }
    return id, err
}

// UpdateUsername renames a user.  The new handle must not belong to anyone
// else.
func (r *UserRepo) UpdateUsername(ctx context.Context, id uint64, username string) (model.User, error) {
    var taken int
    err := r.DB.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM usuarios WHERE usuario = ? AND id <> ?", username, id).Scan(&taken)
    if err != nil {
        return model.User{}, err
    }
    if taken > 0 {
        return model.User{}, ErrConflict
    }
    if _, err := r.GetByID(ctx, id); err != nil {
        return model.User{}, err
    }
    if _, err := r.DB.ExecContext(ctx, "UPDATE usuarios SET usuario = ? WHERE id = ?", username, id); err != nil {
        if isDuplicate(err) {
            return model.User{}, ErrConflict
        }
        return model.User{}, err
    }
    return r.GetByID(ctx, id)
}

// UpdatePassword stores a new hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
    return expectOne(r.DB.ExecContext(ctx, "UPDATE usuarios SET contrasena = ? WHERE id = ?", passwordHash, id))
}

// UpdatePasswordByEmail stores a new hash for the user owning email.
func (r *UserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
    return expectOne(r.DB.ExecContext(ctx, "UPDATE usuarios SET contrasena = ? WHERE correo = ?", passwordHash, email))
}

// List returns every user with its role, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.UserSummary, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT u.id, u.usuario, u.correo, COALESCE(r.nombre, ''), u.fecha_creacion
         FROM usuarios u LEFT JOIN roles r ON u.rol_id = r.id
         ORDER BY u.fecha_creacion DESC, u.id DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.UserSummary{}
    for rows.Next() {
        var (
            s    model.UserSummary
            name string
        )
        if err := rows.Scan(&s.ID, &s.Username, &s.Email, &name, &s.CreatedAt); err != nil {
            return nil, err
        }
        if s.Role, err = model.ParseRole(name); err != nil {
            return nil, fmt.Errorf("user %d: %w", s.ID, err)
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// UpdateRole assigns roleID to the user.  An unknown role yields
// ErrUnknownRole and a missing user ErrNotFound.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, roleID uint8) (model.User, error) {
    if _, err := r.RoleByID(ctx, roleID); err != nil {
        return model.User{}, err
    }
    if _, err := r.GetByID(ctx, id); err != nil {
        return model.User{}, err
    }
    if _, err := r.DB.ExecContext(ctx, "UPDATE usuarios SET rol_id = ? WHERE id = ?", roleID, id); err != nil {
        return model.User{}, err
    }
    return r.GetByID(ctx, id)
}

// RoleByID fetches one row of `roles`.
func (r *UserRepo) RoleByID(ctx context.Context, id uint8) (model.RoleRecord, error) {
    var rr model.RoleRecord
    err := r.DB.QueryRowContext(ctx, "SELECT id, nombre, descripcion FROM roles WHERE id = ?", id).
        Scan(&rr.ID, &rr.Name, &rr.Description)
    if errors.Is(err, sql.ErrNoRows) {
        return model.RoleRecord{}, ErrUnknownRole
    }
    return rr, err
}

// ListRoles returns all roles ordered by name.
func (r *UserRepo) ListRoles(ctx context.Context) ([]model.RoleRecord, error) {
    rows, err := r.DB.QueryContext(ctx, "SELECT id, nombre, descripcion FROM roles ORDER BY nombre")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.RoleRecord{}
    for rows.Next() {
        var rr model.RoleRecord
        if err := rows.Scan(&rr.ID, &rr.Name, &rr.Description); err != nil {
            return nil, err
        }
        out = append(out, rr)
    }
    return out, rows.Err()
}

// Delete removes the user row.  Rows owned by the user in other tables are
// left in place.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
    return expectOne(r.DB.ExecContext(ctx, "DELETE FROM usuarios WHERE id = ?", id))
}

// expectOne turns a zero-row write into ErrNotFound.
func expectOne(res sql.Result, err error) error {
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}
