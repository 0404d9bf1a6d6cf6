package repository // support tickets

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// SupportRepo manages support tickets (`soporte_mensajes`), their replies
// and categories.
type SupportRepo struct {
    db *sql.DB // shared pool
}

// NewSupportRepo wraps db.
func NewSupportRepo(db *sql.DB) *SupportRepo { return &SupportRepo{db: db} }

// TicketFilter narrows ticket listings.  Zero fields do not filter.
type TicketFilter struct {
    UserID     uint64               // owner, set for the user-facing listing
    Status     model.TicketStatus   // ignored unless valid
    Priority   model.TicketPriority // ignored unless valid
    CategoryID uint64
}

// where renders the filter as a WHERE clause over alias sm.
func (f TicketFilter) where() (string, []any) {
    var (
        conds = []string{"1=1"}
        args  []any
    )
    if f.UserID != 0 {
        conds = append(conds, "sm.usuario_id = ?")
        args = append(args, f.UserID)
    }
    if f.Status.Valid() {
        conds = append(conds, "sm.estado = ?")
        args = append(args, string(f.Status))
    }
    if f.Priority.Valid() {
        conds = append(conds, "sm.prioridad = ?")
        args = append(args, string(f.Priority))
    }
    if f.CategoryID != 0 {
        conds = append(conds, "sm.categoria_id = ?")
        args = append(args, f.CategoryID)
    }
    return " WHERE " + strings.Join(conds, " AND "), args
}

// ActiveCategories lists the categories a ticket can be filed under.
func (r *SupportRepo) ActiveCategories(ctx context.Context) ([]model.SupportCategory, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT id, nombre, descripcion, icono, activo FROM soporte_categorias WHERE activo = TRUE ORDER BY nombre")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.SupportCategory{}
    for rows.Next() {
        var c model.SupportCategory
        if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Active); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// CreateTicket files a new pending, medium-priority ticket.  An unknown or
// inactive category yields ErrNotFound.
func (r *SupportRepo) CreateTicket(ctx context.Context, userID, categoryID uint64, subject, body string, now time.Time) (uint64, error) {
    var active int
    err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM soporte_categorias WHERE id = ? AND activo = TRUE", categoryID).Scan(&active)
    if err != nil {
        return 0, err
    }
    if active == 0 {
        return 0, ErrNotFound
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO soporte_mensajes
         (usuario_id, categoria_id, asunto, mensaje, estado, prioridad, fecha_creacion, fecha_actualizacion)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
        userID, categoryID, subject, body, string(model.StatusPending), string(model.PriorityMedium), now, now)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// ListTickets returns one page of tickets matching f, newest first, with
// category, author and reply count.
func (r *SupportRepo) ListTickets(ctx context.Context, f TicketFilter, limit, offset int) ([]model.Ticket, error) {
    where, args := f.where()
    rows, err := r.db.QueryContext(ctx,
        `SELECT sm.id, sm.usuario_id, sm.categoria_id, sm.asunto, sm.mensaje, sm.estado, sm.prioridad,
                sm.fecha_creacion, sm.fecha_actualizacion, sc.nombre, sc.icono, u.usuario,
                (SELECT COUNT(*) FROM soporte_respuestas sr WHERE sr.mensaje_id = sm.id)
         FROM soporte_mensajes sm
         INNER JOIN soporte_categorias sc ON sm.categoria_id = sc.id
         INNER JOIN usuarios u ON sm.usuario_id = u.id`+where+`
         ORDER BY sm.fecha_creacion DESC, sm.id DESC
         LIMIT ? OFFSET ?`, append(args, limit, offset)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Ticket{}
    for rows.Next() {
        var (
            t       model.Ticket
            replies int64
        )
        if err := rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Subject, &t.Body, &t.Status, &t.Priority,
            &t.CreatedAt, &t.UpdatedAt, &t.CategoryName, &t.CategoryIcon, &t.AuthorName, &replies); err != nil {
            return nil, err
        }
        t.ReplyCount = &replies
        out = append(out, t)
    }
    return out, rows.Err()
}

// CountTickets counts the tickets matching f.
func (r *SupportRepo) CountTickets(ctx context.Context, f TicketFilter) (int64, error) {
    where, args := f.where()
    var n int64
    err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM soporte_mensajes sm"+where, args...).Scan(&n)
    return n, err
}

// GetTicket loads one ticket.  When ownerID is non-zero the ticket must
// belong to that user, otherwise ErrNotFound is returned.
func (r *SupportRepo) GetTicket(ctx context.Context, id, ownerID uint64) (model.Ticket, error) {
    q := `SELECT sm.id, sm.usuario_id, sm.categoria_id, sm.asunto, sm.mensaje, sm.estado, sm.prioridad,
                 sm.fecha_creacion, sm.fecha_actualizacion, sc.nombre, sc.icono, u.usuario, u.correo
          FROM soporte_mensajes sm
          INNER JOIN soporte_categorias sc ON sm.categoria_id = sc.id
          INNER JOIN usuarios u ON sm.usuario_id = u.id
          WHERE sm.id = ?`
    args := []any{id}
    if ownerID != 0 {
        q += " AND sm.usuario_id = ?"
        args = append(args, ownerID)
    }
    var t model.Ticket
    err := r.db.QueryRowContext(ctx, q, args...).Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Subject, &t.Body,
        &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt, &t.CategoryName, &t.CategoryIcon,
        &t.AuthorName, &t.AuthorEmail)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Ticket{}, ErrNotFound
    }
    return t, err
}

// Replies lists a ticket's replies, oldest first.
func (r *SupportRepo) Replies(ctx context.Context, ticketID uint64) ([]model.TicketReply, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT sr.id, sr.mensaje_id, sr.usuario_id, sr.respuesta, sr.es_admin, sr.fecha_creacion, u.usuario
         FROM soporte_respuestas sr
         LEFT JOIN usuarios u ON sr.usuario_id = u.id
         WHERE sr.mensaje_id = ?
         ORDER BY sr.fecha_creacion ASC, sr.id ASC`, ticketID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.TicketReply{}
    for rows.Next() {
        var rp model.TicketReply
        if err := rows.Scan(&rp.ID, &rp.TicketID, &rp.UserID, &rp.Body, &rp.IsAdmin, &rp.CreatedAt, &rp.AuthorName); err != nil {
            return nil, err
        }
        out = append(out, rp)
    }
    return out, rows.Err()
}

// AddStaffReply records a staff reply and moves a pending ticket to
// en_proceso.  Other statuses are left as they are.  A missing ticket
// yields ErrNotFound.
func (r *SupportRepo) AddStaffReply(ctx context.Context, ticketID, staffID uint64, body string, now time.Time) (uint64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var exists int
    if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM soporte_mensajes WHERE id = ?", ticketID).Scan(&exists); err != nil {
        return 0, err
    }
    if exists == 0 {
        return 0, ErrNotFound
    }

    res, err := tx.ExecContext(ctx,
        `INSERT INTO soporte_respuestas (mensaje_id, usuario_id, respuesta, es_admin, fecha_creacion)
         VALUES (?, ?, ?, TRUE, ?)`, ticketID, staffID, body, now)
    if err != nil {
        return 0, err
    }
    replyID, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }

    if _, err := tx.ExecContext(ctx,
        `UPDATE soporte_mensajes
         SET estado = CASE WHEN estado = ? THEN ? ELSE estado END, fecha_actualizacion = ?
         WHERE id = ?`,
        string(model.StatusPending), string(model.StatusInProgress), now, ticketID); err != nil {
        return 0, err
    }

    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return uint64(replyID), nil
}

// SetStatus changes a ticket's status.
func (r *SupportRepo) SetStatus(ctx context.Context, id uint64, status model.TicketStatus, now time.Time) error {
    return expectOne(r.db.ExecContext(ctx,
        "UPDATE soporte_mensajes SET estado = ?, fecha_actualizacion = ? WHERE id = ?", string(status), now, id))
}

// SetPriority changes a ticket's priority.
func (r *SupportRepo) SetPriority(ctx context.Context, id uint64, priority model.TicketPriority, now time.Time) error {
    return expectOne(r.db.ExecContext(ctx,
        "UPDATE soporte_mensajes SET prioridad = ?, fecha_actualizacion = ? WHERE id = ?", string(priority), now, id))
}

// Stats counts tickets per status, for one user when userID is non-zero
// or for everyone otherwise.
func (r *SupportRepo) Stats(ctx context.Context, userID uint64) (model.TicketStats, error) {
    where, args := TicketFilter{UserID: userID}.where()
    var st model.TicketStats
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*),
                COALESCE(SUM(CASE WHEN sm.estado = 'pendiente' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN sm.estado = 'en_proceso' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN sm.estado = 'resuelto' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN sm.estado = 'cerrado' THEN 1 ELSE 0 END), 0)
         FROM soporte_mensajes sm`+where, args...).
        Scan(&st.Total, &st.Pending, &st.InProgress, &st.Resolved, &st.Closed)
    return st, err
}
