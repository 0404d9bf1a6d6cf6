package handler // handler package contains the support ticket endpoints

import (
    "context"      // context bounds store calls
    "errors"       // errors matches repository sentinels
    "log/slog"     // slog records failures
    "net/http"     // http defines status codes
    "strconv"      // strconv parses the category filter
    "strings"      // strings trims subjects and bodies
    "time"         // time stamps tickets and replies
    "unicode/utf8" // utf8 counts characters, not bytes

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/config"
    "github.com/iliyamo/salvambiente-api/internal/middleware"
    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/queue"
    "github.com/iliyamo/salvambiente-api/internal/repository"
    "github.com/iliyamo/salvambiente-api/internal/service"
)

// TicketStore is the support ticket storage.
type TicketStore interface {
    ActiveCategories(ctx context.Context) ([]model.SupportCategory, error)
    CreateTicket(ctx context.Context, userID, categoryID uint64, subject, body string, now time.Time) (uint64, error)
    ListTickets(ctx context.Context, f repository.TicketFilter, limit, offset int) ([]model.Ticket, error)
    CountTickets(ctx context.Context, f repository.TicketFilter) (int64, error)
    GetTicket(ctx context.Context, id, ownerID uint64) (model.Ticket, error)
    Replies(ctx context.Context, ticketID uint64) ([]model.TicketReply, error)
    AddStaffReply(ctx context.Context, ticketID, staffID uint64, body string, now time.Time) (uint64, error)
    SetStatus(ctx context.Context, id uint64, status model.TicketStatus, now time.Time) error
    SetPriority(ctx context.Context, id uint64, priority model.TicketPriority, now time.Time) error
    Stats(ctx context.Context, userID uint64) (model.TicketStats, error)
}

// SupportHandler serves the ticket endpoints for users and staff.
type SupportHandler struct {
    base
    store  TicketStore
    events service.Publisher // support.reply, best effort
    now    func() time.Time
}

// NewSupportHandler wires the ticket store and the event publisher.
func NewSupportHandler(cfg config.Config, store TicketStore, events service.Publisher, logger *slog.Logger) *SupportHandler {
    return &SupportHandler{
        base:   newBase(logger, cfg.Debug()),
        store:  store,
        events: events,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

const (
    msgMissingFields   = "Faltan campos requeridos"
    msgTicketNotFound  = "Mensaje no encontrado"
    msgTicketListError = "Error al obtener mensajes"
    msgTicketGetError  = "Error al obtener el mensaje"
)

// lengthIn reports whether s has between lo and hi characters.
func lengthIn(s string, lo, hi int) bool {
    n := utf8.RuneCountInString(s)
    return n >= lo && n <= hi
}

// Categories handles GET /soporte/categorias; archived ones are hidden.
func (h *SupportHandler) Categories(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    cats, err := h.store.ActiveCategories(ctx)
    if err != nil {
        return h.internal(c, "support.categories", err, "Error al obtener categorías")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "categorias": cats})
}

// Create files a ticket as the caller.
func (h *SupportHandler) Create(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    var req struct {
        CategoryID uint64 `json:"categoria_id"` // must be an active category
        Subject    string `json:"asunto"`       // 5 to 200 characters
        Body       string `json:"mensaje"`      // 20 to 5000 characters
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    req.Subject, req.Body = strings.TrimSpace(req.Subject), strings.TrimSpace(req.Body)
    switch {
    case req.CategoryID == 0 || req.Subject == "" || req.Body == "":
        return fail(c, http.StatusBadRequest, msgMissingFields)
    case !lengthIn(req.Subject, 5, 200):
        return fail(c, http.StatusBadRequest, "El asunto debe tener entre 5 y 200 caracteres")
    case !lengthIn(req.Body, 20, 5000):
        return fail(c, http.StatusBadRequest, "El mensaje debe tener entre 20 y 5000 caracteres")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    id, err := h.store.CreateTicket(ctx, uid, req.CategoryID, req.Subject, req.Body, h.now())
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) { // unknown or archived category
            return fail(c, http.StatusBadRequest, "Categoría no válida")
        }
        return h.internal(c, "support.create", err, "Error al enviar el mensaje")
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "mensaje_id": id, "message": "Mensaje enviado exitosamente"})
}

// Mine pages through the caller's tickets, optionally by status.
func (h *SupportHandler) Mine(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    return h.list(c, "support.mine", repository.TicketFilter{
        UserID: uid,
        Status: model.TicketStatus(c.QueryParam("estado")),
    })
}

// List pages through every ticket for staff.
func (h *SupportHandler) List(c echo.Context) error {
    f := repository.TicketFilter{
        Status:   model.TicketStatus(c.QueryParam("estado")),
        Priority: model.TicketPriority(c.QueryParam("prioridad")),
    }
    if cat, err := strconv.ParseUint(c.QueryParam("categoria"), 10, 64); err == nil { // ignore junk filters
        f.CategoryID = cat
    }
    return h.list(c, "support.list", f)
}

// list answers one page of tickets matching f.
func (h *SupportHandler) list(c echo.Context, op string, f repository.TicketFilter) error {
    page, limit := pageParams(c)
    ctx, cancel := dbCtx(c)
    defer cancel()
    tickets, err := h.store.ListTickets(ctx, f, limit, offset(page, limit))
    if err != nil {
        return h.internal(c, op, err, msgTicketListError)
    }
    total, err := h.store.CountTickets(ctx, f)
    if err != nil {
        return h.internal(c, op+".count", err, msgTicketListError)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "mensajes":   tickets,
        "pagination": newPagination(page, limit, total),
    })
}

// Get shows one of the caller's tickets with its replies.  The first staff
// reply is also summarized on the ticket itself.
func (h *SupportHandler) Get(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    return h.show(c, "support.get", uid, true)
}

// AdminGet shows any ticket with its replies.
func (h *SupportHandler) AdminGet(c echo.Context) error {
    return h.show(c, "support.admin.get", 0, false)
}

// show loads a ticket and its replies.  A non-zero ownerID restricts the
// lookup to that user's tickets, so others get 404 rather than 403.
func (h *SupportHandler) show(c echo.Context, op string, ownerID uint64, summarize bool) error {
    id, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusNotFound, msgTicketNotFound)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    t, err := h.store.GetTicket(ctx, id, ownerID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusNotFound, msgTicketNotFound)
        }
        return h.internal(c, op, err, msgTicketGetError)
    }
    replies, err := h.store.Replies(ctx, id)
    if err != nil {
        return h.internal(c, op+".replies", err, msgTicketGetError)
    }
    if summarize {
        t.AuthorEmail = "" // the owner already knows their own address
        for _, r := range replies {
            if !r.IsAdmin { // only staff replies count as the answer
                continue
            }
            at := r.CreatedAt
            t.Reply, t.RepliedAt = r.Body, &at
            if r.AuthorName != nil {
                t.RepliedBy = *r.AuthorName
            }
            break
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "mensaje": t, "respuestas": replies})
}

// MyStats counts the caller's tickets per status.
func (h *SupportHandler) MyStats(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    return h.stats(c, uid)
}

// AdminStats counts every ticket per status.
func (h *SupportHandler) AdminStats(c echo.Context) error {
    return h.stats(c, 0)
}

// stats counts tickets per status; userID 0 means every user.
func (h *SupportHandler) stats(c echo.Context, userID uint64) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    st, err := h.store.Stats(ctx, userID)
    if err != nil {
        return h.internal(c, "support.stats", err, "Error al obtener estadísticas")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "estadisticas": st})
}

// Reply records a staff answer.  A pending ticket moves to en_proceso.
func (h *SupportHandler) Reply(c echo.Context) error {
    staff, _ := middleware.UserID(c) // route is behind ModeratorOrAdmin
    var req struct {
        TicketID uint64 `json:"mensaje_id"`
        Body     string `json:"respuesta"` // 10 to 5000 characters
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    req.Body = strings.TrimSpace(req.Body)
    if req.TicketID == 0 || req.Body == "" {
        return fail(c, http.StatusBadRequest, msgMissingFields)
    }
    if !lengthIn(req.Body, 10, 5000) {
        return fail(c, http.StatusBadRequest, "La respuesta debe tener entre 10 y 5000 caracteres")
    }

    now := h.now()
    ctx, cancel := dbCtx(c)
    defer cancel()
    replyID, err := h.store.AddStaffReply(ctx, req.TicketID, staff, req.Body, now)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusNotFound, msgTicketNotFound)
        }
        return h.internal(c, "support.reply", err, "Error al enviar la respuesta")
    }

    h.publish(c, h.events, queue.SupportReplyQueue, queue.SupportReplyEvent{
        TicketID:  req.TicketID,
        ReplyID:   replyID,
        StaffID:   staff,
        RepliedAt: now.Format(time.RFC3339),
    })
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "respuesta_id": replyID, "message": "Respuesta enviada exitosamente"})
}

// SetStatus handles PATCH /soporte/admin/mensaje/:id/estado.
func (h *SupportHandler) SetStatus(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusNotFound, msgTicketNotFound)
    }
    var req struct {
        Status model.TicketStatus `json:"estado"`
    }
    if err := c.Bind(&req); err != nil || !req.Status.Valid() { // closed set of statuses
        return fail(c, http.StatusBadRequest, "Estado no válido")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.store.SetStatus(ctx, id, req.Status, h.now()); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusNotFound, msgTicketNotFound)
        }
        return h.internal(c, "support.status", err, "Error al actualizar el estado")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Estado actualizado correctamente"})
}

// SetPriority handles PATCH /soporte/admin/mensaje/:id/prioridad.
func (h *SupportHandler) SetPriority(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusNotFound, msgTicketNotFound)
    }
    var req struct {
        Priority model.TicketPriority `json:"prioridad"`
    }
    if err := c.Bind(&req); err != nil || !req.Priority.Valid() {
        return fail(c, http.StatusBadRequest, "Prioridad no válida")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.store.SetPriority(ctx, id, req.Priority, h.now()); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusNotFound, msgTicketNotFound)
        }
        return h.internal(c, "support.priority", err, "Error al actualizar la prioridad")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Prioridad actualizada correctamente"})
}
