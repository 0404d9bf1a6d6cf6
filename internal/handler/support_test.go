package handler

import (
    "context"
    "net/http"
    "strings"
    "testing"
    "time"

    qt "github.com/frankban/quicktest"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/middleware"
    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/queue"
    "github.com/iliyamo/salvambiente-api/internal/repository"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

type fakeTickets struct {
    tickets map[uint64]model.Ticket
    replies map[uint64][]model.TicketReply
    next    uint64
}

func newFakeTickets() *fakeTickets {
    return &fakeTickets{tickets: map[uint64]model.Ticket{}, replies: map[uint64][]model.TicketReply{}}
}

func (f *fakeTickets) ActiveCategories(context.Context) ([]model.SupportCategory, error) {
    return []model.SupportCategory{{ID: 1, Name: "Cuenta", Active: true}}, nil
}

func (f *fakeTickets) CreateTicket(_ context.Context, userID, categoryID uint64, subject, body string, now time.Time) (uint64, error) {
    if categoryID != 1 {
        return 0, repository.ErrNotFound
    }
    f.next++
    f.tickets[f.next] = model.Ticket{
        ID: f.next, UserID: userID, CategoryID: categoryID, Subject: subject, Body: body,
        Status: model.StatusPending, Priority: model.PriorityMedium, CreatedAt: now, UpdatedAt: now,
        AuthorEmail: "autor@example.com",
    }
    return f.next, nil
}

func (f *fakeTickets) matching(flt repository.TicketFilter) []model.Ticket {
    var out []model.Ticket
    for id := uint64(1); id <= f.next; id++ {
        t, ok := f.tickets[id]
        if !ok || (flt.UserID != 0 && t.UserID != flt.UserID) || (flt.Status != "" && t.Status != flt.Status) {
            continue
        }
        out = append(out, t)
    }
    return out
}

func (f *fakeTickets) ListTickets(_ context.Context, flt repository.TicketFilter, limit, offset int) ([]model.Ticket, error) {
    all := f.matching(flt)
    if offset >= len(all) {
        return []model.Ticket{}, nil
    }
    return all[offset:min(offset+limit, len(all))], nil
}

func (f *fakeTickets) CountTickets(_ context.Context, flt repository.TicketFilter) (int64, error) {
    return int64(len(f.matching(flt))), nil
}

func (f *fakeTickets) GetTicket(_ context.Context, id, ownerID uint64) (model.Ticket, error) {
    t, ok := f.tickets[id]
    if !ok || (ownerID != 0 && t.UserID != ownerID) {
        return model.Ticket{}, repository.ErrNotFound
    }
    return t, nil
}

func (f *fakeTickets) Replies(_ context.Context, ticketID uint64) ([]model.TicketReply, error) {
    return append([]model.TicketReply{}, f.replies[ticketID]...), nil
}

func (f *fakeTickets) AddStaffReply(_ context.Context, ticketID, staffID uint64, body string, now time.Time) (uint64, error) {
    t, ok := f.tickets[ticketID]
    if !ok {
        return 0, repository.ErrNotFound
    }
    name := "staff"
    id := uint64(len(f.replies[ticketID]) + 1)
    f.replies[ticketID] = append(f.replies[ticketID], model.TicketReply{
        ID: id, TicketID: ticketID, UserID: &staffID, Body: body, IsAdmin: true, CreatedAt: now, AuthorName: &name,
    })
    if t.Status == model.StatusPending {
        t.Status = model.StatusInProgress
    }
    f.tickets[ticketID] = t
    return id, nil
}

func (f *fakeTickets) SetStatus(_ context.Context, id uint64, status model.TicketStatus, _ time.Time) error {
    t, ok := f.tickets[id]
    if !ok {
        return repository.ErrNotFound
    }
    t.Status = status
    f.tickets[id] = t
    return nil
}

func (f *fakeTickets) SetPriority(_ context.Context, id uint64, priority model.TicketPriority, _ time.Time) error {
    t, ok := f.tickets[id]
    if !ok {
        return repository.ErrNotFound
    }
    t.Priority = priority
    f.tickets[id] = t
    return nil
}

func (f *fakeTickets) Stats(_ context.Context, userID uint64) (model.TicketStats, error) {
    var st model.TicketStats
    for _, t := range f.matching(repository.TicketFilter{UserID: userID}) {
        st.Total++
        if t.Status == model.StatusPending {
            st.Pending++
        }
    }
    return st, nil
}

func newSupportEcho(store *fakeTickets, events *recordingPublisher) *echo.Echo {
    h := NewSupportHandler(testConfig(), store, events, quietLogger())
    h.now = func() time.Time { return may20 }
    e := echo.New()
    auth := middleware.JWTAuth(utils.NewTokenIssuer(testSecret))
    e.GET("/soporte/categorias", h.Categories)
    g := e.Group("/soporte", auth)
    g.POST("/mensaje", h.Create)
    g.GET("/mis-mensajes", h.Mine)
    g.GET("/mensaje/:id", h.Get)
    g.GET("/estadisticas", h.MyStats)
    a := e.Group("/soporte/admin", auth, middleware.ModeratorOrAdmin())
    a.GET("/mensajes", h.List)
    a.GET("/mensaje/:id", h.AdminGet)
    a.POST("/respuesta", h.Reply)
    a.PATCH("/mensaje/:id/estado", h.SetStatus)
    a.PATCH("/mensaje/:id/prioridad", h.SetPriority)
    return e
}

func TestSupportCreateValidation(t *testing.T) {
    c := qt.New(t)
    e := newSupportEcho(newFakeTickets(), &recordingPublisher{})
    tok := bearer(c, 3, model.RoleUser)
    body20 := strings.Repeat("a", 20)

    tests := []struct {
        req  map[string]any
        code int
        msg  string
    }{
        {map[string]any{"categoria_id": 1, "asunto": "Hola"}, http.StatusBadRequest, "Faltan campos requeridos"},
        {map[string]any{"categoria_id": 1, "asunto": "Hola", "mensaje": body20}, http.StatusBadRequest, "El asunto debe tener entre 5 y 200 caracteres"},
        {map[string]any{"categoria_id": 1, "asunto": strings.Repeat("x", 201), "mensaje": body20}, http.StatusBadRequest, "El asunto debe tener entre 5 y 200 caracteres"},
        {map[string]any{"categoria_id": 1, "asunto": "Ayuda", "mensaje": strings.Repeat("a", 19)}, http.StatusBadRequest, "El mensaje debe tener entre 20 y 5000 caracteres"},
        {map[string]any{"categoria_id": 7, "asunto": "Ayuda", "mensaje": body20}, http.StatusBadRequest, "Categoría no válida"},
        {map[string]any{"categoria_id": 1, "asunto": "Ayuda", "mensaje": body20}, http.StatusCreated, ""},
    }
    for _, test := range tests {
        code, body := call(c, e, http.MethodPost, "/soporte/mensaje", test.req, tok)
        c.Assert(code, qt.Equals, test.code, qt.Commentf("%v", test.req))
        if test.msg != "" {
            c.Assert(body["error"], qt.Equals, test.msg)
        }
    }
}

func TestSupportReplyFlow(t *testing.T) {
    c := qt.New(t)
    store := newFakeTickets()
    events := &recordingPublisher{}
    e := newSupportEcho(store, events)
    user := bearer(c, 3, model.RoleUser)
    staff := bearer(c, 1, model.RoleModerator)

    code, body := call(c, e, http.MethodPost, "/soporte/mensaje", map[string]any{
        "categoria_id": 1, "asunto": "No puedo entrar", "mensaje": "Mi cuenta no me deja iniciar sesión",
    }, user)
    c.Assert(code, qt.Equals, http.StatusCreated)
    id := body["mensaje_id"].(float64)

    code, body = call(c, e, http.MethodPost, "/soporte/admin/respuesta", map[string]any{"mensaje_id": id, "respuesta": "corta"}, staff)
    c.Assert(code, qt.Equals, http.StatusBadRequest)
    c.Assert(body["error"], qt.Equals, "La respuesta debe tener entre 10 y 5000 caracteres")

    code, _ = call(c, e, http.MethodPost, "/soporte/admin/respuesta", map[string]any{"mensaje_id": id, "respuesta": "Ya quedó resuelto"}, user)
    c.Assert(code, qt.Equals, http.StatusForbidden)

    code, _ = call(c, e, http.MethodPost, "/soporte/admin/respuesta", map[string]any{"mensaje_id": id, "respuesta": "Ya quedó resuelto"}, staff)
    c.Assert(code, qt.Equals, http.StatusCreated)
    c.Assert(events.queues, qt.DeepEquals, []string{queue.SupportReplyQueue})
    c.Assert(events.events[0].(queue.SupportReplyEvent).StaffID, qt.Equals, uint64(1))

    code, body = call(c, e, http.MethodGet, "/soporte/mensaje/1", nil, user)
    c.Assert(code, qt.Equals, http.StatusOK)
    msg := body["mensaje"].(map[string]any)
    c.Assert(msg["estado"], qt.Equals, "en_proceso")
    c.Assert(msg["respuesta"], qt.Equals, "Ya quedó resuelto")
    c.Assert(msg["respondido_por"], qt.Equals, "staff")
    c.Assert(msg["correo_usuario"], qt.IsNil)
    c.Assert(body["respuestas"], qt.HasLen, 1)

    // other users cannot see it
    code, _ = call(c, e, http.MethodGet, "/soporte/mensaje/1", nil, bearer(c, 4, model.RoleUser))
    c.Assert(code, qt.Equals, http.StatusNotFound)

    code, body = call(c, e, http.MethodGet, "/soporte/admin/mensaje/1", nil, staff)
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["mensaje"].(map[string]any)["correo_usuario"], qt.Equals, "autor@example.com")
}

func TestSupportStatusAndPriority(t *testing.T) {
    c := qt.New(t)
    store := newFakeTickets()
    e := newSupportEcho(store, &recordingPublisher{})
    staff := bearer(c, 1, model.RoleAdmin)
    _, _ = store.CreateTicket(context.Background(), 3, 1, "Asunto", strings.Repeat("b", 25), may20)

    code, _ := call(c, e, http.MethodPatch, "/soporte/admin/mensaje/1/estado", map[string]string{"estado": "resuelto"}, staff)
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(store.tickets[1].Status, qt.Equals, model.StatusResolved)

    code, body := call(c, e, http.MethodPatch, "/soporte/admin/mensaje/1/estado", map[string]string{"estado": "archivado"}, staff)
    c.Assert(code, qt.Equals, http.StatusBadRequest)
    c.Assert(body["error"], qt.Equals, "Estado no válido")

    code, _ = call(c, e, http.MethodPatch, "/soporte/admin/mensaje/1/prioridad", map[string]string{"prioridad": "urgente"}, staff)
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(store.tickets[1].Priority, qt.Equals, model.PriorityUrgent)

    code, _ = call(c, e, http.MethodPatch, "/soporte/admin/mensaje/9/prioridad", map[string]string{"prioridad": "alta"}, staff)
    c.Assert(code, qt.Equals, http.StatusNotFound)
}

func TestSupportMineIsPaginated(t *testing.T) {
    c := qt.New(t)
    store := newFakeTickets()
    e := newSupportEcho(store, &recordingPublisher{})
    for range 3 {
        _, _ = store.CreateTicket(context.Background(), 3, 1, "Asunto", strings.Repeat("b", 25), may20)
    }
    _, _ = store.CreateTicket(context.Background(), 4, 1, "Asunto", strings.Repeat("b", 25), may20)

    code, body := call(c, e, http.MethodGet, "/soporte/mis-mensajes?limit=2", nil, bearer(c, 3, model.RoleUser))
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["mensajes"], qt.HasLen, 2)
    p := body["pagination"].(map[string]any)
    c.Assert(p["totalItems"], qt.Equals, float64(3))
    c.Assert(p["hasNextPage"], qt.Equals, true)

    code, body = call(c, e, http.MethodGet, "/soporte/categorias", nil, "")
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["categorias"], qt.HasLen, 1)
}
