package handler // handler package contains the monthly footprint endpoints

import (
    "context"  // context bounds store calls
    "errors"   // errors matches validation and quota errors
    "fmt"      // fmt builds the quota message
    "log/slog" // slog records failures
    "math"     // math rounds the average
    "net/http" // http defines status codes
    "time"     // time drives the monthly gate

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/config"     // config carries the environment flag
    "github.com/iliyamo/salvambiente-api/internal/footprint"  // footprint holds the eligibility rules
    "github.com/iliyamo/salvambiente-api/internal/middleware" // middleware exposes the caller id
    "github.com/iliyamo/salvambiente-api/internal/model"      // model defines Footprint
    "github.com/iliyamo/salvambiente-api/internal/queue"      // queue names the recorded event
    "github.com/iliyamo/salvambiente-api/internal/repository" // repository defines MonthlyLimitError
    "github.com/iliyamo/salvambiente-api/internal/service"    // service publishes domain events
)

// FootprintStore is the footprint storage used by FootprintHandler.
type FootprintStore interface {
    LatestInMonth(ctx context.Context, userID uint64, now time.Time) (*time.Time, error)
    RecordIfEligible(ctx context.Context, userID uint64, f model.Footprint, now time.Time) (uint64, error)
    History(ctx context.Context, userID uint64, limit, offset int) ([]model.Footprint, error)
    Count(ctx context.Context, userID uint64) (int64, error)
    Stats(ctx context.Context, userID uint64) (model.FootprintStats, error)
    Evolution(ctx context.Context, userID uint64, since time.Time) ([]model.FootprintPoint, error)
    CategoryCounts(ctx context.Context, userID uint64) (map[footprint.Category]int64, error)
}

// FootprintHandler serves the monthly carbon-footprint endpoints.
type FootprintHandler struct {
    base
    store  FootprintStore
    events service.Publisher // footprint.recorded, best effort
    now    func() time.Time  // clock, replaced in tests
}

// NewFootprintHandler wires the store and the event publisher.
func NewFootprintHandler(cfg config.Config, store FootprintStore, events service.Publisher, logger *slog.Logger) *FootprintHandler {
    return &FootprintHandler{
        base:   newBase(logger, cfg.Debug()),
        store:  store,
        events: events,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// CanRecord reports whether the caller may record this month's footprint.
func (h *FootprintHandler) CanRecord(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    now := h.now()

    ctx, cancel := dbCtx(c)
    defer cancel()
    latest, err := h.store.LatestInMonth(ctx, uid, now)
    if err != nil {
        return h.internal(c, "footprint.can_record", err, "Error interno del servidor")
    }
    d := footprint.Decide(latest, now) // nil latest means eligible
    if d.Eligible {
        return c.JSON(http.StatusOK, echo.Map{
            "puede_calcular": true,
            "mensaje":        "Puedes realizar tu cálculo mensual",
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "puede_calcular":  false,
        "mensaje":         "Ya realizaste tu cálculo este mes el " + footprint.FormatDate(d.Last),
        "dias_restantes":  d.DaysLeft,
        "proximo_calculo": footprint.FormatDate(d.Next),
    })
}

// Save records the caller's footprint for the current month.
func (h *FootprintHandler) Save(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    now := h.now()

    ctx, cancel := dbCtx(c)
    defer cancel()
    latest, err := h.store.LatestInMonth(ctx, uid, now)
    if err != nil {
        return h.internal(c, "footprint.save.check", err, "Error interno del servidor")
    }
    if latest != nil { // already recorded this month, reject before parsing
        return h.monthlyLimit(c, *latest, now)
    }

    var sub footprint.Submission
    if err := c.Bind(&sub); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    rec, err := sub.Normalize()
    switch {
    case errors.Is(err, footprint.ErrInvalidNumber): // echo back what was received
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error": "Datos numéricos inválidos",
            "recibido": echo.Map{
                "kilometros":      sub.Kilometers,
                "electricidad":    sub.Electricity,
                "total_emisiones": sub.TotalEmissions,
            },
        })
    case errors.Is(err, footprint.ErrInvalidRenewable):
        return fail(c, http.StatusBadRequest, "energiaRenovable debe ser 'si' o 'no'")
    case err != nil:
        return fail(c, http.StatusBadRequest, "Datos inválidos")
    }

    id, err := h.store.RecordIfEligible(ctx, uid, rec, now)
    if err != nil {
        var limit *repository.MonthlyLimitError
        if errors.As(err, &limit) { // lost a race with a concurrent save
            last := limit.Last
            if last.IsZero() { // caught by the unique key, date unknown
                last = now
            }
            return h.monthlyLimit(c, last, now)
        }
        return h.internal(c, "footprint.save", err, "Error al guardar datos")
    }

    // committed; the event is informational only
    h.publish(c, h.events, queue.FootprintRecordedQueue, queue.FootprintRecordedEvent{
        FootprintID:    id,
        UserID:         uid,
        Period:         footprint.Period(now),
        Transport:      rec.Transport,
        TotalEmissions: rec.TotalEmissions,
        Category:       string(footprint.Classify(rec.TotalEmissions)),
        RecordedAt:     now.Format(time.RFC3339),
    })
    return c.JSON(http.StatusCreated, echo.Map{
        "success":   true,
        "id_huella": id,
        "mensaje":   "Cálculo guardado correctamente",
    })
}

// monthlyLimit answers 409 with the previous date and when the next
// calculation opens.
func (h *FootprintHandler) monthlyLimit(c echo.Context, last, now time.Time) error {
    d := footprint.Decide(&last, now)
    date := footprint.FormatDate(d.Last)
    return c.JSON(http.StatusConflict, echo.Map{
        "error":           "Ya realizaste tu cálculo mensual",
        "mensaje":         fmt.Sprintf("Tu último cálculo fue el %s. Podrás realizar otro el próximo mes.", date),
        "fecha_anterior":  date,
        "dias_restantes":  d.DaysLeft,
        "proximo_calculo": footprint.FormatDate(d.Next),
    })
}

// footprintDetails is the input part of a history row.
type footprintDetails struct {
    Kilometers  float64  `json:"kilometros"`
    Transport   string   `json:"transporte"`
    Electricity float64  `json:"electricidad"`
    Renewable   string   `json:"energiaRenovable"`
    Recycling   []string `json:"reciclaje"` // split back from the stored list
}

// historyItem is one row of GET /historial.
type historyItem struct {
    ID       uint64             `json:"id"`
    Total    float64            `json:"puntuacionTotal"`
    Category footprint.Category `json:"categoria"` // derived, not stored
    Date     time.Time          `json:"fecha"`
    Month    int                `json:"mes"`
    Year     int                `json:"anio"`
    Details  footprintDetails   `json:"detalles"`
}

// History pages through the caller's footprints, newest first.
func (h *FootprintHandler) History(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    page, limit := pageParams(c) // defaults 1 and 10

    ctx, cancel := dbCtx(c)
    defer cancel()
    rows, err := h.store.History(ctx, uid, limit, offset(page, limit))
    if err != nil {
        return h.internal(c, "footprint.history", err, "Error al obtener historial")
    }
    total, err := h.store.Count(ctx, uid)
    if err != nil {
        return h.internal(c, "footprint.history.count", err, "Error al obtener historial")
    }

    items := make([]historyItem, 0, len(rows))
    for _, f := range rows {
        items = append(items, historyItem{
            ID:       f.ID,
            Total:    f.TotalEmissions,
            Category: footprint.Classify(f.TotalEmissions),
            Date:     f.RecordedAt,
            Month:    int(f.RecordedAt.Month()),
            Year:     f.RecordedAt.Year(),
            Details: footprintDetails{
                Kilometers:  f.Kilometers,
                Transport:   f.Transport,
                Electricity: f.Electricity,
                Renewable:   f.Renewable,
                Recycling:   footprint.SplitRecycling(f.Recycling),
            },
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "data":       items,
        "pagination": newPagination(page, limit, total),
    })
}

// Stats summarizes the caller's footprints: aggregates, the last twelve
// months and the distribution per category.
func (h *FootprintHandler) Stats(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    now := h.now()

    ctx, cancel := dbCtx(c)
    defer cancel()
    st, err := h.store.Stats(ctx, uid)
    if err != nil {
        return h.internal(c, "footprint.stats", err, "Error al obtener estadísticas")
    }
    evo, err := h.store.Evolution(ctx, uid, now.AddDate(0, -12, 0)) // last twelve months
    if err != nil {
        return h.internal(c, "footprint.stats.evolution", err, "Error al obtener estadísticas")
    }
    cats, err := h.store.CategoryCounts(ctx, uid)
    if err != nil {
        return h.internal(c, "footprint.stats.categories", err, "Error al obtener estadísticas")
    }

    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "estadisticas": echo.Map{
            "totalCalculos":     st.Total,
            "promedioEmisiones": math.Round(st.Average),
            "menorEmisiones":    st.Min,
            "mayorEmisiones":    st.Max,
            "primerCalculo":     st.First,
            "ultimoCalculo":     st.Last,
            "tieneCalculos":     st.Total > 0,
        },
        "evolucionMensual": evo,
        "distribucionCategorias": echo.Map{
            "baja":  cats[footprint.CategoryLow],
            "media": cats[footprint.CategoryMedium],
            "alta":  cats[footprint.CategoryHigh],
        },
    })
}
