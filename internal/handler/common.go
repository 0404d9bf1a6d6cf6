package handler // handler defines the HTTP handlers of the API

import (
    "context"  // context bounds storage and publish calls
    "log/slog" // slog records internal errors
    "math"     // math rounds page counts up
    "net/http" // http defines status codes
    "strconv"  // strconv parses query and path values
    "time"     // time sets the timeouts

    "github.com/labstack/echo/v4" // echo provides the request context

    "github.com/iliyamo/salvambiente-api/internal/middleware" // middleware exposes the token's user id
    "github.com/iliyamo/salvambiente-api/internal/service"    // service defines the event publisher
)

// dbTimeout bounds every request's storage work.
const dbTimeout = 5 * time.Second

const (
    defaultPage  = 1
    defaultLimit = 10
    maxLimit     = 100 // larger limits are clamped, not rejected
)

const msgServerError = "Error en el servidor"

// base carries what every handler needs to answer errors.
type base struct {
    logger *slog.Logger
    debug  bool // echo error details back under "detalle"
}

// newBase falls back to the default logger when none is given.
func newBase(logger *slog.Logger, debug bool) base {
    if logger == nil {
        logger = slog.Default()
    }
    return base{logger: logger, debug: debug}
}

// dbCtx derives the storage deadline from the request context.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail answers status with the {"error": msg} body used across the API.
func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"error": msg})
}

// internal logs err against op and answers 500 with msg.
func (b base) internal(c echo.Context, op string, err error, msg string) error {
    attrs := []any{"op", op, "error", err}
    if uid, ok := middleware.UserID(c); ok {
        attrs = append(attrs, "user_id", uid)
    }
    if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
        attrs = append(attrs, "request_id", rid)
    }
    b.logger.ErrorContext(c.Request().Context(), "request failed", attrs...)

    body := echo.Map{"error": msg}
    if b.debug { // development only
        body["detalle"] = err.Error()
    }
    return c.JSON(http.StatusInternalServerError, body)
}

// publish sends ev best effort.  It outlives a client disconnect but not
// a stuck broker.
func (b base) publish(c echo.Context, p service.Publisher, queue string, ev any) {
    ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 2*time.Second)
    defer cancel()
    if err := p.Publish(ctx, queue, ev); err != nil {
        b.logger.Warn("event not published", "queue", queue, "error", err)
    }
}

// Pagination describes one page of a collection.
type Pagination struct {
    CurrentPage  int   `json:"currentPage"`
    TotalPages   int   `json:"totalPages"`
    TotalItems   int64 `json:"totalItems"`
    ItemsPerPage int   `json:"itemsPerPage"`
    HasNextPage  bool  `json:"hasNextPage"`
    HasPrevPage  bool  `json:"hasPrevPage"`
}

// pageParams reads page and limit.  Missing or invalid values fall back to
// the defaults; limit is capped.
func pageParams(c echo.Context) (page, limit int) {
    page, limit = defaultPage, defaultLimit
    if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
        page = n
    }
    if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
        limit = min(n, maxLimit)
    }
    return page, limit
}

// offset converts a 1-based page into a row offset.
func offset(page, limit int) int { return (page - 1) * limit }

// newPagination fills the metadata block for a page of total items.
func newPagination(page, limit int, total int64) Pagination {
    pages := int(math.Ceil(float64(total) / float64(limit)))
    return Pagination{
        CurrentPage:  page,
        TotalPages:   pages,
        TotalItems:   total,
        ItemsPerPage: limit,
        HasNextPage:  page < pages,
        HasPrevPage:  page > 1,
    }
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// userPart is the user summary embedded in login and profile answers.
type userPart struct {
    ID       uint64 `json:"id"`
    Username string `json:"usuario"`
    Email    string `json:"correo"`
    Role     string `json:"rol"`
}
