package handler // handler package contains the news proxy

import (
    "context"  // context carries the caller's cancellation upstream
    "errors"   // errors unwraps url.Error
    "fmt"      // fmt wraps upstream failures
    "io"       // io caps the upstream body
    "log/slog" // slog records failures
    "net/http" // http is the upstream client
    "net/url"  // url encodes the query string
    "time"     // time bounds the upstream call

    "github.com/labstack/echo/v4" // echo provides the web context
)

const (
    gnewsSearchURL = "https://gnews.io/api/v4/search"
    newsQuery      = "medio ambiente OR clima OR sostenibilidad"
    newsTimeout    = 8 * time.Second
    newsMaxBody    = 2 << 20

    msgNewsError = "Error al obtener noticias"
)

var errNoNewsKey = errors.New("GNEWS_API_KEY not set")

// NewsHandler relays a fixed environmental search to GNews.
type NewsHandler struct {
    base
    client  *http.Client
    baseURL string // search endpoint, swapped for a test server in tests
    apiKey  string // GNEWS_API_KEY; empty means every call fails
}

// NewNewsHandler points the proxy at the public GNews search endpoint.
func NewNewsHandler(apiKey string, logger *slog.Logger, debug bool) *NewsHandler {
    return &NewsHandler{
        base:    newBase(logger, debug),
        client:  &http.Client{Timeout: newsTimeout},
        baseURL: gnewsSearchURL,
        apiKey:  apiKey,
    }
}

// List answers GET /noticias with the upstream JSON untouched.
func (h *NewsHandler) List(c echo.Context) error {
    body, err := h.fetch(c.Request().Context())
    if err != nil {
        return h.internal(c, "news.list", err, msgNewsError)
    }
    return c.JSONBlob(http.StatusOK, body)
}

func (h *NewsHandler) fetch(ctx context.Context) ([]byte, error) {
    if h.apiKey == "" {
        return nil, errNoNewsKey
    }
    q := url.Values{}
    q.Set("q", newsQuery)
    q.Set("lang", "es")
    q.Set("max", "10")
    q.Set("apikey", h.apiKey)

    req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"?"+q.Encode(), nil)
    if err != nil {
        return nil, err
    }
    req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
    resp, err := h.client.Do(req)
    if err != nil {
        // the key travels in the query string
        var uerr *url.Error
        if errors.As(err, &uerr) {
            return nil, fmt.Errorf("gnews request: %w", uerr.Err)
        }
        return nil, fmt.Errorf("gnews request: %w", err)
    }
    defer resp.Body.Close()
    body, err := io.ReadAll(io.LimitReader(resp.Body, newsMaxBody))
    if err != nil {
        return nil, fmt.Errorf("gnews read: %w", err)
    }
    if resp.StatusCode != http.StatusOK { // quota or key errors come back as 4xx
        return nil, fmt.Errorf("gnews status %d", resp.StatusCode)
    }
    return body, nil
}
