package handler

import (
    "net/http"
    "net/http/httptest"
    "testing"

    qt "github.com/frankban/quicktest"
    "github.com/labstack/echo/v4"
)

func newNewsEcho(h *NewsHandler) *echo.Echo {
    e := echo.New()
    e.GET("/noticias", h.List)
    return e
}

func TestNewsForwardsUpstream(t *testing.T) {
    c := qt.New(t)
    upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        c.Check(r.URL.Query().Get("q"), qt.Equals, "medio ambiente OR clima OR sostenibilidad")
        c.Check(r.URL.Query().Get("lang"), qt.Equals, "es")
        c.Check(r.URL.Query().Get("apikey"), qt.Equals, "k")
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(`{"totalArticles":1,"articles":[{"title":"Reciclaje"}]}`))
    }))
    defer upstream.Close()

    h := NewNewsHandler("k", quietLogger(), false)
    h.baseURL = upstream.URL
    code, body := call(c, newNewsEcho(h), http.MethodGet, "/noticias", nil, "")
    c.Assert(code, qt.Equals, http.StatusOK)
    c.Assert(body["totalArticles"], qt.Equals, float64(1))
}

func TestNewsErrors(t *testing.T) {
    c := qt.New(t)
    upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "quota", http.StatusForbidden)
    }))
    defer upstream.Close()

    h := NewNewsHandler("k", quietLogger(), false)
    h.baseURL = upstream.URL
    code, body := call(c, newNewsEcho(h), http.MethodGet, "/noticias", nil, "")
    c.Assert(code, qt.Equals, http.StatusInternalServerError)
    c.Assert(body["error"], qt.Equals, "Error al obtener noticias")

    code, _ = call(c, newNewsEcho(NewNewsHandler("", quietLogger(), false)), http.MethodGet, "/noticias", nil, "")
    c.Assert(code, qt.Equals, http.StatusInternalServerError)
}
