package handler

import (
    "bytes"
    "context"
    "encoding/json"
    "io"
    "log/slog"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "time"

    qt "github.com/frankban/quicktest"
    "github.com/labstack/echo/v4"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/salvambiente-api/internal/config"
    "github.com/iliyamo/salvambiente-api/internal/middleware"
    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/repository"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

const testSecret = "test-secret"

func testConfig() config.Config {
    return config.Config{
        Env:         "test",
        SessionTTL:  time.Hour,
        PendingTTL:  10 * time.Minute,
        BcryptCost:  bcrypt.MinCost,
        FrontendURL: "https://front.example",
    }
}

func quietLogger() *slog.Logger {
    return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// call runs one request through e and decodes a JSON object body.
func call(c *qt.C, e *echo.Echo, method, path string, body any, token string) (int, map[string]any) {
    c.Helper()
    var r io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        c.Assert(err, qt.IsNil)
        r = bytes.NewReader(b)
    }
    req := httptest.NewRequest(method, path, r)
    if body != nil {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    var out map[string]any
    if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
        c.Assert(json.Unmarshal(rec.Body.Bytes(), &out), qt.IsNil)
    }
    return rec.Code, out
}

func bearer(c *qt.C, id uint64, role model.Role) string {
    c.Helper()
    tok, err := utils.NewTokenIssuer(testSecret).IssueSession(utils.Identity{
        ID: id, Username: "user", Email: "user@example.com", Role: role,
    }, time.Hour)
    c.Assert(err, qt.IsNil)
    return tok.Token
}

// authed mounts h behind JWTAuth.
func authed(e *echo.Echo, method, path string, h echo.HandlerFunc) {
    e.Add(method, path, h, middleware.JWTAuth(utils.NewTokenIssuer(testSecret)))
}

// fakeUsers is an in-memory user table covering every user-facing store
// interface.
type fakeUsers struct {
    mu     sync.Mutex
    nextID uint64
    byID   map[uint64]model.User
    roles  []model.RoleRecord
    err    error
}

func newFakeUsers() *fakeUsers {
    return &fakeUsers{
        byID: map[uint64]model.User{},
        roles: []model.RoleRecord{
            {ID: 1, Name: "admin"},
            {ID: 2, Name: "usuario"},
            {ID: 3, Name: "moderador"},
        },
    }
}

func (f *fakeUsers) add(c *qt.C, username, email, password string, role model.Role) model.User {
    c.Helper()
    hash, err := utils.HashPassword(password, bcrypt.MinCost)
    c.Assert(err, qt.IsNil)
    u, err := f.Create(context.Background(), username, email, hash, role)
    c.Assert(err, qt.IsNil)
    return u
}

func (f *fakeUsers) find(match func(model.User) bool) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.err != nil {
        return model.User{}, f.err
    }
    for _, u := range f.byID {
        if match(u) {
            return u, nil
        }
    }
    return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
    return f.find(func(u model.User) bool { return u.Username == username })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    return f.find(func(u model.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    return f.find(func(u model.User) bool { return u.ID == id })
}

func (f *fakeUsers) Create(_ context.Context, username, email, hash string, role model.Role) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.byID {
        if u.Username == username || u.Email == email {
            return model.User{}, repository.ErrConflict
        }
    }
    f.nextID++
    u := model.User{ID: f.nextID, Username: username, Email: email, PasswordHash: hash, Role: role}
    f.byID[u.ID] = u
    return u, nil
}

func (f *fakeUsers) UpdateUsername(_ context.Context, id uint64, username string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.byID {
        if u.Username == username && u.ID != id {
            return model.User{}, repository.ErrConflict
        }
    }
    u, ok := f.byID[id]
    if !ok {
        return model.User{}, repository.ErrNotFound
    }
    u.Username = username
    f.byID[id] = u
    return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.byID[id]
    if !ok {
        return repository.ErrNotFound
    }
    u.PasswordHash = hash
    f.byID[id] = u
    return nil
}

func (f *fakeUsers) UpdatePasswordByEmail(ctx context.Context, email, hash string) error {
    u, err := f.GetByEmail(ctx, email)
    if err != nil {
        return err
    }
    return f.UpdatePassword(ctx, u.ID, hash)
}

func (f *fakeUsers) List(context.Context) ([]model.UserSummary, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.UserSummary{}
    for _, u := range f.byID {
        out = append(out, model.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
    }
    return out, nil
}

func (f *fakeUsers) RoleByID(_ context.Context, id uint8) (model.RoleRecord, error) {
    for _, r := range f.roles {
        if r.ID == id {
            return r, nil
        }
    }
    return model.RoleRecord{}, repository.ErrUnknownRole
}

func (f *fakeUsers) ListRoles(context.Context) ([]model.RoleRecord, error) {
    return f.roles, nil
}

func (f *fakeUsers) UpdateRole(ctx context.Context, id uint64, roleID uint8) (model.User, error) {
    rec, err := f.RoleByID(ctx, roleID)
    if err != nil {
        return model.User{}, err
    }
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.byID[id]
    if !ok {
        return model.User{}, repository.ErrNotFound
    }
    u.RoleID, u.Role = roleID, model.Role(rec.Name)
    f.byID[id] = u
    return u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.byID[id]; !ok {
        return repository.ErrNotFound
    }
    delete(f.byID, id)
    return nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
    mu     sync.Mutex
    queues []string
    events []any
}

func (p *recordingPublisher) Publish(_ context.Context, queue string, ev any) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.queues = append(p.queues, queue)
    p.events = append(p.events, ev)
    return nil
}

func jsonRequest(method, path, body string) *http.Request {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    return req
}
