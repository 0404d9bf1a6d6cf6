package resetcode

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
)

// Entry is what a code maps to.
type Entry struct {
    Email     string    `json:"email"`
    ExpiresAt time.Time `json:"expires_at"`
    Verified  bool      `json:"verified"`
}

// Store keeps entries by code.  keep is a hint for how long the entry is
// worth retaining; stores with native expiry use it, others ignore it.
type Store interface {
    Put(ctx context.Context, code string, e Entry, keep time.Duration) error
    Get(ctx context.Context, code string) (Entry, bool, error)
    Delete(ctx context.Context, code string) error
}

// MemoryStore is a process-local Store.  Entries are never swept; expired
// ones are removed when a lookup finds them.  Codes issued by one process
// are invisible to every other process.
type MemoryStore struct {
    mu      sync.Mutex
    entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Put(_ context.Context, code string, e Entry, _ time.Duration) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.entries[code] = e
    return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (Entry, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.entries[code]
    return e, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.entries, code)
    return nil
}

// Len reports how many entries are held.
func (s *MemoryStore) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.entries)
}

// Close drops every entry.
func (s *MemoryStore) Close() error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.entries = make(map[string]Entry)
    return nil
}

// RedisStore shares entries between processes through Redis.  Keys carry a
// native TTL, so abandoned codes disappear without a sweeper.
type RedisStore struct {
    rdb    redis.UniversalClient
    prefix string
}

// NewRedisStore stores entries under prefix+code.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
    if prefix == "" {
        prefix = "resetcode:"
    }
    return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Put(ctx context.Context, code string, e Entry, keep time.Duration) error {
    b, err := json.Marshal(e)
    if err != nil {
        return err
    }
    if keep < time.Second {
        keep = time.Second
    }
    return s.rdb.Set(ctx, s.prefix+code, b, keep).Err()
}

func (s *RedisStore) Get(ctx context.Context, code string) (Entry, bool, error) {
    b, err := s.rdb.Get(ctx, s.prefix+code).Bytes()
    if errors.Is(err, redis.Nil) {
        return Entry{}, false, nil
    }
    if err != nil {
        return Entry{}, false, err
    }
    var e Entry
    if err := json.Unmarshal(b, &e); err != nil {
        return Entry{}, false, err
    }
    return e, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
    return s.rdb.Del(ctx, s.prefix+code).Err()
}
