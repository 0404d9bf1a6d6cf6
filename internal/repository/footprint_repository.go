package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/salvambiente-api/internal/footprint"
    "github.com/iliyamo/salvambiente-api/internal/model"
)

// FootprintRepo stores monthly footprint calculations (`huella`) and their
// link to the owning user (`perfiles`).  Month boundaries are computed by
// the caller's clock and passed as parameters, never taken from the
// database server.
type FootprintRepo struct {
    db *sql.DB
}

func NewFootprintRepo(db *sql.DB) *FootprintRepo { return &FootprintRepo{db: db} }

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const latestInMonthSQL = `SELECT h.fecha FROM huella h
    JOIN perfiles p ON h.id = p.id_huella
    WHERE p.id_usuario = ? AND h.fecha >= ? AND h.fecha < ?
    ORDER BY h.fecha DESC LIMIT 1`

func latestInMonth(ctx context.Context, q queryer, userID uint64, now time.Time) (*time.Time, error) {
    start, end := footprint.MonthBounds(now)
    var last time.Time
    err := q.QueryRowContext(ctx, latestInMonthSQL, userID, start, end).Scan(&last)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &last, nil
}

// LatestInMonth returns the time of the user's most recent footprint in the
// calendar month containing now, or nil when there is none.
func (r *FootprintRepo) LatestInMonth(ctx context.Context, userID uint64, now time.Time) (*time.Time, error) {
    return latestInMonth(ctx, r.db, userID, now)
}

// RecordIfEligible stores f for the user unless a footprint already exists
// in now's month.  The check and both inserts run in one transaction; the
// (id_usuario, periodo) unique key on perfiles rejects a concurrent
// duplicate that slipped past the check.  Either way the caller gets a
// *MonthlyLimitError.  Any failure rolls back both inserts.
func (r *FootprintRepo) RecordIfEligible(ctx context.Context, userID uint64, f model.Footprint, now time.Time) (uint64, error) {
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

    last, err := latestInMonth(ctx, tx, userID, now)
    if err != nil {
        return 0, err
    }
    if last != nil {
        return 0, &MonthlyLimitError{Last: *last}
    }

    res, err := tx.ExecContext(ctx,
        `INSERT INTO huella (kilometros, transporte, electricidad, renovable, reciclaje, total_emisiones, fecha)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
        f.Kilometers, f.Transport, f.Electricity, f.Renewable, f.Recycling, f.TotalEmissions, now)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }

    if _, err := tx.ExecContext(ctx,
        "INSERT INTO perfiles (id_usuario, id_huella, periodo) VALUES (?, ?, ?)",
        userID, id, footprint.Period(now)); err != nil {
        if isDuplicate(err) {
            return 0, &MonthlyLimitError{}
        }
        return 0, err
    }

    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return uint64(id), nil
}

// History returns one page of the user's footprints, newest first.
func (r *FootprintRepo) History(ctx context.Context, userID uint64, limit, offset int) ([]model.Footprint, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT h.id, h.kilometros, h.transporte, h.electricidad, h.renovable, h.reciclaje, h.total_emisiones, h.fecha
         FROM huella h INNER JOIN perfiles p ON h.id = p.id_huella
         WHERE p.id_usuario = ?
         ORDER BY h.fecha DESC, h.id DESC
         LIMIT ? OFFSET ?`, userID, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Footprint{}
    for rows.Next() {
        var f model.Footprint
        if err := rows.Scan(&f.ID, &f.Kilometers, &f.Transport, &f.Electricity, &f.Renewable,
            &f.Recycling, &f.TotalEmissions, &f.RecordedAt); err != nil {
            return nil, err
        }
        out = append(out, f)
    }
    return out, rows.Err()
}

// Count returns how many footprints the user has recorded.
func (r *FootprintRepo) Count(ctx context.Context, userID uint64) (int64, error) {
    var n int64
    err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM perfiles WHERE id_usuario = ?", userID).Scan(&n)
    return n, err
}

// Stats aggregates all of the user's footprints.
func (r *FootprintRepo) Stats(ctx context.Context, userID uint64) (model.FootprintStats, error) {
    var (
        st       model.FootprintStats
        avg      sql.NullFloat64
        min, max sql.NullFloat64
    )
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*), AVG(h.total_emisiones), MIN(h.total_emisiones), MAX(h.total_emisiones)
         FROM huella h INNER JOIN perfiles p ON h.id = p.id_huella
         WHERE p.id_usuario = ?`, userID).Scan(&st.Total, &avg, &min, &max)
    if err != nil {
        return st, err
    }
    if st.Total == 0 {
        return st, nil
    }
    st.Average = avg.Float64
    st.Min, st.Max = &min.Float64, &max.Float64

    first, err := r.edge(ctx, userID, "ASC")
    if err != nil {
        return st, err
    }
    last, err := r.edge(ctx, userID, "DESC")
    if err != nil {
        return st, err
    }
    st.First, st.Last = &first, &last
    return st, nil
}

func (r *FootprintRepo) edge(ctx context.Context, userID uint64, dir string) (time.Time, error) {
    var t time.Time
    err := r.db.QueryRowContext(ctx,
        `SELECT h.fecha FROM huella h INNER JOIN perfiles p ON h.id = p.id_huella
         WHERE p.id_usuario = ? ORDER BY h.fecha `+dir+` LIMIT 1`, userID).Scan(&t)
    return t, err
}

// Evolution lists the user's footprints recorded at or after since, oldest
// first.
func (r *FootprintRepo) Evolution(ctx context.Context, userID uint64, since time.Time) ([]model.FootprintPoint, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT h.total_emisiones, h.fecha
         FROM huella h INNER JOIN perfiles p ON h.id = p.id_huella
         WHERE p.id_usuario = ? AND h.fecha >= ?
         ORDER BY h.fecha ASC`, userID, since)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.FootprintPoint{}
    for rows.Next() {
        var p model.FootprintPoint
        if err := rows.Scan(&p.Emissions, &p.RecordedAt); err != nil {
            return nil, err
        }
        p.Year, p.Month = p.RecordedAt.Year(), int(p.RecordedAt.Month())
        out = append(out, p)
    }
    return out, rows.Err()
}

// CategoryCounts counts the user's footprints per emissions category.  All
// three categories are present in the result.
func (r *FootprintRepo) CategoryCounts(ctx context.Context, userID uint64) (map[footprint.Category]int64, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT CASE WHEN h.total_emisiones < 50 THEN 'Baja'
                     WHEN h.total_emisiones < 100 THEN 'Media'
                     ELSE 'Alta' END AS categoria,
                COUNT(*)
         FROM huella h INNER JOIN perfiles p ON h.id = p.id_huella
         WHERE p.id_usuario = ?
         GROUP BY categoria`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := map[footprint.Category]int64{
        footprint.CategoryLow:    0,
        footprint.CategoryMedium: 0,
        footprint.CategoryHigh:   0,
    }
    for rows.Next() {
        var (
            cat string
            n   int64
        )
        if err := rows.Scan(&cat, &n); err != nil {
            return nil, err
        }
        out[footprint.Category(cat)] = n
    }
    return out, rows.Err()
}
