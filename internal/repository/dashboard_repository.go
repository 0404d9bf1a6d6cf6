package repository // dashboard aggregates

import (
    "context"
    "database/sql"
    "fmt"
    "sort"
    "time"

    "github.com/sourcegraph/conc/pool" // pool runs the activity queries side by side

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// DashboardRepo runs the read-only aggregates behind the staff dashboard.
// Time windows are computed by the caller and passed in.
type DashboardRepo struct {
    db *sql.DB // read-only use
}

// NewDashboardRepo wraps db.
func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

const (
    topPlayersLimit   = 5  // per game
    activityPerSource = 5  // rows taken from each activity table
    activityLimit     = 10 // merged feed length
)

// Summary gathers the headline numbers.  recentSince bounds "new users".
func (r *DashboardRepo) Summary(ctx context.Context, recentSince time.Time) (model.DashboardSummary, error) {
    var (
        s                 model.DashboardSummary
        avgEmis, avgScore sql.NullFloat64
        err               error
    )
    if err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usuarios").Scan(&s.Users.Total); err != nil {
        return s, err
    }
    if err = r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM usuarios WHERE fecha_creacion >= ?", recentSince).Scan(&s.Users.Recent); err != nil {
        return s, err
    }
    if s.Users.ByRole, err = r.UsersByRole(ctx); err != nil {
        return s, err
    }
    if err = r.db.QueryRowContext(ctx,
        "SELECT COUNT(*), AVG(total_emisiones) FROM huella").Scan(&s.Footprints.Total, &avgEmis); err != nil {
        return s, err
    }
    if err = r.db.QueryRowContext(ctx,
        "SELECT COUNT(*), AVG(puntuacion) FROM puntuaciones_juego1").Scan(&s.Games.TotalGames, &avgScore); err != nil {
        return s, err
    }
    s.Footprints.AvgEmissions = fmt.Sprintf("%.2f", avgEmis.Float64)
    s.Games.AvgScore = fmt.Sprintf("%.2f", avgScore.Float64)

    rows, err := r.db.QueryContext(ctx,
        `SELECT u.usuario, COUNT(p.id) AS partidas, AVG(p.puntuacion)
         FROM usuarios u INNER JOIN puntuaciones_juego1 p ON u.id = p.usuario_id
         GROUP BY u.id, u.usuario
         ORDER BY partidas DESC
         LIMIT ?`, topPlayersLimit)
    if err != nil {
        return s, err
    }
    defer rows.Close()
    s.Games.TopPlayers = []model.TopPlayer{}
    for rows.Next() {
        var tp model.TopPlayer
        if err := rows.Scan(&tp.Username, &tp.Games, &tp.Average); err != nil {
            return s, err
        }
        s.Games.TopPlayers = append(s.Games.TopPlayers, tp)
    }
    return s, rows.Err()
}

// UsersByRole counts users per role, including empty roles.
func (r *DashboardRepo) UsersByRole(ctx context.Context) ([]model.RoleCount, error) {
    return collect(ctx, r.db, func(rows *sql.Rows) (model.RoleCount, error) {
        var rc model.RoleCount
        err := rows.Scan(&rc.Role, &rc.Count)
        return rc, err
    }, `SELECT r.nombre, COUNT(u.id)
        FROM roles r LEFT JOIN usuarios u ON r.id = u.rol_id
        GROUP BY r.id, r.nombre
        ORDER BY r.id`)
}

// SignupsPerMonth counts registrations per month since since.
func (r *DashboardRepo) SignupsPerMonth(ctx context.Context, since time.Time) ([]model.MonthCount, error) {
    return collect(ctx, r.db, func(rows *sql.Rows) (model.MonthCount, error) {
        var mc model.MonthCount
        err := rows.Scan(&mc.Month, &mc.Count)
        return mc, err
    }, `SELECT DATE_FORMAT(fecha_creacion, '%Y-%m') AS mes, COUNT(*)
        FROM usuarios WHERE fecha_creacion >= ?
        GROUP BY mes ORDER BY mes ASC`, since)
}

// FootprintsByTransport groups all footprints by transport mode, highest
// average emissions first.
func (r *DashboardRepo) FootprintsByTransport(ctx context.Context) ([]model.TransportStat, error) {
    return collect(ctx, r.db, func(rows *sql.Rows) (model.TransportStat, error) {
        var ts model.TransportStat
        err := rows.Scan(&ts.Transport, &ts.Count, &ts.AvgEmissions)
        return ts, err
    }, `SELECT transporte, COUNT(*), AVG(total_emisiones) AS promedio_emisiones
        FROM huella GROUP BY transporte ORDER BY promedio_emisiones DESC`)
}

// EmissionsTrend averages emissions per month since since.
func (r *DashboardRepo) EmissionsTrend(ctx context.Context, since time.Time) ([]model.EmissionsTrend, error) {
    return collect(ctx, r.db, func(rows *sql.Rows) (model.EmissionsTrend, error) {
        var et model.EmissionsTrend
        err := rows.Scan(&et.Month, &et.AvgEmissions, &et.Records)
        return et, err
    }, `SELECT DATE_FORMAT(fecha, '%Y-%m') AS mes, AVG(total_emisiones), COUNT(*)
        FROM huella WHERE fecha >= ?
        GROUP BY mes ORDER BY mes ASC`, since)
}

// FootprintsByRenewable groups footprints by the renewable-energy flag.
func (r *DashboardRepo) FootprintsByRenewable(ctx context.Context) ([]model.RenewableStat, error) {
    return collect(ctx, r.db, func(rows *sql.Rows) (model.RenewableStat, error) {
        var rs model.RenewableStat
        err := rows.Scan(&rs.Renewable, &rs.Count, &rs.AvgEmissions)
        return rs, err
    }, `SELECT renovable, COUNT(*), AVG(total_emisiones) FROM huella GROUP BY renovable ORDER BY renovable`)
}

// Game1Stats aggregates all game 1 scores.
func (r *DashboardRepo) Game1Stats(ctx context.Context) (model.Game1Stats, error) {
    var (
        st                       model.Game1Stats
        avgScore, avgSec, avgEff sql.NullFloat64
        maxScore                 sql.NullInt64
    )
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*), AVG(puntuacion), MAX(puntuacion), AVG(tiempo_segundos), AVG(eficiencia),
                COALESCE(SUM(aciertos), 0), COALESCE(SUM(total_residuos), 0)
         FROM puntuaciones_juego1`).
        Scan(&st.TotalGames, &avgScore, &maxScore, &avgSec, &avgEff, &st.TotalHits, &st.TotalWaste)
    if err != nil {
        return st, err
    }
    st.AvgScore = nullFloat(avgScore)
    st.AvgSeconds = nullFloat(avgSec)
    st.AvgEfficiency = nullFloat(avgEff)
    if maxScore.Valid {
        st.MaxScore = &maxScore.Int64
    }
    return st, nil
}

// TopScores returns the ten highest game 1 scores.
func (r *DashboardRepo) TopScores(ctx context.Context) ([]model.TopScore, error) {
    return collect(ctx, r.db, func(rows *sql.Rows) (model.TopScore, error) {
        var ts model.TopScore
        err := rows.Scan(&ts.Username, &ts.Score, &ts.Seconds, &ts.Efficiency, &ts.PlayedAt)
        return ts, err
    }, `SELECT u.usuario, p.puntuacion, p.tiempo_segundos, p.eficiencia, p.fecha_juego
        FROM puntuaciones_juego1 p INNER JOIN usuarios u ON p.usuario_id = u.id
        ORDER BY p.puntuacion DESC
        LIMIT ?`, LeaderboardSize)
}

// GamesPerDay counts game 1 plays per day since since.
func (r *DashboardRepo) GamesPerDay(ctx context.Context, since time.Time) ([]model.DayCount, error) {
    return collect(ctx, r.db, func(rows *sql.Rows) (model.DayCount, error) {
        var dc model.DayCount
        err := rows.Scan(&dc.Day, &dc.Games)
        return dc, err
    }, `SELECT DATE_FORMAT(fecha_juego, '%Y-%m-%d') AS dia, COUNT(*)
        FROM puntuaciones_juego1 WHERE fecha_juego >= ?
        GROUP BY dia ORDER BY dia ASC`, since)
}

// RecentActivity merges the latest signups, footprints and game plays and
// keeps the ten newest.  The three feeds are read concurrently.
func (r *DashboardRepo) RecentActivity(ctx context.Context) ([]model.Activity, error) {
    p := pool.NewWithResults[[]model.Activity]().WithContext(ctx).WithCancelOnError().WithFirstError()
    p.Go(func(ctx context.Context) ([]model.Activity, error) {
        return collect(ctx, r.db, func(rows *sql.Rows) (model.Activity, error) {
            a := model.Activity{Kind: model.ActivitySignup}
            err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.At)
            return a, err
        }, `SELECT id, usuario, correo, fecha_creacion FROM usuarios ORDER BY fecha_creacion DESC LIMIT ?`, activityPerSource)
    })
    p.Go(func(ctx context.Context) ([]model.Activity, error) {
        return collect(ctx, r.db, func(rows *sql.Rows) (model.Activity, error) {
            var total float64
            a := model.Activity{Kind: model.ActivityFootprint, Emissions: &total}
            err := rows.Scan(&a.ID, &a.Username, &total, &a.At)
            return a, err
        }, `SELECT h.id, u.usuario, h.total_emisiones, h.fecha
            FROM huella h
            INNER JOIN perfiles p ON h.id = p.id_huella
            INNER JOIN usuarios u ON p.id_usuario = u.id
            ORDER BY h.fecha DESC LIMIT ?`, activityPerSource)
    })
    p.Go(func(ctx context.Context) ([]model.Activity, error) {
        return collect(ctx, r.db, func(rows *sql.Rows) (model.Activity, error) {
            var score int
            a := model.Activity{Kind: model.ActivityGame, Score: &score}
            err := rows.Scan(&a.ID, &a.Username, &score, &a.At)
            return a, err
        }, `SELECT p.id, u.usuario, p.puntuacion, p.fecha_juego
            FROM puntuaciones_juego1 p INNER JOIN usuarios u ON p.usuario_id = u.id
            ORDER BY p.fecha_juego DESC LIMIT ?`, activityPerSource)
    })
    feeds, err := p.Wait()
    if err != nil {
        return nil, err
    }
    return mergeActivity(activityLimit, feeds...), nil
}

// mergeActivity concatenates feeds, sorts newest first and keeps limit.
func mergeActivity(limit int, feeds ...[]model.Activity) []model.Activity {
    var all []model.Activity
    for _, f := range feeds {
        all = append(all, f...)
    }
    sort.SliceStable(all, func(i, j int) bool { return all[i].At.After(all[j].At) })
    if len(all) > limit {
        all = all[:limit]
    }
    if all == nil {
        all = []model.Activity{}
    }
    return all
}

// collect runs query and scans every row with scan.
func collect[T any](ctx context.Context, db *sql.DB, scan func(*sql.Rows) (T, error), query string, args ...any) ([]T, error) {
    rows, err := db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []T{}
    for rows.Next() {
        v, err := scan(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    return out, rows.Err()
}

func nullFloat(n sql.NullFloat64) *float64 {
    if !n.Valid {
        return nil
    }
    return &n.Float64
}
