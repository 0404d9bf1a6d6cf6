package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// LeaderboardSize is how many rows a leaderboard returns.
const LeaderboardSize = 10

// GameRepo stores game scores.  Each user keeps exactly one row per game:
// saving a score replaces the previous one.
type GameRepo struct {
    db *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{db: db} }

// replaceAttempts bounds retries when concurrent saves for the same user
// collide on the usuario_id unique key.
const replaceAttempts = 3

// replace deletes the user's row in table and runs insert, atomically.  A
// concurrent save for the same user surfaces as a duplicate key or a
// deadlock; the loser retries so the last writer's row is the one kept.
func (r *GameRepo) replace(ctx context.Context, table string, userID uint64, insert string, args ...any) (uint64, error) {
    var err error
    for range replaceAttempts {
        var id uint64
        id, err = r.replaceOnce(ctx, table, userID, insert, args...)
        if err == nil || !(isDuplicate(err) || isDeadlock(err)) {
            return id, err
        }
    }
    return 0, err
}

func (r *GameRepo) replaceOnce(ctx context.Context, table string, userID uint64, insert string, args ...any) (uint64, error) {
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

    if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE usuario_id = ?", userID); err != nil {
        return 0, err
    }
    res, err := tx.ExecContext(ctx, insert, args...)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return uint64(id), nil
}

// SaveGame1 replaces the user's game 1 score with s.
func (r *GameRepo) SaveGame1(ctx context.Context, s model.Game1Score) (uint64, error) {
    return r.replace(ctx, "puntuaciones_juego1", s.UserID,
        `INSERT INTO puntuaciones_juego1
         (usuario_id, puntuacion, tiempo_segundos, eficiencia, aciertos, total_residuos, fecha_juego)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
        s.UserID, s.Score, s.Seconds, s.Efficiency, s.Hits, s.TotalWaste, s.PlayedAt)
}

// Game1Leaderboard returns the best game 1 scores: higher score first,
// faster time breaking ties.
func (r *GameRepo) Game1Leaderboard(ctx context.Context) ([]model.Game1LeaderboardRow, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT u.usuario, pj.puntuacion, pj.aciertos, pj.total_residuos, pj.tiempo_segundos, pj.eficiencia, pj.fecha_juego
         FROM puntuaciones_juego1 pj
         JOIN usuarios u ON pj.usuario_id = u.id
         ORDER BY pj.puntuacion DESC, pj.tiempo_segundos ASC
         LIMIT ?`, LeaderboardSize)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Game1LeaderboardRow{}
    for rows.Next() {
        var row model.Game1LeaderboardRow
        if err := rows.Scan(&row.Username, &row.Score, &row.Hits, &row.TotalWaste, &row.Seconds,
            &row.Efficiency, &row.PlayedAt); err != nil {
            return nil, err
        }
        out = append(out, row)
    }
    return out, rows.Err()
}

// LatestGame1 returns the user's stored game 1 score, or nil.
func (r *GameRepo) LatestGame1(ctx context.Context, userID uint64) (*model.Game1Score, error) {
    s := model.Game1Score{UserID: userID}
    err := r.db.QueryRowContext(ctx,
        `SELECT id, puntuacion, tiempo_segundos, eficiencia, aciertos, total_residuos, fecha_juego
         FROM puntuaciones_juego1 WHERE usuario_id = ?
         ORDER BY fecha_juego DESC LIMIT 1`, userID).
        Scan(&s.ID, &s.Score, &s.Seconds, &s.Efficiency, &s.Hits, &s.TotalWaste, &s.PlayedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}

// SaveGame2 replaces the user's game 2 score with s.
func (r *GameRepo) SaveGame2(ctx context.Context, s model.Game2Score) (uint64, error) {
    return r.replace(ctx, "puntuaciones_juego2", s.UserID,
        `INSERT INTO puntuaciones_juego2
         (usuario_id, puntuacion, crecimiento_final, aciertos, total_preguntas, etapa_alcanzada, tiempo_juego, fecha_juego)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
        s.UserID, s.Score, s.FinalGrowth, s.Hits, s.TotalQuestions, s.StageReached, s.PlaySeconds, s.PlayedAt)
}

// Game2Leaderboard returns the best game 2 scores: higher score first, then
// higher final growth, then faster time.
func (r *GameRepo) Game2Leaderboard(ctx context.Context) ([]model.Game2LeaderboardRow, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT u.usuario, u.id, pj.puntuacion, pj.crecimiento_final, pj.aciertos, pj.total_preguntas,
                pj.etapa_alcanzada, pj.tiempo_juego, pj.fecha_juego
         FROM puntuaciones_juego2 pj
         JOIN usuarios u ON pj.usuario_id = u.id
         ORDER BY pj.puntuacion DESC, pj.crecimiento_final DESC, pj.tiempo_juego ASC
         LIMIT ?`, LeaderboardSize)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Game2LeaderboardRow{}
    for rows.Next() {
        var row model.Game2LeaderboardRow
        if err := rows.Scan(&row.Username, &row.UserID, &row.Score, &row.FinalGrowth, &row.Hits,
            &row.TotalQuestions, &row.StageReached, &row.PlaySeconds, &row.PlayedAt); err != nil {
            return nil, err
        }
        out = append(out, row)
    }
    return out, rows.Err()
}

// LatestGame2 returns the user's stored game 2 score, or nil.
func (r *GameRepo) LatestGame2(ctx context.Context, userID uint64) (*model.Game2Score, error) {
    s := model.Game2Score{UserID: userID}
    err := r.db.QueryRowContext(ctx,
        `SELECT id, puntuacion, crecimiento_final, aciertos, total_preguntas, etapa_alcanzada, tiempo_juego, fecha_juego
         FROM puntuaciones_juego2 WHERE usuario_id = ?
         ORDER BY fecha_juego DESC LIMIT 1`, userID).
        Scan(&s.ID, &s.Score, &s.FinalGrowth, &s.Hits, &s.TotalQuestions, &s.StageReached, &s.PlaySeconds, &s.PlayedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}
