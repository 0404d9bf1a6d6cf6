package model

import "time"

// Game1Score represents a row in `puntuaciones_juego1` (waste sorting game).
type Game1Score struct {
    ID            uint64    `json:"-"`
    UserID        uint64    `json:"-"`
    Score         int       `json:"puntuacion"`
    Seconds       int       `json:"tiempo_segundos"`
    Efficiency    float64   `json:"eficiencia"`
    Hits          int       `json:"aciertos"`
    TotalWaste    int       `json:"total_residuos"`
    PlayedAt      time.Time `json:"fecha_juego"`
}

// Game2Score represents a row in `puntuaciones_juego2` (plant growth quiz).
type Game2Score struct {
    ID             uint64    `json:"-"`
    UserID         uint64    `json:"-"`
    Score          int       `json:"puntuacion"`
    FinalGrowth    float64   `json:"crecimiento_final"`
    Hits           int       `json:"aciertos"`
    TotalQuestions int       `json:"total_preguntas"`
    StageReached   int       `json:"etapa_alcanzada"`
    PlaySeconds    int       `json:"tiempo_juego"`
    PlayedAt       time.Time `json:"fecha_juego"`
}

// Game1LeaderboardRow is one leaderboard entry for game 1.
type Game1LeaderboardRow struct {
    Username string `json:"usuario"`
    Game1Score
}

// Game2LeaderboardRow is one leaderboard entry for game 2.
type Game2LeaderboardRow struct {
    Username string `json:"usuario"`
    UserID   uint64 `json:"usuario_id"`
    Game2Score
}
