package model

import "time"

// RoleCount is the number of users holding a role.
type RoleCount struct {
    Role  string `json:"rol"`
    Count int64  `json:"cantidad"`
}

// TopPlayer is a user ranked by number of game 1 plays.
type TopPlayer struct {
    Username string  `json:"usuario"`
    Games    int64   `json:"partidas"`
    Average  float64 `json:"promedio"`
}

// DashboardSummary is the landing view of the staff dashboard.  Averages
// are pre-formatted with two decimals.
type DashboardSummary struct {
    Users struct {
        Total  int64       `json:"total"`
        Recent int64       `json:"recientes"`
        ByRole []RoleCount `json:"porRol"`
    } `json:"usuarios"`
    Footprints struct {
        Total        int64  `json:"total"`
        AvgEmissions string `json:"promedioEmisiones"`
    } `json:"huellaCarbono"`
    Games struct {
        TotalGames int64       `json:"totalPartidas"`
        AvgScore   string      `json:"promedioPuntuacion"`
        TopPlayers []TopPlayer `json:"topJugadores"`
    } `json:"juegos"`
}

// MonthCount counts rows in a "YYYY-MM" bucket.
type MonthCount struct {
    Month string `json:"mes"`
    Count int64  `json:"cantidad"`
}

// TransportStat groups footprints by transport mode.
type TransportStat struct {
    Transport    string  `json:"transporte"`
    Count        int64   `json:"cantidad"`
    AvgEmissions float64 `json:"promedio_emisiones"`
}

// EmissionsTrend is the monthly average of recorded emissions.
type EmissionsTrend struct {
    Month        string  `json:"mes"`
    AvgEmissions float64 `json:"promedio_emisiones"`
    Records      int64   `json:"registros"`
}

// RenewableStat groups footprints by the renewable-energy flag.
type RenewableStat struct {
    Renewable    string  `json:"renovable"`
    Count        int64   `json:"cantidad"`
    AvgEmissions float64 `json:"promedio_emisiones"`
}

// Game1Stats aggregates every stored game 1 score.  Averages are nil when
// there are no scores.
type Game1Stats struct {
    TotalGames    int64    `json:"total_partidas"`
    AvgScore      *float64 `json:"puntuacion_promedio"`
    MaxScore      *int64   `json:"puntuacion_maxima"`
    AvgSeconds    *float64 `json:"tiempo_promedio"`
    AvgEfficiency *float64 `json:"eficiencia_promedio"`
    TotalHits     int64    `json:"total_aciertos"`
    TotalWaste    int64    `json:"total_residuos"`
}

// TopScore is one row of the staff top-scores table.
type TopScore struct {
    Username   string    `json:"usuario"`
    Score      int       `json:"puntuacion"`
    Seconds    int       `json:"tiempo_segundos"`
    Efficiency float64   `json:"eficiencia"`
    PlayedAt   time.Time `json:"fecha_juego"`
}

// DayCount counts game 1 plays on a "YYYY-MM-DD" day.
type DayCount struct {
    Day   string `json:"dia"`
    Games int64  `json:"partidas"`
}

// ActivityKind tags an entry of the recent activity feed.
type ActivityKind string

const (
    ActivitySignup    ActivityKind = "registro"
    ActivityFootprint ActivityKind = "huella"
    ActivityGame      ActivityKind = "juego"
)

// Activity is one entry of the recent activity feed.  Only the fields of
// its kind are set.
type Activity struct {
    ID        uint64       `json:"id"`
    Username  string       `json:"usuario"`
    Email     string       `json:"correo,omitempty"`
    Emissions *float64     `json:"total_emisiones,omitempty"`
    Score     *int         `json:"puntuacion,omitempty"`
    At        time.Time    `json:"fecha"`
    Kind      ActivityKind `json:"tipo"`
}
