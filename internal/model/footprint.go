package model

import "time"

// Footprint mirrors a row in the `huella` table.  Each footprint is tied
// to exactly one user through a `perfiles` link row.
type Footprint struct {
    ID             uint64
    Kilometers     float64
    Transport      string
    Electricity    float64
    Renewable      string // "si" | "no"
    Recycling      string // comma separated categories, "no_reciclo" when none
    TotalEmissions float64
    RecordedAt     time.Time
}

// FootprintStats aggregates the footprints of a single user.
type FootprintStats struct {
    Total   int64
    Average float64
    Min     *float64
    Max     *float64
    First   *time.Time
    Last    *time.Time
}

// FootprintPoint is one entry of the monthly evolution series.
type FootprintPoint struct {
    Year       int       `json:"anio"`
    Month      int       `json:"mes"`
    Emissions  float64   `json:"emisiones"`
    RecordedAt time.Time `json:"fecha"`
}
