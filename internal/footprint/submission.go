package footprint

import (
    "bytes"
    "encoding/json"
    "errors"
    "math"
    "strconv"
    "strings"

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// NoRecycling marks a footprint whose user recycles nothing.
const NoRecycling = "no_reciclo"

var (
    ErrInvalidNumber    = errors.New("footprint: numeric field is not a number")
    ErrInvalidRenewable = errors.New("footprint: renewable flag must be si or no")
)

// Number accepts a JSON number or a numeric string.  Anything else leaves it
// unset; the raw value is kept so it can be echoed back on rejection.
type Number struct {
    Value float64
    Set   bool
    Raw   json.RawMessage
}

func (n *Number) UnmarshalJSON(b []byte) error {
    n.Raw = append(json.RawMessage(nil), b...)
    n.Set = false
    b = bytes.TrimSpace(b)
    if len(b) == 0 || bytes.Equal(b, []byte("null")) {
        return nil
    }
    s := string(b)
    if b[0] == '"' {
        if err := json.Unmarshal(b, &s); err != nil {
            return nil
        }
    }
    v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
    if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
        return nil
    }
    n.Value, n.Set = v, true
    return nil
}

// MarshalJSON echoes the value as it was received.
func (n Number) MarshalJSON() ([]byte, error) {
    if len(n.Raw) == 0 {
        return []byte("null"), nil
    }
    return n.Raw, nil
}

// Recycling accepts either a list of categories or a single string.
type Recycling []string

func (r *Recycling) UnmarshalJSON(b []byte) error {
    b = bytes.TrimSpace(b)
    switch {
    case len(b) == 0 || bytes.Equal(b, []byte("null")):
        *r = nil
        return nil
    case b[0] == '"':
        var s string
        if err := json.Unmarshal(b, &s); err != nil {
            return err
        }
        *r = Recycling{s}
        return nil
    default:
        var list []string
        if err := json.Unmarshal(b, &list); err != nil {
            return err
        }
        *r = list
        return nil
    }
}

// Submission is the body of a footprint calculation as sent by clients.
type Submission struct {
    Kilometers     Number    `json:"kilometros"`
    Transport      string    `json:"transporte"`
    Electricity    Number    `json:"electricidad"`
    Renewable      string    `json:"energiaRenovable"`
    Recycling      Recycling `json:"reciclaje"`
    TotalEmissions Number    `json:"total_emisiones"`
}

// Normalize validates s and returns the footprint to persist.  RecordedAt
// is left for the caller to set.
func (s Submission) Normalize() (model.Footprint, error) {
    if !s.Kilometers.Set || !s.Electricity.Set || !s.TotalEmissions.Set {
        return model.Footprint{}, ErrInvalidNumber
    }
    if s.Renewable != "si" && s.Renewable != "no" {
        return model.Footprint{}, ErrInvalidRenewable
    }
    return model.Footprint{
        Kilometers:     s.Kilometers.Value,
        Transport:      s.Transport,
        Electricity:    s.Electricity.Value,
        Renewable:      s.Renewable,
        Recycling:      JoinRecycling(s.Recycling),
        TotalEmissions: s.TotalEmissions.Value,
    }, nil
}

// JoinRecycling drops empty entries and the no-recycling marker, then joins
// the rest with commas.  An empty result is stored as NoRecycling.
func JoinRecycling(items []string) string {
    kept := make([]string, 0, len(items))
    for _, it := range items {
        if it == "" || it == NoRecycling {
            continue
        }
        kept = append(kept, it)
    }
    if len(kept) == 0 {
        return NoRecycling
    }
    return strings.Join(kept, ",")
}

// SplitRecycling turns the stored list back into its categories.
func SplitRecycling(stored string) []string {
    if stored == "" {
        return []string{}
    }
    return strings.Split(stored, ",")
}
