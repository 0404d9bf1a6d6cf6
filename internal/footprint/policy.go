// Package footprint holds the rules around monthly carbon-footprint
// records: when a user may record again, how a total is categorized, and
// how a submitted calculation is validated and normalized before storage.
package footprint

import (
    "math"
    "time"
)

// Category is the coarse label attached to a total emissions value.
type Category string

const (
    CategoryLow    Category = "Baja"
    CategoryMedium Category = "Media"
    CategoryHigh   Category = "Alta"
)

// Thresholds are exclusive on the lower category: 50 is already Media.
const (
    lowBelow    = 50.0
    mediumBelow = 100.0
)

// Classify maps total emissions to its category.
func Classify(total float64) Category {
    switch {
    case total < lowBelow:
        return CategoryLow
    case total < mediumBelow:
        return CategoryMedium
    default:
        return CategoryHigh
    }
}

// MonthBounds returns the half-open interval [start, end) of the calendar
// month containing now, in now's location.
func MonthBounds(now time.Time) (start, end time.Time) {
    y, m, _ := now.Date()
    start = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
    return start, start.AddDate(0, 1, 0)
}

// Period is the storage key of the month containing t ("2006-01").
func Period(t time.Time) string {
    return t.Format("2006-01")
}

// NextEligible returns day 1 of the month after last.  Normalizing to day 1
// before adding the month keeps Jan 31 from rolling over into March.
func NextEligible(last time.Time) time.Time {
    y, m, _ := last.Date()
    return time.Date(y, m+1, 1, 0, 0, 0, 0, last.Location())
}

// DaysUntil counts whole days from now to next, rounding up.  It never
// returns a negative number.
func DaysUntil(next, now time.Time) int {
    d := next.Sub(now)
    if d <= 0 {
        return 0
    }
    return int(math.Ceil(d.Hours() / 24))
}

// Decision is the answer to "may this user record a footprint now?".
type Decision struct {
    Eligible bool
    Last     time.Time // most recent record this month, zero when eligible
    Next     time.Time // first eligible instant, zero when eligible
    DaysLeft int
}

// Decide builds the decision from the user's latest record in the current
// month, or nil when there is none.
func Decide(latestThisMonth *time.Time, now time.Time) Decision {
    if latestThisMonth == nil {
        return Decision{Eligible: true}
    }
    next := NextEligible(*latestThisMonth)
    return Decision{
        Last:     *latestThisMonth,
        Next:     next,
        DaysLeft: DaysUntil(next, now),
    }
}

// FormatDate renders t the way messages show dates to users (d/m/yyyy).
func FormatDate(t time.Time) string {
    return t.Format("2/1/2006")
}
