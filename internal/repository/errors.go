// Package repository holds the SQL data access for users, footprints,
// game scores, support tickets and dashboard aggregates.  Sentinel errors
// defined here let handlers map storage outcomes to HTTP responses without
// inspecting driver errors themselves.
package repository

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would break a uniqueness rule, such
// as a handle or email already taken.  Handlers translate it to 400.
var ErrConflict = errors.New("conflict")

// ErrMonthlyLimit is returned when the user already recorded a footprint in
// the current calendar month.
var ErrMonthlyLimit = errors.New("monthly footprint already recorded")

// ErrUnknownRole is returned when a role id does not exist.
var ErrUnknownRole = errors.New("unknown role")

// MonthlyLimitError carries the date of the existing record.  It matches
// ErrMonthlyLimit with errors.Is.  Last is zero when the limit was detected
// by the storage constraint rather than by the eligibility query.
type MonthlyLimitError struct {
    Last time.Time
}

func (e *MonthlyLimitError) Error() string {
    if e.Last.IsZero() {
        return ErrMonthlyLimit.Error()
    }
    return fmt.Sprintf("%s on %s", ErrMonthlyLimit, e.Last.Format(time.DateOnly))
}

func (e *MonthlyLimitError) Is(target error) bool { return target == ErrMonthlyLimit }

const (
    mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
    mysqlDeadlock       = 1213 // ER_LOCK_DEADLOCK
)

// isDuplicate reports whether err is a unique-key violation.  MySQL reports
// 1062; the SQLite driver used in tests reports a UNIQUE constraint message.
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == mysqlDuplicateEntry
    }
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// isDeadlock reports whether InnoDB chose err's transaction as a deadlock
// victim.  The transaction was rolled back and may be retried.
func isDeadlock(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDeadlock
}
