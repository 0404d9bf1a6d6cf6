package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    qt "github.com/frankban/quicktest"
)

func TestAppendActivity(t *testing.T) {
    c := qt.New(t)
    dir := filepath.Join(c.TempDir(), "logs")
    now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

    fp, _ := json.Marshal(FootprintRecordedEvent{FootprintID: 7, UserID: 3, Period: "2026-03", Transport: "bus", TotalEmissions: 42.5, Category: "Baja", RecordedAt: "2026-03-01T09:00:00Z"})
    c.Assert(appendActivity(dir, FootprintRecordedQueue, fp, now), qt.IsNil)

    rep, _ := json.Marshal(SupportReplyEvent{TicketID: 9, ReplyID: 2, StaffID: 1, RepliedAt: "2026-03-01T09:05:00Z"})
    c.Assert(appendActivity(dir, SupportReplyQueue, rep, now), qt.IsNil)

    b, err := os.ReadFile(filepath.Join(dir, "activity.log"))
    c.Assert(err, qt.IsNil)
    lines := strings.Split(strings.TrimSpace(string(b)), "\n")
    c.Assert(lines, qt.HasLen, 2)
    c.Assert(lines[0], qt.Equals, `[2026-03-01T09:00:00Z] Footprint recorded | footprint_id=7 | user_id=3 | period=2026-03 | transport="bus" | total=42.50 | category=Baja`)
    c.Assert(lines[1], qt.Equals, `[2026-03-01T09:05:00Z] Support reply | ticket_id=9 | reply_id=2 | staff_id=1`)
}

func TestAppendActivityRejectsGarbage(t *testing.T) {
    c := qt.New(t)
    dir := c.TempDir()
    now := time.Now()

    c.Assert(appendActivity(dir, FootprintRecordedQueue, []byte("{"), now), qt.ErrorMatches, `unmarshal: .*`)
    c.Assert(appendActivity(dir, "other", []byte("{}"), now), qt.ErrorMatches, `unexpected queue "other" .*`)
}
