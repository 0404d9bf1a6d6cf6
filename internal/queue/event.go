// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names double as routing keys on the default exchange.
const (
    FootprintRecordedQueue = "footprint.recorded"
    SupportReplyQueue      = "support.reply"
)

// FootprintRecordedEvent is published once a monthly footprint and its
// profile link are committed.
type FootprintRecordedEvent struct {
    FootprintID    uint64  `json:"footprint_id"`
    UserID         uint64  `json:"user_id"`
    Period         string  `json:"period"`
    Transport      string  `json:"transport"`
    TotalEmissions float64 `json:"total_emissions"`
    Category       string  `json:"category"`
    RecordedAt     string  `json:"recorded_at"`
}

// SupportReplyEvent is published when staff answer a support ticket.
type SupportReplyEvent struct {
    TicketID  uint64 `json:"ticket_id"`
    ReplyID   uint64 `json:"reply_id"`
    StaffID   uint64 `json:"staff_id"`
    RepliedAt string `json:"replied_at"`
}
