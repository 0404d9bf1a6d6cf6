package model

import "time"

// TicketStatus enumerates soporte_mensajes.estado.
type TicketStatus string

const (
    StatusPending    TicketStatus = "pendiente"
    StatusInProgress TicketStatus = "en_proceso"
    StatusResolved   TicketStatus = "resuelto"
    StatusClosed     TicketStatus = "cerrado"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
    switch s {
    case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
        return true
    }
    return false
}

// TicketPriority enumerates soporte_mensajes.prioridad.
type TicketPriority string

const (
    PriorityLow    TicketPriority = "baja"
    PriorityMedium TicketPriority = "media"
    PriorityHigh   TicketPriority = "alta"
    PriorityUrgent TicketPriority = "urgente"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
    switch p {
    case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
        return true
    }
    return false
}

// SupportCategory is a row in `soporte_categorias`.
type SupportCategory struct {
    ID          uint64 `json:"id"`
    Name        string `json:"nombre"`
    Description string `json:"descripcion"`
    Icon        string `json:"icono"`
    Active      bool   `json:"activo"`
}

// Ticket is a row in `soporte_mensajes` with its joined category and
// author data.  Some fields are only filled by the admin queries.
type Ticket struct {
    ID           uint64         `json:"id"`
    UserID       uint64         `json:"usuario_id"`
    CategoryID   uint64         `json:"categoria_id"`
    Subject      string         `json:"asunto"`
    Body         string         `json:"mensaje"`
    Status       TicketStatus   `json:"estado"`
    Priority     TicketPriority `json:"prioridad"`
    CreatedAt    time.Time      `json:"fecha_creacion"`
    UpdatedAt    time.Time      `json:"fecha_actualizacion"`
    CategoryName string         `json:"categoria_nombre"`
    CategoryIcon string         `json:"categoria_icono"`
    AuthorName   string         `json:"nombre_usuario,omitempty"`
    AuthorEmail  string         `json:"correo_usuario,omitempty"`
    ReplyCount   *int64         `json:"total_respuestas,omitempty"`

    // First admin reply, only set on the owner's detail view.
    Reply       string     `json:"respuesta,omitempty"`
    RepliedBy   string     `json:"respondido_por,omitempty"`
    RepliedAt   *time.Time `json:"fecha_respuesta,omitempty"`
}

// TicketReply is a row in `soporte_respuestas`.
type TicketReply struct {
    ID         uint64    `json:"id"`
    TicketID   uint64    `json:"mensaje_id"`
    UserID     *uint64   `json:"usuario_id"`
    Body       string    `json:"respuesta"`
    IsAdmin    bool      `json:"es_admin"`
    CreatedAt  time.Time `json:"fecha_creacion"`
    AuthorName *string   `json:"nombre_usuario"`
}

// TicketStats counts tickets per status.
type TicketStats struct {
    Total      int64 `json:"total_mensajes"`
    Pending    int64 `json:"pendientes"`
    InProgress int64 `json:"en_proceso"`
    Resolved   int64 `json:"resueltos"`
    Closed     int64 `json:"cerrados"`
}
