package model

import (
    "fmt"
    "strings"
    "time"
)

// Role is the closed set of roles a user can hold.  Values match the
// `roles.nombre` column and the `rol` claim carried by session tokens.
type Role string

const (
    RoleAdmin     Role = "admin"
    RoleModerator Role = "moderador"
    RoleUser      Role = "usuario"
)

// DefaultRole is assigned at registration when no role is requested.
const DefaultRole = RoleUser

// ParseRole validates a role name coming from storage or from a token.
// An empty name maps to DefaultRole, mirroring users whose role row is
// missing.  Any other unknown name is rejected.
func ParseRole(name string) (Role, error) {
    switch r := Role(strings.ToLower(strings.TrimSpace(name))); r {
    case RoleAdmin, RoleModerator, RoleUser:
        return r, nil
    case "":
        return DefaultRole, nil
    default:
        return "", fmt.Errorf("unknown role %q", name)
    }
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    return r == RoleAdmin || r == RoleModerator || r == RoleUser
}

// User represents a row in the `usuarios` table joined with its role.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique handle (usuarios.usuario).
//  Email        – unique email address (usuarios.correo).
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table.
//  Role         – parsed role name from the joined roles row.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64
    Username     string
    Email        string
    PasswordHash string
    RoleID       uint8
    Role         Role
    CreatedAt    time.Time
}

// RoleRecord represents a row in the `roles` table.
type RoleRecord struct {
    ID          uint8  `json:"id"`
    Name        string `json:"nombre"`
    Description string `json:"descripcion"`
}

// UserSummary is the admin listing view of a user.
type UserSummary struct {
    ID        uint64    `json:"id"`
    Username  string    `json:"usuario"`
    Email     string    `json:"correo"`
    Role      Role      `json:"rol"`
    CreatedAt time.Time `json:"fecha_creacion,omitempty"`
}
