package models

import (
	"errors"
	"time"
)

// ErrAmbiguousName is returned by name lookups when more than one active user has the name.
var ErrAmbiguousName = errors.New("more than one active user has this name")

// Permission represents the access level of a team member.
type Permission string

const (
	PermissionAdmin  Permission = "admin"
	PermissionEditor Permission = "editor"
	PermissionViewer Permission = "viewer"
)

// CanWrite reports whether the permission allows creating agenda items.
func (p Permission) CanWrite() bool {
	return p == PermissionAdmin || p == PermissionEditor
}

// User is a member of the team roster.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"nome"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	JobTitle     string     `db:"job_title" json:"cargo"`
	Department   string     `db:"department" json:"departamento"`
	Permission   Permission `db:"permission" json:"permissoes"`
	Active       bool       `db:"active" json:"ativo"`
	LastLogin    *time.Time `db:"last_login" json:"ultimoAcesso,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"criadoEm"`
	UpdatedAt    time.Time  `db:"updated_at" json:"atualizadoEm"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Permission *Permission
	Department string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Department groups users; team-scoped items are shared inside a department.
type Department struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"nome"`
	Description string    `db:"description" json:"descricao"`
	Active      bool      `db:"active" json:"ativo"`
	CreatedAt   time.Time `db:"created_at" json:"criadoEm"`
	UpdatedAt   time.Time `db:"updated_at" json:"atualizadoEm"`
}
