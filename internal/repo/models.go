package repo

import (
	"time"

	"github.com/google/uuid"
)

// User representa conta de aluno ou administrador.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash *string
	IsAdmin      bool
	Phone        *string
	MonthlyFee   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserParams agrupa os campos de inserção.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash *string
	IsAdmin      bool
}

// UserPatch lista as colunas mutáveis; campos nil não são alterados.
type UserPatch struct {
	Name       *string
	Email      *string
	Phone      *string
	MonthlyFee *string
	IsAdmin    *bool
}

// Empty indica patch sem nenhuma alteração.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.MonthlyFee == nil && p.IsAdmin == nil
}

// LookupField restringe as colunas consultáveis pelo check-user.
type LookupField string

const (
	LookupEmail LookupField = "email"
	LookupName  LookupField = "name"
)
