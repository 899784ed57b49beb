package service

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
)

// Actor identifica quem faz a requisição.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

// CanAccess permite acesso ao próprio registro ou a administradores.
func (a Actor) CanAccess(owner uuid.UUID) bool {
	return a.Admin || (a.ID != uuid.Nil && a.ID == owner)
}

// EnsureSelfOrAdmin devolve ErrForbidden quando o ator não é dono nem administrador.
func EnsureSelfOrAdmin(actor Actor, owner uuid.UUID) error {
	if !actor.CanAccess(owner) {
		return ErrForbidden
	}
	return nil
}

// EnsureAdmin devolve ErrForbidden para não administradores.
func EnsureAdmin(actor Actor) error {
	if !actor.Admin {
		return ErrForbidden
	}
	return nil
}
