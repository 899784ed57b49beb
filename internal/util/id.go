package util

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID sinaliza identificador fora do formato UUID.
var ErrInvalidID = errors.New("identificador inválido")

// ParseID converte parâmetros de rota em UUID.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}
