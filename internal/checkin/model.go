package checkin

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica checkin inexistente.
	ErrNotFound = errors.New("checkin não encontrado")
	// ErrTurmaNotFound indica turma inexistente.
	ErrTurmaNotFound = errors.New("turma não encontrada")
	// ErrUserNotFound indica usuário inexistente.
	ErrUserNotFound = errors.New("usuário não encontrado")
	// ErrConflict indica checkin repetido para usuário, turma e data.
	ErrConflict = errors.New("checkin já realizado para esta turma nesta data")
)

// Status acompanha a confirmação de presença.
type Status string

const (
	StatusPending   Status = "PENDENTE"
	StatusConfirmed Status = "CONFIRMADO"
	StatusCanceled  Status = "CANCELADO"
)

// ParseStatus normaliza caixa e espaços; devolve false para valores fora da lista.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusPending, StatusConfirmed, StatusCanceled:
		return s, true
	}
	return "", false
}

// Checkin registra a presença de um usuário numa turma em uma data.
type Checkin struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TurmaID   uuid.UUID `json:"turma_id"`
	TurmaName string    `json:"turma_name"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput é o payload de POST /checkin. user_id é opcional e assume o próprio usuário.
type CreateInput struct {
	UserID  string `json:"user_id"`
	TurmaID string `json:"turma_id"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

// ValidationError lista problemas encontrados no payload.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}
