package turma

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica turma inexistente.
	ErrNotFound = errors.New("turma não encontrada")
	// ErrConflict indica nome de turma já usado.
	ErrConflict = errors.New("já existe uma turma com este nome")
)

// Kind define a recorrência da turma.
type Kind string

const (
	KindSingleDate Kind = "single-date"
	KindRecurring  Kind = "recurring"
)

// ParseKind aceita os valores canônicos e os rótulos herdados ("Data unica", "Constante").
func ParseKind(raw string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "single-date", "data unica", "data única":
		return KindSingleDate, true
	case "recurring", "constante":
		return KindRecurring, true
	}
	return "", false
}

// Turma é uma aula avulsa ou um horário recorrente.
type Turma struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ScheduleTime string    `json:"schedule_time"`
	Kind         Kind      `json:"kind"`
	Date         *string   `json:"date"`
	Weekdays     []int     `json:"weekdays"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Input é o payload de criação e edição.
type Input struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"schedule_time"`
	Kind         string `json:"kind"`
	Date         string `json:"date"`
	Weekdays     []int  `json:"weekdays"`
}

// ValidationError lista problemas encontrados no payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "dados da turma inválidos"
}
