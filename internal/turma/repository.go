package turma

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/checkin/internal/repo"
)

const dbTimeout = 3 * time.Second

const columns = `id, name, schedule_time, kind, date, weekdays, created_at, updated_at`

// Repository fornece acesso à tabela de turmas.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanTurma(row pgx.Row) (Turma, error) {
	var (
		t    Turma
		date *time.Time
		days []int16
	)
	err := row.Scan(&t.ID, &t.Name, &t.ScheduleTime, &t.Kind, &date, &days, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Turma{}, ErrNotFound
	}
	if err != nil {
		return Turma{}, err
	}
	if date != nil {
		s := date.Format("2006-01-02")
		t.Date = &s
	}
	t.Weekdays = make([]int, 0, len(days))
	for _, d := range days {
		t.Weekdays = append(t.Weekdays, int(d))
	}
	return t, nil
}

func weekdayArgs(days []int) []int16 {
	out := make([]int16, 0, len(days))
	for _, d := range days {
		out = append(out, int16(d))
	}
	return out
}

func (r *Repository) List(ctx context.Context) ([]Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM turmas ORDER BY lower(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turmas := make([]Turma, 0)
	for rows.Next() {
		t, err := scanTurma(rows)
		if err != nil {
			return nil, err
		}
		turmas = append(turmas, t)
	}
	return turmas, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanTurma(r.db.QueryRow(ctx, `SELECT `+columns+` FROM turmas WHERE id = $1`, id))
}

// NameTaken verifica nome repetido sem diferenciar maiúsculas, ignorando a própria turma na edição.
func (r *Repository) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var taken bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM turmas WHERE lower(name) = lower($1) AND id <> $2)
	`, name, exclude).Scan(&taken)
	return taken, err
}

func (r *Repository) Create(ctx context.Context, t Turma) (Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	created, err := scanTurma(r.db.QueryRow(ctx, `
		INSERT INTO turmas (name, schedule_time, kind, date, weekdays)
		VALUES ($1, $2, $3, $4::date, $5)
		RETURNING `+columns,
		t.Name, t.ScheduleTime, string(t.Kind), t.Date, weekdayArgs(t.Weekdays)))
	if repo.IsUniqueViolation(err) {
		return Turma{}, ErrConflict
	}
	return created, err
}

func (r *Repository) Update(ctx context.Context, t Turma) (Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := scanTurma(r.db.QueryRow(ctx, `
		UPDATE turmas
		SET name = $2, schedule_time = $3, kind = $4, date = $5::date, weekdays = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+columns,
		t.ID, t.Name, t.ScheduleTime, string(t.Kind), t.Date, weekdayArgs(t.Weekdays)))
	if repo.IsUniqueViolation(err) {
		return Turma{}, ErrConflict
	}
	return updated, err
}

// Delete remove a turma; os checkins associados caem pela FK.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM turmas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
