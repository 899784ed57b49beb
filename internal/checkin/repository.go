package checkin

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

const selectColumns = `
	SELECT c.id, c.user_id, c.turma_id, t.name, c.name, c.checkin_date, c.status, c.created_at
	FROM checkins c
	JOIN turmas t ON t.id = c.turma_id`

// Repository fornece acesso à tabela de checkins.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanCheckin(row pgx.Row) (Checkin, error) {
	var (
		c    Checkin
		date time.Time
	)
	err := row.Scan(&c.ID, &c.UserID, &c.TurmaID, &c.TurmaName, &c.Name, &date, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkin{}, ErrNotFound
	}
	if err != nil {
		return Checkin{}, err
	}
	c.Date = date.Format("2006-01-02")
	return c, nil
}

func collect(rows pgx.Rows) ([]Checkin, error) {
	defer rows.Close()

	out := make([]Checkin, 0)
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Exists verifica checkin prévio para a combinação usuário, turma e data.
func (r *Repository) Exists(ctx context.Context, userID, turmaID uuid.UUID, date time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM checkins WHERE user_id = $1 AND turma_id = $2 AND checkin_date = $3::date)
	`, userID, turmaID, date.Format("2006-01-02")).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, c Checkin) (Checkin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO checkins (user_id, turma_id, name, checkin_date, status)
		VALUES ($1, $2, $3, $4::date, $5)
		RETURNING id
	`, c.UserID, c.TurmaID, c.Name, c.Date, string(c.Status)).Scan(&id)
	if repo.IsUniqueViolation(err) {
		return Checkin{}, ErrConflict
	}
	if err != nil {
		return Checkin{}, err
	}
	return r.Get(ctx, id)
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Checkin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanCheckin(r.db.QueryRow(ctx, selectColumns+` WHERE c.id = $1`, id))
}

// ListByTurma devolve todo o histórico da turma.
func (r *Repository) ListByTurma(ctx context.Context, turmaID uuid.UUID) ([]Checkin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, selectColumns+` WHERE c.turma_id = $1 ORDER BY c.checkin_date, c.created_at`, turmaID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListCreatedBetween filtra por created_at em [from, to); turmaID nil abrange todas as turmas.
func (r *Repository) ListCreatedBetween(ctx context.Context, turmaID *uuid.UUID, from, to time.Time) ([]Checkin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, selectColumns+`
		WHERE c.created_at >= $1 AND c.created_at < $2
		  AND ($3::uuid IS NULL OR c.turma_id = $3)
		ORDER BY c.created_at
	`, from, to, turmaID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByUser devolve os checkins do usuário, mais recentes primeiro.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Checkin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, selectColumns+` WHERE c.user_id = $1 ORDER BY c.checkin_date DESC, c.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Checkin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE checkins SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return Checkin{}, err
	}
	if tag.RowsAffected() == 0 {
		return Checkin{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM checkins WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
