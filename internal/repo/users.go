package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/checkin/internal/db"
	"github.com/gestaozabele/checkin/internal/util"
)

const dbTimeout = 3 * time.Second

const userColumns = `id, email, name, password_hash, is_admin, phone, monthly_fee, created_at, updated_at`

// Queries concentra o acesso à tabela de usuários.
type Queries struct {
	db *pgxpool.Pool
}

// New cria o repositório sobre o pool compartilhado.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{db: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.Phone, &u.MonthlyFee, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetUserByID busca usuário pelo id.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail busca usuário pelo e-mail sem diferenciar maiúsculas.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

// FindUserByIdentifier compara o identificador normalizado com as chaves gravadas
// por util.NormalizeIdentifier. Correspondência por e-mail tem precedência sobre nome.
func (q *Queries) FindUserByIdentifier(ctx context.Context, normalized string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanUser(q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email_key = $1 OR name_key = $1
		ORDER BY (email_key = $1) DESC, created_at
		LIMIT 1`, normalized))
}

// ExistsUser verifica existência por e-mail ou nome, sem diferenciar maiúsculas.
func (q *Queries) ExistsUser(ctx context.Context, field LookupField, value string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var sql string
	switch field {
	case LookupEmail:
		sql = `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`
	case LookupName:
		sql = `SELECT EXISTS(SELECT 1 FROM users WHERE lower(name) = lower($1))`
	default:
		return false, fmt.Errorf("campo de busca não suportado: %s", field)
	}

	var exists bool
	if err := q.db.QueryRow(ctx, sql, strings.TrimSpace(value)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateUser insere usuário; e-mail duplicado vira ErrConflict.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(arg.Email))
	name := strings.TrimSpace(arg.Name)
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (email, name, email_key, name_key, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		email, name, util.NormalizeIdentifier(email), util.NormalizeIdentifier(name), arg.PasswordHash, arg.IsAdmin)

	user, err := scanUser(row)
	if IsUniqueViolation(err) {
		return User{}, ErrConflict
	}
	return user, err
}

// ListUsers retorna todos os usuários ordenados por nome.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := q.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY lower(name), created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser aplica apenas as colunas presentes no patch.
func (q *Queries) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (User, error) {
	if patch.Empty() {
		return q.GetUserByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		set("name", name)
		set("name_key", util.NormalizeIdentifier(name))
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		set("email", email)
		set("email_key", util.NormalizeIdentifier(email))
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.MonthlyFee != nil {
		set("monthly_fee", *patch.MonthlyFee)
	}
	if patch.IsAdmin != nil {
		set("is_admin", *patch.IsAdmin)
	}
	args = append(args, id)

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	sql := fmt.Sprintf(`UPDATE users SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(q.db.QueryRow(ctx, sql, args...))
	if IsUniqueViolation(err) {
		return User{}, ErrConflict
	}
	return user, err
}

// UpdatePassword grava novo hash.
func (q *Queries) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := q.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAdminByEmail promove ou rebaixa um usuário.
func (q *Queries) SetAdminByEmail(ctx context.Context, email string, admin bool) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanUser(q.db.QueryRow(ctx, `
		UPDATE users SET is_admin = $2, updated_at = now()
		WHERE lower(email) = lower($1)
		RETURNING `+userColumns, strings.TrimSpace(email), admin))
}

// DeleteUser remove os checkins do usuário e depois a conta, na mesma transação.
func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, q.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM checkins WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("delete checkins: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
