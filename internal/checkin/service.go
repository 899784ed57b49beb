package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/checkin/internal/export"
	"github.com/gestaozabele/checkin/internal/metrics"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/service"
	"github.com/gestaozabele/checkin/internal/turma"
	"github.com/gestaozabele/checkin/internal/util"
)

// Store descreve a persistência usada pelo serviço.
type Store interface {
	Exists(ctx context.Context, userID, turmaID uuid.UUID, date time.Time) (bool, error)
	Create(ctx context.Context, c Checkin) (Checkin, error)
	Get(ctx context.Context, id uuid.UUID) (Checkin, error)
	ListByTurma(ctx context.Context, turmaID uuid.UUID) ([]Checkin, error)
	ListCreatedBetween(ctx context.Context, turmaID *uuid.UUID, from, to time.Time) ([]Checkin, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Checkin, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Checkin, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type turmaLookup interface {
	Get(ctx context.Context, id uuid.UUID) (turma.Turma, error)
}

type userLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
}

// Service contém as regras do registro de presença.
type Service struct {
	store  Store
	turmas turmaLookup
	users  userLookup
	loc    *time.Location
	now    func() time.Time
}

// NewService cria o serviço; loc define o "hoje" usado em datas padrão e na listagem.
func NewService(store Store, turmas turmaLookup, users userLookup, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, turmas: turmas, users: users, loc: loc, now: time.Now}
}

// Create registra presença. Não administradores só fazem checkin de si mesmos.
func (s *Service) Create(ctx context.Context, actor service.Actor, in CreateInput) (Checkin, error) {
	fields := map[string]string{}

	turmaID, err := uuid.Parse(strings.TrimSpace(in.TurmaID))
	if err != nil {
		fields["turma_id"] = "obrigatório"
	}

	userID := actor.ID
	if raw := strings.TrimSpace(in.UserID); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			fields["user_id"] = "inválido"
		}
	}

	date := util.Today(s.now(), s.loc)
	if raw := strings.TrimSpace(in.Date); raw != "" {
		if date, err = util.ParseDate(raw); err != nil {
			fields["date"] = "use o formato YYYY-MM-DD"
		}
	}

	status := StatusPending
	if strings.TrimSpace(in.Status) != "" {
		var ok bool
		if status, ok = ParseStatus(in.Status); !ok {
			fields["status"] = "deve ser PENDENTE, CONFIRMADO ou CANCELADO"
		}
	}

	if len(fields) > 0 {
		return Checkin{}, &ValidationError{Message: "dados do checkin inválidos", Fields: fields}
	}
	if err := service.EnsureSelfOrAdmin(actor, userID); err != nil {
		return Checkin{}, err
	}

	t, err := s.turmas.Get(ctx, turmaID)
	if err != nil {
		if errors.Is(err, turma.ErrNotFound) {
			return Checkin{}, ErrTurmaNotFound
		}
		return Checkin{}, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Checkin{}, ErrUserNotFound
		}
		return Checkin{}, err
	}

	exists, err := s.store.Exists(ctx, userID, turmaID, date)
	if err != nil {
		return Checkin{}, err
	}
	if exists {
		metrics.Checkins.WithLabelValues("conflict").Inc()
		return Checkin{}, ErrConflict
	}

	created, err := s.store.Create(ctx, Checkin{
		UserID:    userID,
		TurmaID:   turmaID,
		TurmaName: t.Name,
		Name:      user.Name,
		Date:      date.Format(util.DateLayout),
		Status:    status,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.Checkins.WithLabelValues("conflict").Inc()
		}
		return Checkin{}, err
	}

	metrics.Checkins.WithLabelValues("created").Inc()
	log.Info().Str("checkin_id", created.ID.String()).Str("turma_id", turmaID.String()).Str("user_id", userID.String()).Msg("checkin registrado")
	return created, nil
}

// List aplica a janela de datas conforme o tipo da turma; sem turma lista os checkins de hoje.
func (s *Service) List(ctx context.Context, turmaID *uuid.UUID) ([]Checkin, error) {
	checkins, _, err := s.listWindow(ctx, turmaID)
	return checkins, err
}

// listWindow aplica a janela da listagem e devolve também a turma filtrada,
// nil quando não há filtro.
func (s *Service) listWindow(ctx context.Context, turmaID *uuid.UUID) ([]Checkin, *turma.Turma, error) {
	kind := turma.KindRecurring
	var filtered *turma.Turma
	if turmaID != nil {
		t, err := s.turmas.Get(ctx, *turmaID)
		if err != nil {
			if errors.Is(err, turma.ErrNotFound) {
				return nil, nil, ErrTurmaNotFound
			}
			return nil, nil, err
		}
		kind = t.Kind
		filtered = &t
	}

	w := WindowFor(kind, s.now(), s.loc)
	var (
		checkins []Checkin
		err      error
	)
	if w.All {
		checkins, err = s.store.ListByTurma(ctx, *turmaID)
	} else {
		checkins, err = s.store.ListCreatedBetween(ctx, turmaID, w.From, w.To)
	}
	if err != nil {
		return nil, nil, err
	}
	return checkins, filtered, nil
}

// ListByUser devolve o histórico do usuário para ele mesmo ou administradores.
func (s *Service) ListByUser(ctx context.Context, actor service.Actor, userID uuid.UUID) ([]Checkin, error) {
	if err := service.EnsureSelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, userID)
}

// UpdateStatus altera o status de um checkin.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, raw string) (Checkin, error) {
	if strings.TrimSpace(raw) == "" {
		return Checkin{}, &ValidationError{Message: "status obrigatório", Fields: map[string]string{"status": "obrigatório"}}
	}
	status, ok := ParseStatus(raw)
	if !ok {
		return Checkin{}, &ValidationError{Message: "status inválido", Fields: map[string]string{"status": "deve ser PENDENTE, CONFIRMADO ou CANCELADO"}}
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// Delete remove o checkin; permitido ao dono ou a administradores.
func (s *Service) Delete(ctx context.Context, actor service.Actor, id uuid.UUID) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := service.EnsureSelfOrAdmin(actor, c.UserID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// Export gera planilha xlsx com a mesma janela da listagem.
func (s *Service) Export(ctx context.Context, turmaID *uuid.UUID) ([]byte, string, error) {
	checkins, filtered, err := s.listWindow(ctx, turmaID)
	if err != nil {
		return nil, "", err
	}

	title := "Checkins"
	if filtered != nil {
		title = filtered.Name
	}

	rows := make([][]string, 0, len(checkins))
	for _, c := range checkins {
		rows = append(rows, []string{
			c.Name,
			c.TurmaName,
			c.Date,
			string(c.Status),
			c.CreatedAt.In(s.loc).Format("02/01/2006 15:04"),
		})
	}

	f, err := export.NewWorkbook([]export.SheetSpec{{
		Title:  title,
		Header: []string{"Nome", "Turma", "Data", "Status", "Registrado em"},
		Rows:   rows,
	}})
	if err != nil {
		return nil, "", fmt.Errorf("planilha: %w", err)
	}
	defer f.Close()

	data, err := export.Bytes(f)
	if err != nil {
		return nil, "", fmt.Errorf("planilha: %w", err)
	}

	today := util.Today(s.now(), s.loc).Format(util.DateLayout)
	return data, export.FileName("checkins", title, today), nil
}
