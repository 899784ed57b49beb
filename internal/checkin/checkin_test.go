package checkin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/gestaozabele/checkin/internal/http/middleware"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/service"
	"github.com/gestaozabele/checkin/internal/turma"
)

type stubStore struct {
	rows map[uuid.UUID]Checkin
	now  func() time.Time
}

func newStubStore(now func() time.Time) *stubStore {
	return &stubStore{rows: map[uuid.UUID]Checkin{}, now: now}
}

func (s *stubStore) add(c Checkin) Checkin {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.rows[c.ID] = c
	return c
}

func (s *stubStore) Exists(ctx context.Context, userID, turmaID uuid.UUID, date time.Time) (bool, error) {
	for _, c := range s.rows {
		if c.UserID == userID && c.TurmaID == turmaID && c.Date == date.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) Create(ctx context.Context, c Checkin) (Checkin, error) {
	c.CreatedAt = s.now()
	return s.add(c), nil
}

func (s *stubStore) Get(ctx context.Context, id uuid.UUID) (Checkin, error) {
	if c, ok := s.rows[id]; ok {
		return c, nil
	}
	return Checkin{}, ErrNotFound
}

func (s *stubStore) filter(keep func(Checkin) bool) []Checkin {
	out := make([]Checkin, 0)
	for _, c := range s.rows {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *stubStore) ListByTurma(ctx context.Context, turmaID uuid.UUID) ([]Checkin, error) {
	return s.filter(func(c Checkin) bool { return c.TurmaID == turmaID }), nil
}

func (s *stubStore) ListCreatedBetween(ctx context.Context, turmaID *uuid.UUID, from, to time.Time) ([]Checkin, error) {
	return s.filter(func(c Checkin) bool {
		if turmaID != nil && c.TurmaID != *turmaID {
			return false
		}
		return !c.CreatedAt.Before(from) && c.CreatedAt.Before(to)
	}), nil
}

func (s *stubStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Checkin, error) {
	out := s.filter(func(c Checkin) bool { return c.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Checkin, error) {
	c, ok := s.rows[id]
	if !ok {
		return Checkin{}, ErrNotFound
	}
	c.Status = status
	s.rows[id] = c
	return c, nil
}

func (s *stubStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

type stubTurmas map[uuid.UUID]turma.Turma

func (s stubTurmas) Get(ctx context.Context, id uuid.UUID) (turma.Turma, error) {
	if t, ok := s[id]; ok {
		return t, nil
	}
	return turma.Turma{}, turma.ErrNotFound
}

type countingTurmas struct {
	stubTurmas
	gets int
}

func (s *countingTurmas) Get(ctx context.Context, id uuid.UUID) (turma.Turma, error) {
	s.gets++
	return s.stubTurmas.Get(ctx, id)
}

type stubUsers map[uuid.UUID]repo.User

func (s stubUsers) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return repo.User{}, repo.ErrNotFound
}

type fixture struct {
	svc       *Service
	store     *stubStore
	single    turma.Turma
	recurring turma.Turma
	member    repo.User
	other     repo.User
	now       time.Time
	loc       *time.Location
}

func newFixture() *fixture {
	loc := time.FixedZone("BRT", -3*3600)
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, loc)
	date := "2024-05-10"

	f := &fixture{
		single:    turma.Turma{ID: uuid.New(), Name: "Workshop", Kind: turma.KindSingleDate, Date: &date},
		recurring: turma.Turma{ID: uuid.New(), Name: "Yoga", Kind: turma.KindRecurring, Weekdays: []int{1, 3, 5}},
		member:    repo.User{ID: uuid.New(), Name: "Ana"},
		other:     repo.User{ID: uuid.New(), Name: "Beto"},
		now:       now,
		loc:       loc,
	}
	f.store = newStubStore(func() time.Time { return f.now })
	f.svc = NewService(
		f.store,
		stubTurmas{f.single.ID: f.single, f.recurring.ID: f.recurring},
		stubUsers{f.member.ID: f.member, f.other.ID: f.other},
		loc,
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestWindowFor(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	now := time.Date(2024, 5, 10, 1, 0, 0, 0, loc)

	if w := WindowFor(turma.KindSingleDate, now, loc); !w.All {
		t.Fatal("single-date turmas must show full history")
	}

	w := WindowFor(turma.KindRecurring, now, loc)
	if w.All {
		t.Fatal("recurring turmas must be windowed")
	}
	if !w.From.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, loc)) || w.To.Sub(w.From) != 24*time.Hour {
		t.Fatalf("unexpected window %s - %s", w.From, w.To)
	}
}

func TestListAppliesDateWindow(t *testing.T) {
	f := newFixture()
	yesterday := f.now.Add(-24 * time.Hour)
	ctx := context.Background()

	f.store.add(Checkin{UserID: f.member.ID, TurmaID: f.single.ID, Date: "2024-05-09", CreatedAt: yesterday})
	f.store.add(Checkin{UserID: f.other.ID, TurmaID: f.single.ID, Date: "2024-05-10", CreatedAt: f.now})
	f.store.add(Checkin{UserID: f.member.ID, TurmaID: f.recurring.ID, Date: "2024-05-09", CreatedAt: yesterday})
	f.store.add(Checkin{UserID: f.other.ID, TurmaID: f.recurring.ID, Date: "2024-05-10", CreatedAt: f.now})

	single, err := f.svc.List(ctx, &f.single.ID)
	if err != nil {
		t.Fatalf("list single: %v", err)
	}
	if len(single) != 2 {
		t.Fatalf("single-date turma should return all history, got %d", len(single))
	}

	recurring, err := f.svc.List(ctx, &f.recurring.ID)
	if err != nil {
		t.Fatalf("list recurring: %v", err)
	}
	if len(recurring) != 1 || recurring[0].UserID != f.other.ID {
		t.Fatalf("recurring turma should return only today's rows, got %+v", recurring)
	}

	all, err := f.svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listing without turma should return today's rows across turmas, got %d", len(all))
	}

	missing := uuid.New()
	if _, err := f.svc.List(ctx, &missing); !errors.Is(err, ErrTurmaNotFound) {
		t.Fatalf("expected ErrTurmaNotFound, got %v", err)
	}
}

func TestExportResolvesTurmaOnce(t *testing.T) {
	f := newFixture()
	turmas := &countingTurmas{stubTurmas: stubTurmas{f.single.ID: f.single}}
	f.svc.turmas = turmas
	f.store.add(Checkin{UserID: f.member.ID, TurmaID: f.single.ID, Name: "Ana", TurmaName: "Workshop", Date: "2024-05-10", CreatedAt: f.now})

	data, name, err := f.svc.Export(context.Background(), &f.single.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected workbook bytes")
	}
	if name != "checkins - Workshop - 2024-05-10.xlsx" {
		t.Fatalf("unexpected file name %q", name)
	}
	if turmas.gets != 1 {
		t.Fatalf("expected a single turma lookup, got %d", turmas.gets)
	}
}

func TestCreateDefaultsAndDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	actor := service.Actor{ID: f.member.ID}

	c, err := f.svc.Create(ctx, actor, CreateInput{TurmaID: f.recurring.ID.String()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Date != "2024-05-10" || c.Status != StatusPending || c.Name != "Ana" || c.TurmaName != "Yoga" {
		t.Fatalf("unexpected defaults %+v", c)
	}

	_, err = f.svc.Create(ctx, actor, CreateInput{TurmaID: f.recurring.ID.String(), Date: "2024-05-10"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := f.svc.Create(ctx, actor, CreateInput{TurmaID: f.recurring.ID.String(), Date: "2024-05-11"}); err != nil {
		t.Fatalf("different date should be accepted: %v", err)
	}
}

func TestCreateRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	member := service.Actor{ID: f.member.ID}
	admin := service.Actor{ID: uuid.New(), Admin: true}

	var verr *ValidationError
	if _, err := f.svc.Create(ctx, member, CreateInput{TurmaID: f.single.ID.String(), Status: "TALVEZ"}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for status, got %v", err)
	}
	if _, err := f.svc.Create(ctx, member, CreateInput{}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for missing turma, got %v", err)
	}
	if _, err := f.svc.Create(ctx, member, CreateInput{TurmaID: uuid.NewString()}); !errors.Is(err, ErrTurmaNotFound) {
		t.Fatalf("expected ErrTurmaNotFound, got %v", err)
	}
	if _, err := f.svc.Create(ctx, member, CreateInput{TurmaID: f.single.ID.String(), UserID: f.other.ID.String()}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	c, err := f.svc.Create(ctx, admin, CreateInput{TurmaID: f.single.ID.String(), UserID: f.other.ID.String(), Status: "confirmado"})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if c.UserID != f.other.ID || c.Status != StatusConfirmed {
		t.Fatalf("unexpected checkin %+v", c)
	}
}

func TestUpdateStatusAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.store.add(Checkin{UserID: f.member.ID, TurmaID: f.single.ID, Status: StatusPending, CreatedAt: f.now})

	var verr *ValidationError
	if _, err := f.svc.UpdateStatus(ctx, c.ID, ""); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, uuid.New(), "CONFIRMADO"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	updated, err := f.svc.UpdateStatus(ctx, c.ID, "CONFIRMADO")
	if err != nil || updated.Status != StatusConfirmed {
		t.Fatalf("expected confirmed, got %+v %v", updated, err)
	}

	if err := f.svc.Delete(ctx, service.Actor{ID: f.other.ID}, c.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, service.Actor{ID: f.member.ID}, c.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.svc.Delete(ctx, service.Actor{ID: f.member.ID}, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCheckinHandlers(t *testing.T) {
	f := newFixture()
	handler := NewHandler(f.svc)
	existing := f.store.add(Checkin{UserID: f.member.ID, TurmaID: f.single.ID, Date: "2024-05-10", Status: StatusPending, CreatedAt: f.now})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		admin  bool
		status int
	}{
		{"create", http.MethodPost, "/checkin", map[string]any{"turma_id": f.recurring.ID}, false, http.StatusCreated},
		{"duplicate", http.MethodPost, "/checkin", map[string]any{"turma_id": f.single.ID, "date": "2024-05-10"}, false, http.StatusConflict},
		{"bad json", http.MethodPost, "/checkin", "x", false, http.StatusBadRequest},
		{"list", http.MethodGet, "/checkins?turma_id=" + f.single.ID.String(), nil, false, http.StatusOK},
		{"list unknown turma", http.MethodGet, "/checkins?turma_id=" + uuid.NewString(), nil, false, http.StatusNotFound},
		{"list by self", http.MethodGet, "/checkins/user/" + f.member.ID.String(), nil, false, http.StatusOK},
		{"list by other", http.MethodGet, "/checkins/user/" + f.other.ID.String(), nil, false, http.StatusForbidden},
		{"update by member", http.MethodPut, "/checkins/" + existing.ID.String(), map[string]any{"status": "CONFIRMADO"}, false, http.StatusForbidden},
		{"update missing status", http.MethodPut, "/checkins/" + existing.ID.String(), map[string]any{}, true, http.StatusBadRequest},
		{"update", http.MethodPut, "/checkins/" + existing.ID.String(), map[string]any{"status": "CONFIRMADO"}, true, http.StatusOK},
		{"update missing", http.MethodPut, "/checkins/" + uuid.NewString(), map[string]any{"status": "CONFIRMADO"}, true, http.StatusNotFound},
		{"export by member", http.MethodGet, "/checkins/export", nil, false, http.StatusForbidden},
		{"export", http.MethodGet, "/checkins/export?turma_id=" + f.single.ID.String(), nil, true, http.StatusOK},
		{"delete missing", http.MethodDelete, "/checkins/" + uuid.NewString(), nil, true, http.StatusNotFound},
		{"delete", http.MethodDelete, "/checkins/" + existing.ID.String(), nil, false, http.StatusOK},
	}

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			req = req.WithContext(httpmiddleware.WithIdentity(req.Context(), f.member.ID.String(), tc.admin))
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.name == "export" && rec.Header().Get("Content-Type") != xlsxContentType {
				t.Fatalf("unexpected content type %s", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func requestBody(body any) *bytes.Buffer {
	switch v := body.(type) {
	case nil:
		return bytes.NewBuffer(nil)
	case string:
		return bytes.NewBufferString(v)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}
