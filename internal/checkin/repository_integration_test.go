//go:build integration

package checkin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gestaozabele/checkin/internal/checkin"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/testutil/testdb"
	"github.com/gestaozabele/checkin/internal/turma"
)

func TestCheckinsAgainstPostgres(t *testing.T) {
	pool := testdb.Start(t)
	ctx := context.Background()

	user, err := repo.New(pool).CreateUser(ctx, repo.CreateUserParams{Email: "ana@example.com", Name: "Ana"})
	if err != nil {
		t.Fatalf("user: %v", err)
	}

	turmas := turma.NewRepository(pool)
	funcional, err := turmas.Create(ctx, turma.Turma{Name: "Funcional", ScheduleTime: "18:00", Kind: turma.KindRecurring, Weekdays: []int{1, 3}})
	if err != nil {
		t.Fatalf("turma: %v", err)
	}
	if _, err := turmas.Create(ctx, turma.Turma{Name: "funcional", ScheduleTime: "07:00", Kind: turma.KindRecurring, Weekdays: []int{2}}); !errors.Is(err, turma.ErrConflict) {
		t.Fatalf("expected turma name conflict, got %v", err)
	}

	checkins := checkin.NewRepository(pool)
	created, err := checkins.Create(ctx, checkin.Checkin{
		UserID: user.ID, TurmaID: funcional.ID, Name: user.Name, Date: "2024-05-13", Status: checkin.StatusPending,
	})
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if created.TurmaName != "Funcional" || created.Date != "2024-05-13" {
		t.Fatalf("unexpected checkin %+v", created)
	}

	_, err = checkins.Create(ctx, checkin.Checkin{
		UserID: user.ID, TurmaID: funcional.ID, Name: user.Name, Date: "2024-05-13", Status: checkin.StatusPending,
	})
	if !errors.Is(err, checkin.ErrConflict) {
		t.Fatalf("expected duplicate checkin conflict, got %v", err)
	}

	now := time.Now()
	listed, err := checkins.ListCreatedBetween(ctx, &funcional.ID, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 checkin, got %d", len(listed))
	}

	users := repo.New(pool)
	bia, err := users.CreateUser(ctx, repo.CreateUserParams{Email: "bia@example.com", Name: "Bia"})
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	var biaCheckins []checkin.Checkin
	for _, date := range []string{"2024-05-13", "2024-05-15"} {
		c, err := checkins.Create(ctx, checkin.Checkin{
			UserID: bia.ID, TurmaID: funcional.ID, Name: bia.Name, Date: date, Status: checkin.StatusConfirmed,
		})
		if err != nil {
			t.Fatalf("checkin %s: %v", date, err)
		}
		biaCheckins = append(biaCheckins, c)
	}

	if err := users.DeleteUser(ctx, bia.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	remaining, err := checkins.ListByUser(ctx, bia.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no checkins after user delete, got %d", len(remaining))
	}
	for _, c := range biaCheckins {
		if _, err := checkins.Get(ctx, c.ID); !errors.Is(err, checkin.ErrNotFound) {
			t.Fatalf("expected checkin %s gone, got %v", c.ID, err)
		}
	}
	if _, err := checkins.Get(ctx, created.ID); err != nil {
		t.Fatalf("other users' checkins must survive: %v", err)
	}

	if err := turmas.Delete(ctx, funcional.ID); err != nil {
		t.Fatalf("delete turma: %v", err)
	}
	if _, err := checkins.Get(ctx, created.ID); err == nil {
		t.Fatal("expected checkin removed with turma")
	}
}
