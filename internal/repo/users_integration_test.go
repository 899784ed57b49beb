//go:build integration

package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/testutil/testdb"
	"github.com/gestaozabele/checkin/internal/util"
)

func TestUsersAgainstPostgres(t *testing.T) {
	pool := testdb.Start(t)
	q := repo.New(pool)
	ctx := context.Background()

	hash := "$argon2id$placeholder"
	jose, err := q.CreateUser(ctx, repo.CreateUserParams{Email: "Jose@Example.com", Name: "José Conceição", PasswordHash: &hash})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if jose.Email != "jose@example.com" {
		t.Fatalf("expected lowercased email, got %s", jose.Email)
	}

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := q.CreateUser(ctx, repo.CreateUserParams{Email: "JOSE@example.com", Name: "Outro"})
		if !errors.Is(err, repo.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("identifier ignores accents and spaces", func(t *testing.T) {
		got, err := q.FindUserByIdentifier(ctx, util.NormalizeIdentifier("jose conceicao"))
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.ID != jose.ID {
			t.Fatalf("expected %s, got %s", jose.ID, got.ID)
		}
	})

	t.Run("names outside latin-1 fold the same way", func(t *testing.T) {
		asa, err := q.CreateUser(ctx, repo.CreateUserParams{Email: "asa@example.com", Name: "Åsa Ţepeş"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		for _, typed := range []string{"Åsa Ţepeş", "asa tepes", "ÅSATEPEŞ"} {
			got, err := q.FindUserByIdentifier(ctx, util.NormalizeIdentifier(typed))
			if err != nil {
				t.Fatalf("find %q: %v", typed, err)
			}
			if got.ID != asa.ID {
				t.Fatalf("find %q: expected %s, got %s", typed, asa.ID, got.ID)
			}
		}
	})

	t.Run("renamed user is found by the new name", func(t *testing.T) {
		name := "Ýara Conceição"
		if _, err := q.UpdateUser(ctx, jose.ID, repo.UserPatch{Name: &name}); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := q.FindUserByIdentifier(ctx, util.NormalizeIdentifier("yara conceicao"))
		if err != nil || got.ID != jose.ID {
			t.Fatalf("expected %s, got %+v (%v)", jose.ID, got, err)
		}
		if _, err := q.FindUserByIdentifier(ctx, util.NormalizeIdentifier("jose conceicao")); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("old name should no longer match, got %v", err)
		}
	})

	t.Run("partial update keeps other columns", func(t *testing.T) {
		phone := "83999990000"
		got, err := q.UpdateUser(ctx, jose.ID, repo.UserPatch{Phone: &phone})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Phone == nil || *got.Phone != phone || got.Name != "Ýara Conceição" {
			t.Fatalf("unexpected user %+v", got)
		}
	})

	t.Run("promote by email", func(t *testing.T) {
		got, err := q.SetAdminByEmail(ctx, "JOSE@EXAMPLE.COM", true)
		if err != nil {
			t.Fatalf("promote: %v", err)
		}
		if !got.IsAdmin {
			t.Fatal("expected admin")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := q.DeleteUser(ctx, jose.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := q.GetUserByID(ctx, jose.ID); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
