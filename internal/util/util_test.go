package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"João da Silva":       "joaodasilva",
		"  ANA@Example.COM ": "ana@example.com",
		"Conceição":           "conceicao",
		"Zé\tLúcio":           "zelucio",
		"Åsa":                 "asa",
		"Ţepeş":               "tepes",
	}
	for in, want := range cases {
		if got := NormalizeIdentifier(in); got != want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type payload struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	fields := ValidateStruct(payload{Email: "invalido", Password: "123"})
	if fields["email"] == "" || fields["password"] == "" {
		t.Fatalf("expected errors keyed by json names, got %v", fields)
	}

	if fields := ValidateStruct(payload{Email: "a@b.com", Password: "123456"}); fields != nil {
		t.Fatalf("expected no errors, got %v", fields)
	}
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"ana@example.com", " ana.silva+aulas@example.com.br "} {
		if err := ValidateEmail(ok); err != nil {
			t.Errorf("ValidateEmail(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "ana", "X <a@b.com>", "Mallory <victim@example.com>", "a@b.com, c@d.com"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("ValidateEmail(%q) should fail", bad)
		}
	}
}

func TestDayBoundsUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	// 01:30 UTC ainda é o dia anterior em BRT.
	now := time.Date(2024, 5, 10, 1, 30, 0, 0, time.UTC)

	start, end := DayBounds(now, loc)
	if start.In(loc).Day() != 9 || end.Sub(start) != 24*time.Hour {
		t.Fatalf("unexpected bounds %s - %s", start, end)
	}
	if got := Today(now, loc).Format(DateLayout); got != "2024-05-09" {
		t.Fatalf("expected 2024-05-09, got %s", got)
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("nao-e-uuid"); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	id := uuid.New()
	got, err := ParseID(" " + id.String() + " ")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
}
