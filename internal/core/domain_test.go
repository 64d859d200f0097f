package core

import (
	"errors"
	"testing"
)

func TestParseTransactionType(t *testing.T) {
	if got, err := ParseTransactionType("income"); err != nil || got != Income {
		t.Fatalf("income: got %q err=%v", got, err)
	}
	if got, err := ParseTransactionType(" expense "); err != nil || got != Expense {
		t.Fatalf("expense: got %q err=%v", got, err)
	}
	for _, bad := range []string{"", "INCOME", "transfer", "all"} {
		if _, err := ParseTransactionType(bad); !errors.Is(err, ErrInvalidType) {
			t.Fatalf("%q: expected ErrInvalidType, got %v", bad, err)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("  food "); got != "food" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeCategory("   "); got != DefaultCategory {
		t.Fatalf("blank category: got %q", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:   1,
		Amount:   Money{Cents: 1234},
		Category: DefaultCategory,
		Type:     Expense,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tx := valid
	tx.Amount = Money{}
	if err := tx.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: expected ErrInvalidAmount, got %v", err)
	}

	tx = valid
	tx.Type = "transfer"
	if err := tx.Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("bad type: expected ErrInvalidType, got %v", err)
	}

	tx = valid
	tx.UserID = 0
	if err := tx.Validate(); err == nil {
		t.Fatal("ownerless transaction accepted")
	}
}

func TestUserValidate(t *testing.T) {
	u := User{Username: "alice", Email: "a@x.com"}
	if err := u.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}
	if err := (User{Email: "a@x.com"}).Validate(); !errors.Is(err, ErrEmptyUsername) {
		t.Fatal("missing username accepted")
	}
	if err := (User{Username: "alice"}).Validate(); !errors.Is(err, ErrEmptyEmail) {
		t.Fatal("missing email accepted")
	}
	if err := (User{Username: "alice", Email: "not-an-email"}).Validate(); err == nil {
		t.Fatal("malformed email accepted")
	}
}
