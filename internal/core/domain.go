package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DefaultCategory is the sentinel used when a transaction is filed without one.
const DefaultCategory = "uncategorized"

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// User is an account identity. PasswordHash is a bcrypt hash and must
	// never leave the process in cleartext form (logs included).
	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Transaction is a single ledger entry. Amount is always positive;
	// direction is carried by Type.
	Transaction struct {
		ID          int64
		UserID      int64
		Amount      Money
		Category    string
		Description string
		Type        TransactionType
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrEmptyUsername       = errors.New("empty username")
	ErrEmptyEmail          = errors.New("empty email")
	ErrEmptyPassword       = errors.New("empty password")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrDuplicateIdentity   = errors.New("username or email already taken")
	ErrBadCredentials      = errors.New("bad credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotOwner            = errors.New("transaction belongs to another user")
)

// ParseTransactionType validates a raw form value against the two
// recognized types.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.TrimSpace(s)) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// NormalizeCategory trims the raw category and substitutes the sentinel
// when nothing remains.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory
	}
	return s
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return errors.New("transaction without owner")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return errors.New("empty category")
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// Validate checks registration input before any credential work happens.
// Uniqueness of username/email is the repository's concern.
func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if len(u.Username) > 80 {
		return errors.New("username too long (max 80 characters)")
	}
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(email, "@") {
		return errors.New("malformed email")
	}
	return nil
}
