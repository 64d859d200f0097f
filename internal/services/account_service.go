package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// AccountService handles registration and credential checks.
type AccountService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger
}

func NewAccountService(storage *storage.SQLiteRepository, logger *log.Logger) *AccountService {
	return &AccountService{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentAuth),
	}
}

// Register validates the signup form, hashes the password and creates the
// account. Duplicate usernames and emails come back as
// core.ErrDuplicateIdentity.
func (s *AccountService) Register(ctx context.Context, username, email, password, confirm string) (core.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	candidate := core.User{Username: username, Email: email}
	if err := candidate.Validate(); err != nil {
		return core.User{}, err
	}
	if password == "" {
		return core.User{}, core.ErrEmptyPassword
	}
	if password != confirm {
		return core.User{}, core.ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, username, email, hash)
	if err != nil {
		return core.User{}, err
	}

	s.logger.InfoContext(ctx, "user registered",
		log.FieldOperation, log.OpRegister,
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username)

	return user, nil
}

// Login resolves the identifier (username or email) and checks the
// password. Every failure mode collapses to core.ErrBadCredentials so the
// login page cannot be used to probe which accounts exist.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (core.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return core.User{}, core.ErrBadCredentials
	}

	user, err := s.storage.GetUserByIdentifier(ctx, identifier)
	if errors.Is(err, core.ErrUserNotFound) {
		return core.User{}, core.ErrBadCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("look up user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return core.User{}, core.ErrBadCredentials
	}

	s.logger.InfoContext(ctx, "user logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username)

	return user, nil
}
