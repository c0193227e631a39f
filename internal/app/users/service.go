package users

import (
	"context"
	"time"

	"scoreshelf/internal/auth"
	"scoreshelf/internal/store"
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, username, password string) (int64, error)
	Authenticate(ctx context.Context, username, password string, ttl time.Duration) (store.Session, error)
	SessionByToken(ctx context.Context, token string) (store.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Service exposes signup, login, and session workflows.
type Service interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (store.Session, error)
	Session(ctx context.Context, token string) (store.Session, error)
	Logout(ctx context.Context, token string) error
}

type service struct {
	store      Store
	sessionTTL time.Duration
}

// New wires a Service backed by the provided Store. Sessions issued at login
// live for sessionTTL.
func New(store Store, sessionTTL time.Duration) Service {
	return &service{store: store, sessionTTL: sessionTTL}
}

func (s *service) Signup(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.ValidateUsername(username); err != nil {
		return err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	_, err := s.store.CreateUser(ctx, username, password)
	return err
}

func (s *service) Login(ctx context.Context, username, password string) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return store.Session{}, err
	}
	return s.store.Authenticate(ctx, username, password, s.sessionTTL)
}

func (s *service) Session(ctx context.Context, token string) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return store.Session{}, err
	}
	return s.store.SessionByToken(ctx, token)
}

func (s *service) Logout(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, token)
}
