package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"scoreshelf/internal/auth"
	"scoreshelf/internal/store"
)

type fakeStore struct {
	createdUsers []string
	loginTTL     time.Duration
	deletedToken string
}

func (f *fakeStore) CreateUser(ctx context.Context, username, password string) (int64, error) {
	f.createdUsers = append(f.createdUsers, username)
	return 1, nil
}

func (f *fakeStore) Authenticate(ctx context.Context, username, password string, ttl time.Duration) (store.Session, error) {
	f.loginTTL = ttl
	return store.Session{Token: "tok", UserID: 1, Username: username}, nil
}

func (f *fakeStore) SessionByToken(ctx context.Context, token string) (store.Session, error) {
	if token != "tok" {
		return store.Session{}, store.ErrUnauthorized
	}
	return store.Session{Token: token, UserID: 1, Username: "alice"}, nil
}

func (f *fakeStore) DeleteSession(ctx context.Context, token string) error {
	f.deletedToken = token
	return nil
}

func TestSignupEnforcesPolicyBeforeStore(t *testing.T) {
	fs := &fakeStore{}
	svc := New(fs, time.Hour)

	var violation *auth.PolicyViolation

	if err := svc.Signup(context.Background(), "ab", "Abcdef1!"); !errors.As(err, &violation) {
		t.Fatalf("expected PolicyViolation for short username, got %v", err)
	}
	if err := svc.Signup(context.Background(), "alice", "weak"); !errors.As(err, &violation) {
		t.Fatalf("expected PolicyViolation for weak password, got %v", err)
	}
	if len(fs.createdUsers) != 0 {
		t.Fatal("policy failures must not reach the store")
	}

	if err := svc.Signup(context.Background(), "alice", "Abcdef1!"); err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if len(fs.createdUsers) != 1 || fs.createdUsers[0] != "alice" {
		t.Fatalf("unexpected created users: %v", fs.createdUsers)
	}
}

func TestLoginPassesConfiguredTTL(t *testing.T) {
	fs := &fakeStore{}
	svc := New(fs, 42*time.Minute)

	sess, err := svc.Login(context.Background(), "alice", "Abcdef1!")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if sess.Username != "alice" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if fs.loginTTL != 42*time.Minute {
		t.Fatalf("expected ttl 42m, got %v", fs.loginTTL)
	}
}

func TestLogout(t *testing.T) {
	fs := &fakeStore{}
	svc := New(fs, time.Hour)

	if err := svc.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if fs.deletedToken != "tok" {
		t.Fatalf("expected session tok deleted, got %q", fs.deletedToken)
	}
}

func TestCancelledContext(t *testing.T) {
	fs := &fakeStore{}
	svc := New(fs, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Signup(ctx, "alice", "Abcdef1!"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := svc.Session(ctx, "tok"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
