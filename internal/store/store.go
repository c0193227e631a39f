package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"scoreshelf/internal/auth"
)

var (
	// ErrUserExists signals the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized indicates an invalid, expired, or missing session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCompositionNotFound indicates an unknown composition id or filename.
	ErrCompositionNotFound = errors.New("composition not found")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Session is the per-request authentication state resolved from a session
// token: who is logged in and which CSRF token their forms must carry.
type Session struct {
	Token     string
	UserID    int64
	Username  string
	CSRFToken string
	ExpiresAt time.Time
}

// CreateUser registers a new user and returns its id. The password arrives
// already policy-checked; it is hashed here.
func (s *Store) CreateUser(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, fmt.Errorf("username and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	var userID int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, username, hash).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return userID, nil
}

// Authenticate validates credentials and opens a session with a fresh CSRF
// token. Unknown usernames burn a bcrypt compare so timing does not reveal
// which half of the credential pair was wrong.
func (s *Store) Authenticate(ctx context.Context, username, password string, ttl time.Duration) (Session, error) {
	var (
		userID int64
		hash   string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash
		FROM users
		WHERE username = $1
	`, username).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(password, hash) {
		return Session{}, ErrInvalidCredentials
	}

	token, err := auth.NewRandomToken()
	if err != nil {
		return Session{}, fmt.Errorf("create session token: %w", err)
	}
	csrfToken, err := auth.NewRandomToken()
	if err != nil {
		return Session{}, fmt.Errorf("create csrf token: %w", err)
	}

	expiresAt := time.Now().Add(ttl)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, csrf_token, expires_at)
		VALUES ($1, $2, $3, $4)
	`, token, userID, csrfToken, expiresAt); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}

	return Session{
		Token:     token,
		UserID:    userID,
		Username:  username,
		CSRFToken: csrfToken,
		ExpiresAt: expiresAt,
	}, nil
}

// SessionByToken resolves a session token into the logged-in identity and
// its CSRF token. Expired or unknown tokens yield ErrUnauthorized.
func (s *Store) SessionByToken(ctx context.Context, token string) (Session, error) {
	sess := Session{Token: token}
	err := s.db.QueryRowContext(ctx, `
		SELECT s.user_id, u.username, s.csrf_token, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > NOW()
	`, token).Scan(&sess.UserID, &sess.Username, &sess.CSRFToken, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, fmt.Errorf("lookup session: %w", err)
	}
	return sess, nil
}

// DeleteSession removes a session on logout. Deleting a missing session is
// not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE token = $1
	`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
