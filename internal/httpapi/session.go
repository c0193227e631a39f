package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"scoreshelf/internal/store"
)

// sessionCookie carries the signed session identifier between requests.
const sessionCookie = "scoreshelf_session"

type contextKey string

const sessionKey contextKey = "session"

// withSession resolves the session cookie into a per-request identity and
// stashes it in the request context. A cookie that fails signature, expiry,
// or lookup leaves the request anonymous and clears the cookie, so a
// half-valid session can never linger.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sid, err := s.tokens.Verify(cookie.Value)
		if err != nil {
			clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.users.Session(r.Context(), sid)
		if err != nil {
			if errors.Is(err, store.ErrUnauthorized) {
				clearSessionCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the authenticated session for this request, if any.
func sessionFrom(ctx context.Context) (store.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(store.Session)
	return sess, ok
}

// requireCSRF authorizes a state-changing request: there must be a logged-in
// session and the form's csrf_token must match it. On failure the request is
// answered with 403 and the caller must not write anything.
func (s *Server) requireCSRF(w http.ResponseWriter, r *http.Request) (store.Session, bool) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return store.Session{}, false
	}

	token := r.FormValue("csrf_token")
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sess.CSRFToken)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return store.Session{}, false
	}
	return sess, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess store.Session) error {
	signed, err := s.tokens.Sign(sess.Token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
