package httpapi

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"scoreshelf/internal/auth"
	"scoreshelf/internal/store"
)

type signupPageData struct {
	Session sessionView
	Flash   string
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	s.render(w, "signup", signupPageData{
		Session: viewOf(sess, ok),
		Flash:   popFlash(w, r),
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	values, err := requiredFormValues(r, "username", "password")
	if err != nil {
		redirectFlash(w, r, "/signup", "username and password are required")
		return
	}

	err = s.users.Signup(r.Context(), values["username"], values["password"])
	if err != nil {
		var policy *auth.PolicyViolation
		switch {
		case errors.As(err, &policy):
			redirectFlash(w, r, "/signup", policy.Reason)
		case errors.Is(err, store.ErrUserExists):
			redirectFlash(w, r, "/signup", "username already taken")
		default:
			log.Error().Err(err).Msg("signup failed")
			redirectFlash(w, r, "/signup", "signup failed, please try again")
		}
		return
	}

	redirectFlash(w, r, "/", "Signup successful, please log in")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	values, err := requiredFormValues(r, "username", "password")
	if err != nil {
		redirectFlash(w, r, "/", "username and password are required")
		return
	}

	sess, err := s.users.Login(r.Context(), values["username"], values["password"])
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			redirectFlash(w, r, "/", "Invalid username or password")
			return
		}
		log.Error().Err(err).Msg("login failed")
		redirectFlash(w, r, "/", "login failed, please try again")
		return
	}

	if err := s.setSessionCookie(w, sess); err != nil {
		log.Error().Err(err).Msg("issue session cookie")
		redirectFlash(w, r, "/", "login failed, please try again")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireCSRF(w, r)
	if !ok {
		return
	}

	if err := s.users.Logout(r.Context(), sess.Token); err != nil {
		log.Error().Err(err).Msg("logout failed")
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
