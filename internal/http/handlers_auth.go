package http

import (
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleShowRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "register.html", nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectWithFlash(w, r, auth.FlashDanger, "Invalid form submission.", "/register")
		return
	}

	_, err := s.accounts.Register(r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		r.PostFormValue("confirm_password"),
	)
	if err != nil {
		s.redirectWithFlash(w, r, auth.FlashDanger, registerErrorMessage(err), "/register")
		return
	}

	s.redirectWithFlash(w, r, auth.FlashSuccess, "Registration successful! Please log in.", "/login")
}

func registerErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyUsername):
		return "Username is required."
	case errors.Is(err, core.ErrEmptyEmail):
		return "Email is required."
	case errors.Is(err, core.ErrEmptyPassword):
		return "Password is required."
	case errors.Is(err, core.ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, core.ErrDuplicateIdentity):
		return "Username or email already taken."
	default:
		return "Registration failed. Please check your details and try again."
	}
}

func (s *Server) handleShowLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectWithFlash(w, r, auth.FlashDanger, "Invalid form submission.", "/login")
		return
	}

	user, err := s.accounts.Login(r.Context(),
		r.PostFormValue("identifier"),
		r.PostFormValue("password"),
	)
	if err != nil {
		// One message for every failure mode, so the form cannot be used
		// to probe which accounts exist.
		s.redirectWithFlash(w, r, auth.FlashDanger, "Invalid username/email or password.", "/login")
		return
	}

	if err := s.sessions.SignIn(w, r, user); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "failed to save session",
			log.FieldError, err.Error())
		s.redirectWithFlash(w, r, auth.FlashDanger, "Login failed. Please try again.", "/login")
		return
	}

	s.redirectWithFlash(w, r, auth.FlashSuccess, "Logged in successfully!", "/dashboard")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(w, r); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "failed to clear session",
			log.FieldError, err.Error())
	}
	s.redirectWithFlash(w, r, auth.FlashInfo, "You have been logged out.", "/")
}
