package http

import (
	"errors"
	"net/http"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User    *identity.User    `json:"user"`
	Session *identity.Session `json:"session"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, session, err := s.deps.Auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Session: session})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, session, err := s.deps.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, authResponse{User: user, Session: session})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := s.sessionToken(r)
	if token == "" {
		s.writeError(w, r, shared.ErrUnauthorized)
		return
	}
	if err := s.deps.Auth.SignOut(r.Context(), token); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, nil)
}

type issueActionCodeRequest struct {
	Email string `json:"email"`
	Kind  string `json:"kind"`
}

func (s *Server) handleIssueActionCode(w http.ResponseWriter, r *http.Request) {
	var req issueActionCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind := identity.ActionCodeKind(req.Kind)
	if kind != identity.ActionVerifyEmail && kind != identity.ActionResetPassword {
		s.writeError(w, r, shared.ErrInvalidInput)
		return
	}

	code, err := s.deps.Auth.IssueActionCode(r.Context(), req.Email, kind)
	if err != nil {
		// an unknown email is acknowledged the same as a known one so
		// the endpoint cannot be used to probe accounts
		if errors.Is(err, shared.ErrUserNotFound) || errors.Is(err, shared.ErrNotFound) {
			writeJSON(w, http.StatusAccepted, nil)
			return
		}
		s.writeError(w, r, err)
		return
	}

	// delivery by email is a deployment concern; the code is returned
	// only in the response of this trusted endpoint
	writeJSON(w, http.StatusAccepted, map[string]string{"code": code})
}

type applyActionCodeRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleApplyActionCode(w http.ResponseWriter, r *http.Request) {
	var req applyActionCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Auth.ApplyActionCode(r.Context(), req.Code, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.deps.Auth.UpdatePassword(r.Context(), session.OwnerUID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.DeleteAccount.Handle(r.Context(), session); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, nil)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cookie helpers
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) setSessionCookie(w http.ResponseWriter, session *identity.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
