package api

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/mizan-app/mizan/internal/domain"
	"github.com/mizan-app/mizan/internal/infra/auth"
)

type credentialsRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	AccessCode string `json:"access_code,omitempty"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeDomainError(w, &domain.ValidationError{Field: "username", Reason: "must not be empty"})
		return
	}
	if len(req.Password) < 8 {
		writeDomainError(w, &domain.ValidationError{Field: "password", Reason: "must be at least 8 characters"})
		return
	}
	if req.AccessCode != "" {
		if err := validateAccessCode(req.AccessCode); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := s.now()
	id, err := s.db.CreateUser(req.Username, hash, req.AccessCode, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := s.db.GetUser(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	token, err := s.tokens.Issue(id, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	user, hash, err := s.db.GetUserByUsername(req.Username)
	if err == domain.ErrUserNotFound {
		// Same error either way: the caller learns nothing about which
		// part of the credentials was wrong.
		writeDomainError(w, domain.ErrBadCredentials)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !auth.ComparePassword(req.Password, hash) {
		writeDomainError(w, domain.ErrBadCredentials)
		return
	}

	token, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (s *Server) handleLoginCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessCode string `json:"access_code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := s.db.GetUserByAccessCode(req.AccessCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.GetUser(userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	decision, err := s.premium.Decide(user, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     user,
		"decision": decision,
	})
}

func (s *Server) handleSetAccessCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessCode string `json:"access_code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := validateAccessCode(req.AccessCode); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.db.SetAccessCode(userID(r), req.AccessCode); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateAccessCode enforces the quick-access code rules: at least five
// characters containing a letter, a digit, and a special character.
func validateAccessCode(code string) error {
	if len(code) < 5 {
		return &domain.ValidationError{Field: "access_code", Reason: "must be at least 5 characters"}
	}
	var letter, digit, special bool
	for _, r := range code {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !letter || !digit || !special {
		return &domain.ValidationError{
			Field:  "access_code",
			Reason: "must contain a letter, a digit, and a special character",
		}
	}
	return nil
}
