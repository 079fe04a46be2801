package devserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// minPasswordLen is the minimum password length accepted at
// registration. The password is the only human-chosen secret in the
// credential exchange; enforcing a minimum keeps a baseline of entropy.
const minPasswordLen = 8

// Register handles POST /auth/register. Anonymous-accessible.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RegisterRequest](w, r)
	if !ok {
		return
	}

	fields := map[string]string{}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		fields["email"] = "email is required"
	} else if !strings.Contains(email, "@") {
		fields["email"] = "email is not valid"
	}
	if len(req.Password) < minPasswordLen {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	// Unicode-normalize before hashing so the same password typed on
	// different platforms compares equal.
	hash, err := bcrypt.GenerateFromPassword([]byte(norm.NFKD.String(req.Password)), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		writeFieldErrors(w, map[string]string{"email": "email is already registered"})
		return
	}
	acct := account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	s.accounts[email] = acct
	s.mu.Unlock()

	s.logger.Info("account registered", "user_id", acct.ID)
	writeJSON(w, http.StatusCreated, RegisterResponse{User: userResponse(acct)})
}

// Login handles POST /auth/login. Exchanges email+password for a bearer
// token.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.RLock()
	acct, exists := s.accounts[email]
	s.mu.RUnlock()
	if !exists {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(norm.NFKD.String(req.Password))); err != nil {
		s.logger.Info("login rejected", "user_id", acct.ID)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token := uuid.NewString()
	expiresAt := s.now().Add(s.sessionDuration).UTC()

	s.mu.Lock()
	s.sessions[token] = sessionRecord{UserID: acct.ID, ExpiresAt: expiresAt}
	s.mu.Unlock()

	s.logger.Info("session issued", "user_id", acct.ID)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userResponse(acct),
	})
}

// Logout handles POST /auth/logout. Invalidates the presented token.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func userResponse(acct account) UserResponse {
	return UserResponse{ID: acct.ID, Email: acct.Email, Name: acct.Name}
}
