package web

import (
	"encoding/json"
	"net/http"

	redisinfra "subscription-storefront/internal/infra/redis"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// PasswordConfirm is validated when the client sends it.
	PasswordConfirm string `json:"password_confirm"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.PasswordConfirm != "" && req.PasswordConfirm != req.Password {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "passwords do not match"})
		return
	}

	user, err := s.userUC.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"message":  "check your email for the activation link",
	})
}

// handleActivate consumes the emailed activation link: GET /auth/activate?code=...
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "code is required"})
		return
	}

	user, err := s.userUC.Activate(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"active":   true,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ok, err := s.limiter.Allow(r.Context(), redisinfra.LoginKey(clientIP(r)), s.loginLimit, s.loginWindow)
	if err != nil {
		s.log.Error().Err(err).Msg("login rate limiter unavailable")
	} else if !ok {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many login attempts"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, err := s.userUC.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.sessions.Mint(w, user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":    token,
		"username": user.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	ok, err := s.limiter.Allow(r.Context(), redisinfra.ResetRequestKey(req.Email), s.loginLimit, s.loginWindow)
	if err != nil {
		s.log.Error().Err(err).Msg("reset rate limiter unavailable")
	} else if !ok {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many reset requests"})
		return
	}

	if err := s.userUC.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	// same response whether or not the account exists
	writeJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a reset link was sent"})
}

type passwordResetConfirm struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.userUC.ConfirmPasswordReset(r.Context(), req.Code, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
