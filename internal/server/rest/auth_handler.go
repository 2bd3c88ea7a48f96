package rest

import (
	"net/http"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/server/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.users.Login(r.Context(), auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

// handleAuthMe echoes the identity baked into the presented token, without a
// database round trip.
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, id)
}
