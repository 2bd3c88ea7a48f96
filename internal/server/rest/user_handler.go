package rest

import (
	"net/http"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/server/services"
)

type updateMeRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	user, err := s.users.GetMe(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req updateMeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.UpdateMe(r.Context(), id.UserID, services.UpdateMeInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	if err := s.users.DeleteMe(r.Context(), id.UserID); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "account deleted", "user_id", id.UserID)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
