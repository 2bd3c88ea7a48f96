package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/server/models"
	"github.com/ymatrosov/linkstash/internal/server/services"
)

type createLinkRequest struct {
	URL   string  `json:"url"`
	Title *string `json:"title"`
	Notes *string `json:"notes"`
}

type updateLinkRequest struct {
	Title *string `json:"title"`
	Notes *string `json:"notes"`
}

// randomLinkResponse wraps the pick so an empty collection reads as an
// explicit null rather than a 404.
type randomLinkResponse struct {
	Link *models.Link `json:"link"`
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req createLinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	link, err := s.links.Create(r.Context(), id.UserID, services.CreateLinkInput{
		URL:   req.URL,
		Title: req.Title,
		Notes: req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	q := services.ListQuery{
		Search:   r.URL.Query().Get("search"),
		Archived: parseArchivedParam(r),
	}

	links, err := s.links.List(r.Context(), id.UserID, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) handleRandomLink(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	archived := r.URL.Query().Get("archived") == "true"

	link, err := s.links.GetRandom(r.Context(), id.UserID, archived)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, randomLinkResponse{Link: link})
}

func (s *Server) handleGetLink(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	link, err := s.links.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req updateLinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	link, err := s.links.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), services.UpdateLinkInput{
		Title: req.Title,
		Notes: req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handleArchiveLink(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, true)
}

func (s *Server) handleUnarchiveLink(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, false)
}

func (s *Server) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var link *models.Link
	var err error
	if archived {
		link, err = s.links.Archive(r.Context(), id.UserID, chi.URLParam(r, "id"))
	} else {
		link, err = s.links.Unarchive(r.Context(), id.UserID, chi.URLParam(r, "id"))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	if err := s.links.Remove(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// parseArchivedParam interprets the optional archived query parameter.
// Absent or unrecognized values mean no filter.
func parseArchivedParam(r *http.Request) *bool {
	switch r.URL.Query().Get("archived") {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
