package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/httputil"
	"github.com/tracknest/tracknest/internal/models"
)

func (s *Server) searchMedia(w http.ResponseWriter, r *http.Request) {
	mt := models.MediaType(chi.URLParam(r, "type"))
	if !mt.Valid() {
		httputil.WriteError(w, http.StatusNotFound, "UNKNOWN_TYPE", "unknown media type")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_QUERY", "q parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := s.mediaRepo.Search(mt, query, limit)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "search failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, results)
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	mt := models.MediaType(chi.URLParam(r, "type"))
	if !mt.Valid() {
		httputil.WriteError(w, http.StatusNotFound, "UNKNOWN_TYPE", "unknown media type")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "mediaID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
		return
	}

	media, err := s.mediaRepo.FindByID(mt, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load media")
		return
	}
	if media == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "media not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, media)
}
