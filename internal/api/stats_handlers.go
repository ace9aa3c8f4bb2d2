package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/achievements"
	"github.com/tracknest/tracknest/internal/auth"
	"github.com/tracknest/tracknest/internal/httputil"
	"github.com/tracknest/tracknest/internal/models"
)

func (s *Server) authedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(u.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user id")
		return uuid.Nil, false
	}
	return userID, true
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authedUserID(w, r)
	if !ok {
		return
	}
	mt := models.MediaType(chi.URLParam(r, "type"))
	if !mt.Valid() {
		httputil.WriteError(w, http.StatusNotFound, "UNKNOWN_TYPE", "unknown media type")
		return
	}

	if s.statsCache != nil {
		if cached, hit := s.statsCache.Get(r.Context(), userID, mt); hit {
			httputil.WriteJSON(w, http.StatusOK, cached)
			return
		}
	}

	stats, err := s.statsRepo.Get(userID, mt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load stats")
		return
	}
	if s.statsCache != nil {
		s.statsCache.Set(r.Context(), stats)
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) getAllStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authedUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.statsRepo.GetAll(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) getPlatformStats(w http.ResponseWriter, r *http.Request) {
	mt := models.MediaType(chi.URLParam(r, "type"))
	if !mt.Valid() {
		httputil.WriteError(w, http.StatusNotFound, "UNKNOWN_TYPE", "unknown media type")
		return
	}
	stats, err := s.platformRepo.Get(mt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load platform stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) listAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authedUserID(w, r)
	if !ok {
		return
	}
	unlocked, err := s.achRepo.ListUnlocked(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load achievements")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"catalog":  achievements.Definitions,
		"unlocked": unlocked,
	})
}
