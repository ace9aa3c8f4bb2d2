package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/auth"
	"github.com/tracknest/tracknest/internal/httputil"
	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/tracker"
)

// requestIDs pulls the authenticated user, media type service and media id
// out of a list request. Writes the error response itself on failure.
func (s *Server) requestIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, *tracker.Service, uuid.UUID, bool) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return uuid.Nil, nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(u.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user id")
		return uuid.Nil, nil, uuid.Nil, false
	}

	svc, ok := s.services[models.MediaType(chi.URLParam(r, "type"))]
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "UNKNOWN_TYPE", "unknown media type")
		return uuid.Nil, nil, uuid.Nil, false
	}

	mediaID := uuid.Nil
	if raw := chi.URLParam(r, "mediaID"); raw != "" {
		mediaID, err = uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
			return uuid.Nil, nil, uuid.Nil, false
		}
	}
	return userID, svc, mediaID, true
}

func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrMediaNotFound):
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, tracker.ErrAlreadyInList):
		httputil.WriteError(w, http.StatusConflict, "ALREADY_IN_LIST", err.Error())
	case errors.Is(err, tracker.ErrNotInList):
		httputil.WriteError(w, http.StatusNotFound, "NOT_IN_LIST", err.Error())
	case tracker.IsDomainError(err):
		httputil.WriteError(w, http.StatusUnprocessableEntity, "INVALID_UPDATE", err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "operation failed")
	}
}

func (s *Server) addToList(w http.ResponseWriter, r *http.Request) {
	userID, svc, mediaID, ok := s.requestIDs(w, r)
	if !ok {
		return
	}

	var req struct {
		Status models.Status `json:"status"`
	}
	if r.ContentLength > 0 {
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
	}

	result, err := svc.AddToList(userID, mediaID, req.Status)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	userID, svc, mediaID, ok := s.requestIDs(w, r)
	if !ok {
		return
	}

	var cmd tracker.UpdateCommand
	if err := httputil.ReadJSON(r, &cmd); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if !svc.Config().Accepts(cmd.Type) {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_UPDATE_TYPE",
			"update type not supported for this media type")
		return
	}

	result, err := svc.UpdateEntry(userID, mediaID, cmd)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) removeFromList(w http.ResponseWriter, r *http.Request) {
	userID, svc, mediaID, ok := s.requestIDs(w, r)
	if !ok {
		return
	}

	result, err := svc.RemoveFromList(userID, mediaID)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	userID, svc, mediaID, ok := s.requestIDs(w, r)
	if !ok {
		return
	}

	entry, err := svc.GetEntry(userID, mediaID)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	userID, svc, _, ok := s.requestIDs(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	entries, err := s.listRepo.ListForUser(userID, svc.Config().Type, limit, offset)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load list")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, svc, mediaID, ok := s.requestIDs(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.logRepo.ListForEntry(userID, mediaID, svc.Config().Type, limit)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
