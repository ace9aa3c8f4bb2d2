package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/httputil"
	"github.com/tracknest/tracknest/internal/jobs"
	"github.com/tracknest/tracknest/internal/models"
)

// enqueueRecompute schedules a from-scratch rebuild of one user's aggregate
// row. The deterministic task id collapses repeated triggers while a rebuild
// is still pending.
func (s *Server) enqueueRecompute(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid user id")
		return
	}
	mt := models.MediaType(chi.URLParam(r, "type"))
	if !mt.Valid() {
		httputil.WriteError(w, http.StatusNotFound, "UNKNOWN_TYPE", "unknown media type")
		return
	}

	taskID, err := s.jobQueue.EnqueueUnique(
		jobs.TaskStatsRecompute,
		jobs.RecomputePayload{UserID: userID.String(), MediaType: mt},
		fmt.Sprintf("recompute:%s:%s", userID, mt),
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to enqueue recompute")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// enqueueRollup triggers the platform-wide rollup outside the nightly
// schedule. An optional ?type= narrows it to one media type.
func (s *Server) enqueueRollup(w http.ResponseWriter, r *http.Request) {
	var payload jobs.PlatformRollupPayload
	uniqueID := "platform:manual"
	if raw := r.URL.Query().Get("type"); raw != "" {
		mt := models.MediaType(raw)
		if !mt.Valid() {
			httputil.WriteError(w, http.StatusNotFound, "UNKNOWN_TYPE", "unknown media type")
			return
		}
		payload.MediaType = mt
		uniqueID = "platform:manual:" + raw
	}

	taskID, err := s.jobQueue.EnqueueUnique(jobs.TaskPlatformRollup, payload, uniqueID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to enqueue rollup")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}
