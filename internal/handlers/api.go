package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tasklist/internal/models"
	"tasklist/internal/tasklist"
	"tasklist/internal/view"
)

type listResponse struct {
	Tasks     []models.Task  `json:"tasks"`
	EditingID string         `json:"editing_id,omitempty"`
	Buffer    *models.Fields `json:"buffer,omitempty"`
}

type mutationResponse struct {
	Task    *models.Task `json:"task,omitempty"`
	Warning string       `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func newListResponse(tasks []models.Task, editing tasklist.EditState) listResponse {
	resp := listResponse{Tasks: tasks}
	if editing.Active() {
		buf := editing.Buffer
		resp.EditingID = editing.ID
		resp.Buffer = &buf
	}
	return resp
}

// APIListTasks returns the stored list, optionally filtered by ?filter=.
func (h *Handlers) APIListTasks(w http.ResponseWriter, r *http.Request) {
	filter := view.ParseFilter(r.URL.Query().Get("filter"))
	h.respondJSON(w, http.StatusOK, newListResponse(filter.Apply(h.list.Tasks()), h.list.Editing()))
}

// APICreateTask adds a task from a JSON body {"name": "..."}.
func (h *Handlers) APICreateTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	task, err := h.list.Add(r.Context(), payload.Name)
	if err != nil && !models.IsPersistence(err) {
		h.respondAPIError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, mutationResponse{Task: &task, Warning: h.warningFor(err)})
}

// APIEditTask opens a row for editing and returns the seeded buffer.
func (h *Handlers) APIEditTask(w http.ResponseWriter, r *http.Request) {
	if err := h.list.BeginEdit(chi.URLParam(r, "id")); err != nil {
		h.respondAPIError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newListResponse(h.list.Tasks(), h.list.Editing()))
}

// APISaveTask saves a JSON edit buffer. Fields left out of the body keep
// their values.
func (h *Handlers) APISaveTask(w http.ResponseWriter, r *http.Request) {
	var fields models.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	id := chi.URLParam(r, "id")
	err := h.list.Save(r.Context(), id, fields)
	if err != nil && !models.IsPersistence(err) {
		h.respondAPIError(w, err)
		return
	}

	resp := mutationResponse{Warning: h.warningFor(err)}
	if task, getErr := h.list.Get(id); getErr == nil {
		resp.Task = &task
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// APICancelEdit closes any open edit.
func (h *Handlers) APICancelEdit(w http.ResponseWriter, r *http.Request) {
	h.list.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// APIDeleteTask removes a task. Unknown ids are ignored.
func (h *Handlers) APIDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := h.list.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !models.IsPersistence(err) {
		h.respondAPIError(w, err)
		return
	}

	if warning := h.warningFor(err); warning != "" {
		h.respondJSON(w, http.StatusOK, mutationResponse{Warning: warning})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) warningFor(err error) string {
	if err == nil {
		return ""
	}
	h.log.Warn().Err(err).Msg("change not persisted")
	return persistWarning
}

func (h *Handlers) respondAPIError(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		h.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, models.ErrNotFound):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "task not found"})
	default:
		h.log.Error().Err(err).Msg("internal server error")
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
