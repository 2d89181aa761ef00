package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"tasklist/internal/models"
	"tasklist/internal/view"
)

// CreateTask adds a task from the "name" form field.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	q := view.ParseQuery(r.Form)
	name := r.FormValue("name")

	_, err := h.list.Add(r.Context(), name)
	if models.IsValidation(err) {
		h.renderPage(w, r, rejectStatus(r, http.StatusBadRequest), q, pageState{newName: name, err: err.Error()})
		return
	}

	h.afterMutation(w, r, q, err)
}

// EditTask opens a row for editing.
func (h *Handlers) EditTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	if err := h.list.BeginEdit(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		h.respondServerError(w, err)
		return
	}

	h.afterMutation(w, r, view.ParseQuery(r.Form), nil)
}

// SaveTask saves the edit form for a row. A blank name re-renders the page
// with the edit still open.
func (h *Handlers) SaveTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	q := view.ParseQuery(r.Form)

	err := h.list.Save(r.Context(), chi.URLParam(r, "id"), fieldsFromForm(r.PostForm))
	if models.IsValidation(err) {
		h.renderPage(w, r, rejectStatus(r, http.StatusUnprocessableEntity), q, pageState{err: err.Error()})
		return
	}

	h.afterMutation(w, r, q, err)
}

// CancelEdit closes the open edit without saving.
func (h *Handlers) CancelEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	h.list.Cancel()
	h.afterMutation(w, r, view.ParseQuery(r.Form), nil)
}

// DeleteTask removes a task. Unknown ids are ignored.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	err := h.list.Remove(r.Context(), chi.URLParam(r, "id"))
	h.afterMutation(w, r, view.ParseQuery(r.Form), err)
}

// afterMutation finishes a form post: htmx requests get the refreshed table,
// everything else is redirected back to the page. A persistence error is
// reported as a warning; any other error is a server error.
func (h *Handlers) afterMutation(w http.ResponseWriter, r *http.Request, q view.Query, err error) {
	var st pageState
	switch {
	case err == nil:
	case models.IsPersistence(err):
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("change not persisted")
		st.warning = persistWarning
	default:
		h.respondServerError(w, err)
		return
	}

	if isPartial(r) {
		h.renderPage(w, r, http.StatusOK, q, st)
		return
	}

	if st.warning != "" {
		setFlash(w, flashUnsaved)
	}
	http.Redirect(w, r, pageURL(q), http.StatusSeeOther)
}

func pageURL(q view.Query) string {
	if enc := q.Encode(); enc != "" {
		return "/?" + enc
	}
	return "/"
}

// fieldsFromForm builds an edit buffer from posted values. Only keys present
// in the form are set. For "completed" the last value wins, so a hidden
// "false" input followed by a checkbox works.
func fieldsFromForm(form url.Values) models.Fields {
	var f models.Fields
	if v, ok := lastValue(form, "name"); ok {
		f.Name = &v
	}
	if v, ok := lastValue(form, "description"); ok {
		f.Description = &v
	}
	if v, ok := lastValue(form, "completed"); ok {
		completed := parseCheckbox(v)
		f.Completed = &completed
	}
	return f
}

func lastValue(form url.Values, key string) (string, bool) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}
