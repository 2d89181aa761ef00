package handlers

import (
	"net/http"
	"slices"

	"tasklist/internal/models"
	"tasklist/internal/tasklist"
	"tasklist/internal/view"
)

// persistWarning is shown when a change could not be written to storage.
const persistWarning = "Your change was applied but could not be saved; it will be lost on restart."

// PageData holds data for the page and task table templates.
type PageData struct {
	Title   string
	Theme   models.Theme
	Query   view.Query
	Page    view.Page
	Editing tasklist.EditState

	// NewName echoes the add form after a rejected add.
	NewName string
	Error   string
	Warning string
}

// IsEditing reports whether the row with id is open for editing.
func (d PageData) IsEditing(id string) bool {
	return d.Editing.Is(id)
}

// URL returns the page link for q.
func (d PageData) URL(q view.Query) string {
	return pageURL(q)
}

// pageState carries per-request messages into PageData.
type pageState struct {
	newName string
	err     string
	warning string
}

// Home renders the task list page. Moving to a page that does not show the
// row being edited cancels the edit.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	q := view.ParseQuery(r.URL.Query())

	if r.URL.Query().Has("page") {
		if id, editing := h.list.EditingID(); editing {
			page := q.Apply(h.list.Tasks(), h.pageSize)
			if !slices.ContainsFunc(page.Tasks, func(t models.Task) bool { return t.ID == id }) {
				h.list.Cancel()
			}
		}
	}

	w.Header().Set("Accept-CH", themeHintHeader)
	w.Header().Add("Vary", themeHintHeader)
	h.renderPage(w, r, http.StatusOK, q, pageState{warning: takeFlash(w, r)})
}

func (h *Handlers) pageData(r *http.Request, q view.Query, st pageState) PageData {
	return PageData{
		Title:   "TODO App",
		Theme:   h.resolveTheme(r),
		Query:   q,
		Page:    q.Apply(h.list.Tasks(), h.pageSize),
		Editing: h.list.Editing(),
		NewName: st.newName,
		Error:   st.err,
		Warning: st.warning,
	}
}

// renderPage renders the full page, or only the task table for htmx
// requests.
func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, code int, q view.Query, st pageState) {
	name := "index.html"
	if isPartial(r) {
		name = "task_table.html"
	}
	h.render(w, code, name, h.pageData(r, q, st))
}
