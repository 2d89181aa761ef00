package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tasklist/internal/store"
	"tasklist/internal/tasklist"
	"tasklist/internal/view"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	list      *tasklist.List
	store     store.Store
	templates *template.Template
	log       zerolog.Logger
	pageSize  int
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the handlers' logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handlers) {
		h.log = logger
	}
}

// WithPageSize sets the number of rows per table page.
func WithPageSize(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// New creates a new Handlers instance. The store is used for the theme
// preference; tasks go through list.
func New(list *tasklist.List, s store.Store, tmpl *template.Template, opts ...Option) *Handlers {
	h := &Handlers{
		list:      list,
		store:     s,
		templates: tmpl,
		log:       zerolog.Nop(),
		pageSize:  view.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers every route on r.
func (h *Handlers) Routes(r chi.Router) {
	// Pages and form posts
	r.Get("/", h.Home)
	r.Post("/tasks", h.CreateTask)
	r.Post("/tasks/cancel", h.CancelEdit)
	r.Post("/tasks/{id}/edit", h.EditTask)
	r.Post("/tasks/{id}/save", h.SaveTask)
	r.Post("/tasks/{id}/delete", h.DeleteTask)
	r.Post("/theme", h.ToggleTheme)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", h.APIListTasks)
		r.Post("/tasks", h.APICreateTask)
		r.Post("/tasks/cancel", h.APICancelEdit)
		r.Post("/tasks/{id}/edit", h.APIEditTask)
		r.Put("/tasks/{id}", h.APISaveTask)
		r.Delete("/tasks/{id}", h.APIDeleteTask)
	})

	r.Get("/healthz", h.Health)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	w.Write([]byte(message))
}

func (h *Handlers) respondServerError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("internal server error")
	respondError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handlers) respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handlers) render(w http.ResponseWriter, code int, name string, data any) {
	if h.templates == nil {
		// For testing without templates
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("failed to render template")
	}
}

// isPartial reports whether the request came from htmx and wants only the
// task table back.
func isPartial(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// rejectStatus is the status for a re-rendered form carrying an error. htmx
// swaps only 2xx responses, so partial responses use 200.
func rejectStatus(r *http.Request, code int) int {
	if isPartial(r) {
		return http.StatusOK
	}
	return code
}

// flashCookie carries a one-shot notice code across a POST/redirect/GET.
const flashCookie = "flash"

const (
	flashUnsaved = "unsaved"
	flashTheme   = "theme"
)

var flashMessages = map[string]string{
	flashUnsaved: persistWarning,
	flashTheme:   "Theme preference could not be saved.",
}

func setFlash(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    code,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash returns the notice for the request's flash cookie and expires
// the cookie. Must be called before the response header is written.
func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return flashMessages[c.Value]
}
