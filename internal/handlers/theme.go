package handlers

import (
	"errors"
	"net/http"
	"strings"

	"tasklist/internal/models"
	"tasklist/internal/store"
)

// themeHintHeader is the client hint carrying the browser's color scheme
// preference.
const themeHintHeader = "Sec-CH-Prefers-Color-Scheme"

// resolveTheme returns the stored theme, else the client's preference hint,
// else light.
func (h *Handlers) resolveTheme(r *http.Request) models.Theme {
	data, err := h.store.Get(r.Context(), store.KeyTheme)
	switch {
	case err == nil:
		if t, ok := models.ParseTheme(string(data)); ok {
			return t
		}
		h.log.Warn().Str("value", string(data)).Msg("ignoring invalid stored theme")
	case !errors.Is(err, store.ErrKeyNotFound):
		h.log.Warn().Err(err).Msg("failed to read theme")
	}

	if t, ok := models.ParseTheme(strings.Trim(r.Header.Get(themeHintHeader), `"`)); ok {
		return t
	}
	return models.ThemeLight
}

// ToggleTheme flips and stores the theme. A failed write is reported but
// does not fail the request.
func (h *Handlers) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	next := h.resolveTheme(r).Toggle()

	if err := h.store.Set(r.Context(), store.KeyTheme, []byte(next)); err != nil {
		h.log.Warn().Err(err).Str("theme", string(next)).Msg("failed to persist theme")
		setFlash(w, flashTheme)
	}

	if isPartial(r) {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
