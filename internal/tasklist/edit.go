package tasklist

import "tasklist/internal/models"

// EditState is the single edit pointer. The zero value means no row is
// being edited.
type EditState struct {
	ID     string
	Buffer models.Fields
}

// Active reports whether a row is being edited.
func (e EditState) Active() bool {
	return e.ID != ""
}

// Is reports whether the row with id is the one being edited.
func (e EditState) Is(id string) bool {
	return e.Active() && e.ID == id
}
