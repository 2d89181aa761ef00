// Package tasklist holds the in-memory task list and its edit pointer, and
// writes the whole list through to a key-value store after every change.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tasklist/internal/models"
	"tasklist/internal/store"
)

// maxIDAttempts bounds retries when the generator returns an id in use.
const maxIDAttempts = 16

// List is the task store. Every method runs to completion under one lock,
// so callers observe operations in a single total order.
type List struct {
	mu      sync.Mutex
	store   store.Store
	log     zerolog.Logger
	newID   func() string
	tasks   []models.Task
	editing EditState
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the logger used for load and persistence warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *List) {
		l.log = logger
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(l *List) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// Open loads the list stored under store.KeyTasks. A missing or malformed
// value yields an empty list; only a failing read is returned as an error.
func Open(ctx context.Context, s store.Store, opts ...Option) (*List, error) {
	l := &List{
		store: s,
		log:   zerolog.Nop(),
		newID: uuid.NewString,
		tasks: []models.Task{},
	}
	for _, opt := range opts {
		opt(l)
	}

	data, err := s.Get(ctx, store.KeyTasks)
	if errors.Is(err, store.ErrKeyNotFound) {
		l.log.Debug().Msg("no stored tasks, starting empty")
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	tasks, err := Decode(data)
	if err != nil {
		l.log.Warn().Err(err).Int("bytes", len(data)).Msg("stored tasks unreadable, starting empty")
		return l, nil
	}

	tasks, dropped := sanitize(tasks)
	if dropped > 0 {
		l.log.Warn().Int("dropped", dropped).Msg("discarded invalid stored tasks")
	}
	l.tasks = tasks

	ev := l.log.Info().Int("count", len(tasks))
	if ts, ok := s.(store.Timestamped); ok {
		if at, err := ts.UpdatedAt(ctx, store.KeyTasks); err == nil {
			ev = ev.Time("last_saved", at)
		}
	}
	ev.Msg("loaded tasks")

	return l, nil
}

// Tasks returns a copy of the list in stored order.
func (l *List) Tasks() []models.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.tasks)
}

// Len returns the number of tasks.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Get returns the task with id.
func (l *List) Get(id string) (models.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return models.Task{}, models.ErrNotFound
	}
	return l.tasks[i], nil
}

// Editing returns the current edit state.
func (l *List) Editing() EditState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.editing
}

// EditingID returns the id being edited, if any.
func (l *List) EditingID() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.editing.ID, l.editing.Active()
}

// Add appends a new pending task named name and persists the list. A blank
// name is rejected with a ValidationError and leaves the list unchanged.
func (l *List) Add(ctx context.Context, name string) (models.Task, error) {
	task := models.Task{Name: strings.TrimSpace(name)}
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.uniqueID()
	if err != nil {
		return models.Task{}, err
	}
	task.ID = id

	l.tasks = append(l.tasks, task)
	l.log.Debug().Str("task_id", id).Msg("task added")

	return task, l.persist(ctx)
}

// BeginEdit opens the row with id for editing, seeding the buffer from the
// task's current values. Any other unsaved buffer is discarded.
func (l *List) BeginEdit(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return models.ErrNotFound
	}

	if l.editing.Active() && l.editing.ID != id {
		l.log.Debug().Str("task_id", l.editing.ID).Msg("discarding unsaved edit")
	}
	l.editing = EditState{ID: id, Buffer: models.FieldsFrom(l.tasks[i])}
	return nil
}

// UpdateBuffer overlays fields onto the open edit buffer for id. It does
// nothing unless id is the row being edited.
func (l *List) UpdateBuffer(id string, fields models.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.editing.Is(id) {
		l.editing.Buffer = l.editing.Buffer.Overlay(fields)
	}
}

// Save validates fields and merges them into the task with id, closes the
// edit and persists the list. On a ValidationError nothing changes and the
// edit stays open. If id is no longer in the list the edit is closed and
// nothing else happens.
func (l *List) Save(ctx context.Context, id string, fields models.Fields) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := fields.Validate(); err != nil {
		if l.editing.Is(id) {
			l.editing.Buffer = l.editing.Buffer.Overlay(fields)
		}
		return err
	}

	i := l.indexOf(id)
	if i < 0 {
		l.log.Debug().Str("task_id", id).Msg("save for missing task ignored")
		l.editing = EditState{}
		return nil
	}

	l.tasks[i] = l.tasks[i].Merge(fields)
	l.editing = EditState{}

	return l.persist(ctx)
}

// Cancel closes any open edit without changing a task.
func (l *List) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editing = EditState{}
}

// Remove deletes the task with id and persists the list. A missing id is a
// no-op. Removing the row being edited closes the edit.
func (l *List) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return nil
	}

	l.tasks = slices.Delete(l.tasks, i, i+1)
	if l.editing.Is(id) {
		l.editing = EditState{}
	}
	l.log.Debug().Str("task_id", id).Msg("task removed")

	return l.persist(ctx)
}

// Flush writes the current list to the store.
func (l *List) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persist(ctx)
}

func (l *List) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(l.tasks, func(t models.Task) bool {
		return t.ID == id
	})
}

func (l *List) uniqueID() (string, error) {
	for range maxIDAttempts {
		id := l.newID()
		if id != "" && l.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique task id after %d attempts", maxIDAttempts)
}

// persist writes the whole list. The caller holds l.mu. A failed write is
// logged and returned as a PersistenceError; memory is left as is.
func (l *List) persist(ctx context.Context) error {
	data, err := Encode(l.tasks)
	if err != nil {
		return &models.PersistenceError{Key: store.KeyTasks, Err: err}
	}

	if err := l.store.Set(ctx, store.KeyTasks, data); err != nil {
		l.log.Warn().Err(err).Int("count", len(l.tasks)).Msg("failed to persist tasks")
		return &models.PersistenceError{Key: store.KeyTasks, Err: err}
	}
	return nil
}
