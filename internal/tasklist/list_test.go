package tasklist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/models"
	"tasklist/internal/store"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func openTestList(t *testing.T, opts ...Option) (*List, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	l, err := Open(context.Background(), mem, opts...)
	require.NoError(t, err)
	return l, mem
}

func storedTasks(t *testing.T, s store.Store) []models.Task {
	t.Helper()
	data, err := s.Get(context.Background(), store.KeyTasks)
	require.NoError(t, err)
	tasks, err := Decode(data)
	require.NoError(t, err)
	return tasks
}

func TestOpen_EmptyStore(t *testing.T) {
	l, mem := openTestList(t)

	assert.Empty(t, l.Tasks())
	_, editing := l.EditingID()
	assert.False(t, editing)
	assert.Zero(t, mem.Writes(), "opening must not write")
}

func TestOpen_CorruptValueStartsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not json", value: "{{{"},
		{name: "object instead of array", value: `{"id":"a"}`},
		{name: "wrong field types", value: `[{"id":1,"name":true}]`},
		{name: "null", value: "null"},
		{name: "empty", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemoryStore()
			require.NoError(t, mem.Set(context.Background(), store.KeyTasks, []byte(tt.value)))

			var logs bytes.Buffer
			l, err := Open(context.Background(), mem, WithLogger(zerolog.New(&logs)))
			require.NoError(t, err)
			assert.Empty(t, l.Tasks())
		})
	}
}

func TestOpen_DropsDuplicateAndInvalidEntries(t *testing.T) {
	mem := store.NewMemoryStore()
	raw := `[{"id":"a","name":"first"},{"id":"a","name":"dup"},{"id":"","name":"no id"},{"id":"b","name":"  "},{"id":"c","name":"ok","completed":true}]`
	require.NoError(t, mem.Set(context.Background(), store.KeyTasks, []byte(raw)))

	l, err := Open(context.Background(), mem)
	require.NoError(t, err)

	assert.Equal(t, []models.Task{
		{ID: "a", Name: "first"},
		{ID: "c", Name: "ok", Completed: true},
	}, l.Tasks())
}

type failingReader struct {
	store.MemoryStore
}

func (f *failingReader) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk unreadable")
}

func TestOpen_ReadErrorIsReturned(t *testing.T) {
	_, err := Open(context.Background(), &failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk unreadable")
}

func TestAdd_AssignsDistinctIDs(t *testing.T) {
	l, _ := openTestList(t)
	ctx := context.Background()

	const n = 25
	for i := 0; i < n; i++ {
		_, err := l.Add(ctx, fmt.Sprintf("task %d", i))
		require.NoError(t, err)
	}

	tasks := l.Tasks()
	require.Len(t, tasks, n)

	seen := make(map[string]bool, n)
	for _, task := range tasks {
		assert.NotEmpty(t, task.ID)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
		assert.False(t, task.Completed)
		assert.Empty(t, task.Description)
	}
}

func TestAdd_RejectsBlankName(t *testing.T) {
	l, mem := openTestList(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := l.Add(ctx, name)
		require.Error(t, err)
		assert.True(t, models.IsValidation(err))
	}

	assert.Zero(t, l.Len())
	assert.Zero(t, mem.Writes())
}

func TestAdd_TrimsAndAllowsDuplicates(t *testing.T) {
	l, _ := openTestList(t, WithIDGenerator(counterIDs()))
	ctx := context.Background()

	first, err := l.Add(ctx, "  Buy milk ")
	require.NoError(t, err)
	second, err := l.Add(ctx, "Buy milk")
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", first.Name)
	assert.Equal(t, "Buy milk", second.Name)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAdd_RetriesCollidingIDs(t *testing.T) {
	ids := []string{"same", "same", "same", "other"}
	gen := func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	l, _ := openTestList(t, WithIDGenerator(gen))
	ctx := context.Background()

	a, err := l.Add(ctx, "a")
	require.NoError(t, err)
	b, err := l.Add(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, "same", a.ID)
	assert.Equal(t, "other", b.ID)
}

func TestAdd_GivesUpOnExhaustedGenerator(t *testing.T) {
	l, _ := openTestList(t, WithIDGenerator(func() string { return "fixed" }))
	ctx := context.Background()

	_, err := l.Add(ctx, "a")
	require.NoError(t, err)
	_, err = l.Add(ctx, "b")
	require.Error(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestBeginEditThenCancel_LeavesTaskUnchanged(t *testing.T) {
	l, _ := openTestList(t)
	ctx := context.Background()

	task, err := l.Add(ctx, "Write report")
	require.NoError(t, err)
	before := l.Tasks()

	require.NoError(t, l.BeginEdit(task.ID))
	id, editing := l.EditingID()
	assert.True(t, editing)
	assert.Equal(t, task.ID, id)
	assert.Equal(t, "Write report", l.Editing().Buffer.NameValue())

	l.Cancel()
	_, editing = l.EditingID()
	assert.False(t, editing)
	assert.Equal(t, before, l.Tasks())

	// Idempotent
	l.Cancel()
	assert.False(t, l.Editing().Active())
}

func TestBeginEdit_UnknownID(t *testing.T) {
	l, _ := openTestList(t)

	err := l.BeginEdit("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, l.Editing().Active())
}

func TestBeginEdit_MovesFocusWithoutSaving(t *testing.T) {
	l, mem := openTestList(t)
	ctx := context.Background()

	a, _ := l.Add(ctx, "A")
	b, _ := l.Add(ctx, "B")
	writes := mem.Writes()

	require.NoError(t, l.BeginEdit(a.ID))
	l.UpdateBuffer(a.ID, models.Fields{Name: strPtr("A edited")})
	require.NoError(t, l.BeginEdit(b.ID))

	assert.Equal(t, b.ID, l.Editing().ID)
	assert.Equal(t, "B", l.Editing().Buffer.NameValue())

	got, err := l.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name, "unsaved buffer must not be applied")
	assert.Equal(t, writes, mem.Writes())
}

func TestUpdateBuffer_IgnoredForOtherRows(t *testing.T) {
	l, _ := openTestList(t)
	ctx := context.Background()

	a, _ := l.Add(ctx, "A")
	b, _ := l.Add(ctx, "B")
	require.NoError(t, l.BeginEdit(a.ID))

	l.UpdateBuffer(b.ID, models.Fields{Name: strPtr("nope")})
	assert.Equal(t, "A", l.Editing().Buffer.NameValue())

	l.UpdateBuffer(a.ID, models.Fields{Completed: boolPtr(true)})
	assert.True(t, l.Editing().Buffer.CompletedValue())
}

func TestSave_ValidationFailureKeepsEditOpen(t *testing.T) {
	l, mem := openTestList(t)
	ctx := context.Background()

	task, _ := l.Add(ctx, "Original")
	writes := mem.Writes()
	require.NoError(t, l.BeginEdit(task.ID))

	err := l.Save(ctx, task.ID, models.Fields{Name: strPtr("")})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	id, editing := l.EditingID()
	assert.True(t, editing)
	assert.Equal(t, task.ID, id)

	got, _ := l.Get(task.ID)
	assert.Equal(t, task, got)
	assert.Equal(t, writes, mem.Writes())
}

func TestSave_UpdatesOnlyTargetTask(t *testing.T) {
	l, mem := openTestList(t, WithIDGenerator(counterIDs()))
	ctx := context.Background()

	x, _ := l.Add(ctx, "x")
	y, _ := l.Add(ctx, "y")
	z, _ := l.Add(ctx, "z")

	require.NoError(t, l.BeginEdit(y.ID))
	require.NoError(t, l.Save(ctx, y.ID, models.Fields{Name: strPtr("B"), Completed: boolPtr(true)}))

	assert.Equal(t, []models.Task{
		x,
		{ID: y.ID, Name: "B", Completed: true},
		z,
	}, l.Tasks())
	assert.False(t, l.Editing().Active())
	assert.Equal(t, l.Tasks(), storedTasks(t, mem))
}

func TestSave_AbsentFieldsKeepPriorValues(t *testing.T) {
	l, _ := openTestList(t)
	ctx := context.Background()

	task, _ := l.Add(ctx, "Keep me")
	require.NoError(t, l.BeginEdit(task.ID))
	require.NoError(t, l.Save(ctx, task.ID, models.Fields{Description: strPtr("notes")}))

	got, _ := l.Get(task.ID)
	assert.Equal(t, "Keep me", got.Name)
	assert.Equal(t, "notes", got.Description)
	assert.False(t, got.Completed)
}

func TestSave_MissingIDClearsEditWithoutChanges(t *testing.T) {
	l, mem := openTestList(t)
	ctx := context.Background()

	task, _ := l.Add(ctx, "A")
	require.NoError(t, l.BeginEdit(task.ID))
	writes := mem.Writes()

	err := l.Save(ctx, "gone", models.Fields{Name: strPtr("B")})
	require.NoError(t, err)

	assert.False(t, l.Editing().Active())
	assert.Equal(t, []models.Task{task}, l.Tasks())
	assert.Equal(t, writes, mem.Writes())
}

func TestRemove_PreservesOrderAndIsIdempotent(t *testing.T) {
	l, mem := openTestList(t, WithIDGenerator(counterIDs()))
	ctx := context.Background()

	x, _ := l.Add(ctx, "x")
	y, _ := l.Add(ctx, "y")
	z, _ := l.Add(ctx, "z")

	require.NoError(t, l.Remove(ctx, x.ID))
	assert.Equal(t, []models.Task{y, z}, l.Tasks())
	assert.Equal(t, []models.Task{y, z}, storedTasks(t, mem))

	writes := mem.Writes()
	require.NoError(t, l.Remove(ctx, x.ID))
	assert.Equal(t, []models.Task{y, z}, l.Tasks())
	assert.Equal(t, writes, mem.Writes(), "no-op remove must not persist")
}

func TestRemove_EditingRowClearsEdit(t *testing.T) {
	l, _ := openTestList(t)
	ctx := context.Background()

	a, _ := l.Add(ctx, "A")
	b, _ := l.Add(ctx, "B")

	require.NoError(t, l.BeginEdit(b.ID))
	require.NoError(t, l.Remove(ctx, a.ID))
	assert.Equal(t, b.ID, l.Editing().ID, "removing another row keeps the edit")

	require.NoError(t, l.Remove(ctx, b.ID))
	assert.False(t, l.Editing().Active())
}

func TestPersistenceFailure_KeepsMemoryMutation(t *testing.T) {
	var logs bytes.Buffer
	l, mem := openTestList(t, WithLogger(zerolog.New(&logs)))
	ctx := context.Background()

	kept, err := l.Add(ctx, "kept")
	require.NoError(t, err)

	quota := errors.New("quota exceeded")
	mem.FailWrites(quota)

	added, err := l.Add(ctx, "unsaved")
	require.Error(t, err)
	assert.True(t, models.IsPersistence(err))
	assert.ErrorIs(t, err, quota)
	assert.Equal(t, 2, l.Len(), "in-memory add must survive a failed write")
	assert.Contains(t, logs.String(), "failed to persist tasks")

	require.NoError(t, l.BeginEdit(added.ID))
	err = l.Save(ctx, added.ID, models.Fields{Completed: boolPtr(true)})
	assert.True(t, models.IsPersistence(err))
	got, _ := l.Get(added.ID)
	assert.True(t, got.Completed)
	assert.False(t, l.Editing().Active())

	err = l.Remove(ctx, kept.ID)
	assert.True(t, models.IsPersistence(err))
	assert.Equal(t, 1, l.Len())

	// Storage still holds the last good state until a write succeeds.
	assert.Equal(t, []models.Task{kept}, storedTasks(t, mem))

	mem.FailWrites(nil)
	require.NoError(t, l.Flush(ctx))
	assert.Equal(t, l.Tasks(), storedTasks(t, mem))
}

func TestReopen_RestoresState(t *testing.T) {
	l, mem := openTestList(t)
	ctx := context.Background()

	a, _ := l.Add(ctx, "A")
	_, _ = l.Add(ctx, "B")
	require.NoError(t, l.BeginEdit(a.ID))
	require.NoError(t, l.Save(ctx, a.ID, models.Fields{Completed: boolPtr(true)}))

	reopened, err := Open(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, l.Tasks(), reopened.Tasks())
	assert.False(t, reopened.Editing().Active(), "edit state is never persisted")
}

func TestScenario_BuyMilk(t *testing.T) {
	l, mem := openTestList(t)
	ctx := context.Background()

	task, err := l.Add(ctx, "Buy milk")
	require.NoError(t, err)

	tasks := l.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Name)
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, tasks, storedTasks(t, mem))

	require.NoError(t, l.BeginEdit(task.ID))
	require.NoError(t, l.Save(ctx, task.ID, models.Fields{Completed: boolPtr(true)}))

	tasks = l.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Name)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, tasks, storedTasks(t, mem))
}

func TestTasks_ReturnsCopy(t *testing.T) {
	l, _ := openTestList(t)
	ctx := context.Background()

	_, _ = l.Add(ctx, "A")
	tasks := l.Tasks()
	tasks[0].Name = "mutated"

	assert.Equal(t, "A", l.Tasks()[0].Name)
}

func TestOpen_WithSQLiteStore(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	l, err := Open(ctx, s)
	require.NoError(t, err)
	_, err = l.Add(ctx, `quote " backslash \ unicode ✓`)
	require.NoError(t, err)

	var logs bytes.Buffer
	reopened, err := Open(ctx, s, WithLogger(zerolog.New(&logs)))
	require.NoError(t, err)
	assert.Equal(t, l.Tasks(), reopened.Tasks())
	assert.Contains(t, logs.String(), `"last_saved"`)
}

func TestConcurrentOperations_StoreMatchesMemory(t *testing.T) {
	l, mem := openTestList(t)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			task, err := l.Add(ctx, fmt.Sprintf("task %d", i))
			if err != nil {
				t.Errorf("Add failed: %v", err)
				return
			}
			_ = l.BeginEdit(task.ID)
			_ = l.Len()
			if err := l.Save(ctx, task.ID, models.Fields{Completed: boolPtr(true)}); err != nil {
				t.Errorf("Save failed: %v", err)
			}
			if i%2 == 1 {
				if err := l.Remove(ctx, task.ID); err != nil {
					t.Errorf("Remove failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	tasks := l.Tasks()
	require.Len(t, tasks, workers/2)
	for _, task := range tasks {
		assert.True(t, task.Completed, task.Name)
	}
	assert.Equal(t, tasks, storedTasks(t, mem))
}
