package tasklist

import (
	"encoding/json"
	"fmt"

	"tasklist/internal/models"
)

// Encode serializes tasks in order. An empty or nil list encodes as "[]".
func Encode(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tasks: %w", err)
	}
	return data, nil
}

// Decode parses a stored task list. It fails on anything that is not a JSON
// array of task objects; callers treat that as an absent list.
func Decode(data []byte) ([]models.Task, error) {
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	if tasks == nil {
		// "null" decodes without error
		tasks = []models.Task{}
	}
	return tasks, nil
}

// sanitize drops entries that break the list invariants: empty ids, blank
// names and repeats of an id already seen. The first occurrence wins.
func sanitize(tasks []models.Task) ([]models.Task, int) {
	seen := make(map[string]struct{}, len(tasks))
	clean := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" || t.Validate() != nil {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		clean = append(clean, t)
	}
	return clean, len(tasks) - len(clean)
}
