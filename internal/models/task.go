package models

import (
	"strings"
)

// Task represents a single entry in the task list.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// Merge returns a copy of the task with every present field of f applied.
func (t Task) Merge(f Fields) Task {
	if f.Name != nil {
		t.Name = strings.TrimSpace(*f.Name)
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
	return t
}

// Fields is the edit buffer for a task. A nil field is absent and keeps
// the task's prior value when merged.
type Fields struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// FieldsFrom seeds an edit buffer with the task's current values.
func FieldsFrom(t Task) Fields {
	name, desc, completed := t.Name, t.Description, t.Completed
	return Fields{
		Name:        &name,
		Description: &desc,
		Completed:   &completed,
	}
}

// Validate checks the buffered values. Name may be absent, but if present
// it must not be blank.
func (f Fields) Validate() error {
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// Overlay applies the present fields of other on top of f.
func (f Fields) Overlay(other Fields) Fields {
	if other.Name != nil {
		f.Name = other.Name
	}
	if other.Description != nil {
		f.Description = other.Description
	}
	if other.Completed != nil {
		f.Completed = other.Completed
	}
	return f
}

// NameValue returns the buffered name or "" when absent.
func (f Fields) NameValue() string {
	if f.Name == nil {
		return ""
	}
	return *f.Name
}

// DescriptionValue returns the buffered description or "" when absent.
func (f Fields) DescriptionValue() string {
	if f.Description == nil {
		return ""
	}
	return *f.Description
}

// CompletedValue returns the buffered completion flag or false when absent.
func (f Fields) CompletedValue() bool {
	return f.Completed != nil && *f.Completed
}
