package models

import (
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTaskValidation_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty name should fail",
			task:    Task{ID: "a", Name: ""},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name:    "whitespace name should fail",
			task:    Task{ID: "a", Name: "   \t"},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name:    "valid task should pass",
			task:    Task{ID: "a", Name: "Buy milk"},
			wantErr: false,
		},
		{
			name:    "description is optional",
			task:    Task{ID: "a", Name: "Buy milk", Description: ""},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				} else if err.Error() != tt.errMsg {
					t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
				}
				if !IsValidation(err) {
					t.Errorf("expected a ValidationError, got %T", err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestTask_Merge(t *testing.T) {
	base := Task{ID: "x", Name: "A", Description: "first", Completed: false}

	tests := []struct {
		name     string
		fields   Fields
		expected Task
	}{
		{
			name:     "empty buffer keeps everything",
			fields:   Fields{},
			expected: base,
		},
		{
			name:     "name and completed applied",
			fields:   Fields{Name: strPtr("B"), Completed: boolPtr(true)},
			expected: Task{ID: "x", Name: "B", Description: "first", Completed: true},
		},
		{
			name:     "name is trimmed",
			fields:   Fields{Name: strPtr("  B  ")},
			expected: Task{ID: "x", Name: "B", Description: "first"},
		},
		{
			name:     "description can be cleared",
			fields:   Fields{Description: strPtr("")},
			expected: Task{ID: "x", Name: "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := base.Merge(tt.fields)
			if result != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, result)
			}
		})
	}

	if base.Name != "A" {
		t.Errorf("merge must not modify the receiver, got name %q", base.Name)
	}
}

func TestFieldsFrom_SeedsAllValues(t *testing.T) {
	task := Task{ID: "x", Name: "Read", Description: "book", Completed: true}
	f := FieldsFrom(task)

	if f.NameValue() != "Read" || f.DescriptionValue() != "book" || !f.CompletedValue() {
		t.Fatalf("unexpected buffer: name=%q desc=%q completed=%v", f.NameValue(), f.DescriptionValue(), f.CompletedValue())
	}

	// The buffer must not alias the task.
	*f.Name = "changed"
	if task.Name != "Read" {
		t.Errorf("buffer aliases task name")
	}
}

func TestFields_Validate(t *testing.T) {
	if err := (Fields{}).Validate(); err != nil {
		t.Errorf("absent name should be valid, got %v", err)
	}
	if err := (Fields{Name: strPtr(" ")}).Validate(); !IsValidation(err) {
		t.Errorf("blank name should fail validation, got %v", err)
	}
	if err := (Fields{Name: strPtr("ok")}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFields_Overlay(t *testing.T) {
	f := Fields{Name: strPtr("A"), Completed: boolPtr(false)}
	f = f.Overlay(Fields{Completed: boolPtr(true)})

	if f.NameValue() != "A" {
		t.Errorf("expected name to be kept, got %q", f.NameValue())
	}
	if !f.CompletedValue() {
		t.Error("expected completed to be overlaid")
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&PersistenceError{Key: "tasks", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("expected PersistenceError to unwrap to its cause")
	}
	if !IsPersistence(err) {
		t.Error("expected IsPersistence to match")
	}
	if err.Error() != `failed to persist "tasks": disk full` {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestParseTheme(t *testing.T) {
	tests := []struct {
		input string
		want  Theme
		ok    bool
	}{
		{"dark", ThemeDark, true},
		{" Light ", ThemeLight, true},
		{"DARK", ThemeDark, true},
		{"", "", false},
		{"solarized", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTheme(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTheme(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}

	if ThemeDark.Toggle() != ThemeLight || ThemeLight.Toggle() != ThemeDark {
		t.Error("toggle should flip the theme")
	}
}
