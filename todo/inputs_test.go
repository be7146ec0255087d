package todo

import (
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{ Validate() error }
		wantErr bool
	}{
		{name: "list create", input: ListCreate{Name: "Groceries"}},
		{name: "list create blank", input: ListCreate{Name: "   "}, wantErr: true},
		{name: "list create too long", input: ListCreate{Name: strings.Repeat("a", MaxNameLength+1)}, wantErr: true},
		{name: "list create trimmed to limit", input: ListCreate{Name: " " + strings.Repeat("a", MaxNameLength) + " "}},
		{name: "list update", input: ListUpdate{ID: 1, Name: "Home"}},
		{name: "list update missing id", input: ListUpdate{Name: "Home"}, wantErr: true},
		{name: "by id", input: ByID{ID: 3}},
		{name: "by id negative", input: ByID{ID: -1}, wantErr: true},
		{name: "search", input: Search{Term: "milk"}},
		{name: "search blank", input: Search{Term: " "}, wantErr: true},
		{name: "recent", input: RecentLimit{Limit: 3}},
		{name: "recent zero", input: RecentLimit{}, wantErr: true},
		{name: "recent too many", input: RecentLimit{Limit: MaxRecentLimit + 1}, wantErr: true},
		{name: "task create", input: TaskCreate{ListID: 1, Name: "Milk", Status: StatusNotStarted, DueDate: "2025-01-03"}},
		{name: "task create rfc3339 due", input: TaskCreate{ListID: 1, Name: "Milk", Status: StatusNotStarted, DueDate: "2025-01-03T10:00:00Z"}},
		{name: "task create bad due", input: TaskCreate{ListID: 1, Name: "Milk", Status: StatusNotStarted, DueDate: "tomorrow"}, wantErr: true},
		{name: "task create bad priority", input: TaskCreate{ListID: 1, Name: "Milk", Status: StatusNotStarted, Priority: "urgent"}, wantErr: true},
		{name: "task create without status", input: TaskCreate{ListID: 1, Name: "Milk"}, wantErr: true},
		{name: "task create inconsistent", input: TaskCreate{ListID: 1, Name: "Milk", Status: StatusCompleted}, wantErr: true},
		{name: "task update partial", input: TaskUpdate{ID: 1, Description: ptr("")}},
		{name: "task update blank name", input: TaskUpdate{ID: 1, Name: ptr(" ")}, wantErr: true},
		{name: "task update inconsistent", input: TaskUpdate{ID: 1, Status: ptr(StatusCompleted), IsCompleted: ptr(false)}, wantErr: true},
		{name: "task update bad status", input: TaskUpdate{ID: 1, Status: ptr(Status("done"))}, wantErr: true},
		{name: "task toggle", input: TaskToggle{ID: 1}},
		{name: "by list id", input: ByListID{ListID: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("expected a validation error, got %T", err)
			}
		})
	}
}

func TestTaskCreateNormalize(t *testing.T) {
	in := (&TaskCreate{ListID: 1, Name: "  Milk ", IsCompleted: true}).Normalize()
	if in.Name != "Milk" || in.Status != StatusCompleted || !in.IsCompleted {
		t.Errorf("unexpected normalized input: %+v", in)
	}

	in = (&TaskCreate{ListID: 1, Name: "Milk", Status: StatusInProgress, IsCompleted: true}).Normalize()
	if in.IsCompleted {
		t.Error("status wins over the completion flag")
	}
}

func TestTaskUpdateNormalize(t *testing.T) {
	tests := []struct {
		name          string
		in            TaskUpdate
		wantStatus    *Status
		wantCompleted *bool
	}{
		{name: "neither", in: TaskUpdate{ID: 1, Name: ptr("x")}},
		{
			name:          "status fills completion",
			in:            TaskUpdate{ID: 1, Status: ptr(StatusCompleted)},
			wantStatus:    ptr(StatusCompleted),
			wantCompleted: ptr(true),
		},
		{
			name:          "completion fills status",
			in:            TaskUpdate{ID: 1, IsCompleted: ptr(false)},
			wantStatus:    ptr(StatusNotStarted),
			wantCompleted: ptr(false),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if !equalPtr(got.Status, tt.wantStatus) || !equalPtr(got.IsCompleted, tt.wantCompleted) {
				t.Errorf("Normalize() = status %v completed %v", deref(got.Status), deref(got.IsCompleted))
			}
			if err := got.Validate(); err != nil {
				t.Errorf("normalized update should validate: %v", err)
			}
		})
	}
}

func TestTaskUpdateApply(t *testing.T) {
	task := Task{ID: 1, Name: "Milk", Status: StatusInProgress, Priority: PriorityHigh, DueDate: "2025-01-03"}

	got := TaskUpdate{ID: 1, IsCompleted: ptr(false), Priority: ptr(PriorityNone), DueDate: ptr("")}.Apply(task, noon)
	if got.Status != StatusInProgress || got.IsCompleted {
		t.Errorf("un-completing should keep in_progress, got %+v", got)
	}
	if got.Priority != PriorityNone || got.DueDate != "" {
		t.Errorf("fields should be cleared, got %+v", got)
	}

	got = TaskUpdate{ID: 1, Name: ptr("Oat milk")}.Apply(task, noon)
	if got.Name != "Oat milk" || got.Status != StatusInProgress || got.UpdatedAt == "" {
		t.Errorf("unexpected apply result %+v", got)
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
