package todo

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxNameLength bounds list and task names, counted in runes after trimming.
	MaxNameLength = 100
	// MaxRecentLimit bounds the recent lists query.
	MaxRecentLimit = 50
)

var nameRules = []validation.Rule{
	validation.Required.Error("name is required"),
	validation.Length(1, MaxNameLength).Error("name is too long"),
}

var idRules = []validation.Rule{
	validation.Required,
	validation.Min(int64(1)),
}

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return true
	}
	var single validation.Error
	return errors.As(err, &single)
}

// ListCreate is the input for creating a list.
type ListCreate struct {
	Name string `json:"name"`
}

// Normalize trims the name in place and returns the receiver.
func (in *ListCreate) Normalize() *ListCreate {
	in.Name = strings.TrimSpace(in.Name)
	return in
}

// Validate implements validation.Validatable.
func (in ListCreate) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, nameRules...),
	)
}

// ListUpdate is the input for renaming a list.
type ListUpdate struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Normalize trims the name in place and returns the receiver.
func (in *ListUpdate) Normalize() *ListUpdate {
	in.Name = strings.TrimSpace(in.Name)
	return in
}

// Validate implements validation.Validatable.
func (in ListUpdate) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, idRules...),
		validation.Field(&in.Name, nameRules...),
	)
}

// ByID identifies a single record.
type ByID struct {
	ID int64 `json:"id"`
}

// Validate implements validation.Validatable.
func (in ByID) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, idRules...),
	)
}

// Search is a name search term.
type Search struct {
	Term string `json:"term"`
}

// Validate implements validation.Validatable.
func (in Search) Validate() error {
	in.Term = strings.TrimSpace(in.Term)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Term, validation.Required, validation.Length(1, MaxNameLength)),
	)
}

// RecentLimit caps the number of recent lists returned.
type RecentLimit struct {
	Limit int `json:"limit"`
}

// Validate implements validation.Validatable.
func (in RecentLimit) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Limit, validation.Required, validation.Min(1), validation.Max(MaxRecentLimit)),
	)
}

// TaskCreate is the input for creating a task.
type TaskCreate struct {
	ListID      int64    `json:"list_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	Status      Status   `json:"status"`
	IsCompleted bool     `json:"is_completed"`
}

// Normalize trims text fields, defaults the status and derives the completion
// flag from it.
func (in *TaskCreate) Normalize() *TaskCreate {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	if in.Status == "" {
		in.Status = StatusForCompletion(in.IsCompleted, StatusNotStarted)
	}
	in.IsCompleted = in.Status == StatusCompleted
	return in
}

// Validate implements validation.Validatable.
func (in TaskCreate) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	return validation.ValidateStruct(&in,
		validation.Field(&in.ListID, idRules...),
		validation.Field(&in.Name, nameRules...),
		validation.Field(&in.Priority, validation.In(priorityValues()...)),
		validation.Field(&in.DueDate, validation.By(isoDate)),
		validation.Field(&in.Status, validation.Required, validation.In(statusValues()...)),
		validation.Field(&in.IsCompleted, validation.By(matchesStatus(in.Status))),
	)
}

// TaskUpdate is a partial task update. Nil fields are left untouched.
type TaskUpdate struct {
	ID          int64     `json:"id"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	IsCompleted *bool     `json:"is_completed,omitempty"`
}

// Normalize trims text fields and fills in whichever of Status and IsCompleted
// is missing so that both always travel together.
func (in *TaskUpdate) Normalize() *TaskUpdate {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if in.Description != nil {
		trimmed := strings.TrimSpace(*in.Description)
		in.Description = &trimmed
	}
	switch {
	case in.Status != nil:
		completed := *in.Status == StatusCompleted
		in.IsCompleted = &completed
	case in.IsCompleted != nil:
		status := StatusForCompletion(*in.IsCompleted, StatusNotStarted)
		in.Status = &status
	}
	return in
}

// Apply returns t with the update's fields applied.
func (in TaskUpdate) Apply(t Task, now time.Time) Task {
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	switch {
	case in.Status != nil:
		return t.WithStatus(*in.Status, now)
	case in.IsCompleted != nil:
		return t.WithCompletion(*in.IsCompleted, now)
	}
	t.UpdatedAt = FormatTime(now)
	return t
}

// Validate implements validation.Validatable.
func (in TaskUpdate) Validate() error {
	var status Status
	if in.Status != nil {
		status = *in.Status
	}
	rules := []*validation.FieldRules{
		validation.Field(&in.ID, idRules...),
		validation.Field(&in.Name, validation.NilOrNotEmpty.Error("name is required"), validation.By(trimmedLength)),
		validation.Field(&in.Priority, validation.In(priorityValues()...)),
		validation.Field(&in.DueDate, validation.By(isoDate)),
		validation.Field(&in.Status, validation.In(statusValues()...)),
	}
	if in.Status != nil {
		rules = append(rules, validation.Field(&in.IsCompleted, validation.By(matchesStatus(status))))
	}
	return validation.ValidateStruct(&in, rules...)
}

// TaskToggle sets the completion flag of a task.
type TaskToggle struct {
	ID          int64 `json:"id"`
	IsCompleted bool  `json:"is_completed"`
}

// Validate implements validation.Validatable.
func (in TaskToggle) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, idRules...),
	)
}

// ByListID selects the tasks of one list.
type ByListID struct {
	ListID int64 `json:"list_id"`
}

// Validate implements validation.Validatable.
func (in ByListID) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ListID, idRules...),
	)
}

func statusValues() []any {
	out := make([]any, len(Statuses))
	for i, s := range Statuses {
		out[i] = s
	}
	return out
}

func priorityValues() []any {
	out := make([]any, len(Priorities))
	for i, p := range Priorities {
		out[i] = p
	}
	return out
}

var errInvalidDate = validation.NewError("validation_invalid_date", "must be an ISO-8601 date")

// isoDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func isoDate(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return nil
	}
	return errInvalidDate
}

func trimmedLength(value any) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	n := len([]rune(strings.TrimSpace(*s)))
	if n == 0 {
		return validation.NewError("validation_required", "name is required")
	}
	if n > MaxNameLength {
		return validation.NewError("validation_length_too_long", "name is too long")
	}
	return nil
}

func matchesStatus(status Status) validation.RuleFunc {
	return func(value any) error {
		var completed bool
		switch v := value.(type) {
		case bool:
			completed = v
		case *bool:
			if v == nil {
				return nil
			}
			completed = *v
		default:
			return nil
		}
		if completed != (status == StatusCompleted) {
			return validation.NewError("validation_completion_mismatch", "is_completed must match status")
		}
		return nil
	}
}
