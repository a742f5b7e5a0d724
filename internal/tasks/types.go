package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tasks "google.golang.org/api/tasks/v1"

	"github.com/teemow/szymon/internal/week"
)

// Task status values accepted by Google Tasks.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// DefaultTaskList is the alias Google resolves to the user's primary list.
const DefaultTaskList = "@default"

// DefaultMaxResults caps list calls when the caller does not specify a limit.
const DefaultMaxResults = 100

// ErrInvalidInput is wrapped by validation failures of task input.
var ErrInvalidInput = errors.New("invalid task input")

// TaskList represents a Google Tasks task list
type TaskList struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Updated time.Time `json:"updated,omitzero"`
}

// Task represents a Google Tasks task. Due has date precision only; Google drops
// the time of day.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Status      string     `json:"status"`
	Due         *week.Date `json:"due,omitempty"`
	Updated     time.Time  `json:"updated,omitzero"`
	Completed   time.Time  `json:"completed,omitzero"`
	Parent      string     `json:"parent,omitempty"`
	Position    string     `json:"position,omitempty"`
	WebViewLink string     `json:"webViewLink,omitempty"`
}

// IsCompleted reports whether the task is marked done.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// DueDate returns the due date, if any. It is the bucketing key of the weekly board.
func (t Task) DueDate() (week.Date, bool) {
	if t.Due == nil || t.Due.IsZero() {
		return week.Date{}, false
	}
	return *t.Due, true
}

// TaskInput is the body of a create request.
type TaskInput struct {
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
	// Due accepts YYYY-MM-DD or an RFC 3339 timestamp.
	Due string `json:"due,omitempty"`
}

// Validate checks the input before it is sent to Google.
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Due != "" {
		if _, err := parseDue(in.Due); err != nil {
			return err
		}
	}
	return nil
}

// TaskUpdate is the body of an update request. Nil fields are left unchanged;
// an empty Due clears the due date.
type TaskUpdate struct {
	Title  *string `json:"title,omitempty"`
	Notes  *string `json:"notes,omitempty"`
	Due    *string `json:"due,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Validate checks the update before it is sent to Google.
func (u TaskUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if u.Due != nil && *u.Due != "" {
		if _, err := parseDue(*u.Due); err != nil {
			return err
		}
	}
	if u.Status != nil {
		if err := validateStatus(*u.Status); err != nil {
			return err
		}
	}
	return nil
}

// ListOptions narrows a task listing.
type ListOptions struct {
	ShowCompleted bool
	ShowHidden    bool
	MaxResults    int64
	DueMin        time.Time
	DueMax        time.Time
}

func validateStatus(status string) error {
	switch status {
	case StatusNeedsAction, StatusCompleted:
		return nil
	}
	return fmt.Errorf("%w: status must be %q or %q, got %q", ErrInvalidInput, StatusNeedsAction, StatusCompleted, status)
}

// parseDue normalizes a due value to the midnight-UTC timestamp Google expects.
func parseDue(s string) (string, error) {
	d, err := week.ParseDate(s)
	if err != nil {
		return "", fmt.Errorf("%w: due: %v", ErrInvalidInput, err)
	}
	return week.RFC3339(d), nil
}

// toTaskList converts a Google Tasks TaskList to our TaskList type
func toTaskList(tl *tasks.TaskList) TaskList {
	if tl == nil {
		return TaskList{}
	}

	return TaskList{
		ID:      tl.Id,
		Title:   tl.Title,
		Updated: parseTimestamp(tl.Updated),
	}
}

// toTask converts a Google Tasks Task to our Task type
func toTask(t *tasks.Task) Task {
	if t == nil {
		return Task{}
	}

	result := Task{
		ID:          t.Id,
		Title:       t.Title,
		Notes:       t.Notes,
		Status:      t.Status,
		Updated:     parseTimestamp(t.Updated),
		Parent:      t.Parent,
		Position:    t.Position,
		WebViewLink: t.WebViewLink,
	}

	if t.Due != "" {
		if due, err := week.ParseDate(t.Due); err == nil {
			result.Due = &due
		}
	}

	if t.Completed != nil {
		result.Completed = parseTimestamp(*t.Completed)
	}

	return result
}

func toTasks(items []*tasks.Task) []Task {
	result := make([]Task, 0, len(items))
	for _, t := range items {
		result = append(result, toTask(t))
	}
	return result
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
