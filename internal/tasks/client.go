package tasks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"
)

// Client wraps the Google Tasks service
type Client struct {
	svc *tasks.Service
	now func() time.Time
}

// NewClient creates a Tasks client that sends requests through httpClient,
// which is expected to carry OAuth credentials.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}

	return &Client{
		svc: svc,
		now: time.Now,
	}, nil
}

func listOrDefault(taskListID string) string {
	if taskListID == "" {
		return DefaultTaskList
	}
	return taskListID
}

// ListTaskLists lists the task lists of the authenticated user
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	result, err := c.svc.Tasklists.List().MaxResults(DefaultMaxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}

	taskLists := make([]TaskList, 0, len(result.Items))
	for _, tl := range result.Items {
		taskLists = append(taskLists, toTaskList(tl))
	}

	return taskLists, nil
}

// ListTasks lists tasks in a task list. An empty list id means the default list.
func (c *Client) ListTasks(ctx context.Context, taskListID string, opts ListOptions) ([]Task, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	call := c.svc.Tasks.List(listOrDefault(taskListID)).
		MaxResults(maxResults).
		ShowCompleted(opts.ShowCompleted).
		ShowHidden(opts.ShowHidden)

	if !opts.DueMin.IsZero() {
		call = call.DueMin(opts.DueMin.UTC().Format(time.RFC3339))
	}
	if !opts.DueMax.IsZero() {
		call = call.DueMax(opts.DueMax.UTC().Format(time.RFC3339))
	}

	result, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return toTasks(result.Items), nil
}

// GetTask retrieves a specific task by ID
func (c *Client) GetTask(ctx context.Context, taskListID, taskID string) (*Task, error) {
	t, err := c.svc.Tasks.Get(listOrDefault(taskListID), taskID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	result := toTask(t)
	return &result, nil
}

// CreateTask creates a new task
func (c *Client) CreateTask(ctx context.Context, taskListID string, input TaskInput) (*Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	t := &tasks.Task{
		Title: input.Title,
		Notes: input.Notes,
	}
	if input.Due != "" {
		// Validate already checked the format.
		t.Due, _ = parseDue(input.Due)
	}

	created, err := c.svc.Tasks.Insert(listOrDefault(taskListID), t).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	result := toTask(created)
	return &result, nil
}

// UpdateTask fetches the task, applies the non-nil fields of update and writes it back.
func (c *Client) UpdateTask(ctx context.Context, taskListID, taskID string, update TaskUpdate) (*Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	return c.modify(ctx, taskListID, taskID, "update", func(t *tasks.Task) {
		if update.Title != nil {
			t.Title = *update.Title
		}
		if update.Notes != nil {
			t.Notes = *update.Notes
			if t.Notes == "" {
				t.ForceSendFields = append(t.ForceSendFields, "Notes")
			}
		}
		if update.Due != nil {
			if *update.Due == "" {
				t.Due = ""
				t.NullFields = append(t.NullFields, "Due")
			} else {
				t.Due, _ = parseDue(*update.Due)
			}
		}
		if update.Status != nil {
			c.setStatus(t, *update.Status)
		}
	})
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, taskListID, taskID string) error {
	if err := c.svc.Tasks.Delete(listOrDefault(taskListID), taskID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// CompleteTask marks a task as completed
func (c *Client) CompleteTask(ctx context.Context, taskListID, taskID string) (*Task, error) {
	return c.modify(ctx, taskListID, taskID, "complete", func(t *tasks.Task) {
		c.setStatus(t, StatusCompleted)
	})
}

// UncompleteTask marks a task as not completed and clears its completion time
func (c *Client) UncompleteTask(ctx context.Context, taskListID, taskID string) (*Task, error) {
	return c.modify(ctx, taskListID, taskID, "uncomplete", func(t *tasks.Task) {
		c.setStatus(t, StatusNeedsAction)
	})
}

// setStatus keeps the completion timestamp consistent with the status.
func (c *Client) setStatus(t *tasks.Task, status string) {
	if t.Status == status {
		return
	}
	t.Status = status

	switch status {
	case StatusCompleted:
		completed := c.now().UTC().Format(time.RFC3339)
		t.Completed = &completed
	case StatusNeedsAction:
		t.Completed = nil
		t.NullFields = append(t.NullFields, "Completed")
	}
}

func (c *Client) modify(ctx context.Context, taskListID, taskID, verb string, apply func(*tasks.Task)) (*Task, error) {
	listID := listOrDefault(taskListID)

	existing, err := c.svc.Tasks.Get(listID, taskID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	apply(existing)

	updated, err := c.svc.Tasks.Update(listID, taskID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to %s task: %w", verb, err)
	}

	result := toTask(updated)
	return &result, nil
}
