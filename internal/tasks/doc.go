// Package tasks provides a client for managing Google Tasks.
//
// This package wraps the Google Tasks API (tasks/v1) and provides:
//   - Listing task lists
//   - Listing, reading, creating, updating and deleting tasks
//   - Completing and reopening tasks
//
// Due dates are date-only: input accepts YYYY-MM-DD or an RFC 3339 timestamp and is
// stored as midnight UTC, output is YYYY-MM-DD.
//
// # Example Usage
//
//	httpClient, err := manager.HTTPClient(ctx)
//	if err != nil {
//	    return err
//	}
//	client, err := tasks.NewClient(ctx, httpClient)
//	if err != nil {
//	    return err
//	}
//
//	task, err := client.CreateTask(ctx, tasks.DefaultTaskList, tasks.TaskInput{
//	    Title: "Buy milk",
//	    Due:   "2025-03-04",
//	})
package tasks
