package google

import (
	calendar "google.golang.org/api/calendar/v3"
	tasks "google.golang.org/api/tasks/v1"
)

// DefaultOAuthScopes are requested once and shared by the Tasks and Calendar adapters,
// so a single consent covers both services.
var DefaultOAuthScopes = []string{
	tasks.TasksScope,
	calendar.CalendarEventsScope,
}
