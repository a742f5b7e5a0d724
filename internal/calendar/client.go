package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/szymon/internal/week"
)

// Client wraps the Google Calendar service
type Client struct {
	svc *calendar.Service
	now func() time.Time
}

// NewClient creates a Calendar client that sends requests through httpClient,
// which is expected to carry OAuth credentials.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc: svc,
		now: time.Now,
	}, nil
}

func calendarOrDefault(calendarID string) string {
	if calendarID == "" {
		return PrimaryCalendar
	}
	return calendarID
}

// DefaultWindow returns the listing window used when no bounds are given:
// from today 00:00 UTC to the end of the day seven days from now.
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	today := week.DateIn(now, time.UTC)
	last := week.DateIn(now.AddDate(0, 0, 7), time.UTC)
	return today.In(time.UTC), last.In(time.UTC).Add(24*time.Hour - time.Second)
}

// ListCalendars lists all calendars accessible to the user
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}

	return calendars, nil
}

// ListEvents lists events in a calendar within a time range. Recurring events are
// expanded into single instances ordered by start time.
func (c *Client) ListEvents(ctx context.Context, calendarID string, opts ListOptions) ([]Event, error) {
	defaultMin, defaultMax := DefaultWindow(c.now())

	timeMin := opts.TimeMin
	if timeMin.IsZero() {
		timeMin = defaultMin
	}
	timeMax := opts.TimeMax
	if timeMax.IsZero() {
		timeMax = defaultMax
	}
	if !timeMax.After(timeMin) {
		return nil, invalid("time_max must be after time_min")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	call := c.svc.Events.List(calendarOrDefault(calendarID)).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime")

	if opts.Query != "" {
		call = call.Q(opts.Query)
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]Event, 0, len(events.Items))
	for _, event := range events.Items {
		result = append(result, toEvent(event))
	}

	return result, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	event, err := c.svc.Events.Get(calendarOrDefault(calendarID), eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	result := toEvent(event)
	return &result, nil
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	event, err := input.toGoogleEvent()
	if err != nil {
		return nil, err
	}

	created, err := c.svc.Events.Insert(calendarOrDefault(calendarID), event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	result := toEvent(created)
	return &result, nil
}

// UpdateEvent fetches the event, applies the non-nil fields of update and writes it back.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, update EventUpdate) (*Event, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	calendarID = calendarOrDefault(calendarID)

	existing, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	if err := update.apply(existing); err != nil {
		return nil, err
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	result := toEvent(updated)
	return &result, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarOrDefault(calendarID), eventID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// QuickAdd creates an event from a natural language description such as
// "Lunch with Ana tomorrow at 1pm".
func (c *Client) QuickAdd(ctx context.Context, calendarID, text string) (*Event, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text is required")
	}

	created, err := c.svc.Events.QuickAdd(calendarOrDefault(calendarID), text).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to quick add event: %w", err)
	}

	result := toEvent(created)
	return &result, nil
}
