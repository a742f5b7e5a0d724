package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/szymon/internal/calendar"
	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/tasks"
	"github.com/teemow/szymon/internal/week"
)

// Board is the weekly view: tasks bucketed by due date and events by start day.
type Board struct {
	WeekStart week.Date                    `json:"week_start"`
	WeekEnd   week.Date                    `json:"week_end"`
	TimeZone  string                       `json:"timezone"`
	Tasks     week.Buckets[tasks.Task]     `json:"tasks"`
	Events    week.Buckets[calendar.Event] `json:"events"`
}

type boardHandlers struct {
	sc  *ServerContext
	now func() time.Time
}

// boardWeek resolves the week and zone requested by the week and tz parameters.
func (h *boardHandlers) boardWeek(r *http.Request) (week.Week, *time.Location, error) {
	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return week.Week{}, nil, badRequest("unknown timezone %q", tz)
		}
		loc = l
	}

	raw := r.URL.Query().Get("week")
	if raw == "" {
		return week.Current(h.now(), loc), loc, nil
	}
	d, err := week.ParseDate(raw)
	if err != nil {
		return week.Week{}, nil, badRequest("week: %v", err)
	}
	return week.WeekOf(d), loc, nil
}

func (h *boardHandlers) board(w http.ResponseWriter, r *http.Request) {
	wk, loc, err := h.boardWeek(r)
	if err != nil {
		writeError(w, r, instrumentation.ServiceTasks, err)
		return
	}

	tasksClient, err := h.sc.TasksClient()
	if err != nil {
		writeError(w, r, instrumentation.ServiceTasks, err)
		return
	}
	calendarClient, err := h.sc.CalendarClient()
	if err != nil {
		writeError(w, r, instrumentation.ServiceCalendar, err)
		return
	}

	listID, calID := taskListID(r), calendarID(r)
	timeMin, timeMax := wk.Range(loc)

	var (
		taskItems []tasks.Task
		events    []calendar.Event
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		taskItems, err = instrumented(ctx, h.sc, target{
			service:   instrumentation.ServiceTasks,
			operation: instrumentation.OperationList,
			container: listID,
		}, func(ctx context.Context) ([]tasks.Task, error) {
			return tasksClient.ListTasks(ctx, listID, tasks.ListOptions{ShowCompleted: true})
		})
		return tagService(instrumentation.ServiceTasks, err)
	})
	g.Go(func() error {
		var err error
		events, err = instrumented(ctx, h.sc, target{
			service:   instrumentation.ServiceCalendar,
			operation: instrumentation.OperationList,
			container: calID,
		}, func(ctx context.Context) ([]calendar.Event, error) {
			return calendarClient.ListEvents(ctx, calID, calendar.ListOptions{TimeMin: timeMin, TimeMax: timeMax})
		})
		return tagService(instrumentation.ServiceCalendar, err)
	})
	if err := g.Wait(); err != nil {
		service := instrumentation.ServiceTasks
		var se *serviceError
		if errors.As(err, &se) {
			service = se.service
		}
		writeError(w, r, service, err)
		return
	}

	writeJSON(w, http.StatusOK, Board{
		WeekStart: wk.Start,
		WeekEnd:   wk.End(),
		TimeZone:  loc.String(),
		Tasks:     tasks.BucketByDue(taskItems, wk),
		Events:    calendar.BucketByStart(events, wk, loc),
	})
}

// serviceError records which upstream a concurrent fetch failed against.
type serviceError struct {
	service string
	err     error
}

func (e *serviceError) Error() string { return e.err.Error() }

func (e *serviceError) Unwrap() error { return e.err }

func tagService(service string, err error) error {
	if err == nil {
		return nil
	}
	return &serviceError{service: service, err: err}
}
