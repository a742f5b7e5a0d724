package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/teemow/szymon/internal/calendar"
	"github.com/teemow/szymon/internal/google"
	"github.com/teemow/szymon/internal/tasks"
	"github.com/teemow/szymon/internal/week"
)

type harness struct {
	sc            *ServerContext
	tasks         *fakeTasks
	calendar      *fakeCalendar
	handler       http.Handler
	tasksBuilt    atomic.Int32
	calendarBuilt atomic.Int32
}

// newHarness wires a router over fake services. Pass a nil auth for an
// unconfigured gateway.
func newHarness(t *testing.T, auth Authenticator, mutate ...func(*RouterConfig)) *harness {
	t.Helper()

	h := &harness{tasks: &fakeTasks{}, calendar: &fakeCalendar{}}
	h.sc = NewServerContext(context.Background(), auth,
		WithTasksFactory(func(context.Context, *http.Client) (TasksService, error) {
			h.tasksBuilt.Add(1)
			return h.tasks, nil
		}),
		WithCalendarFactory(func(context.Context, *http.Client) (CalendarService, error) {
			h.calendarBuilt.Add(1)
			return h.calendar, nil
		}),
	)
	t.Cleanup(func() { _ = h.sc.Shutdown() })

	cfg := RouterConfig{
		FrontendURL:    "http://localhost:5173",
		AllowedOrigins: []string{"http://localhost:5173"},
		Now:            func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) },
	}
	for _, m := range mutate {
		m(&cfg)
	}

	h.handler = NewRouter(h.sc, nil, cfg)
	return h
}

func (h *harness) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotConfigured(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		path   string
		detail string
	}{
		{"/api/tasks/", "Google Tasks not configured"},
		{"/api/tasks/lists", "Google Tasks not configured"},
		{"/api/calendar/events", "Google Calendar not configured"},
		{"/api/calendar/auth/login", "Google Calendar not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := h.do(http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			body := decode[errorResponse](t, rec)
			assert.Contains(t, body.Detail, tt.detail)
			assert.Contains(t, body.Detail, "GOOGLE_CLIENT_ID")
		})
	}

	rec := h.do(http.MethodGet, "/api/tasks/auth/status", "")
	assert.JSONEq(t, `{"configured":false,"authenticated":false}`, rec.Body.String())
	assert.Zero(t, h.tasksBuilt.Load())
}

func TestNotAuthenticated(t *testing.T) {
	h := newHarness(t, newFakeAuth(false))

	t.Run("api caller gets 401 with login url", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/calendar/events", "", "Accept", "application/json")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decode[errorResponse](t, rec)
		assert.Equal(t, "/api/calendar/auth/login", body.LoginURL)
	})

	t.Run("browser is redirected to login", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/", "", "Accept", "text/html,application/xhtml+xml")
		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/api/tasks/auth/login", rec.Header().Get("Location"))
	})

	rec := h.do(http.MethodGet, "/api/calendar/auth/status", "")
	assert.JSONEq(t, `{"configured":true,"authenticated":false}`, rec.Body.String())
	assert.Zero(t, h.calendarBuilt.Load())
}

func TestLoginAndCallback(t *testing.T) {
	auth := newFakeAuth(false)
	h := newHarness(t, auth)

	rec := h.do(http.MethodGet, "/api/calendar/auth/login", "")
	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://accounts.example.com/"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authServiceCookie, cookies[0].Name)
	assert.Equal(t, "calendar", cookies[0].Value)

	t.Run("unknown state is rejected", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/auth/callback?code=abc&state=forged", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h1>Authentication failed</h1>")
		assert.Empty(t, auth.exchanged)
	})

	t.Run("provider error is shown", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/auth/callback?error=access_denied", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "access_denied")
	})

	t.Run("calendar login returns to the calendar page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/auth/callback?code=good&state=state-1", nil)
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:5173/calendar", rec.Header().Get("Location"))
		assert.Equal(t, []string{"good"}, auth.exchanged)
		assert.True(t, auth.IsAuthenticated())
	})

	t.Run("state is single use", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/auth/callback?code=good&state=state-1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("tasks login returns to the root", func(t *testing.T) {
		h.do(http.MethodGet, "/api/tasks/auth/login", "")
		rec := h.do(http.MethodGet, "/api/tasks/auth/callback?code=again&state=state-2", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})
}

func TestCallbackDestinationIsPerRequest(t *testing.T) {
	auth := newFakeAuth(false)
	h := newHarness(t, auth)

	callback := func(path string, cookie *http.Cookie) string {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		return rec.Header().Get("Location")
	}

	rec := h.do(http.MethodGet, "/api/calendar/auth/login", "")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "http://localhost:5173/calendar", callback("/api/tasks/auth/callback?code=a&state=state-1", cookies[0]))

	// A later tasks flow without the cookie must not inherit the calendar destination.
	h.do(http.MethodGet, "/api/tasks/auth/login", "")
	assert.Equal(t, "/", callback("/api/tasks/auth/callback?code=b&state=state-2", nil))

	h.do(http.MethodGet, "/api/tasks/auth/login", "")
	assert.Equal(t, "http://localhost:5173/calendar", callback("/api/calendar/auth/callback?code=c&state=state-3", nil))

	h.do(http.MethodGet, "/api/tasks/auth/login", "")
	assert.Equal(t, "/", callback("/api/tasks/auth/callback?code=d&state=state-4", nil))
}

func TestCallbackExchangeFailure(t *testing.T) {
	auth := newFakeAuth(false)
	auth.exchangeErr = errors.New("invalid_grant")
	h := newHarness(t, auth)

	h.do(http.MethodGet, "/api/tasks/auth/login", "")
	rec := h.do(http.MethodGet, "/api/tasks/auth/callback?code=bad&state=state-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_grant")
	assert.False(t, auth.IsAuthenticated())
}

func TestCallbackResetsClients(t *testing.T) {
	auth := newFakeAuth(true)
	h := newHarness(t, auth)

	h.do(http.MethodGet, "/api/tasks/", "")
	h.do(http.MethodGet, "/api/tasks/", "")
	assert.Equal(t, int32(1), h.tasksBuilt.Load())

	h.do(http.MethodGet, "/api/tasks/auth/login", "")
	rec := h.do(http.MethodGet, "/api/tasks/auth/callback?code=c&state=state-1", "")
	require.Equal(t, http.StatusFound, rec.Code)

	h.do(http.MethodGet, "/api/tasks/", "")
	assert.Equal(t, int32(2), h.tasksBuilt.Load())
}

func TestLogout(t *testing.T) {
	auth := newFakeAuth(true)
	h := newHarness(t, auth)

	rec := h.do(http.MethodPost, "/api/tasks/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, auth.loggedOut)

	rec = h.do(http.MethodGet, "/api/tasks/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTaskRoutes(t *testing.T) {
	h := newHarness(t, newFakeAuth(true))

	t.Run("list uses defaults", func(t *testing.T) {
		h.tasks.items = []tasks.Task{{ID: "t1", Title: "Buy milk", Status: tasks.StatusNeedsAction}}
		rec := h.do(http.MethodGet, "/api/tasks/", "")
		require.Equal(t, http.StatusOK, rec.Code)

		items := decode[[]tasks.Task](t, rec)
		require.Len(t, items, 1)
		assert.Equal(t, "t1", items[0].ID)

		last := h.tasks.last()
		assert.Equal(t, tasks.DefaultTaskList, last.container)
		assert.Equal(t, tasks.ListOptions{ShowCompleted: true}, last.arg)
	})

	t.Run("list honours query", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/?task_list_id=work&show_completed=false&show_hidden=true", "")
		require.Equal(t, http.StatusOK, rec.Code)
		last := h.tasks.last()
		assert.Equal(t, "work", last.container)
		assert.Equal(t, tasks.ListOptions{ShowHidden: true}, last.arg)
	})

	t.Run("bad boolean", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/?show_completed=maybe", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lists", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/lists", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ListTaskLists", h.tasks.last().method)
	})

	t.Run("create", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/tasks/?task_list_id=work", `{"title":"Call mom","due":"2025-03-06"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		last := h.tasks.last()
		assert.Equal(t, "work", last.container)
		assert.Equal(t, tasks.TaskInput{Title: "Call mom", Due: "2025-03-06"}, last.arg)
	})

	t.Run("create validation", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/tasks/", `{"title":""}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Detail, "title is required")
	})

	t.Run("create malformed body", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/tasks/", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/t1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "t1", decode[tasks.Task](t, rec).ID)
	})

	t.Run("update", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/api/tasks/t1", `{"title":"Renamed"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Renamed", decode[tasks.Task](t, rec).Title)
	})

	t.Run("delete", func(t *testing.T) {
		rec := h.do(http.MethodDelete, "/api/tasks/t1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())
	})

	t.Run("complete and uncomplete", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/tasks/t1/complete", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tasks.StatusCompleted, decode[tasks.Task](t, rec).Status)

		rec = h.do(http.MethodPost, "/api/tasks/t1/uncomplete", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "UncompleteTask", h.tasks.last().method)
	})

	assert.Equal(t, int32(1), h.tasksBuilt.Load())
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("failed to get task: %w", &googleapi.Error{Code: http.StatusNotFound, Message: "Not Found"}),
			wantStatus: http.StatusNotFound,
			wantDetail: "Not Found",
		},
		{
			name:       "server error",
			err:        fmt.Errorf("failed to get task: %w", &googleapi.Error{Code: http.StatusBadGateway, Message: "Backend Error"}),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Backend Error",
		},
		{
			name:       "transport error",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, newFakeAuth(true))
			h.tasks.err = tt.err

			rec := h.do(http.MethodGet, "/api/tasks/t1", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, decode[errorResponse](t, rec).Detail, tt.wantDetail)
		})
	}
}

func TestCalendarRoutes(t *testing.T) {
	h := newHarness(t, newFakeAuth(true))

	t.Run("calendars", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/calendar/calendars", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]calendar.CalendarInfo](t, rec), 1)
	})

	t.Run("events pass the window through", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/calendar/events?calendar_id=family&time_min=2025-03-03T00:00:00Z&time_max=2025-03-10T00:00:00Z", "")
		require.Equal(t, http.StatusOK, rec.Code)

		last := h.calendar.last()
		assert.Equal(t, "family", last.container)
		assert.Equal(t, calendar.ListOptions{
			TimeMin: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
			TimeMax: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		}, last.arg)
	})

	t.Run("events default to primary", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/calendar/events", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, calendar.PrimaryCalendar, h.calendar.last().container)
		assert.Equal(t, calendar.ListOptions{}, h.calendar.last().arg)
	})

	t.Run("bad time", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/calendar/events?time_min=yesterday", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/calendar/events", `{"summary":"Lunch","start_datetime":"2025-03-05T12:00:00Z","end_datetime":"2025-03-05T13:00:00Z"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Lunch", decode[calendar.Event](t, rec).Summary)
	})

	t.Run("create validation", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/calendar/events", `{"summary":"Lunch"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("quick add", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/calendar/events/quick?text=Lunch+tomorrow+at+1pm", "")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Lunch tomorrow at 1pm", h.calendar.last().arg)
	})

	t.Run("quick add needs text", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/calendar/events/quick", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get update delete", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/calendar/events/e1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.do(http.MethodPut, "/api/calendar/events/e1?calendar_id=family", `{"summary":"Moved"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		last := h.calendar.last()
		assert.Equal(t, "family", last.container)
		assert.Equal(t, "e1", last.id)

		rec = h.do(http.MethodDelete, "/api/calendar/events/e1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())
	})
}

func TestEventBodyFields(t *testing.T) {
	h := newHarness(t, newFakeAuth(true))

	t.Run("create with start_datetime", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/calendar/events", `{"summary":"Lunch","start_datetime":"2025-03-05T12:00:00","end_datetime":"2025-03-05T13:00:00"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		input, ok := h.calendar.last().arg.(calendar.EventInput)
		require.True(t, ok)
		assert.Equal(t, "2025-03-05T12:00:00", input.StartDateTime)
		assert.Equal(t, "2025-03-05T13:00:00", input.EndDateTime)
		assert.Empty(t, input.TimeZone)
	})

	t.Run("create with start_time alias", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/calendar/events", `{"summary":"Lunch","start_time":"2025-03-05T12:00:00Z","end_time":"2025-03-05T13:00:00Z"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		input, ok := h.calendar.last().arg.(calendar.EventInput)
		require.True(t, ok)
		assert.Equal(t, "2025-03-05T12:00:00Z", input.StartDateTime)
	})

	t.Run("update with start_datetime", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/api/calendar/events/e1", `{"start_datetime":"2025-03-05T15:00:00Z"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		update, ok := h.calendar.last().arg.(calendar.EventUpdate)
		require.True(t, ok)
		require.NotNil(t, update.StartDateTime)
		assert.Equal(t, "2025-03-05T15:00:00Z", *update.StartDateTime)
		assert.Nil(t, update.EndDateTime)
	})

	t.Run("misspelled field is rejected", func(t *testing.T) {
		before := len(h.calendar.calls)
		rec := h.do(http.MethodPut, "/api/calendar/events/e1", `{"start_datetme":"2025-03-05T15:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Detail, "start_datetme")
		assert.Len(t, h.calendar.calls, before)
	})

	t.Run("unknown create field is rejected", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/calendar/events", `{"summary":"Lunch","start":"2025-03-05T12:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown task field is rejected", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/tasks/", `{"title":"Call mom","due_date":"2025-03-06"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBoard(t *testing.T) {
	h := newHarness(t, newFakeAuth(true))

	tuesday := week.MustParseDate("2025-03-04")
	h.tasks.items = []tasks.Task{
		{ID: "due", Title: "Due Tuesday", Status: tasks.StatusNeedsAction, Due: &tuesday},
		{ID: "backlog", Title: "Someday", Status: tasks.StatusNeedsAction},
	}
	h.calendar.events = []calendar.Event{
		{ID: "standup", Start: calendar.EventTime{DateTime: time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)}},
	}

	rec := h.do(http.MethodGet, "/api/board", "")
	require.Equal(t, http.StatusOK, rec.Code)

	board := decode[Board](t, rec)
	assert.Equal(t, "2025-03-03", board.WeekStart.String())
	assert.Equal(t, "2025-03-09", board.WeekEnd.String())
	assert.Equal(t, "UTC", board.TimeZone)
	assert.Len(t, board.Tasks.Days, 7)
	assert.Len(t, board.Tasks.ByDay[tuesday], 1)
	assert.Equal(t, "backlog", board.Tasks.Rest[0].ID)
	assert.Len(t, board.Events.ByDay[week.MustParseDate("2025-03-05")], 1)
	assert.Empty(t, board.Events.Rest)

	opts := h.calendar.last().arg.(calendar.ListOptions)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), opts.TimeMin)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), opts.TimeMax)
}

func TestBoardQuery(t *testing.T) {
	h := newHarness(t, newFakeAuth(true))

	rec := h.do(http.MethodGet, "/api/board?week=2025-03-12&tz=Europe/Warsaw&calendar_id=family", "")
	require.Equal(t, http.StatusOK, rec.Code)

	board := decode[Board](t, rec)
	assert.Equal(t, "2025-03-10", board.WeekStart.String())
	assert.Equal(t, "Europe/Warsaw", board.TimeZone)
	assert.Equal(t, "family", h.calendar.last().container)

	rec = h.do(http.MethodGet, "/api/board?tz=Nowhere/Land", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/board?week=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoardRemoteFailure(t *testing.T) {
	h := newHarness(t, newFakeAuth(true))
	h.calendar.err = errors.New("calendar is down")

	rec := h.do(http.MethodGet, "/api/board", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Detail, "calendar is down")
}

func TestBoardFailureNamesService(t *testing.T) {
	t.Run("calendar", func(t *testing.T) {
		h := newHarness(t, newFakeAuth(true))
		h.calendar.err = google.ErrNotAuthenticated

		rec := h.do(http.MethodGet, "/api/board", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decode[errorResponse](t, rec)
		assert.Equal(t, "/api/calendar/auth/login", body.LoginURL)
		assert.Contains(t, body.Detail, "Google Calendar")
	})

	t.Run("tasks", func(t *testing.T) {
		h := newHarness(t, newFakeAuth(true))
		h.tasks.err = google.ErrNotAuthenticated

		rec := h.do(http.MethodGet, "/api/board", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decode[errorResponse](t, rec)
		assert.Equal(t, "/api/tasks/auth/login", body.LoginURL)
		assert.Contains(t, body.Detail, "Google Tasks")
	})
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, nil, func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	})

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health", "").Code)

	rec := h.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestStaticAssets(t *testing.T) {
	staticDir := t.TempDir()
	assetsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>board</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "favicon.gif"), []byte("GIF89a"), 0o644))

	h := newHarness(t, nil, func(cfg *RouterConfig) {
		cfg.StaticDir = staticDir
		cfg.AssetsDir = assetsDir
	})

	rec := h.do(http.MethodGet, "/favicon.ico", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))

	rec = h.do(http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = h.do(http.MethodGet, "/calendar", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "board")

	rec = h.do(http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())
}

func TestMissingFavicon(t *testing.T) {
	h := newHarness(t, nil, func(cfg *RouterConfig) {
		cfg.AssetsDir = t.TempDir()
	})

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/favicon.ico", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/somewhere", "").Code)
}
