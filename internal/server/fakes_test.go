package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/szymon/internal/calendar"
	"github.com/teemow/szymon/internal/google"
	"github.com/teemow/szymon/internal/tasks"
)

type fakeAuth struct {
	mu            sync.Mutex
	authenticated bool
	states        map[string]bool
	issued        int
	exchanged     []string
	exchangeErr   error
	loggedOut     bool
}

func newFakeAuth(authenticated bool) *fakeAuth {
	return &fakeAuth{authenticated: authenticated, states: map[string]bool{}}
}

func (f *fakeAuth) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeAuth) AuthURL() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	state := fmt.Sprintf("state-%d", f.issued)
	f.states[state] = true
	return "https://accounts.example.com/o/oauth2/auth?state=" + state, state
}

func (f *fakeAuth) ConsumeState(state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.states[state] {
		return google.ErrInvalidState
	}
	delete(f.states, state)
	return nil
}

func (f *fakeAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	f.exchanged = append(f.exchanged, code)
	f.authenticated = true
	return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeAuth) HTTPClient(context.Context) (*http.Client, error) {
	return http.DefaultClient, nil
}

func (f *fakeAuth) Logout() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = false
	f.loggedOut = true
	return nil
}

// call records the arguments of the last adapter call.
type call struct {
	method    string
	container string
	id        string
	arg       any
}

type fakeTasks struct {
	mu    sync.Mutex
	calls []call
	items []tasks.Task
	err   error
}

func (f *fakeTasks) record(method, container, id string, arg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, container: container, id: id, arg: arg})
	return f.err
}

func (f *fakeTasks) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeTasks) ListTaskLists(context.Context) ([]tasks.TaskList, error) {
	if err := f.record("ListTaskLists", "", "", nil); err != nil {
		return nil, err
	}
	return []tasks.TaskList{{ID: tasks.DefaultTaskList, Title: "My Tasks"}}, nil
}

func (f *fakeTasks) ListTasks(_ context.Context, listID string, opts tasks.ListOptions) ([]tasks.Task, error) {
	if err := f.record("ListTasks", listID, "", opts); err != nil {
		return nil, err
	}
	return f.items, nil
}

func (f *fakeTasks) GetTask(_ context.Context, listID, taskID string) (*tasks.Task, error) {
	if err := f.record("GetTask", listID, taskID, nil); err != nil {
		return nil, err
	}
	return &tasks.Task{ID: taskID, Title: "Task " + taskID, Status: tasks.StatusNeedsAction}, nil
}

func (f *fakeTasks) CreateTask(_ context.Context, listID string, input tasks.TaskInput) (*tasks.Task, error) {
	if err := f.record("CreateTask", listID, "", input); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return &tasks.Task{ID: "new", Title: input.Title, Status: tasks.StatusNeedsAction}, nil
}

func (f *fakeTasks) UpdateTask(_ context.Context, listID, taskID string, update tasks.TaskUpdate) (*tasks.Task, error) {
	if err := f.record("UpdateTask", listID, taskID, update); err != nil {
		return nil, err
	}
	task := tasks.Task{ID: taskID, Status: tasks.StatusNeedsAction}
	if update.Title != nil {
		task.Title = *update.Title
	}
	return &task, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, listID, taskID string) error {
	return f.record("DeleteTask", listID, taskID, nil)
}

func (f *fakeTasks) CompleteTask(_ context.Context, listID, taskID string) (*tasks.Task, error) {
	if err := f.record("CompleteTask", listID, taskID, nil); err != nil {
		return nil, err
	}
	return &tasks.Task{ID: taskID, Status: tasks.StatusCompleted}, nil
}

func (f *fakeTasks) UncompleteTask(_ context.Context, listID, taskID string) (*tasks.Task, error) {
	if err := f.record("UncompleteTask", listID, taskID, nil); err != nil {
		return nil, err
	}
	return &tasks.Task{ID: taskID, Status: tasks.StatusNeedsAction}, nil
}

type fakeCalendar struct {
	mu     sync.Mutex
	calls  []call
	events []calendar.Event
	err    error
}

func (f *fakeCalendar) record(method, container, id string, arg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, container: container, id: id, arg: arg})
	return f.err
}

func (f *fakeCalendar) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeCalendar) ListCalendars(context.Context) ([]calendar.CalendarInfo, error) {
	if err := f.record("ListCalendars", "", "", nil); err != nil {
		return nil, err
	}
	return []calendar.CalendarInfo{{ID: "me@example.com", Summary: "Me", Primary: true}}, nil
}

func (f *fakeCalendar) ListEvents(_ context.Context, calendarID string, opts calendar.ListOptions) ([]calendar.Event, error) {
	if err := f.record("ListEvents", calendarID, "", opts); err != nil {
		return nil, err
	}
	return f.events, nil
}

func (f *fakeCalendar) GetEvent(_ context.Context, calendarID, eventID string) (*calendar.Event, error) {
	if err := f.record("GetEvent", calendarID, eventID, nil); err != nil {
		return nil, err
	}
	return &calendar.Event{ID: eventID, Summary: "Event " + eventID}, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, calendarID string, input calendar.EventInput) (*calendar.Event, error) {
	if err := f.record("CreateEvent", calendarID, "", input); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return &calendar.Event{ID: "created", Summary: input.Summary}, nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, calendarID, eventID string, update calendar.EventUpdate) (*calendar.Event, error) {
	if err := f.record("UpdateEvent", calendarID, eventID, update); err != nil {
		return nil, err
	}
	return &calendar.Event{ID: eventID}, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	return f.record("DeleteEvent", calendarID, eventID, nil)
}

func (f *fakeCalendar) QuickAdd(_ context.Context, calendarID, text string) (*calendar.Event, error) {
	if err := f.record("QuickAdd", calendarID, "", text); err != nil {
		return nil, err
	}
	return &calendar.Event{ID: "quick", Summary: text}, nil
}
