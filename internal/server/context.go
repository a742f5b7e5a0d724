package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/szymon/internal/calendar"
	"github.com/teemow/szymon/internal/google"
	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/tasks"
)

// ErrShuttingDown is returned for calls made after Shutdown.
var ErrShuttingDown = errors.New("server is shutting down")

// Authenticator is the credential manager surface used by the gateway.
// *google.Manager implements it.
type Authenticator interface {
	IsAuthenticated() bool
	AuthURL() (string, string)
	ConsumeState(state string) error
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	HTTPClient(ctx context.Context) (*http.Client, error)
	Logout() error
}

// TasksService is the Google Tasks surface used by the handlers.
type TasksService interface {
	ListTaskLists(ctx context.Context) ([]tasks.TaskList, error)
	ListTasks(ctx context.Context, taskListID string, opts tasks.ListOptions) ([]tasks.Task, error)
	GetTask(ctx context.Context, taskListID, taskID string) (*tasks.Task, error)
	CreateTask(ctx context.Context, taskListID string, input tasks.TaskInput) (*tasks.Task, error)
	UpdateTask(ctx context.Context, taskListID, taskID string, update tasks.TaskUpdate) (*tasks.Task, error)
	DeleteTask(ctx context.Context, taskListID, taskID string) error
	CompleteTask(ctx context.Context, taskListID, taskID string) (*tasks.Task, error)
	UncompleteTask(ctx context.Context, taskListID, taskID string) (*tasks.Task, error)
}

// CalendarService is the Google Calendar surface used by the handlers.
type CalendarService interface {
	ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error)
	ListEvents(ctx context.Context, calendarID string, opts calendar.ListOptions) ([]calendar.Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error)
	CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, update calendar.EventUpdate) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	QuickAdd(ctx context.Context, calendarID, text string) (*calendar.Event, error)
}

// TasksFactory builds a Tasks client from an authorized HTTP client.
type TasksFactory func(ctx context.Context, httpClient *http.Client) (TasksService, error)

// CalendarFactory builds a Calendar client from an authorized HTTP client.
type CalendarFactory func(ctx context.Context, httpClient *http.Client) (CalendarService, error)

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithInstrumentation records metrics and audit logs through the provider.
func WithInstrumentation(p *instrumentation.Provider) ContextOption {
	return func(sc *ServerContext) {
		if p != nil {
			sc.metrics = p.Metrics()
			sc.audit = p.Audit()
		}
	}
}

// WithTasksFactory overrides how the Tasks client is built.
func WithTasksFactory(f TasksFactory) ContextOption {
	return func(sc *ServerContext) {
		sc.newTasks = f
	}
}

// WithCalendarFactory overrides how the Calendar client is built.
func WithCalendarFactory(f CalendarFactory) ContextOption {
	return func(sc *ServerContext) {
		sc.newCalendar = f
	}
}

// WithContextLogger sets the logger used for client lifecycle messages.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(sc *ServerContext) {
		sc.logger = logger
	}
}

// ServerContext holds the credential manager and the lazily built Google clients
// shared by all requests.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	auth        Authenticator
	newTasks    TasksFactory
	newCalendar CalendarFactory

	tasksClient    TasksService
	calendarClient CalendarService

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. auth is nil when Google client
// credentials are not configured; every Google call then fails with
// google.ErrNotConfigured.
func NewServerContext(ctx context.Context, auth Authenticator, opts ...ContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		auth:   auth,
		newTasks: func(ctx context.Context, httpClient *http.Client) (TasksService, error) {
			return tasks.NewClient(ctx, httpClient)
		},
		newCalendar: func(ctx context.Context, httpClient *http.Client) (CalendarService, error) {
			return calendar.NewClient(ctx, httpClient)
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(sc)
	}

	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Auth returns the credential manager, or nil when Google is not configured.
func (sc *ServerContext) Auth() Authenticator {
	return sc.auth
}

// Configured reports whether Google client credentials are present.
func (sc *ServerContext) Configured() bool {
	return sc.auth != nil
}

// Authenticated reports whether a usable Google credential is stored.
func (sc *ServerContext) Authenticated() bool {
	return sc.auth != nil && sc.auth.IsAuthenticated()
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger. It may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// checkCredentials returns the error the gateway reports before any Google call.
func (sc *ServerContext) checkCredentials() error {
	if sc.auth == nil {
		return google.ErrNotConfigured
	}
	if !sc.auth.IsAuthenticated() {
		return google.ErrNotAuthenticated
	}
	return nil
}

// TasksClient returns the Tasks client, creating and caching it on first use.
func (sc *ServerContext) TasksClient() (TasksService, error) {
	if err := sc.checkCredentials(); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShuttingDown
	}
	if sc.tasksClient != nil {
		return sc.tasksClient, nil
	}

	httpClient, err := sc.auth.HTTPClient(sc.ctx)
	if err != nil {
		return nil, err
	}
	client, err := sc.newTasks(sc.ctx, httpClient)
	if err != nil {
		return nil, err
	}

	sc.logger.Debug("created Google Tasks client")
	sc.tasksClient = client
	return client, nil
}

// CalendarClient returns the Calendar client, creating and caching it on first use.
func (sc *ServerContext) CalendarClient() (CalendarService, error) {
	if err := sc.checkCredentials(); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShuttingDown
	}
	if sc.calendarClient != nil {
		return sc.calendarClient, nil
	}

	httpClient, err := sc.auth.HTTPClient(sc.ctx)
	if err != nil {
		return nil, err
	}
	client, err := sc.newCalendar(sc.ctx, httpClient)
	if err != nil {
		return nil, err
	}

	sc.logger.Debug("created Google Calendar client")
	sc.calendarClient = client
	return client, nil
}

// ResetClients drops the cached clients so the next call picks up a new credential.
func (sc *ServerContext) ResetClients() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.tasksClient = nil
	sc.calendarClient = nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.tasksClient = nil
	sc.calendarClient = nil
	sc.cancel()
	return nil
}
