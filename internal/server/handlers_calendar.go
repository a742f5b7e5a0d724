package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/szymon/internal/calendar"
	"github.com/teemow/szymon/internal/instrumentation"
)

type calendarHandlers struct {
	sc *ServerContext
}

func (h *calendarHandlers) routes(r chi.Router) {
	r.Get("/calendars", h.listCalendars)
	r.Get("/events", h.listEvents)
	r.Post("/events", h.createEvent)
	r.Post("/events/quick", h.quickAdd)
	r.Get("/events/{event_id}", h.getEvent)
	r.Put("/events/{event_id}", h.updateEvent)
	r.Delete("/events/{event_id}", h.deleteEvent)
}

func calendarID(r *http.Request) string {
	if id := r.URL.Query().Get("calendar_id"); id != "" {
		return id
	}
	return calendar.PrimaryCalendar
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, badRequest("%s must be an RFC 3339 timestamp, got %q", key, raw)
	}
	return t, nil
}

func (h *calendarHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, instrumentation.ServiceCalendar, err)
}

func (h *calendarHandlers) target(op, calID, eventID string) target {
	return target{service: instrumentation.ServiceCalendar, operation: op, container: calID, resource: eventID}
}

func (h *calendarHandlers) listCalendars(w http.ResponseWriter, r *http.Request) {
	client, err := h.sc.CalendarClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	calendars, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationListLists, "", ""), client.ListCalendars)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendars)
}

func (h *calendarHandlers) listEvents(w http.ResponseWriter, r *http.Request) {
	var opts calendar.ListOptions
	var err error
	if opts.TimeMin, err = queryTime(r, "time_min"); err != nil {
		h.fail(w, r, err)
		return
	}
	if opts.TimeMax, err = queryTime(r, "time_max"); err != nil {
		h.fail(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil || n < 1 {
			h.fail(w, r, badRequest("max_results must be a positive integer, got %q", raw))
			return
		}
		opts.MaxResults = n
	}
	opts.Query = r.URL.Query().Get("q")

	client, err := h.sc.CalendarClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	calID := calendarID(r)
	events, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationList, calID, ""), func(ctx context.Context) ([]calendar.Event, error) {
		return client.ListEvents(ctx, calID, opts)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *calendarHandlers) getEvent(w http.ResponseWriter, r *http.Request) {
	client, err := h.sc.CalendarClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	calID, eventID := calendarID(r), chi.URLParam(r, "event_id")
	event, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationGet, calID, eventID), func(ctx context.Context) (*calendar.Event, error) {
		return client.GetEvent(ctx, calID, eventID)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *calendarHandlers) createEvent(w http.ResponseWriter, r *http.Request) {
	var input calendar.EventInput
	if err := decodeBody(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}

	client, err := h.sc.CalendarClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	calID := calendarID(r)
	event, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationCreate, calID, ""), func(ctx context.Context) (*calendar.Event, error) {
		return client.CreateEvent(ctx, calID, input)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *calendarHandlers) quickAdd(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		h.fail(w, r, badRequest("text is required"))
		return
	}

	client, err := h.sc.CalendarClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	calID := calendarID(r)
	event, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationQuickAdd, calID, ""), func(ctx context.Context) (*calendar.Event, error) {
		return client.QuickAdd(ctx, calID, text)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *calendarHandlers) updateEvent(w http.ResponseWriter, r *http.Request) {
	var update calendar.EventUpdate
	if err := decodeBody(r, &update); err != nil {
		h.fail(w, r, err)
		return
	}

	client, err := h.sc.CalendarClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	calID, eventID := calendarID(r), chi.URLParam(r, "event_id")
	event, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationUpdate, calID, eventID), func(ctx context.Context) (*calendar.Event, error) {
		return client.UpdateEvent(ctx, calID, eventID, update)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *calendarHandlers) deleteEvent(w http.ResponseWriter, r *http.Request) {
	client, err := h.sc.CalendarClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	calID, eventID := calendarID(r), chi.URLParam(r, "event_id")
	err = instrumentedErr(r.Context(), h.sc, h.target(instrumentation.OperationDelete, calID, eventID), func(ctx context.Context) error {
		return client.DeleteEvent(ctx, calID, eventID)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
