package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/szymon/internal/week"
)

// PrimaryCalendar is the alias Google resolves to the user's main calendar.
const PrimaryCalendar = "primary"

// DefaultTimeZone is used for timed events when neither the request nor the
// existing event names a zone.
const DefaultTimeZone = "UTC"

// DefaultMaxResults caps event listings when the caller does not specify a limit.
const DefaultMaxResults = 250

// ErrInvalidInput is wrapped by validation failures of event input.
var ErrInvalidInput = errors.New("invalid event input")

// localDateTimeLayout is accepted for timed events that carry their zone separately.
const localDateTimeLayout = "2006-01-02T15:04:05"

// EventTime is either a whole day (Date) or an instant (DateTime).
type EventTime struct {
	Date     *week.Date `json:"date,omitempty"`
	DateTime time.Time  `json:"dateTime,omitzero"`
	TimeZone string     `json:"timeZone,omitempty"`
}

// AllDay reports whether the time denotes a whole day.
func (t EventTime) AllDay() bool {
	return t.Date != nil
}

// Instant returns the moment the time denotes. All-day times resolve to midnight in loc.
func (t EventTime) Instant(loc *time.Location) time.Time {
	if t.Date != nil {
		return week.Midnight(*t.Date, loc)
	}
	return t.DateTime
}

// Day returns the calendar day of the time as observed in loc.
func (t EventTime) Day(loc *time.Location) (week.Date, bool) {
	if t.Date != nil {
		return *t.Date, true
	}
	if t.DateTime.IsZero() {
		return week.Date{}, false
	}
	return week.DateIn(t.DateTime, loc), true
}

// Event represents a Google Calendar event
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
	Organizer   string    `json:"organizer,omitempty"`
	MeetLink    string    `json:"meetLink,omitempty"`
	Created     time.Time `json:"created,omitzero"`
	Updated     time.Time `json:"updated,omitzero"`
}

// CalendarInfo represents information about a calendar
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"accessRole,omitempty"` // "owner", "writer", "reader", "freeBusyReader"
}

// EventInput is the body of a create request. Timed events set StartDateTime and
// EndDateTime; all-day events set StartDate and optionally EndDate (exclusive).
// Decoding also accepts start_time and end_time for the date-time fields and
// rejects any other unknown key.
type EventInput struct {
	Summary       string `json:"summary"`
	Description   string `json:"description,omitempty"`
	Location      string `json:"location,omitempty"`
	StartDateTime string `json:"start_datetime,omitempty"`
	EndDateTime   string `json:"end_datetime,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	TimeZone      string `json:"timezone,omitempty"`
}

type eventInputFields EventInput

// UnmarshalJSON implements json.Unmarshaler.
func (in *EventInput) UnmarshalJSON(data []byte) error {
	var wire struct {
		eventInputFields
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := decodeStrict(data, &wire); err != nil {
		return err
	}
	*in = EventInput(wire.eventInputFields)
	if in.StartDateTime == "" {
		in.StartDateTime = wire.StartTime
	}
	if in.EndDateTime == "" {
		in.EndDateTime = wire.EndTime
	}
	return nil
}

// EventUpdate is the body of an update request. Nil fields are left unchanged.
// It decodes like EventInput.
type EventUpdate struct {
	Summary       *string `json:"summary,omitempty"`
	Description   *string `json:"description,omitempty"`
	Location      *string `json:"location,omitempty"`
	StartDateTime *string `json:"start_datetime,omitempty"`
	EndDateTime   *string `json:"end_datetime,omitempty"`
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	TimeZone      *string `json:"timezone,omitempty"`
}

type eventUpdateFields EventUpdate

// UnmarshalJSON implements json.Unmarshaler.
func (u *EventUpdate) UnmarshalJSON(data []byte) error {
	var wire struct {
		eventUpdateFields
		StartTime *string `json:"start_time"`
		EndTime   *string `json:"end_time"`
	}
	if err := decodeStrict(data, &wire); err != nil {
		return err
	}
	*u = EventUpdate(wire.eventUpdateFields)
	if u.StartDateTime == nil {
		u.StartDateTime = wire.StartTime
	}
	if u.EndDateTime == nil {
		u.EndDateTime = wire.EndTime
	}
	return nil
}

// decodeStrict decodes data into v and fails on keys v does not declare.
// A custom UnmarshalJSON does not inherit the caller's decoder settings.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ListOptions narrows an event listing. Zero times fall back to the default window.
type ListOptions struct {
	TimeMin    time.Time
	TimeMax    time.Time
	MaxResults int64
	Query      string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// parseDateTime accepts RFC 3339 or a zone-less local timestamp and returns the
// value to send to Google along with the parsed time for ordering checks.
func parseDateTime(field, s string, loc *time.Location) (string, time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.RFC3339), t, nil
	}
	t, err := time.ParseInLocation(localDateTimeLayout, s, loc)
	if err != nil {
		return "", time.Time{}, invalid("%s: invalid date-time %q", field, s)
	}
	return t.Format(localDateTimeLayout), t, nil
}

func loadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, invalid("unknown timezone %q", name)
	}
	return loc, nil
}

func timedPoint(field, s, zone string) (*calendar.EventDateTime, time.Time, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return nil, time.Time{}, err
	}
	value, t, err := parseDateTime(field, s, loc)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &calendar.EventDateTime{DateTime: value, TimeZone: zone}, t, nil
}

func timedRange(startS, startZone, endS, endZone string) (*calendar.EventDateTime, *calendar.EventDateTime, error) {
	start, startT, err := timedPoint("start_datetime", startS, startZone)
	if err != nil {
		return nil, nil, err
	}
	end, endT, err := timedPoint("end_datetime", endS, endZone)
	if err != nil {
		return nil, nil, err
	}
	if !endT.After(startT) {
		return nil, nil, invalid("end_datetime must be after start_datetime")
	}
	return start, end, nil
}

func allDayRange(startS, endS string) (*calendar.EventDateTime, *calendar.EventDateTime, error) {
	start, err := week.ParseDate(startS)
	if err != nil {
		return nil, nil, invalid("start_date: %v", err)
	}
	end := start.AddDays(1)
	if endS != "" {
		if end, err = week.ParseDate(endS); err != nil {
			return nil, nil, invalid("end_date: %v", err)
		}
	}
	if !end.After(start) {
		return nil, nil, invalid("end_date must be after start_date")
	}
	return &calendar.EventDateTime{Date: start.String()}, &calendar.EventDateTime{Date: end.String()}, nil
}

// toGoogleEvent validates the input and builds the event to insert.
func (in EventInput) toGoogleEvent() (*calendar.Event, error) {
	if strings.TrimSpace(in.Summary) == "" {
		return nil, invalid("summary is required")
	}

	event := &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
	}

	var err error
	switch {
	case in.StartDate != "":
		if in.StartDateTime != "" || in.EndDateTime != "" {
			return nil, invalid("use either start_date or start_datetime, not both")
		}
		event.Start, event.End, err = allDayRange(in.StartDate, in.EndDate)
	case in.StartDateTime != "" && in.EndDateTime != "":
		zone := in.TimeZone
		if zone == "" {
			zone = DefaultTimeZone
		}
		event.Start, event.End, err = timedRange(in.StartDateTime, zone, in.EndDateTime, zone)
	default:
		return nil, invalid("start_datetime and end_datetime, or start_date, are required")
	}
	if err != nil {
		return nil, err
	}

	return event, nil
}

// Validate checks the input before it is sent to Google.
func (in EventInput) Validate() error {
	_, err := in.toGoogleEvent()
	return err
}

// apply merges the update into an existing event.
func (u EventUpdate) apply(event *calendar.Event) error {
	if u.Summary != nil {
		if strings.TrimSpace(*u.Summary) == "" {
			return invalid("summary must not be empty")
		}
		event.Summary = *u.Summary
	}
	if u.Description != nil {
		event.Description = *u.Description
		event.ForceSendFields = append(event.ForceSendFields, "Description")
	}
	if u.Location != nil {
		event.Location = *u.Location
		event.ForceSendFields = append(event.ForceSendFields, "Location")
	}

	if u.StartDate != nil || u.EndDate != nil {
		if u.StartDateTime != nil || u.EndDateTime != nil {
			return invalid("use either dates or times, not both")
		}
		startS := deref(u.StartDate, existingDate(event.Start))
		endS := ""
		if u.EndDate != nil {
			endS = *u.EndDate
		} else if u.StartDate == nil {
			endS = existingDate(event.End)
		}
		start, end, err := allDayRange(startS, endS)
		if err != nil {
			return err
		}
		event.Start, event.End = start, end
		return nil
	}

	if u.StartDateTime != nil || u.EndDateTime != nil || u.TimeZone != nil {
		startZone := zoneFor(u.TimeZone, event.Start)
		endZone := zoneFor(u.TimeZone, event.End)

		startS := deref(u.StartDateTime, existingDateTime(event.Start))
		endS := deref(u.EndDateTime, existingDateTime(event.End))
		if startS == "" || endS == "" {
			return invalid("start_datetime and end_datetime are required to convert an all-day event")
		}

		start, end, err := timedRange(startS, startZone, endS, endZone)
		if err != nil {
			return err
		}
		event.Start, event.End = start, end
	}

	return nil
}

// Validate checks the parts of the update that do not depend on the existing event.
func (u EventUpdate) Validate() error {
	if u.Summary != nil && strings.TrimSpace(*u.Summary) == "" {
		return invalid("summary must not be empty")
	}
	if u.TimeZone != nil && *u.TimeZone != "" {
		if _, err := loadZone(*u.TimeZone); err != nil {
			return err
		}
	}
	return nil
}

func deref(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

func zoneFor(requested *string, existing *calendar.EventDateTime) string {
	if requested != nil && *requested != "" {
		return *requested
	}
	if existing != nil && existing.TimeZone != "" {
		return existing.TimeZone
	}
	return DefaultTimeZone
}

func existingDate(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	return t.Date
}

func existingDateTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	return t.DateTime
}

// toEventTime converts a Google Calendar EventDateTime to our EventTime type
func toEventTime(t *calendar.EventDateTime) EventTime {
	if t == nil {
		return EventTime{}
	}

	result := EventTime{TimeZone: t.TimeZone}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			result.DateTime = parsed
		}
	} else if t.Date != "" {
		if d, err := week.ParseDate(t.Date); err == nil {
			result.Date = &d
		}
	}
	return result
}

// toEvent converts a Google Calendar event to our Event type
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}

	result := Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		Start:       toEventTime(event.Start),
		End:         toEventTime(event.End),
		HTMLLink:    event.HtmlLink,
		Created:     parseTimestamp(event.Created),
		Updated:     parseTimestamp(event.Updated),
	}

	if event.Organizer != nil {
		result.Organizer = event.Organizer.Email
	}

	// Google Meet link
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				result.MeetLink = ep.Uri
				break
			}
		}
	}

	return result
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}

	return CalendarInfo{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
		AccessRole:  entry.AccessRole,
	}
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
