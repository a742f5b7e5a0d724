// Package calendar provides a client for Google Calendar.
//
// This package wraps the Google Calendar API (calendar/v3) and provides:
//   - Listing calendars
//   - Listing, reading, creating, updating and deleting events
//   - Quick add from natural language text
//   - Grouping events into the days of a week
//
// Event listings default to the primary calendar and a window from today to seven
// days ahead. Timed events without a zone are created in UTC; updates keep the zone of
// the existing event unless a new one is given.
package calendar
