// Package calendar exports enriched events as an iCalendar (.ics) file.
package calendar
