// Package feed fetches and parses the monthly iCalendar feed of El Cairo.
//
// Each year-month has its own document at <base>/YYYY-MM/?ical=1. FetchMonth
// performs a single, rate-limited request with a timeout and reports
// transport and parse failures through MonthResult.Failed rather than as
// errors, so the caller can tell an unusable month from an empty one.
package feed
