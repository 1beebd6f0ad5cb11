// Package event provides the record types of the El Cairo show pipeline.
//
// A CalendarEntry is one raw item of a monthly calendar feed; entries are
// collected in an EntrySet keyed by their feed UID, so an entry seen in two
// months is stored once. An EnrichedEvent is the externally visible record:
// the entry merged with the synopsis, cost and fact sheet scraped from its
// detail page. CompareDate encodes start times as sortable integers for the
// storage range queries.
package event
