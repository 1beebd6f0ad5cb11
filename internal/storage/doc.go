// Package storage persists enriched events in a local SQLite database.
//
// The database lives in the data directory (default ~/.local/share/elcairo)
// as elcairo.db, with one row per event in the events table. Rows are queried
// by compare_date, the YYYYMMDDHHmm integer form of the start time. A lock
// file marks a populate run in progress, and downloaded poster images are
// kept under images/.
package storage
