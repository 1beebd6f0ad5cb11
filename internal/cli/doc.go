// Package cli implements the command-line interface for elcairo.
//
// The cli package provides the Cobra-based command tree: "database" rebuilds
// or removes the local cache, "shows" prints showings for a day range in text
// or JSON, and "export" writes the stored showings as an .ics calendar. It
// wires the feed, pager, enricher and storage packages together using the
// settings loaded by the config package.
package cli
