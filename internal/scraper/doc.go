// Package scraper provides HTTP fetching and HTML parsing for El Cairo detail pages.
//
// A detail page carries three optional blocks: the synopsis, the ticket
// information and the technical sheet. Each is located by a CSS selector
// and read independently; a missing block or an unreachable page is never
// an error, it yields an empty string.
package scraper
