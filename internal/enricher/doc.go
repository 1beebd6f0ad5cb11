// Package enricher turns calendar entries into enriched events.
//
// Each entry yields exactly one event. Feed-only fields are always set;
// synopsis, cost and fact sheet come from the entry's detail page when it
// can be fetched and stay empty otherwise. Detail fetches run on a bounded
// pool of workers.
package enricher
