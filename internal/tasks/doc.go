// Package tasks implements the long-running catalog enrichment operations.
//
// The core abstraction is [SweepEngine], which walks the entire song
// collection once via a keyset cursor and applies an [Enrichment] to every
// record still missing its target field. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
//
// A [Queue] covers the other enrichment path: when a song is created, a
// single job is submitted to a bounded background worker so the new record
// is enriched immediately without blocking the request. The sweep is the
// catch-up mechanism for records the queue missed or failed for.
package tasks
