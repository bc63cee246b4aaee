// Package watcher turns results files dropped by the image-analysis host into
// summary updates.
//
// Run(ctx) watches one directory with fsnotify. A file whose name matches the
// results naming contract (types.ParseResultsName) is marked pending on every
// Create or Write event and is processed once it has gone SettleDelay without
// further writes. Files already present when Run starts are picked up by an
// initial scan.
//
// Each pending file is mapped to its container's summary.Session, created on
// first use. A session created on first sight appends to whatever summary is
// already on disk, so restarting the agent mid-container loses nothing. The
// summary is reset only when the host drops a start marker
// (<container>_start, types.ParseStartName) or runs skelstat-agent
// -container. Files are processed one at a time on the Run goroutine, so
// every summary file has a single writer. Within one tick a container's start
// marker runs first, then its units in series/slice order.
//
// A failed unit is logged and recorded; it is not retried. The results file
// stays on disk and is picked up again if the host rewrites it.
package watcher
