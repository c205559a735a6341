// # tasks
//
// Package tasks drives the long-running operations of shelfctl: batch
// uploads, format conversions, and full-library dumps.
//
// The centerpiece is [Poller], which watches a server-side background task
// until it reaches a terminal state and reports the outcome exactly once,
// either through Go error returns or through the optional callbacks in
// [PollOptions]. [ImportEngine] layers a rate-limited worker pool on top of
// the poller for multi-file uploads, streaming [ProgressUpdate] values to UI
// layers over a non-blocking channel.
package tasks
