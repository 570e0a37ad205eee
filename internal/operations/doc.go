// Package operations implements the durable state machine for asynchronous
// document processing jobs.
//
// An Operation moves NotStarted → Running → {Succeeded, Failed, Cancelled},
// or NotStarted → Cancelled directly when cancellation arrives before a
// worker picks the job up. The terminal set is absorbing: no edge ever
// leaves it. Within a single run the processed/total counters only grow.
//
// Cancellation is cooperative: RequestCancel flips a durable flag that the
// worker pipeline polls at checkpoints (before the run and between pages),
// so cancellation latency is bounded by one page's processing time rather
// than being instantaneous. The flag survives process restarts because it
// lives on the stored record.
//
// Store implementations persist whole records with last-writer-wins
// replace. The resulting narrow race between a worker's progress write and
// a concurrent cancel write is an accepted property of this design; a
// hardened store would add versioned compare-and-swap on Update.
package operations
