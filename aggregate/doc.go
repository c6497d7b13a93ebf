// Package aggregate computes filter-aware aggregate blocks over a decoded
// dataset and schedules those computations behind a single-flight policy.
//
// A block is one aggregate kind (messages per day, word statistics, ...)
// identified by a BlockKey. Blocks declare which filter categories they
// depend on — their trigger set — so a filter change only invalidates the
// blocks it can actually affect.
//
// Two moving parts:
//
//   - Worker: one long-lived background goroutine that owns the decoded
//     dataset and runs block computations sequentially. It speaks a small
//     message protocol: an init phase that decodes the blob and reports
//     ready, then request/result pairs. Requests carry filter deltas, not
//     full filter state; the worker keeps the filters it has already been
//     told about.
//
//   - DataProvider: the foreground scheduler. Consumers activate the blocks
//     they want and update filters; the provider keeps at most one
//     computation in flight, invalidates ready blocks by trigger, discards
//     in-flight results that a filter change made stale, caches results,
//     and notifies subscribers with loading/ready/stale transitions.
//
// The provider never blocks the caller: requests are handed to the worker
// asynchronously and completions arrive on a pump goroutine.
package aggregate
