// Package kiosksync reconciles a day folder with its remote destination.
//
// The engine has three layers:
//
//   - BuildPlan compares local day state against the remote inventory
//     and produces the minimal set of operations to reconcile them.
//     It is a pure function of current local and remote state: no
//     last-run memory, no persisted bookkeeping. A crash mid-upload
//     simply causes the next run to recompute and resume from the same
//     point, re-uploading nothing that already exists.
//
//   - Executor applies a plan against the remote capability, one item
//     at a time, accumulating per-item failures instead of aborting;
//     the CSV goes last and goes out even when photos failed, since it
//     may legitimately reference photos a later run will retry.
//
//   - Runner owns background execution: one run per day at a time,
//     started off the interactive path, with terminal results held for
//     the caller to poll. The foreground keeps accepting sign-ins
//     while a run is in flight; a late sign-in is picked up by the
//     next run, never by blocking this one.
package kiosksync
