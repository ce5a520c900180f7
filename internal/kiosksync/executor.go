package kiosksync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gnomeskillet/signin-kiosk/internal/remote"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

// ErrorKind classifies a per-item upload failure.
type ErrorKind int

const (
	// KindTransient is a network or remote error worth retrying on a
	// later run. The current run continues with the next item.
	KindTransient ErrorKind = iota
	// KindAuth means credentials were rejected. Fatal for the run:
	// remaining items are not attempted.
	KindAuth
	// KindLocalRead means the local photo file could not be read.
	// Only that file is affected.
	KindLocalRead
)

// String returns a human-readable representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindLocalRead:
		return "local-read"
	default:
		return "unknown"
	}
}

// ItemFailure records one failed upload.
type ItemFailure struct {
	Name string
	Kind ErrorKind
	Err  error
}

// CSVStatus reports the outcome of the plan's CSV action.
type CSVStatus int

const (
	// CSVSkipped means the plan needed no CSV action.
	CSVSkipped CSVStatus = iota
	// CSVSuccess means the log was sent.
	CSVSuccess
	// CSVFailed means the log send failed.
	CSVFailed
)

// String returns a human-readable representation of the status.
func (s CSVStatus) String() string {
	switch s {
	case CSVSkipped:
		return "skipped"
	case CSVSuccess:
		return "success"
	case CSVFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of executing one plan.
type Result struct {
	// Uploaded are photo filenames sent successfully, in plan order.
	Uploaded []string

	// Failed are per-photo failures, in plan order. A non-empty
	// Failed with a successful CSV is a normal partial result; the
	// next run retries what's missing.
	Failed []ItemFailure

	// CSV is the outcome of the log action.
	CSV CSVStatus

	// Aborted is set when an auth failure stopped the run before all
	// items were attempted.
	Aborted bool

	// Canceled is set when a cancel request was observed between
	// items.
	Canceled bool
}

// Clean reports whether every attempted operation succeeded and none
// were skipped by an abort or cancel.
func (r *Result) Clean() bool {
	return len(r.Failed) == 0 && r.CSV != CSVFailed && !r.Aborted && !r.Canceled
}

// Progress is notified once per completed item (success or failure)
// so callers can drive a live display. Done counts items attempted so
// far; Total is the plan size including the CSV action if any.
type Progress func(name string, done, total int, err error)

// Executor applies plans against a remote storage capability.
//
// Uploads are sequential in plan order. One bad photo never aborts
// the run; auth failures do, since retrying them is futile.
// Cancellation is cooperative: the context is only checked between
// items, an in-flight put runs to completion.
type Executor struct {
	rs       remote.Storage
	logger   *log.Logger
	progress Progress
}

// NewExecutor creates an Executor. If logger is nil a default stderr
// logger is used; progress may be nil when no live display is wanted.
func NewExecutor(rs remote.Storage, logger *log.Logger, progress Progress) *Executor {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if progress == nil {
		progress = func(string, int, int, error) {}
	}
	return &Executor{rs: rs, logger: logger, progress: progress}
}

// Execute applies the plan for the given day folder.
//
// Photos are attempted first, then the CSV action, exactly once, even
// when photos failed: the log may legitimately reference photos a
// later run will deliver.
func (e *Executor) Execute(ctx context.Context, day *store.DayFolder, plan Plan) Result {
	var res Result

	total := len(plan.Photos)
	if plan.CSV != CSVNone {
		total++
	}
	if total == 0 {
		e.logger.Printf("Nothing to sync for %s", plan.Date)
		return res
	}

	e.logger.Printf("Syncing %s: %d photos, csv=%s", plan.Date, len(plan.Photos), plan.CSV)

	done := 0
	for _, name := range plan.Photos {
		if err := ctx.Err(); err != nil {
			res.Canceled = true
			e.logger.Printf("Sync canceled after %d/%d items", done, total)
			return res
		}

		err := e.uploadPhoto(ctx, day, name)
		done++
		e.progress(name, done, total, err)

		if err == nil {
			res.Uploaded = append(res.Uploaded, name)
			continue
		}

		kind := classify(err)
		res.Failed = append(res.Failed, ItemFailure{Name: name, Kind: kind, Err: err})
		e.logger.Printf("WARNING: failed to upload %s (%s): %v", name, kind, err)

		if kind == KindAuth {
			res.Aborted = true
			e.logger.Printf("Auth failure, aborting run for %s", plan.Date)
			return res
		}
	}

	if plan.CSV == CSVNone {
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Canceled = true
		return res
	}

	name := day.CSVName()
	err := e.uploadCSV(ctx, day)
	done++
	e.progress(name, done, total, err)

	if err != nil {
		res.CSV = CSVFailed
		e.logger.Printf("WARNING: failed to %s log %s: %v", plan.CSV, name, err)
		if classify(err) == KindAuth {
			res.Aborted = true
		}
		return res
	}

	res.CSV = CSVSuccess
	e.logger.Printf("Sync complete for %s: uploaded=%d failed=%d csv=%s",
		plan.Date, len(res.Uploaded), len(res.Failed), res.CSV)
	return res
}

// uploadPhoto sends one photo file from the day folder.
func (e *Executor) uploadPhoto(ctx context.Context, day *store.DayFolder, name string) error {
	data, err := os.ReadFile(day.PhotoPath(name))
	if err != nil {
		return &localReadError{err}
	}
	if err := e.rs.Put(ctx, day.Date, name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// uploadCSV sends the day's log as it currently exists on disk. Rows
// appended since the plan was computed ride along; that is harmless
// and saves the late arrival a full extra run.
func (e *Executor) uploadCSV(ctx context.Context, day *store.DayFolder) error {
	data, err := os.ReadFile(day.CSVPath())
	if err != nil {
		return &localReadError{err}
	}
	if err := e.rs.Put(ctx, day.Date, day.CSVName(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("put %s: %w", day.CSVName(), err)
	}
	return nil
}

// localReadError marks failures reading local files so classify can
// tell them apart from remote failures.
type localReadError struct {
	err error
}

func (e *localReadError) Error() string { return "local read: " + e.err.Error() }
func (e *localReadError) Unwrap() error { return e.err }

// classify maps an upload error to its kind.
func classify(err error) ErrorKind {
	var lre *localReadError
	switch {
	case errors.Is(err, remote.ErrAuth):
		return KindAuth
	case errors.As(err, &lre):
		return KindLocalRead
	default:
		return KindTransient
	}
}
