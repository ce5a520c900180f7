package kiosksync

import (
	"sort"

	"github.com/gnomeskillet/signin-kiosk/internal/remote"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

// CSVAction says what the executor should do with the day's log.
type CSVAction int

const (
	// CSVNone means the log needs no action this run.
	CSVNone CSVAction = iota
	// CSVCreate means no remote log exists yet and the local one
	// should be sent.
	CSVCreate
	// CSVReplace means a remote log exists and must be overwritten in
	// full. The remote copy is never patched: late arrivals and
	// mid-row edits make it untrustworthy, so any local rows force a
	// complete re-send.
	CSVReplace
)

// String returns a human-readable representation of the action.
func (a CSVAction) String() string {
	switch a {
	case CSVNone:
		return "none"
	case CSVCreate:
		return "create"
	case CSVReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Plan is the set of operations needed to reconcile one day.
type Plan struct {
	// Date is the day being reconciled.
	Date string

	// Photos are the photo filenames to upload, ascending by name so
	// run order is deterministic and reproducible.
	Photos []string

	// CSV is the action to take on the day's log, attempted after all
	// photos.
	CSV CSVAction
}

// Empty reports whether the plan is a no-op. Callers must treat an
// empty plan as success: it means local and remote already agree.
func (p Plan) Empty() bool {
	return len(p.Photos) == 0 && p.CSV == CSVNone
}

// BuildPlan computes the reconciliation plan for a day folder against
// the remote inventory.
//
// Every photo file on disk that the remote doesn't have yet is
// uploaded, orphans included: the log not referencing a photo is no
// reason to strand it locally. The CSV is created if absent remotely,
// replaced whenever local rows exist, and left alone otherwise.
func BuildPlan(day *store.DayFolder, inv remote.Inventory) Plan {
	plan := Plan{Date: day.Date}

	for _, name := range day.Photos {
		if !inv.Has(name) {
			plan.Photos = append(plan.Photos, name)
		}
	}
	sort.Strings(plan.Photos)

	switch {
	case len(day.Records) == 0:
		plan.CSV = CSVNone
	case inv.Has(day.CSVName()):
		plan.CSV = CSVReplace
	default:
		plan.CSV = CSVCreate
	}

	return plan
}
