package kiosksync

import (
	"log"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/gnomeskillet/signin-kiosk/internal/remote"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

const testDate = "2026-03-02"

// testLogger keeps test output quiet but attributable.
func testLogger() *log.Logger {
	return log.New(os.Stderr, "[kiosksync-test] ", 0)
}

// seedDay creates a store in a temp dir and records the given
// sign-ins on testDate. withPhoto controls whether each gets a photo.
func seedDay(t *testing.T, signins []struct {
	id, name, hhmm string
	photo          bool
}) (*store.Store, *store.DayFolder) {
	t.Helper()

	st := store.New(t.TempDir(), testLogger())
	for _, si := range signins {
		ts, err := time.ParseInLocation(store.TimeLayout, testDate+" "+si.hhmm+":00", time.Local)
		if err != nil {
			t.Fatalf("bad test time: %v", err)
		}
		var photo []byte
		if si.photo {
			photo = []byte("jpeg:" + si.id)
		}
		if _, err := st.Append(si.id, si.name, ts, photo); err != nil {
			t.Fatalf("seeding sign-in %s failed: %v", si.id, err)
		}
	}

	day, err := st.Load(testDate)
	if err != nil {
		t.Fatalf("loading seeded day failed: %v", err)
	}
	return st, day
}

// seedScenario is the canonical two-student day: one with a photo,
// one without.
func seedScenario(t *testing.T) (*store.Store, *store.DayFolder) {
	t.Helper()
	return seedDay(t, []struct {
		id, name, hhmm string
		photo          bool
	}{
		{"101", "A. Smith", "09:02", true},
		{"102", "B. Lee", "09:05", false},
	})
}

func TestBuildPlanFreshDay(t *testing.T) {
	_, day := seedScenario(t)

	plan := BuildPlan(day, make(remote.Inventory))

	if want := []string{"Smith_A_0902_101.jpg"}; !reflect.DeepEqual(plan.Photos, want) {
		t.Errorf("photos = %v, want %v", plan.Photos, want)
	}
	if plan.CSV != CSVCreate {
		t.Errorf("csv action = %s, want create", plan.CSV)
	}
	if plan.Empty() {
		t.Error("plan with pending work reported empty")
	}
}

func TestBuildPlanSkipsUploadedPhotos(t *testing.T) {
	_, day := seedScenario(t)

	inv := make(remote.Inventory)
	inv.Add("Smith_A_0902_101.jpg")

	plan := BuildPlan(day, inv)
	if len(plan.Photos) != 0 {
		t.Errorf("already-uploaded photo planned again: %v", plan.Photos)
	}
	if plan.CSV != CSVCreate {
		t.Errorf("csv action = %s, want create", plan.CSV)
	}
}

func TestBuildPlanReplacesExistingCSV(t *testing.T) {
	_, day := seedScenario(t)

	inv := make(remote.Inventory)
	inv.Add("Smith_A_0902_101.jpg")
	inv.Add(day.CSVName())

	plan := BuildPlan(day, inv)
	if plan.CSV != CSVReplace {
		t.Errorf("csv action = %s, want replace (remote log is never patched)", plan.CSV)
	}
	if len(plan.Photos) != 0 {
		t.Errorf("unexpected photo uploads: %v", plan.Photos)
	}
}

func TestBuildPlanEmptyDayIsNoop(t *testing.T) {
	st := store.New(t.TempDir(), testLogger())
	day, err := st.Load(testDate)
	if err != nil {
		t.Fatal(err)
	}

	plan := BuildPlan(day, make(remote.Inventory))
	if !plan.Empty() {
		t.Errorf("plan for empty day not empty: %+v", plan)
	}
}

func TestBuildPlanIncludesOrphans(t *testing.T) {
	st, day := seedScenario(t)

	if err := os.WriteFile(day.PhotoPath("Stray_Z_0000_999.jpg"), []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	day, err := st.Load(testDate)
	if err != nil {
		t.Fatal(err)
	}

	plan := BuildPlan(day, make(remote.Inventory))
	want := []string{"Smith_A_0902_101.jpg", "Stray_Z_0000_999.jpg"}
	if !reflect.DeepEqual(plan.Photos, want) {
		t.Errorf("photos = %v, want %v (orphans ride along)", plan.Photos, want)
	}
}

func TestBuildPlanDeterministicOrder(t *testing.T) {
	_, day := seedDay(t, []struct {
		id, name, hhmm string
		photo          bool
	}{
		{"300", "C. Zed", "09:10", true},
		{"100", "A. Abel", "09:12", true},
		{"200", "B. Mid", "09:14", true},
	})

	plan := BuildPlan(day, make(remote.Inventory))
	want := []string{"Abel_A_0912_100.jpg", "Mid_B_0914_200.jpg", "Zed_C_0910_300.jpg"}
	if !reflect.DeepEqual(plan.Photos, want) {
		t.Errorf("photos = %v, want ascending by filename %v", plan.Photos, want)
	}
}
