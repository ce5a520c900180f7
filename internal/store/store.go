// Package store owns the on-disk representation of one day's sign-ins.
//
// Layout, per day, under the resolved data root:
//
//	<root>/<YYYY-MM-DD>/
//	    signins_<YYYY-MM-DD>.csv
//	    photos/
//	        <Last>_<First>_<HHMM>_<ID>.jpg
//
// The CSV is the source of truth for records; the photos directory is
// the source of truth for photos. Load reconstructs day state from both,
// so nothing in memory can drift from disk, and a crash never loses more
// than the write in flight (the CSV is replaced atomically).
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// DateLayout is the calendar-day format used for day folder names.
const DateLayout = "2006-01-02"

// DayFolder is the reconstructed state of one day's sign-ins.
// It is a read-only snapshot; only Store.Append mutates day state.
type DayFolder struct {
	// Date is the calendar day, formatted per DateLayout.
	Date string

	// Path is the day folder directory.
	Path string

	// Records are the day's sign-ins in sign-in order.
	Records []Record

	// Photos are all photo filenames present under photos/,
	// referenced or not, sorted ascending.
	Photos []string

	// Orphans are photo filenames not referenced by any record.
	// They are retained on disk and excluded from duplicate checks.
	Orphans []string
}

// CSVName returns the day's log filename, e.g. "signins_2026-08-31.csv".
func (d *DayFolder) CSVName() string {
	return csvName(d.Date)
}

// CSVPath returns the absolute path of the day's log file.
func (d *DayFolder) CSVPath() string {
	return filepath.Join(d.Path, d.CSVName())
}

// PhotoPath returns the absolute path of a photo filename in this folder.
func (d *DayFolder) PhotoPath(name string) string {
	return filepath.Join(d.Path, "photos", name)
}

// HasRecord reports whether the identifier already signed in this day.
func (d *DayFolder) HasRecord(id string) bool {
	for i := range d.Records {
		if d.Records[i].ID == id {
			return true
		}
	}
	return false
}

// Store provides append and read access to day folders under one root.
//
// Append serializes the duplicate-check-and-write sequence with a
// mutex, so two near-simultaneous sign-ins for the same identifier
// cannot both land. Reads (Load, Count) take the same snapshot path
// used by the sync engine and never block appends for long: the CSV
// replace is a single rename.
type Store struct {
	root   string
	mu     sync.Mutex
	logger *log.Logger
}

// New creates a Store rooted at the given data directory.
//
// The directory does not need to exist yet; day folders are created
// lazily on first append. If logger is nil, a default stderr logger
// is used.
func New(root string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return &Store{root: root, logger: logger}
}

// Root returns the data root this store is bound to.
func (s *Store) Root() string {
	return s.root
}

// DayPath returns the day folder path for a date string.
func (s *Store) DayPath(date string) string {
	return filepath.Join(s.root, date)
}

// Append records a sign-in for the given day (taken from ts).
//
// If photo is non-nil it is written to photos/ under the derived
// filename before the log row lands, preserving the invariant that
// every referenced photo exists on disk. Returns ErrDuplicate if the
// identifier already has a record for that day; the store is unchanged.
func (s *Store) Append(id, name string, ts time.Time, photo []byte) (*Record, error) {
	rec := &Record{ID: id, Name: name, Time: ts}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sign-in: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	date := ts.Format(DateLayout)
	day, err := s.load(date)
	if err != nil {
		return nil, err
	}

	if day.HasRecord(id) {
		return nil, fmt.Errorf("%s on %s: %w", id, date, ErrDuplicate)
	}

	if err := os.MkdirAll(filepath.Join(day.Path, "photos"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create day folder: %w", err)
	}

	if photo != nil {
		rec.Photo = PhotoName(name, id, ts)
		if err := os.WriteFile(day.PhotoPath(rec.Photo), photo, 0644); err != nil {
			return nil, fmt.Errorf("failed to write photo: %w", err)
		}
	}

	rows := append(day.Records, *rec)
	if err := s.writeCSV(day.CSVPath(), rows); err != nil {
		return nil, err
	}

	s.logger.Printf("Recorded sign-in: %s (%s) photo=%q", id, name, rec.Photo)
	return rec, nil
}

// Load reconstructs the day folder state for a date (DateLayout).
//
// A day with no folder or an empty log yields a DayFolder with zero
// records, not an error. Photo files not referenced by any row are
// reported as Orphans and left alone.
func (s *Store) Load(date string) (*DayFolder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(date)
}

// Count returns the number of sign-ins recorded for a date. It is
// derived from the log on every call; there is no separate counter
// to drift.
func (s *Store) Count(date string) (int, error) {
	day, err := s.Load(date)
	if err != nil {
		return 0, err
	}
	return len(day.Records), nil
}

// load is Load without the lock; callers hold s.mu.
func (s *Store) load(date string) (*DayFolder, error) {
	day := &DayFolder{Date: date, Path: s.DayPath(date)}

	records, err := readCSV(day.CSVPath())
	if err != nil {
		return nil, err
	}
	day.Records = records

	photos, err := listPhotos(filepath.Join(day.Path, "photos"))
	if err != nil {
		return nil, err
	}
	day.Photos = photos

	referenced := make(map[string]bool, len(records))
	for i := range records {
		if records[i].Photo != "" {
			referenced[records[i].Photo] = true
		}
	}
	for _, name := range photos {
		if !referenced[name] {
			day.Orphans = append(day.Orphans, name)
		}
	}

	return day, nil
}

// writeCSV replaces the day's log with the given rows in one atomic
// rename, header included.
func (s *Store) writeCSV(path string, rows []Record) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to encode log header: %w", err)
	}
	for i := range rows {
		row := []string{
			rows[i].ID,
			rows[i].Name,
			rows[i].Time.Format(TimeLayout),
			rows[i].Photo,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to encode log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode log: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to replace log: %w", err)
	}
	return nil
}

var csvHeader = []string{"identifier", "display_name", "timestamp", "photo_filename"}

func csvName(date string) string {
	return "signins_" + date + ".csv"
}

// readCSV parses a day log. A missing file means a new day: no rows.
func readCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	var records []Record
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse log %s: %w", path, err)
		}
		if first {
			first = false
			if strings.EqualFold(row[0], csvHeader[0]) {
				continue
			}
		}
		ts, err := time.ParseInLocation(TimeLayout, row[2], time.Local)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp in log %s: %w", path, err)
		}
		records = append(records, Record{
			ID:    row[0],
			Name:  row[1],
			Time:  ts,
			Photo: row[3],
		})
	}
	return records, nil
}

// listPhotos returns photo filenames in a directory, sorted ascending.
// A missing directory is an empty set.
func listPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read photos directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
