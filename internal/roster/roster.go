// Package roster loads the student master list the kiosk resolves
// identifiers against.
//
// The master list is maintained by office staff in a spreadsheet and
// exported with exact headers: "Student ID", "Full Name", "Grade",
// "Email Address". Exports are sometimes tab-separated despite the
// .csv extension, so the delimiter is sniffed before parsing.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Required CSV headers, in the master list's own vocabulary.
const (
	ColID    = "Student ID"
	ColName  = "Full Name"
	ColGrade = "Grade"
	ColEmail = "Email Address"
)

// ErrBadHeader is returned when the master list is missing required
// columns.
var ErrBadHeader = errors.New("roster is missing required headers")

// Student is one master-list entry.
type Student struct {
	ID    string
	Name  string
	Grade string
	Email string
}

// Roster is a loaded master list with lookup helpers.
type Roster struct {
	students []Student
	byID     map[string]int
}

// Load reads a master list CSV. Rows without both an ID and a name
// are skipped, matching how staff leave half-filled rows in the
// spreadsheet.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a master list from a reader.
func Parse(r io.Reader) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	text := strings.TrimPrefix(string(data), "\uFEFF") // spreadsheet BOM
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = detectDelimiter(text)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster has no header row: %w", ErrBadHeader)
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, want := range []string{ColID, ColName, ColGrade, ColEmail} {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadHeader, strings.Join(missing, ", "))
	}

	ros := &Roster{byID: make(map[string]int)}
	field := func(row []string, col string) string {
		i := cols[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	for _, row := range rows[1:] {
		s := Student{
			ID:    field(row, ColID),
			Name:  field(row, ColName),
			Grade: field(row, ColGrade),
			Email: field(row, ColEmail),
		}
		if s.ID == "" || s.Name == "" {
			continue
		}
		ros.byID[s.ID] = len(ros.students)
		ros.students = append(ros.students, s)
	}
	return ros, nil
}

// Len returns the number of loaded students.
func (r *Roster) Len() int {
	return len(r.students)
}

// Find returns the student with the exact identifier.
func (r *Roster) Find(id string) (Student, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Student{}, false
	}
	return r.students[i], true
}

// Search matches students by name substring or identifier. An
// all-digit query (dashes ignored) matches against dash-normalized
// IDs, so "12-345" and "12345" find each other.
func (r *Roster) Search(query string) []Student {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]Student(nil), r.students...)
	}

	qDigits := strings.ReplaceAll(q, "-", "")
	digitQuery := qDigits != "" && isDigits(qDigits)

	var out []Student
	for _, s := range r.students {
		id := strings.ToLower(s.ID)
		if digitQuery {
			if strings.Contains(strings.ReplaceAll(id, "-", ""), qDigits) {
				out = append(out, s)
			}
			continue
		}
		if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(id, q) {
			out = append(out, s)
		}
	}
	return out
}

// detectDelimiter prefers comma and switches to tab only when the
// sample is very clearly TSV.
func detectDelimiter(sample string) rune {
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	commas := strings.Count(sample, ",")
	tabs := strings.Count(sample, "\t")
	if tabs > commas*2 && tabs > 3 {
		return '\t'
	}
	return ','
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
