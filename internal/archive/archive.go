// Package archive maintains a queryable SQLite archive of sign-in
// history across day folders.
//
// The archive is purely derived state: day folders stay the source of
// truth, and Rebuild can regenerate the database from them at any
// time. Nothing in the kiosk flow reads the archive back to make
// decisions; it exists for reporting.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

// DB wraps the archive database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the archive database and ensures its schema.
// The caller must Close it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS signins (
    day        TEXT NOT NULL,
    student_id TEXT NOT NULL,
    name       TEXT NOT NULL,
    signed_at  TEXT NOT NULL,
    photo      TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (day, student_id)
);
CREATE INDEX IF NOT EXISTS idx_signins_day ON signins(day);
`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// dayDirPattern matches day folder names (YYYY-MM-DD).
var dayDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Rebuild repopulates the archive from every day folder under the
// data root. Existing rows for rebuilt days are replaced; the return
// value is the number of records archived.
func (db *DB) Rebuild(st *store.Store) (int, error) {
	entries, err := os.ReadDir(st.Root())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read data root: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if !entry.IsDir() || !dayDirPattern.MatchString(entry.Name()) {
			continue
		}
		n, err := db.archiveDay(st, entry.Name())
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// archiveDay replaces one day's archive rows from its day folder.
func (db *DB) archiveDay(st *store.Store, date string) (int, error) {
	day, err := st.Load(date)
	if err != nil {
		return 0, fmt.Errorf("failed to load day %s: %w", date, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin archive tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM signins WHERE day = ?", date); err != nil {
		return 0, fmt.Errorf("failed to clear day %s: %w", date, err)
	}
	for i := range day.Records {
		rec := &day.Records[i]
		_, err := tx.Exec(
			"INSERT INTO signins (day, student_id, name, signed_at, photo) VALUES (?, ?, ?, ?, ?)",
			date, rec.ID, rec.Name, rec.Time.Format(store.TimeLayout), rec.Photo,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to archive %s/%s: %w", date, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit day %s: %w", date, err)
	}
	return len(day.Records), nil
}

// DayCount is one row of the per-day attendance report.
type DayCount struct {
	Date  string
	Count int
}

// CountByDay returns sign-in counts per day, oldest first.
func (db *DB) CountByDay() ([]DayCount, error) {
	rows, err := db.conn.Query(
		"SELECT day, COUNT(*) FROM signins GROUP BY day ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("failed to query day counts: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// History returns every archived sign-in for one student, oldest
// first.
func (db *DB) History(studentID string) ([]store.Record, error) {
	rows, err := db.conn.Query(
		"SELECT student_id, name, signed_at, photo FROM signins WHERE student_id = ? ORDER BY day",
		studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var rec store.Record
		var signedAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &signedAt, &rec.Photo); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Time, err = time.ParseInLocation(store.TimeLayout, signedAt, time.Local)
		if err != nil {
			return nil, fmt.Errorf("bad archived timestamp %q: %w", signedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
