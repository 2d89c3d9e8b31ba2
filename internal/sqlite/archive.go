package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArchiveVersion is written to every manifest. Import accepts only this
// version.
const ArchiveVersion = 1

const manifestFile = "manifest.json"

// ErrNoManifest is returned by Import when dir holds no manifest.json.
var ErrNoManifest = errors.New("archive manifest not found")

// Manifest describes one export.
type Manifest struct {
	ExportID  string         `json:"export_id"`
	CreatedAt time.Time      `json:"created_at"`
	Version   int            `json:"version"`
	Source    string         `json:"source"`
	Rows      map[string]int `json:"rows"`
}

// ImportReport summarises an import.
type ImportReport struct {
	Manifest Manifest
	Loaded   map[string]int // rows inserted per table
	Skipped  int            // malformed lines and rows dropped
}

// Export writes every table to dir as <table>.jsonl plus manifest.json.
// dir is created if needed; existing archive files are replaced.
func (s *Store) Export(ctx context.Context, dir string) (Manifest, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Manifest{}, fmt.Errorf("generating export id: %w", err)
	}
	m := Manifest{
		ExportID:  id.String(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Version:   ArchiveVersion,
		Source:    filepath.Base(s.path),
		Rows:      make(map[string]int),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("creating %s: %w", dir, err)
	}

	err = s.do(func(db *sql.DB) error {
		for _, ts := range tableColumns() {
			records, err := dumpTable(ctx, db, ts)
			if err != nil {
				return err
			}
			if err := writeJSONL(filepath.Join(dir, ts.table+".jsonl"), records); err != nil {
				return fmt.Errorf("writing %s: %w", ts.table, err)
			}
			m.Rows[ts.table] = len(records)
		}
		return nil
	})
	if err != nil {
		return Manifest{}, err
	}

	if err := writeAtomic(filepath.Join(dir, manifestFile), func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}); err != nil {
		return Manifest{}, fmt.Errorf("writing manifest: %w", err)
	}
	return m, nil
}

// Import creates a new store at path and loads the archive in dir into it,
// keeping every key. Loading is one transaction with foreign-key checks
// deferred to commit; malformed lines are skipped. On failure the new file
// is removed.
func Import(ctx context.Context, dir, path string) (*Store, ImportReport, error) {
	report := ImportReport{Loaded: make(map[string]int)}

	m, err := readManifest(dir)
	if err != nil {
		return nil, report, err
	}
	report.Manifest = m

	s, err := CreateNew(ctx, path)
	if err != nil {
		return nil, report, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
			return fmt.Errorf("deferring foreign keys: %w", err)
		}
		for _, ts := range tableColumns() {
			records, skipped, err := readJSONL(filepath.Join(dir, ts.table+".jsonl"))
			if err != nil {
				return err
			}
			report.Skipped += skipped
			n, dropped, err := loadTable(ctx, tx, ts, records)
			if err != nil {
				return err
			}
			report.Loaded[ts.table] = n
			report.Skipped += dropped
		}
		return nil
	})
	if err != nil {
		s.Close()
		os.Remove(path)
		return nil, report, fmt.Errorf("importing %s: %w", dir, err)
	}
	return s, report, nil
}

func readManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, fmt.Errorf("%w in %s", ErrNoManifest, dir)
		}
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version != ArchiveVersion {
		return m, fmt.Errorf("unsupported archive version %d", m.Version)
	}
	return m, nil
}

func dumpTable(ctx context.Context, q querier, ts tableSpec) ([]map[string]any, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(ts.columns, ", "), ts.table))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ts.table, err)
	}
	defer rows.Close()

	records := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(ts.columns))
		ptrs := make([]any, len(ts.columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", ts.table, err)
		}
		rec := make(map[string]any, len(ts.columns))
		for i, col := range ts.columns {
			if b, ok := vals[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = vals[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", ts.table, err)
	}
	return records, nil
}

// loadTable inserts records into ts.table. Fields outside ts.columns are
// ignored; missing fields insert as NULL. Rows the engine rejects outright
// are dropped and counted.
func loadTable(ctx context.Context, tx *sql.Tx, ts tableSpec, records []map[string]any) (loaded, dropped int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ts.columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ts.table, strings.Join(ts.columns, ", "), placeholders))
	if err != nil {
		return 0, 0, fmt.Errorf("preparing insert for %s: %w", ts.table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		args := make([]any, len(ts.columns))
		for i, col := range ts.columns {
			args[i] = sqlValue(rec[col])
			// Older files stored an absent parent as the text "NULL".
			if v, ok := args[i].(string); ok && v == "NULL" && strings.HasPrefix(col, "parent_") {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			dropped++
			continue
		}
		loaded++
	}
	return loaded, dropped, nil
}

// sqlValue converts a decoded JSON value into something the driver binds.
func sqlValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return x
	}
}
