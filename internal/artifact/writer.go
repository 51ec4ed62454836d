package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// partialSuffix marks an artifact still being streamed. A completed
// artifact never carries it; a leftover .partial file is debris from a
// failed run.
const partialSuffix = ".partial"

// Artifact describes one completed per-table export file.
type Artifact struct {
	Table   string
	Path    string
	Columns []string
	Rows    int64
}

// Writer streams rows for a single table into its artifact file. Rows are
// written to a .partial file first; Complete renames it into place, so a
// readable artifact is always a finished one.
type Writer struct {
	table   string
	columns []string
	path    string
	file    *os.File
	csv     *csv.Writer
	rows    int64
}

// NewWriter creates the artifact file for a table and writes the header
// row. Column order must match the source column order.
func NewWriter(dir, table string, columns []string) (*Writer, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns for table %s", table)
	}

	path := filepath.Join(dir, table+".csv")
	file, err := os.OpenFile(path+partialSuffix, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact for %s: %w", table, err)
	}

	w := &Writer{
		table:   table,
		columns: columns,
		path:    path,
		file:    file,
		csv:     csv.NewWriter(file),
	}

	if err := w.csv.Write(columns); err != nil {
		w.Abort()
		return nil, fmt.Errorf("failed to write artifact header for %s: %w", table, err)
	}

	return w, nil
}

// WriteRow appends one row of scanned values.
func (w *Writer) WriteRow(values []interface{}) error {
	if len(values) != len(w.columns) {
		return fmt.Errorf("row has %d values, artifact %s has %d columns",
			len(values), w.table, len(w.columns))
	}
	w.rows++
	return w.csv.Write(EncodeRow(values))
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Complete flushes, closes and renames the artifact into place. Only after
// Complete returns is the artifact considered usable.
func (w *Writer) Complete() (*Artifact, error) {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.Abort()
		return nil, fmt.Errorf("failed to flush artifact for %s: %w", w.table, err)
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.path + partialSuffix)
		return nil, fmt.Errorf("failed to close artifact for %s: %w", w.table, err)
	}
	if err := os.Rename(w.path+partialSuffix, w.path); err != nil {
		_ = os.Remove(w.path + partialSuffix)
		return nil, fmt.Errorf("failed to finalize artifact for %s: %w", w.table, err)
	}

	return &Artifact{
		Table:   w.table,
		Path:    w.path,
		Columns: w.columns,
		Rows:    w.rows,
	}, nil
}

// Abort discards the partial artifact. Safe to call after a failed
// Complete.
func (w *Writer) Abort() {
	_ = w.file.Close()
	_ = os.Remove(w.path + partialSuffix)
}
