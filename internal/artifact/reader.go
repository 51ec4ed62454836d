package artifact

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Reader iterates a completed artifact row by row.
type Reader struct {
	file    *os.File
	csv     *csv.Reader
	columns []string
}

// OpenReader opens a completed artifact and consumes its header row.
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1 // validated against the header below

	header, err := r.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read artifact header %s: %w", path, err)
	}
	r.FieldsPerRecord = len(header)

	return &Reader{file: file, csv: r, columns: header}, nil
}

// Columns returns the artifact's column names in source order.
func (r *Reader) Columns() []string {
	return r.columns
}

// Next returns the next row as query parameters, or io.EOF when the
// artifact is exhausted.
func (r *Reader) Next() ([]interface{}, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read artifact row: %w", err)
	}
	return DecodeRow(record), nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
