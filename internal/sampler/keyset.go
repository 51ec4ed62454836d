package sampler

import (
	"fmt"
	"strings"
)

// KeySet holds the key material captured for one table during planning:
// tuples over the table's primary key columns plus any columns referenced
// by child relations. Populated monotonically while the table is planned,
// then frozen; children only ever read a frozen set.
type KeySet struct {
	table   string
	columns []string
	index   map[string]int
	rows    [][]interface{}
	frozen  bool
}

// NewKeySet creates an empty key set over the given projected columns.
func NewKeySet(table string, columns []string) *KeySet {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &KeySet{table: table, columns: columns, index: index}
}

// Table returns the owning table name.
func (k *KeySet) Table() string { return k.table }

// Columns returns the projected column names in capture order.
func (k *KeySet) Columns() []string { return k.columns }

// Len returns the number of captured key tuples.
func (k *KeySet) Len() int { return len(k.rows) }

// Add captures one key tuple. The set must not be frozen.
func (k *KeySet) Add(row []interface{}) error {
	if k.frozen {
		return fmt.Errorf("key set for %s is frozen", k.table)
	}
	if len(row) != len(k.columns) {
		return fmt.Errorf("key tuple has %d values, key set for %s has %d columns",
			len(row), k.table, len(k.columns))
	}
	k.rows = append(k.rows, row)
	return nil
}

// Freeze marks the set complete. Children may read it afterwards.
func (k *KeySet) Freeze() { k.frozen = true }

// Frozen reports whether the set is complete.
func (k *KeySet) Frozen() bool { return k.frozen }

// Tuples projects the captured rows onto the given columns, deduplicated,
// skipping tuples containing NULL (a NULL key cannot satisfy a foreign
// key match). Only valid on a frozen set.
func (k *KeySet) Tuples(columns []string) ([][]interface{}, error) {
	if !k.frozen {
		return nil, fmt.Errorf("key set for %s is not frozen yet", k.table)
	}

	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := k.index[c]
		if !ok {
			return nil, fmt.Errorf("column %s.%s not captured in key set", k.table, c)
		}
		positions[i] = pos
	}

	seen := make(map[string]bool, len(k.rows))
	var out [][]interface{}

rows:
	for _, row := range k.rows {
		tuple := make([]interface{}, len(positions))
		var sig strings.Builder
		for i, pos := range positions {
			if row[pos] == nil {
				continue rows
			}
			tuple[i] = row[pos]
			fmt.Fprintf(&sig, "%v\x00", row[pos])
		}
		if seen[sig.String()] {
			continue
		}
		seen[sig.String()] = true
		out = append(out, tuple)
	}

	return out, nil
}

// ChunkTuples splits tuples into batches of at most size, bounding the
// length of generated IN lists.
func ChunkTuples(tuples [][]interface{}, size int) [][][]interface{} {
	if size <= 0 {
		size = 1000
	}
	var chunks [][][]interface{}
	for start := 0; start < len(tuples); start += size {
		end := start + size
		if end > len(tuples) {
			end = len(tuples)
		}
		chunks = append(chunks, tuples[start:end])
	}
	return chunks
}
