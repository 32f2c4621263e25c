// Package uuidtable persists stable pseudonymous identifiers for
// sensitive data such as phone numbers and message texts. Each datum is
// assigned a prefixed UUIDv4 the first time it is seen; lookups after
// that always return the same identifier, within one process and across
// runs via the JSON Load/Save round-trip.
package uuidtable

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Table maps raw data to pseudonymous identifiers.
type Table struct {
	prefix string
	ids    map[string]string
}

// New creates an empty table whose minted identifiers carry the given
// prefix, e.g. "avf-phone-id-".
func New(prefix string) *Table {
	return &Table{prefix: prefix, ids: make(map[string]string)}
}

// Load reads a table previously written by Save.
func Load(prefix string, r io.Reader) (*Table, error) {
	t := New(prefix)
	if err := json.NewDecoder(r).Decode(&t.ids); err != nil {
		return nil, fmt.Errorf("uuidtable: load: %w", err)
	}
	return t, nil
}

// Save writes the table as pretty-printed JSON. encoding/json emits map
// keys sorted, so the persisted file diffs cleanly between runs.
func (t *Table) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.ids); err != nil {
		return fmt.Errorf("uuidtable: save: %w", err)
	}
	return nil
}

// GetOrCreate returns the identifier for datum, minting one on first sight.
func (t *Table) GetOrCreate(datum string) string {
	if id, ok := t.ids[datum]; ok {
		return id
	}
	id := t.prefix + uuid.New().String()
	t.ids[datum] = id
	return id
}

// Get returns the identifier for datum if one has been assigned.
func (t *Table) Get(datum string) (string, bool) {
	id, ok := t.ids[datum]
	return id, ok
}

// Len reports how many data have identifiers assigned.
func (t *Table) Len() int {
	return len(t.ids)
}
