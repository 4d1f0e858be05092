package ndf

import (
	"github.com/wgmod/eugen/internal/utils"
)

// Table is an append-only ordered string table with reverse lookup.
// Interning never rehashes existing indices; indices are stable for
// the lifetime of one encode pass.
type Table struct {
	items []string
	index map[string]uint32
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]uint32)}
}

// Intern returns the index of value, appending it if absent.
func (t *Table) Intern(value string) (uint32, error) {
	if idx, ok := t.index[value]; ok {
		return idx, nil
	}
	idx, err := utils.U32Len(len(t.items), "table")
	if err != nil {
		return 0, err
	}
	t.items = append(t.items, value)
	t.index[value] = idx
	return idx, nil
}

// Lookup returns the index of value without inserting.
func (t *Table) Lookup(value string) (uint32, bool) {
	idx, ok := t.index[value]
	return idx, ok
}

// Get returns the value at idx; out-of-range is a decode error.
func (t *Table) Get(idx uint32) (string, error) {
	if err := utils.CheckIndex(idx, len(t.items), "table"); err != nil {
		return "", err
	}
	return t.items[idx], nil
}

// Len reports the number of entries.
func (t *Table) Len() int {
	return len(t.items)
}

// Items returns the backing slice in index order.
func (t *Table) Items() []string {
	return t.items
}

// propEntry binds a property name to the class it occurs on. The PROP
// section stores both so a property index identifies name and class at
// once.
type propEntry struct {
	name     string
	classIdx uint32
}

type propTable struct {
	items []propEntry
	index map[propEntry]uint32
}

func newPropTable() *propTable {
	return &propTable{index: make(map[propEntry]uint32)}
}

func (t *propTable) intern(name string, classIdx uint32) (uint32, error) {
	key := propEntry{name: name, classIdx: classIdx}
	if idx, ok := t.index[key]; ok {
		return idx, nil
	}
	idx, err := utils.U32Len(len(t.items), "property table")
	if err != nil {
		return 0, err
	}
	t.items = append(t.items, key)
	t.index[key] = idx
	return idx, nil
}
