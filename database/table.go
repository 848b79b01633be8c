package database

import (
	"strings"

	"soilscan/types"
)

// Table is the in-memory knowledge base. It is never modified after
// NewTable returns, so any number of goroutines may read it.
type Table struct {
	records    []types.ReferenceRecord
	bySoil     map[string][]int
	byLocality map[string][]int
}

// NewTable builds a table from records in their natural order
func NewTable(records []types.ReferenceRecord) *Table {
	t := &Table{
		records:    make([]types.ReferenceRecord, len(records)),
		bySoil:     make(map[string][]int),
		byLocality: make(map[string][]int),
	}
	copy(t.records, records)

	for i, rec := range t.records {
		soil := normalizeKey(rec.SoilType)
		t.bySoil[soil] = append(t.bySoil[soil], i)

		loc := normalizeKey(rec.Locality)
		t.byLocality[loc] = append(t.byLocality[loc], i)
	}
	return t
}

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.records)
}

// Record returns the record at position i
func (t *Table) Record(i int) types.ReferenceRecord {
	return t.records[i]
}

// Records returns a copy of every record in table order
func (t *Table) Records() []types.ReferenceRecord {
	out := make([]types.ReferenceRecord, len(t.records))
	copy(out, t.records)
	return out
}

// PositionsBySoil returns row positions whose soil type equals soil, ignoring case.
// Positions are ascending.
func (t *Table) PositionsBySoil(soil string) []int {
	return t.bySoil[normalizeKey(soil)]
}

// PositionsByLocality returns row positions whose locality equals locality, ignoring case
func (t *Table) PositionsByLocality(locality string) []int {
	return t.byLocality[normalizeKey(locality)]
}

// normalizeKey lower-cases a value for case-insensitive comparison
func normalizeKey(s string) string {
	return strings.ToLower(s)
}
