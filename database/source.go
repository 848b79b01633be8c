package database

import (
	"soilscan/types"
)

// Source holds the outcome of the one-time knowledge base load.
// A failed load is remembered: every later Table call reports it.
type Source struct {
	table *Table
	err   error
}

// NewSource wraps an already loaded table
func NewSource(table *Table) *Source {
	return &Source{table: table}
}

// LoadSource runs load once and captures its result
func LoadSource(load func() (*Table, error)) *Source {
	table, err := load()
	if err == nil && table == nil {
		err = types.NewAppError(types.ErrCodeTableUnavailable, "knowledge base loader returned no table", nil)
	}
	if err != nil {
		return &Source{err: err}
	}
	return &Source{table: table}
}

// Table returns the loaded table or a table_unavailable error
func (s *Source) Table() (*Table, error) {
	if s == nil {
		return nil, types.NewAppError(types.ErrCodeTableUnavailable, "knowledge base was not loaded", nil)
	}
	if s.err != nil {
		return nil, types.NewAppError(types.ErrCodeTableUnavailable, "knowledge base could not be loaded", s.err)
	}
	return s.table, nil
}

// Loaded reports whether the table is available
func (s *Source) Loaded() bool {
	return s != nil && s.err == nil && s.table != nil
}

// Err returns the load error, if any
func (s *Source) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}
