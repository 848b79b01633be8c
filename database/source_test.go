package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soilscan/types"
)

func TestSourceFailurePersists(t *testing.T) {
	calls := 0
	src := LoadSource(func() (*Table, error) {
		calls++
		return nil, errors.New("file not found")
	})

	for i := 0; i < 3; i++ {
		table, err := src.Table()
		require.Error(t, err)
		assert.Nil(t, table)
		assert.True(t, types.IsCode(err, types.ErrCodeTableUnavailable))
		assert.Contains(t, err.Error(), "file not found")
	}
	assert.Equal(t, 1, calls)
	assert.False(t, src.Loaded())
	assert.Error(t, src.Err())
}

func TestSourceLoaded(t *testing.T) {
	src := LoadSource(func() (*Table, error) {
		return NewTable(sampleRecords()), nil
	})

	table, err := src.Table()
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.True(t, src.Loaded())
	assert.NoError(t, src.Err())
}

func TestSourceNilTable(t *testing.T) {
	src := LoadSource(func() (*Table, error) { return nil, nil })
	_, err := src.Table()
	assert.True(t, types.IsCode(err, types.ErrCodeTableUnavailable))

	var unset *Source
	_, err = unset.Table()
	assert.True(t, types.IsCode(err, types.ErrCodeTableUnavailable))
}
