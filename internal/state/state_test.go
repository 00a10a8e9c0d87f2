package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadMissingFile(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nested", "state.json"), zap.NewNop())
	assert.Equal(t, State{}, f.Read())
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "pipeline_state.json")
	f := NewFile(path, zap.NewNop())

	want := State{
		Initialized:  true,
		LastRunAt:    "2026-08-25T12:30:00Z",
		LastRunID:    NewRunID(),
		DaysBackUsed: 30,
	}
	require.NoError(t, f.Write(want))
	assert.Equal(t, want, f.Read())
}

func TestReadCorruptedFileReinitializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f := NewFile(path, zap.NewNop())
	assert.Equal(t, State{}, f.Read())
}

func TestRunIDsAreUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
