package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileState(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{
			name:     "candidate pool",
			filename: "candidates.json",
			data:     []byte(`[{"id": "oats", "name": "Overnight Oats", "slot_type": "Breakfast"}]`),
		},
		{
			name:     "health summary",
			filename: "summary.json",
			data:     []byte(`{"recovery_pct": 42, "strain": 15.5}`),
		},
		{
			name:     "empty pool",
			filename: "empty.json",
			data:     []byte(`[]`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			require.NoError(t, os.WriteFile(filePath, tt.data, 0644))

			loaded, err := NewFileState(filePath).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)
		})
	}

	t.Run("load nonexistent file", func(t *testing.T) {
		_, err := NewFileState(filepath.Join(tmpDir, "nonexistent.json")).Load(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("directory is not a file", func(t *testing.T) {
		_, err := NewFileState(tmpDir).Load(context.Background())
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNotFound))
	})
}

func TestTestState(t *testing.T) {
	data, err := NewTestState([]byte(`[]`)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), data)

	boom := errors.New("boom")
	_, err = NewTestStateWithError(boom).Load(context.Background())
	assert.Equal(t, boom, err)
}
