package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		dsn  string
		want any
	}{
		{"", &MemoryStore{}},
		{"memory:", &MemoryStore{}},
		{"sqlite:" + filepath.Join(dir, "a.db"), &SQLiteStore{}},
		{"sqlite://" + filepath.Join(dir, "b.db"), &SQLiteStore{}},
		{"bolt:" + filepath.Join(dir, "c.bolt"), &BoltStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			s, err := Open(ctx, tt.dsn, Options{})
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), "cassandra://localhost", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDSN))
}
