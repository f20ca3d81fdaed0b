package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoltStore(t *testing.T) {
	runStoreConformance(t, func(t *testing.T) Store {
		s, err := NewBolt(filepath.Join(t.TempDir(), "ledger.bolt"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
