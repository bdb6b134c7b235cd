package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(RegistryOperations.WithLabelValues("add", ResultOK))
	ObserveOperation("add", ResultOK)
	ObserveOperation("add", ResultOK)

	after := testutil.ToFloat64(RegistryOperations.WithLabelValues("add", ResultOK))
	assert.Equal(t, before+2, after)
}

func TestWriteTextfile(t *testing.T) {
	ObserveStore("file", "save", time.Now().Add(-10*time.Millisecond))
	RecordsTotal.Set(4)

	path := filepath.Join(t.TempDir(), "gradebook.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gradebook_records 4")
	assert.Contains(t, string(data), `gradebook_store_duration_seconds_count{backend="file",operation="save"}`)
}
