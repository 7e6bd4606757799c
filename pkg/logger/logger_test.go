package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitWritesJSONToFile(t *testing.T) {
	t.Cleanup(InitNop)
	path := filepath.Join(t.TempDir(), "app.log")

	require.NoError(t, Init("info", "json", path))
	Info("resolved isotope", zap.Int("z", 26))
	Debug("dropped below level")
	require.NoError(t, Log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"resolved isotope"`)
	assert.Contains(t, string(data), `"z":26`)
	assert.NotContains(t, string(data), "dropped below level")
}

func TestInitRejectsBadInput(t *testing.T) {
	t.Cleanup(InitNop)

	assert.Error(t, Init("loud", "json", "stdout"))
	assert.Error(t, Init("info", "xml", "stdout"))
}
