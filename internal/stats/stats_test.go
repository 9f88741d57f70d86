package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dooshek/sonicstream/internal/fileops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSessionPersists(t *testing.T) {
	fo := fileops.NewFileOps(filepath.Join(t.TempDir(), "cfg"))

	sm := NewStatsManager(fo)
	require.NoError(t, sm.AddSession("sonic-2", 1.5))
	require.NoError(t, sm.AddSession("sonic-2", 2.0))
	require.NoError(t, sm.AddSession("sonic-turbo", 0.25))

	got := sm.GetStats()
	require.Contains(t, got.Models, "sonic-2")
	assert.InDelta(t, 3.5, got.Models["sonic-2"].SynthesizedSeconds, 1e-9)
	assert.Equal(t, 2, got.Models["sonic-2"].SessionCount)
	assert.Equal(t, 1, got.Models["sonic-turbo"].SessionCount)

	reloaded := NewStatsManager(fo).GetStats()
	assert.Equal(t, got, reloaded)

	_, err := os.Stat(fo.GetStatsPath() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestGetStatsReturnsCopy(t *testing.T) {
	sm := NewStatsManager(fileops.NewFileOps(t.TempDir()))
	require.NoError(t, sm.AddSession("sonic-2", 1))

	snapshot := sm.GetStats()
	snapshot.Models["sonic-2"].SessionCount = 99

	assert.Equal(t, 1, sm.GetStats().Models["sonic-2"].SessionCount)
}

func TestStatsJSONAndReset(t *testing.T) {
	sm := NewStatsManager(fileops.NewFileOps(t.TempDir()))
	require.NoError(t, sm.AddSession("sonic-2", 4))

	raw, err := sm.GetStatsJSON()
	require.NoError(t, err)

	var decoded Stats
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, 1, decoded.Models["sonic-2"].SessionCount)

	require.NoError(t, sm.Reset())
	assert.Empty(t, sm.GetStats().Models)
}

func TestCorruptStatsFileStartsFresh(t *testing.T) {
	fo := fileops.NewFileOps(t.TempDir())
	require.NoError(t, fo.EnsureDirectories())
	require.NoError(t, os.WriteFile(fo.GetStatsPath(), []byte("{not json"), 0o644))

	sm := NewStatsManager(fo)
	assert.Empty(t, sm.GetStats().Models)
	require.NoError(t, sm.AddSession("sonic-2", 1))
}
