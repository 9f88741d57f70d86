package main

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/dooshek/sonicstream/internal/audio"
	"github.com/dooshek/sonicstream/internal/fileops"
	"github.com/dooshek/sonicstream/internal/stats"
	"github.com/dooshek/sonicstream/internal/tts"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("From a file."), 0o644))

	tests := []struct {
		name    string
		text    string
		file    string
		passage string
		want    string
		wantErr string
	}{
		{name: "text flag", text: "Hello there.", want: "Hello there."},
		{name: "file flag", file: path, want: "From a file."},
		{name: "passage", passage: "glass-map", want: passages["glass-map"]},
		{name: "passage is case insensitive", passage: "Night-Plaza", want: passages["night-plaza"]},
		{name: "nothing set", wantErr: "nothing to synthesize"},
		{name: "two sources", text: "a", passage: "glass-map", wantErr: "mutually exclusive"},
		{name: "unknown passage", passage: "nope", wantErr: "unknown passage"},
		{name: "missing file", file: filepath.Join(t.TempDir(), "missing.txt"), wantErr: "failed to read text file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveText(tt.text, tt.file, tt.passage)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPassageNames(t *testing.T) {
	names := passageNames()
	assert.Len(t, names, len(passages))
	assert.True(t, sort.StringsAreSorted(names))
	for _, name := range names {
		assert.NotEmpty(t, passages[name])
	}
}

func TestRenderStatus(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	renderStatus(&buf, tts.Status{State: tts.StateStreaming})
	renderStatus(&buf, tts.Status{State: tts.StateError, Reason: "quota exceeded"})

	assert.Equal(t, "[streaming]\n[error: quota exceeded]\n", buf.String())
}

func TestRenderContainer(t *testing.T) {
	color.NoColor = true

	asm, err := audio.NewAssembler(16000, 0.5)
	require.NoError(t, err)
	c, ok := asm.Append(make([]byte, 16000))
	require.True(t, ok)

	var buf bytes.Buffer
	renderContainer(&buf, c)

	out := buf.String()
	assert.Contains(t, out, "#0")
	assert.Contains(t, out, "0.50s")
	assert.Contains(t, out, "16000 Hz")
	assert.Contains(t, out, "16-bit")
}

func TestPrintStats(t *testing.T) {
	color.NoColor = true

	sm := stats.NewStatsManager(fileops.NewFileOps(t.TempDir()))

	var buf bytes.Buffer
	printStats(&buf, sm.GetStats())
	assert.Equal(t, "No sessions recorded yet\n", buf.String())

	require.NoError(t, sm.AddSession("sonic-2", 2.5))
	require.NoError(t, sm.AddSession("sonic-2", 1.5))
	require.NoError(t, sm.AddSession("sonic-english", 1))

	buf.Reset()
	printStats(&buf, sm.GetStats())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "sonic-2 "))
	assert.Contains(t, lines[0], "2 sessions")
	assert.Contains(t, lines[0], "4.0s synthesized")
	assert.True(t, strings.HasPrefix(lines[1], "sonic-english"))
}

func TestPrintStatsJSONAfterReset(t *testing.T) {
	sm := stats.NewStatsManager(fileops.NewFileOps(t.TempDir()))
	require.NoError(t, sm.AddSession("sonic-2", 3))

	var buf bytes.Buffer
	require.NoError(t, printStatsJSON(&buf, sm))
	assert.JSONEq(t, `{"models":{"sonic-2":{"synthesized_seconds":3,"session_count":1}}}`, buf.String())

	require.NoError(t, sm.Reset())
	buf.Reset()
	require.NoError(t, printStatsJSON(&buf, sm))
	assert.JSONEq(t, `{"models":{}}`, buf.String())
}
