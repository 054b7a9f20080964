package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	win := DefaultTable("windows")
	assert.Equal(t, []ToolID{ToolYtDlp, ToolFFmpeg, ToolAria2, ToolDeno}, win.Tools())

	bins, ok := win.Binaries(ToolFFmpeg)
	require.True(t, ok)
	assert.Equal(t, []string{"ffmpeg.exe", "ffprobe.exe"}, bins)

	bins, _ = DefaultTable("darwin").Binaries(ToolAria2)
	assert.Equal(t, []string{"aria2c"}, bins)
}

func TestNewTableRejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name  string
		specs []ToolSpec
	}{
		{"empty", nil},
		{"blank id", []ToolSpec{{ID: " ", Binaries: []string{"x"}}}},
		{"duplicate id", []ToolSpec{{ID: "a", Binaries: []string{"a"}}, {ID: "a", Binaries: []string{"b"}}}},
		{"no binaries", []ToolSpec{{ID: "a"}}},
		{"path in binary", []ToolSpec{{ID: "a", Binaries: []string{"bin/a"}}}},
		{"shared binary", []ToolSpec{{ID: "a", Binaries: []string{"x"}}, {ID: "b", Binaries: []string{"X"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.specs)
			var ce *ConfigError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestTableLookups(t *testing.T) {
	id, ok := linuxTable.ToolForBinary("FFPROBE")
	assert.True(t, ok)
	assert.Equal(t, ToolFFmpeg, id)

	_, ok = linuxTable.ToolForBinary("ffplay")
	assert.False(t, ok)

	id, err := linuxTable.ParseToolID("  Yt-Dlp ")
	require.NoError(t, err)
	assert.Equal(t, ToolYtDlp, id)

	_, err = linuxTable.ParseToolID("aria2c")
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Equal(t, "tool: unknown tool: aria2c", err.Error())
}

func TestTableBinariesIsACopy(t *testing.T) {
	bins, _ := linuxTable.Binaries(ToolFFmpeg)
	bins[0] = "mutated"
	again, _ := linuxTable.Binaries(ToolFFmpeg)
	assert.Equal(t, "ffmpeg", again[0])
}

func TestTableSpecsIsACopy(t *testing.T) {
	specs := linuxTable.Specs()
	require.Len(t, specs, 4)
	assert.Equal(t, ToolSpec{ID: ToolFFmpeg, Binaries: []string{"ffmpeg", "ffprobe"}}, specs[1])

	specs[1].Binaries[0] = "mutated"
	specs[0].ID = "changed"
	assert.Equal(t, []ToolID{ToolYtDlp, ToolFFmpeg, ToolAria2, ToolDeno}, linuxTable.Tools())
	bins, _ := linuxTable.Binaries(ToolFFmpeg)
	assert.Equal(t, "ffmpeg", bins[0])
}

func TestParseChannel(t *testing.T) {
	for in, want := range map[string]Channel{"": ChannelStable, "Stable": ChannelStable, " nightly ": ChannelNightly} {
		got, err := ParseChannel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseChannel("beta")
	assert.Error(t, err)
}

func TestEmitClampsPercentage(t *testing.T) {
	rep := &recordingReporter{}
	emit(rep, ToolDeno, 150, "over")
	emit(rep, ToolDeno, -3, "under")
	emit(nil, ToolDeno, 50, "ignored")

	require.Len(t, rep.events, 2)
	assert.Equal(t, float64(100), rep.events[0].Percentage)
	assert.Equal(t, float64(0), rep.events[1].Percentage)
}
