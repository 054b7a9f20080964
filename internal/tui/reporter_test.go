package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Asdmir786/HalalDL/internal/tools"
)

func TestToolReporterSendsRowUpdates(t *testing.T) {
	var msgs []tea.Msg
	r := NewToolReporter(func(msg tea.Msg) { msgs = append(msgs, msg) })

	r.Report(tools.Progress{Tool: "ffmpeg", Percentage: 42, Status: "Downloading..."})
	r.Fail(tools.ToolFFmpeg, errors.New("boom"))

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	first := msgs[0].(RowUpdateMsg)
	if first.Key != "ffmpeg" || first.Fields["STATUS"] != "Downloading..." {
		t.Fatalf("unexpected update %+v", first)
	}
	if first.Percent == nil || *first.Percent != 42 {
		t.Fatalf("expected percent 42, got %v", first.Percent)
	}
	second := msgs[1].(RowUpdateMsg)
	if second.Fields["STATUS"] != "Error: boom" || second.Percent != nil {
		t.Fatalf("unexpected failure update %+v", second)
	}
}

func TestToolReporterDrivesModel(t *testing.T) {
	m := NewToolModel("tools", []tools.ToolID{tools.ToolYtDlp})
	r := NewToolReporter(func(msg tea.Msg) {
		updated, _ := m.Update(msg)
		m = updated.(ProgressModel)
	})

	r.Report(tools.Progress{Tool: "yt-dlp", Percentage: 100, Status: "Installed yt-dlp"})

	if m.rows[0].Percent != 100 {
		t.Fatalf("expected row at 100%%, got %v", m.rows[0].Percent)
	}
	if processed, _ := m.progressCounts(); processed != 1 {
		t.Fatalf("expected row counted as processed")
	}
}

func TestPlainReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf)
	r.Report(tools.Progress{Tool: "deno", Percentage: 0, Status: "Retrying download (attempt 2/3)..."})

	out := buf.String()
	if !strings.HasPrefix(out, "deno") || !strings.Contains(out, "0%") || !strings.Contains(out, "attempt 2/3") {
		t.Fatalf("unexpected plain output %q", out)
	}
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf)
	r.Report(tools.Progress{Tool: "aria2", Percentage: 55.5, Status: "Downloading..."})
	r.Report(tools.Progress{Tool: "aria2", Percentage: 100, Status: "Extracted: aria2c.exe"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var ev struct {
		Event   string         `json:"event"`
		Payload tools.Progress `json:"payload"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != tools.ProgressEvent {
		t.Fatalf("expected event %q, got %q", tools.ProgressEvent, ev.Event)
	}
	if ev.Payload.Tool != "aria2" || ev.Payload.Percentage != 55.5 {
		t.Fatalf("unexpected payload %+v", ev.Payload)
	}
}

func TestDetectMode(t *testing.T) {
	var buf bytes.Buffer
	if got := DetectMode(&buf, false, true); got != ModeJSON {
		t.Fatalf("json flag: got %v", got)
	}
	if got := DetectMode(&buf, true, false); got != ModePlain {
		t.Fatalf("no-progress flag: got %v", got)
	}
	if got := DetectMode(&buf, false, false); got != ModePlain {
		t.Fatalf("non-file writer: got %v", got)
	}
}
