package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Asdmir786/HalalDL/internal/tools"
)

// ToolColumns is the table layout used for tool workflows.
var ToolColumns = []Column{
	{Header: "TOOL", Width: 8},
	{Header: "STATUS", Width: 36},
	{Header: ProgressHeader, Width: 30},
}

// NewToolModel returns a progress model with one pending row per tool.
func NewToolModel(title string, ids []tools.ToolID) ProgressModel {
	m := NewProgressModel(title, ToolColumns)
	for _, id := range ids {
		m.AddRow(string(id), []string{string(id), "pending"})
	}
	return m
}

// ToolReporter forwards progress events to a running bubbletea program.
type ToolReporter struct {
	send func(tea.Msg)
}

// NewToolReporter wraps send, typically tea.Program.Send.
func NewToolReporter(send func(tea.Msg)) *ToolReporter {
	return &ToolReporter{send: send}
}

// Report implements tools.Reporter.
func (r *ToolReporter) Report(p tools.Progress) {
	pct := p.Percentage
	r.send(RowUpdateMsg{
		Key:     p.Tool,
		Fields:  map[string]string{"STATUS": p.Status},
		Percent: &pct,
	})
}

// Fail marks a tool's row as failed.
func (r *ToolReporter) Fail(tool tools.ToolID, err error) {
	r.send(RowUpdateMsg{
		Key:    string(tool),
		Fields: map[string]string{"STATUS": "Error: " + err.Error()},
	})
}

// PlainReporter writes one line per progress event.
type PlainReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPlainReporter returns a reporter writing to w.
func NewPlainReporter(w io.Writer) *PlainReporter {
	return &PlainReporter{w: w}
}

// Report implements tools.Reporter.
func (r *PlainReporter) Report(p tools.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%-8s %3.0f%%  %s\n", p.Tool, p.Percentage, p.Status)
}

type jsonEvent struct {
	Event   string         `json:"event"`
	Payload tools.Progress `json:"payload"`
}

// JSONReporter writes each progress event as a JSON object on its own line,
// tagged with tools.ProgressEvent.
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONReporter returns a reporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// Report implements tools.Reporter. Encoding errors are dropped; progress
// delivery never fails the workflow.
func (r *JSONReporter) Report(p tools.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(jsonEvent{Event: tools.ProgressEvent, Payload: p})
}
