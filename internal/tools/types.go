package tools

import (
	"fmt"
	"strings"
)

// Channel selects a release track.
type Channel string

const (
	ChannelStable  Channel = "stable"
	ChannelNightly Channel = "nightly"
)

// ParseChannel accepts "", "stable" and "nightly" (case-insensitive).
func ParseChannel(value string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ChannelStable):
		return ChannelStable, nil
	case string(ChannelNightly):
		return ChannelNightly, nil
	default:
		return "", &ConfigError{Field: "channel", Reason: fmt.Sprintf("unknown channel %q", value)}
	}
}

// ProgressEvent is the fixed event name progress notifications are published under.
const ProgressEvent = "download-progress"

// Progress is a fire-and-forget notification for a tool workflow.
type Progress struct {
	Tool       string  `json:"tool"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// Reporter receives progress notifications. Implementations must not block.
type Reporter interface {
	Report(Progress)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Progress)

// Report implements Reporter.
func (f ReporterFunc) Report(p Progress) { f(p) }

type nopReporter struct{}

func (nopReporter) Report(Progress) {}

func emit(r Reporter, tool ToolID, percentage float64, status string) {
	if r == nil {
		return
	}
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	r.Report(Progress{Tool: string(tool), Percentage: percentage, Status: status})
}

// Restored records one binary brought back from its backup.
type Restored struct {
	Binary string `json:"binary"`
	Dir    string `json:"dir"`
}

func (r Restored) String() string {
	return fmt.Sprintf("%s (%s)", r.Binary, r.Dir)
}

// CleanupResult lists removed backups and the ones that could not be removed.
type CleanupResult struct {
	Removed []string `json:"removed"`
	Failed  []string `json:"failed,omitempty"`
}
