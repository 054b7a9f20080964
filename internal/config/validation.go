package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Asdmir786/HalalDL/internal/logx"
	"github.com/Asdmir786/HalalDL/internal/tools"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the configuration against the tool table it describes.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult

	table, err := c.Table()
	if err != nil {
		return append(results, ValidationResult{Level: "error", Message: err.Error()})
	}

	results = append(results, c.validateChannels(table)...)
	results = append(results, c.validateVariants(table)...)
	results = append(results, c.validateExtraPaths()...)
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		results = append(results, ValidationResult{Level: "error", Message: fmt.Sprintf("log_level: %v", err)})
	}
	return results
}

// Err folds error-level results into a single error.
func Err(results []ValidationResult) error {
	var msgs []string
	for _, r := range results {
		if r.Level == "error" {
			msgs = append(msgs, r.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return &tools.ConfigError{Field: "config", Reason: strings.Join(msgs, "; ")}
}

func (c Config) validateChannels(table tools.Table) []ValidationResult {
	var results []ValidationResult
	for _, key := range sortedKeys(c.Channels) {
		id := tools.ToolID(strings.ToLower(key))
		if _, ok := table.Binaries(id); !ok {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("channels: unknown tool %q", key),
			})
			continue
		}
		ch, err := tools.ParseChannel(c.Channels[key])
		if err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("channels.%s: %q is not stable or nightly", key, c.Channels[key]),
			})
			continue
		}
		if ch == tools.ChannelNightly && id != tools.ToolYtDlp && id != tools.ToolFFmpeg {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("channels.%s: no nightly builds, stable will be used", key),
			})
		}
	}
	return results
}

func (c Config) validateVariants(table tools.Table) []ValidationResult {
	var results []ValidationResult
	for _, key := range sortedKeys(c.Variants) {
		id := tools.ToolID(strings.ToLower(key))
		if _, ok := table.Binaries(id); !ok {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("variants: unknown tool %q", key),
			})
			continue
		}
		if id != tools.ToolFFmpeg {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("variants.%s: only ffmpeg has build variants", key),
			})
		}
	}
	return results
}

func (c Config) validateExtraPaths() []ValidationResult {
	var results []ValidationResult
	for i, p := range c.ExtraPaths {
		if strings.TrimSpace(p) == "" {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("extra_paths[%d] is empty", i),
			})
		}
	}
	return results
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
