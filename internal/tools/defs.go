package tools

import (
	"fmt"
	"runtime"
	"strings"
)

// ToolID names a managed external tool.
type ToolID string

const (
	ToolYtDlp  ToolID = "yt-dlp"
	ToolFFmpeg ToolID = "ffmpeg"
	ToolAria2  ToolID = "aria2"
	ToolDeno   ToolID = "deno"
)

// ToolSpec lists the binaries a tool owns. The first binary is the primary
// executable; the rest are sidecars installed next to it.
type ToolSpec struct {
	ID       ToolID   `yaml:"id"`
	Binaries []string `yaml:"binaries"`
}

// Table is the immutable tool -> binaries mapping used by every component.
type Table struct {
	specs []ToolSpec
}

// NewTable validates specs and returns a table preserving their order.
func NewTable(specs []ToolSpec) (Table, error) {
	if len(specs) == 0 {
		return Table{}, &ConfigError{Field: "tools", Reason: "tool table is empty"}
	}

	seenTools := make(map[ToolID]struct{}, len(specs))
	owners := map[string]ToolID{}
	copied := make([]ToolSpec, 0, len(specs))
	for _, spec := range specs {
		id := ToolID(strings.TrimSpace(string(spec.ID)))
		if id == "" {
			return Table{}, &ConfigError{Field: "tools", Reason: "tool id must not be empty"}
		}
		if _, dup := seenTools[id]; dup {
			return Table{}, &ConfigError{Field: "tools", Reason: fmt.Sprintf("duplicate tool id %q", id)}
		}
		if len(spec.Binaries) == 0 {
			return Table{}, &ConfigError{Field: "tools." + string(id), Reason: "at least one binary is required"}
		}
		bins := make([]string, 0, len(spec.Binaries))
		for _, bin := range spec.Binaries {
			bin = strings.TrimSpace(bin)
			if bin == "" || strings.ContainsAny(bin, `/\`) {
				return Table{}, &ConfigError{Field: "tools." + string(id), Reason: fmt.Sprintf("invalid binary name %q", bin)}
			}
			key := strings.ToLower(bin)
			if owner, taken := owners[key]; taken {
				return Table{}, &ConfigError{
					Field:  "tools." + string(id),
					Reason: fmt.Sprintf("binary %s already owned by %s", bin, owner),
				}
			}
			owners[key] = id
			bins = append(bins, bin)
		}
		seenTools[id] = struct{}{}
		copied = append(copied, ToolSpec{ID: id, Binaries: bins})
	}
	return Table{specs: copied}, nil
}

// DefaultTable returns the built-in table for the given GOOS.
func DefaultTable(goos string) Table {
	table, err := NewTable([]ToolSpec{
		{ID: ToolYtDlp, Binaries: []string{executableName(goos, "yt-dlp")}},
		{ID: ToolFFmpeg, Binaries: []string{executableName(goos, "ffmpeg"), executableName(goos, "ffprobe")}},
		{ID: ToolAria2, Binaries: []string{executableName(goos, "aria2c")}},
		{ID: ToolDeno, Binaries: []string{executableName(goos, "deno")}},
	})
	if err != nil {
		panic(err)
	}
	return table
}

// HostTable returns DefaultTable for the running platform.
func HostTable() Table {
	return DefaultTable(runtime.GOOS)
}

func executableName(goos, base string) string {
	if goos == "windows" {
		return base + ".exe"
	}
	return base
}

// Tools returns tool ids in table order.
func (t Table) Tools() []ToolID {
	ids := make([]ToolID, 0, len(t.specs))
	for _, spec := range t.specs {
		ids = append(ids, spec.ID)
	}
	return ids
}

// Specs returns a copy of the table entries.
func (t Table) Specs() []ToolSpec {
	out := make([]ToolSpec, len(t.specs))
	for i, spec := range t.specs {
		out[i] = ToolSpec{ID: spec.ID, Binaries: append([]string(nil), spec.Binaries...)}
	}
	return out
}

// Binaries returns the binaries owned by id.
func (t Table) Binaries(id ToolID) ([]string, bool) {
	for _, spec := range t.specs {
		if spec.ID == id {
			return append([]string(nil), spec.Binaries...), true
		}
	}
	return nil, false
}

// Lookup returns the binaries for id or an ErrUnknownTool config error.
func (t Table) Lookup(id ToolID) ([]string, error) {
	bins, ok := t.Binaries(id)
	if !ok {
		return nil, unknownTool(id)
	}
	return bins, nil
}

// ToolForBinary maps a binary file name back to its owning tool.
func (t Table) ToolForBinary(name string) (ToolID, bool) {
	for _, spec := range t.specs {
		for _, bin := range spec.Binaries {
			if strings.EqualFold(bin, name) {
				return spec.ID, true
			}
		}
	}
	return "", false
}

// ParseToolID resolves a user-supplied tool name against the table.
func (t Table) ParseToolID(name string) (ToolID, error) {
	id := ToolID(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := t.Binaries(id); !ok {
		return "", unknownTool(id)
	}
	return id, nil
}
