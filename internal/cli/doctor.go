package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Asdmir786/HalalDL/internal/config"
	"github.com/Asdmir786/HalalDL/internal/logx"
	"github.com/Asdmir786/HalalDL/internal/paths"
	"github.com/Asdmir786/HalalDL/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, installed tools and leftover install files",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(homeDir)
	if err != nil {
		return err
	}
	file, err := configFilePath()
	if err != nil {
		return err
	}

	var checks []healthCheck

	cfg, cfgErr := config.Load(file)
	if cfgErr == nil {
		env, err := config.LoadEnv()
		if err != nil {
			cfgErr = err
		} else {
			env.Apply(&cfg)
		}
	}
	checks = append(checks, checkConfig(cfg, cfgErr))
	if cfgErr != nil {
		return writeDoctorResult(cmd, pp.Root, checks)
	}

	table, err := cfg.Table()
	if err != nil {
		checks = append(checks, healthCheck{Name: "Tools", Status: "error", Summary: err.Error()})
		return writeDoctorResult(cmd, pp.Root, checks)
	}
	pp = pp.WithBinDir(cfg.BinDir)

	svc, err := tools.NewService(tools.ServiceConfig{Table: table, BinDir: pp.BinDir})
	if err != nil {
		return err
	}

	checks = append(checks, checkBinDir(pp.BinDir))
	checks = append(checks, checkTools(svc, table, pp.BinDir))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logx.WithLogger(ctx, logx.Discard())
	backups, err := svc.ListToolBackups(ctx, cfg.ExtraPaths)
	if err != nil {
		checks = append(checks, healthCheck{Name: "Backups", Status: "error", Summary: err.Error()})
	} else {
		checks = append(checks, checkBackups(backups, svc.BackupDirs(cfg.ExtraPaths)))
	}

	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	validations := cfg.Validate()
	var warnings, errors int
	var first string
	for _, v := range validations {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
		if first == "" {
			first = v.Message
		}
	}

	switch {
	case errors > 0:
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%d errors, %d warnings: %s", errors, warnings, first)}
	case warnings > 0:
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%d warnings: %s", warnings, first)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: "valid"}
}

func checkBinDir(dir string) healthCheck {
	exists, err := paths.DirExists(dir)
	switch {
	case err != nil:
		return healthCheck{Name: "Bin dir", Status: "error", Summary: err.Error()}
	case !exists:
		return healthCheck{Name: "Bin dir", Status: "warning", Summary: dir + " (not created yet)"}
	}
	return healthCheck{Name: "Bin dir", Status: "ok", Summary: dir}
}

func checkTools(svc *tools.Service, table tools.Table, binDir string) healthCheck {
	var found, missing []string
	for _, id := range table.Tools() {
		bins, _ := table.Binaries(id)
		if ok, _ := paths.FileExists(filepath.Join(binDir, bins[0])); ok {
			found = append(found, string(id)+" (bin)")
			continue
		}
		if _, ok, err := svc.ResolveSystemToolPath(string(id)); err == nil && ok {
			found = append(found, string(id)+" (PATH)")
			continue
		}
		missing = append(missing, string(id))
	}

	if len(missing) == 0 {
		return healthCheck{Name: "Tools", Status: "ok", Summary: joinComma(found)}
	}
	return healthCheck{
		Name:    "Tools",
		Status:  "warning",
		Summary: fmt.Sprintf("%d of %d tools found; missing %s", len(found), len(found)+len(missing), joinComma(missing)),
	}
}

// checkBackups reports backups and flags staging or rollback-tmp files, which
// only survive an interrupted install or rollback.
func checkBackups(backups []tools.ToolID, dirs []string) healthCheck {
	var leftovers []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if strings.HasSuffix(name, ".new") || strings.HasSuffix(name, ".rollback-tmp") {
				leftovers = append(leftovers, filepath.Join(dir, name))
			}
		}
	}

	names := make([]string, len(backups))
	for i, id := range backups {
		names[i] = string(id)
	}
	summary := "no backups"
	if len(names) > 0 {
		summary = "backups for " + joinComma(names)
	}

	if len(leftovers) > 0 {
		return healthCheck{
			Name:    "Backups",
			Status:  "warning",
			Summary: fmt.Sprintf("%s; leftover files from an interrupted install: %s", summary, joinComma(leftovers)),
		}
	}
	return healthCheck{Name: "Backups", Status: "ok", Summary: summary}
}

func writeDoctorResult(cmd *cobra.Command, root string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("HALALDL HEALTH:")+" "+root)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}

func joinComma(items []string) string {
	if len(items) == 0 {
		return ""
	}
	result := items[0]
	for _, item := range items[1:] {
		result += ", " + item
	}
	return result
}
