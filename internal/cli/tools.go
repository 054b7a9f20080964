package cli

import (
	"context"
	"fmt"
	"sort"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Asdmir786/HalalDL/internal/tools"
	"github.com/Asdmir786/HalalDL/internal/tui"
)

var (
	downloadChannels map[string]string
	updateVariant    string
	updateChannel    string
	backupExtraPaths []string
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage external tools",
	}

	cmd.AddCommand(newToolsDownloadCmd())
	cmd.AddCommand(newToolsUpdateCmd())
	cmd.AddCommand(newToolsStageCmd())
	cmd.AddCommand(newToolsWhichCmd())
	cmd.AddCommand(newToolsBackupsCmd())

	return cmd
}

func newToolsDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [tool...]",
		Short: "Download tools into the app bin directory (all tools when none are named)",
		RunE:  runToolsDownload,
	}
	cmd.Flags().StringToStringVar(&downloadChannels, "channel", nil, "Release channel per tool, e.g. --channel yt-dlp=nightly")
	return cmd
}

func runToolsDownload(cmd *cobra.Command, args []string) error {
	a, ctx, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids := a.table.Tools()
	if len(args) > 0 {
		ids = ids[:0]
		for _, arg := range args {
			id, err := a.table.ParseToolID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
	}

	channels, err := a.cfg.ChannelMap(a.table)
	if err != nil {
		return err
	}
	for name, value := range downloadChannels {
		id, err := a.table.ParseToolID(name)
		if err != nil {
			return err
		}
		ch, err := tools.ParseChannel(value)
		if err != nil {
			return err
		}
		channels[id] = ch
	}

	msg, err := runWithProgress(ctx, cmd, a, ids, "Downloading tools", func(ctx context.Context, svc *tools.Service) (string, error) {
		return svc.DownloadTools(ctx, ids, channels)
	})
	if err != nil {
		return err
	}
	return printResult(cmd, msg)
}

func newToolsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <tool> <dir>",
		Short: "Update a tool installed in an existing directory, keeping a backup",
		Args:  cobra.ExactArgs(2),
		RunE:  runToolsUpdate,
	}
	cmd.Flags().StringVar(&updateVariant, "variant", "", "Build variant (ffmpeg: full, essentials, shared)")
	cmd.Flags().StringVar(&updateChannel, "channel", "", "Release channel (stable or nightly)")
	return cmd
}

func runToolsUpdate(cmd *cobra.Command, args []string) error {
	a, ctx, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.table.ParseToolID(args[0])
	if err != nil {
		return err
	}
	variant := updateVariant
	if variant == "" {
		variant = a.cfg.VariantMap()[id]
	}
	channel := updateChannel
	if channel == "" {
		channel = a.cfg.Channels[string(id)]
	}

	msg, err := runWithProgress(ctx, cmd, a, []tools.ToolID{id}, "Updating "+string(id), func(ctx context.Context, svc *tools.Service) (string, error) {
		return svc.UpdateToolAtPath(ctx, string(id), args[1], variant, channel)
	})
	if err != nil {
		return err
	}
	return printResult(cmd, msg)
}

func newToolsStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage <tool> <file>",
		Short: "Install a manually downloaded binary into the app bin directory",
		Args:  cobra.ExactArgs(2),
		RunE:  runToolsStage,
	}
}

func runToolsStage(cmd *cobra.Command, args []string) error {
	a, ctx, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.newService(nil)
	if err != nil {
		return err
	}
	dest, err := svc.StageManualTool(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return printResult(cmd, dest)
}

func newToolsWhichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "which <tool>",
		Short: "Find a tool's primary binary on PATH",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsWhich,
	}
}

type whichResult struct {
	Tool  string `json:"tool"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
}

func runToolsWhich(cmd *cobra.Command, args []string) error {
	a, _, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.newService(nil)
	if err != nil {
		return err
	}
	path, found, err := svc.ResolveSystemToolPath(args[0])
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), whichResult{Tool: args[0], Path: path, Found: found})
	}
	if !found {
		fmt.Fprintf(cmd.OutOrStdout(), "%s not found on PATH\n", args[0])
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newToolsBackupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List, restore or delete tool backups (.old files)",
	}
	cmd.PersistentFlags().StringSliceVar(&backupExtraPaths, "extra-path", nil, "Binary path outside the app bin dir whose directory is also scanned (repeatable)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tools that have a backup",
		Args:  cobra.NoArgs,
		RunE:  runBackupsList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rollback <tool>",
		Short: "Restore a tool's previous version from its backup",
		Args:  cobra.ExactArgs(1),
		RunE: backupAction(func(ctx context.Context, svc *tools.Service, args, extra []string) (string, error) {
			return svc.RollbackTool(ctx, args[0], extra)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clean <tool>",
		Short: "Delete a tool's backups",
		Args:  cobra.ExactArgs(1),
		RunE: backupAction(func(ctx context.Context, svc *tools.Service, args, extra []string) (string, error) {
			return svc.CleanupToolBackup(ctx, args[0], extra)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clean-all",
		Short: "Delete every tool backup",
		Args:  cobra.NoArgs,
		RunE: backupAction(func(ctx context.Context, svc *tools.Service, _, extra []string) (string, error) {
			return svc.CleanupAllBackups(ctx, extra)
		}),
	})
	return cmd
}

func runBackupsList(cmd *cobra.Command, _ []string) error {
	a, ctx, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.newService(nil)
	if err != nil {
		return err
	}
	ids, err := svc.ListToolBackups(ctx, a.extraPaths(backupExtraPaths))
	if err != nil {
		return err
	}

	if outputJSON {
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = string(id)
		}
		return writeJSON(cmd.OutOrStdout(), names)
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no backups)")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

type backupFunc func(ctx context.Context, svc *tools.Service, args, extra []string) (string, error)

func backupAction(fn backupFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, ctx, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.newService(nil)
		if err != nil {
			return err
		}
		msg, err := fn(ctx, svc, args, a.extraPaths(backupExtraPaths))
		if err != nil {
			return err
		}
		return printResult(cmd, msg)
	}
}

type workFunc func(ctx context.Context, svc *tools.Service) (string, error)

// runWithProgress runs work with a reporter matching the output mode: a
// bubbletea table on a terminal, JSON lines with --json, plain lines otherwise.
func runWithProgress(ctx context.Context, cmd *cobra.Command, a *app, ids []tools.ToolID, title string, work workFunc) (string, error) {
	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, noProgress, outputJSON)

	if mode != tui.ModeTUI {
		var reporter tools.Reporter = tui.NewPlainReporter(cmd.ErrOrStderr())
		if mode == tui.ModeJSON {
			reporter = tui.NewJSONReporter(out)
		}
		svc, err := a.newService(reporter)
		if err != nil {
			return "", err
		}
		return work(ctx, svc)
	}

	sorted := append([]tools.ToolID(nil), ids...)
	order := map[tools.ToolID]int{}
	for i, id := range a.table.Tools() {
		order[id] = i
	}
	sort.SliceStable(sorted, func(i, j int) bool { return order[sorted[i]] < order[sorted[j]] })

	var msg string
	err := tui.RunWithWork(out, tui.NewToolModel(title, sorted), func(send func(tea.Msg)) error {
		reporter := &lastToolReporter{inner: tui.NewToolReporter(send)}
		svc, err := a.newService(reporter)
		if err != nil {
			return err
		}
		msg, err = work(ctx, svc)
		if err != nil {
			if tool := reporter.last(); tool != "" {
				reporter.inner.Fail(tools.ToolID(tool), err)
			}
			return err
		}
		return nil
	})
	return msg, err
}

// lastToolReporter remembers which tool reported last so a failure can be
// pinned to its row.
type lastToolReporter struct {
	inner *tui.ToolReporter
	mu    sync.Mutex
	tool  string
}

func (r *lastToolReporter) Report(p tools.Progress) {
	r.mu.Lock()
	r.tool = p.Tool
	r.mu.Unlock()
	r.inner.Report(p)
}

func (r *lastToolReporter) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tool
}
