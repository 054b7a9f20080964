package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Asdmir786/HalalDL/internal/config"
	"github.com/Asdmir786/HalalDL/internal/logx"
	"github.com/Asdmir786/HalalDL/internal/paths"
	"github.com/Asdmir786/HalalDL/internal/tools"
)

// app bundles the resolved paths, configuration and logger for one command.
type app struct {
	paths  paths.AppPaths
	cfg    config.Config
	table  tools.Table
	logger *log.Logger
	closer io.Closer
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// loadApp resolves paths and configuration. Precedence: flags, then
// HALALDL_* variables, then halaldl.yaml, then defaults.
func loadApp(cmd *cobra.Command) (*app, context.Context, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, nil, err
	}

	pp, err := paths.Resolve(homeDir)
	if err != nil {
		return nil, nil, err
	}

	cfgFile := pp.ConfigFile
	switch {
	case configPath != "":
		cfgFile = configPath
	case env.Config != "":
		cfgFile = env.Config
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	env.Apply(&cfg)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	results := cfg.Validate()
	if err := config.Err(results); err != nil {
		return nil, nil, err
	}

	table, err := cfg.Table()
	if err != nil {
		return nil, nil, err
	}
	pp = pp.WithBinDir(cfg.BinDir)

	a := &app{paths: pp, cfg: cfg, table: table}
	if err := pp.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	logger, closer, err := logx.OpenFile(pp.LogsDir, cfg.LogLevel)
	if err != nil {
		// Fall back to stderr so the command still runs.
		logger, err = logx.New(cmd.ErrOrStderr(), cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
	}
	a.logger = logger
	a.closer = closer

	for _, r := range results {
		logger.Warn("config", "finding", r.Message)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return a, logx.WithLogger(ctx, logger), nil
}

// newService wires a tools.Service reporting to reporter.
func (a *app) newService(reporter tools.Reporter) (*tools.Service, error) {
	github := tools.NewGitHubClient(tools.WithGitHubUserAgent(a.cfg.UserAgent))
	resolver := tools.NewReleaseResolver(
		tools.WithGitHubClient(github),
		tools.WithReleaseCache(tools.NewReleaseCache(a.paths.ReleaseCache)),
	)
	downloader := tools.NewDownloader(
		tools.WithUserAgent(a.cfg.UserAgent),
		tools.WithReporter(reporter),
	)
	return tools.NewService(tools.ServiceConfig{
		Table:      a.table,
		BinDir:     a.paths.BinDir,
		Downloader: downloader,
		Releases:   resolver,
		Reporter:   reporter,
		Variants:   a.cfg.VariantMap(),
	})
}

// extraPaths merges --extra-path values with the configured ones.
func (a *app) extraPaths(flagValues []string) []string {
	out := append([]string{}, a.cfg.ExtraPaths...)
	return append(out, flagValues...)
}

func printResult(cmd *cobra.Command, message string) error {
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Result string `json:"result"`
		}{message})
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
