package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	homeDir    string
	configPath string
	outputJSON bool
	noProgress bool
	logLevel   string
)

// Execute runs the root cobra command. The caller decides the exit code.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "halaldl",
		Short:         "Download, update and roll back HalalDL's external tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&homeDir, "home", "", "Application data directory (default $HALALDL_HOME or the per-user data dir)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to halaldl.yaml")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable interactive progress output")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}
