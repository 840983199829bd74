// Package cli wires the panex binary's command-line surface: parsing
// `-n/--names` and positional shell commands into a config.Config, then
// driving the process manager and terminal UI through one run.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/panex-dev/panex/internal/activitylog"
	"github.com/panex-dev/panex/internal/config"
	"github.com/panex-dev/panex/internal/manager"
	"github.com/panex-dev/panex/internal/ui"
)

const defaultCols, defaultRows = 80, 24

// appVersion is panex's release version. There is no build pipeline in
// this repo to inject a git ref via -ldflags, so it's a plain constant
// rather than a dedicated version package.
const appVersion = "0.1.0"

// NewRootCmd builds the panex root command: `panex [-n names] <cmd1> [<cmd2> ...]`.
func NewRootCmd() *cobra.Command {
	var namesFlag string
	var logPath string
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "panex [-n names] <cmd1> [<cmd2> ...]",
		Short: "Run and watch several shell commands side by side",
		Long: `panex runs each given shell command in its own pseudo-terminal and
presents them in a split-pane terminal UI: a process list on the left,
the selected process's live output on the right.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), "v"+appVersion)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("panex: no commands given (usage: %s)", cmd.UseLine())
			}

			var names []string
			if namesFlag != "" {
				names = strings.Split(namesFlag, ",")
			}

			cfg, err := config.Build(names, args)
			if err != nil {
				return err
			}

			log := activitylog.Nop()
			if logPath != "" {
				log = activitylog.New(true, logPath, "panex")
				defer log.Close()
			}

			mgr := manager.New(cfg, defaultCols, defaultRows, log)
			return ui.Run(mgr)
		},
	}

	cmd.Flags().StringVarP(&namesFlag, "names", "n", "", "comma-separated display names, one per command")
	cmd.Flags().StringVar(&logPath, "log", "", "write a JSONL activity log to this path")
	cmd.Flags().BoolVar(&showVersion, "version", false, "print the panex version and exit")

	return cmd
}
