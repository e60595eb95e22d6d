// Package cli implements brokerctl, an offline companion to the broker
// workflow service for inspecting claim lifecycles, approval routing and
// notification templates.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/broker-workflow/pkg/utils"
)

// Execute runs brokerctl and exits non-zero on failure
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options are shared by every subcommand
type options struct {
	output  string
	verbose bool
	logger  *zap.Logger
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &options{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:          "brokerctl",
		Short:        "Inspect claim workflows, approval routing and notification templates",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := validateFormat(opts.output); err != nil {
				return err
			}
			logger, err := utils.NewCLILogger(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", formatText, "output format: text, json or yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(
		transitionsCmd(opts),
		approvalCmd(opts),
		workflowCmd(opts),
		notifyCmd(opts),
		claimsCmd(opts),
		configCmd(opts),
	)
	return cmd
}
