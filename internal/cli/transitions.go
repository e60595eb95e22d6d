package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/broker-workflow/internal/domain/claim"
)

type transitionCheck struct {
	From    claim.Status `json:"from" yaml:"from"`
	To      claim.Status `json:"to" yaml:"to"`
	Allowed bool         `json:"allowed" yaml:"allowed"`
	Reason  string       `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func transitionsCmd(opts *options) *cobra.Command {
	var from string

	c := &cobra.Command{
		Use:   "transitions",
		Short: "List claim status transitions",
		Example: `  brokerctl transitions
  brokerctl transitions --from investigating -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lifecycle := claim.DefaultTable()

			transitions := lifecycle.All()
			if from != "" {
				status := claim.Status(from)
				if !status.IsValid() {
					return fmt.Errorf("%w: %q", claim.ErrInvalidStatus, from)
				}
				transitions = lifecycle.Available(status)
			}

			return render(cmd.OutOrStdout(), opts.output, transitions, func(w io.Writer) error {
				rows := make([][]string, 0, len(transitions))
				for _, tr := range transitions {
					rows = append(rows, []string{
						string(tr.From), string(tr.To), tr.Label, strconv.FormatBool(tr.RequiresNotes),
					})
				}
				return table(w, []string{"FROM", "TO", "LABEL", "NOTES REQUIRED"}, rows)
			})
		},
	}

	c.Flags().StringVar(&from, "from", "", "only show transitions leaving this status")
	c.AddCommand(transitionCheckCmd(opts))
	return c
}

func transitionCheckCmd(opts *options) *cobra.Command {
	var notes string

	c := &cobra.Command{
		Use:   "check FROM TO",
		Short: "Check whether a claim may move between two statuses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := transitionCheck{From: claim.Status(args[0]), To: claim.Status(args[1])}

			_, err := claim.DefaultTable().Validate(result.From, result.To, notes)
			result.Allowed = err == nil
			if err != nil {
				result.Reason = err.Error()
			}
			opts.logger.Debug("Transition checked",
				zap.String("from", string(result.From)),
				zap.String("to", string(result.To)),
				zap.Bool("allowed", result.Allowed))

			return render(cmd.OutOrStdout(), opts.output, result, func(w io.Writer) error {
				if result.Allowed {
					_, err := fmt.Fprintf(w, "%s -> %s: allowed\n", result.From, result.To)
					return err
				}
				_, err := fmt.Fprintf(w, "%s -> %s: not allowed (%s)\n", result.From, result.To, result.Reason)
				return err
			})
		},
	}

	c.Flags().StringVar(&notes, "notes", "", "notes to attach, required for rejections")
	return c
}
