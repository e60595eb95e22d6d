package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

func claimsCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "claims",
		Short: "Claim settlement checks",
	}

	var in workflow.ClaimsWorkflowInput
	validate := &cobra.Command{
		Use:     "validate",
		Short:   "Check whether a claim checklist allows settlement",
		Example: "  brokerctl claims validate --investigation-complete --documents-complete --settlement-amount 2500000",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := workflow.ValidateClaimsWorkflow(in)

			return render(cmd.OutOrStdout(), opts.output, result, func(w io.Writer) error {
				if result.CanProceed {
					_, err := fmt.Fprintln(w, "claim can proceed to settlement")
					return err
				}
				if _, err := fmt.Fprintln(w, "claim cannot proceed:"); err != nil {
					return err
				}
				for _, step := range result.RequiredSteps {
					if _, err := fmt.Fprintf(w, "  - %s\n", step); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	validate.Flags().BoolVar(&in.InvestigationComplete, "investigation-complete", false, "investigation has been completed")
	validate.Flags().BoolVar(&in.DocumentsComplete, "documents-complete", false, "all required documents are in")
	validate.Flags().BoolVar(&in.UnderwriterApproved, "underwriter-approved", false, "underwriter approved the settlement")
	validate.Flags().Float64Var(&in.SettlementAmount, "settlement-amount", 0, "proposed settlement in naira")

	c.AddCommand(validate)
	return c
}
