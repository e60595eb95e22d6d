package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/garyjia/broker-workflow/internal/application/service"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

// approvalFlags are the inputs every approval question needs
type approvalFlags struct {
	workflowType string
	amount       float64
	role         string
	fallback     string
}

func (f *approvalFlags) register(c *cobra.Command, roleUsage string) {
	c.Flags().StringVarP(&f.workflowType, "type", "t", string(workflow.TypeClaims), "workflow type: underwriting, claims, payments or remittance")
	c.Flags().Float64VarP(&f.amount, "amount", "a", 0, "amount in naira")
	c.Flags().StringVarP(&f.role, "role", "r", "", roleUsage)
	c.Flags().StringVar(&f.fallback, "fallback-approver", "", "role used when no ceiling covers the amount")
	_ = c.MarkFlagRequired("role")
}

func (f *approvalFlags) validate() error {
	return workflow.ValidateRequest(workflow.Type(f.workflowType), f.amount, f.role)
}

func (f *approvalFlags) engine() *workflow.Engine {
	return workflow.NewEngine(workflow.WithFallbackApprover(f.fallback))
}

func approvalCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "approval",
		Short: "Answer approval threshold questions",
	}
	c.AddCommand(approvalCheckCmd(opts), approvalNextCmd(opts), approvalLimitsCmd(opts))
	return c
}

func approvalCheckCmd(opts *options) *cobra.Command {
	var flags approvalFlags

	c := &cobra.Command{
		Use:     "check",
		Short:   "Report whether a role needs approval for an amount",
		Example: "  brokerctl approval check --type claims --amount 2500000 --role ClaimsOfficer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			engine := flags.engine()
			wt := workflow.Type(flags.workflowType)

			check := service.ApprovalCheck{
				WorkflowType:     wt,
				Amount:           flags.amount,
				Role:             flags.role,
				RequiresApproval: engine.RequiresApproval(wt, flags.amount, flags.role),
			}
			if check.RequiresApproval {
				check.NextApprover = engine.NextApprover(wt, flags.amount, flags.role)
			}

			return render(cmd.OutOrStdout(), opts.output, check, func(w io.Writer) error {
				if !check.RequiresApproval {
					_, err := fmt.Fprintf(w, "%s may approve %s %s without escalation\n",
						check.Role, notification.FormatAmount(check.Amount), check.WorkflowType)
					return err
				}
				_, err := fmt.Fprintf(w, "%s needs approval for %s %s; next approver: %s\n",
					check.Role, notification.FormatAmount(check.Amount), check.WorkflowType, check.NextApprover)
				return err
			})
		},
	}

	flags.register(c, "role raising the amount")
	return c
}

func approvalNextCmd(opts *options) *cobra.Command {
	var flags approvalFlags

	c := &cobra.Command{
		Use:   "next",
		Short: "Name the role that approves an amount on behalf of another role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			next := flags.engine().NextApprover(workflow.Type(flags.workflowType), flags.amount, flags.role)

			out := map[string]string{"next_approver": next}
			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, next)
				return err
			})
		},
	}

	flags.register(c, "current role, never returned as its own approver")
	return c
}

func approvalLimitsCmd(opts *options) *cobra.Command {
	var workflowType string

	c := &cobra.Command{
		Use:   "limits",
		Short: "Show the per-role approval ceilings of a workflow type",
		RunE: func(cmd *cobra.Command, _ []string) error {
			wt := workflow.Type(workflowType)
			if !wt.IsValid() {
				return fmt.Errorf("%w: %q", workflow.ErrInvalidType, workflowType)
			}
			limits := workflow.NewEngine().Limits(wt)

			return render(cmd.OutOrStdout(), opts.output, limits, func(w io.Writer) error {
				rows := make([][]string, 0, len(limits))
				for _, l := range limits {
					rows = append(rows, []string{l.RoleID, notification.FormatAmount(l.MaxAmount), strconv.FormatBool(l.AutoApprove)})
				}
				return table(w, []string{"ROLE", "MAX AMOUNT", "AUTO APPROVE"}, rows)
			})
		},
	}

	c.Flags().StringVarP(&workflowType, "type", "t", string(workflow.TypeClaims), "workflow type")
	return c
}

func workflowCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "workflow",
		Short: "Plan approval workflows",
	}

	var flags approvalFlags
	plan := &cobra.Command{
		Use:     "plan",
		Short:   "List the approval steps an amount would go through",
		Example: "  brokerctl workflow plan --type claims --amount 6000000 --role ClaimsOfficer -o yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			steps := flags.engine().PlanWorkflow(workflow.Type(flags.workflowType), flags.amount, flags.role)

			return render(cmd.OutOrStdout(), opts.output, steps, func(w io.Writer) error {
				if len(steps) == 0 {
					_, err := fmt.Fprintln(w, "no approval required")
					return err
				}
				rows := make([][]string, 0, len(steps))
				for _, s := range steps {
					limit := "-"
					if s.ApprovalLimit != nil {
						limit = notification.FormatAmount(*s.ApprovalLimit)
					}
					rows = append(rows, []string{strconv.Itoa(s.Sequence), s.Name, s.RoleRequired, limit})
				}
				return table(w, []string{"#", "STEP", "ROLE", "LIMIT"}, rows)
			})
		},
	}
	flags.register(plan, "role initiating the workflow")

	c.AddCommand(plan)
	return c
}
