package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/relumip/formulation"
	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProblemOptions{}
	var (
		samples int
		seed    int64
		tol     float64
	)

	cmd := &cobra.Command{
		Use:   "verify <network>",
		Short: "Compare the encoding with the direct forward pass on random inputs",
		Long: `Sample inputs uniformly from the box, evaluate each through the model
and through the network directly, and report the largest deviation.
Exits with code 1 when the deviation exceeds --tol or a sample is
infeasible outside output mode.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			f, err := encodeProblem(cmd.Context(), args[0], opts)
			if err != nil {
				return fail(out, "encode failed", err)
			}
			report, err := f.Verify(cmd.Context(), samples, seed)
			if err != nil {
				return fail(out, "verify failed", err)
			}

			ok := report.MaxAbsError <= tol
			if f.Mode() != formulation.ModeOutput {
				ok = ok && report.Infeasible == 0
			}
			if !ok {
				return out.Fail(ExitFailure, ErrCodeVerify, "encoding disagrees with the network",
					errors.Newf("max abs error %.3g, %d infeasible of %d", report.MaxAbsError, report.Infeasible, report.Samples))
			}
			text := fmt.Sprintf("samples: %d  infeasible: %d  max_abs_error: %.3g  rmse: %.3g\n",
				report.Samples, report.Infeasible, report.MaxAbsError, report.RMSE)
			return out.Success(report, text)
		},
	}
	addProblemFlags(cmd, opts)
	cmd.Flags().IntVarP(&samples, "samples", "n", 100, "number of random inputs")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().Float64Var(&tol, "tol", 1e-6, "largest accepted absolute deviation")
	return cmd
}
