package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Input  []float64 `json:"input"`
	Output []float64 `json:"output"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProblemOptions{}
	var input []float64

	cmd := &cobra.Command{
		Use:   "eval <network>",
		Short: "Evaluate the network through its MILP encoding",
		Long: `Fix the inputs of the encoded model and solve it. The output equals
the network's forward pass; an input outside the box (or outside the
output range in output mode) is reported as infeasible with exit code 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			f, err := encodeProblem(cmd.Context(), args[0], opts)
			if err != nil {
				return fail(out, "encode failed", err)
			}
			y, err := f.Evaluate(cmd.Context(), input)
			if err != nil {
				return fail(out, "evaluate failed", err)
			}
			return out.Success(EvalResult{Input: input, Output: y}, fmt.Sprintf("%v\n", y))
		},
	}
	addProblemFlags(cmd, opts)
	cmd.Flags().Float64SliceVarP(&input, "input", "i", nil, "input vector (required)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
