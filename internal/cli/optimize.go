package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/relumip/milp"
)

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProblemOptions{}
	var (
		weights  []float64
		maximize bool
	)

	cmd := &cobra.Command{
		Use:   "optimize <network>",
		Short: "Find the input that minimises or maximises a weighted sum of outputs",
		Args:  cobra.ExactArgs(1),
		Long: `Solve the encoded model with objective Σ weights[j]·output[j] over the
input box. --weights defaults to 1 for every output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			f, err := encodeProblem(cmd.Context(), args[0], opts)
			if err != nil {
				return fail(out, "encode failed", err)
			}

			w := weights
			if w == nil {
				w = make([]float64, f.Network().OutputDim())
				for i := range w {
					w[i] = 1
				}
			}
			sense := milp.Minimize
			if maximize {
				sense = milp.Maximize
			}

			res, err := f.Optimize(cmd.Context(), w, sense)
			if err != nil {
				return fail(out, "optimize failed", err)
			}
			text := fmt.Sprintf("status: %s\nobjective: %.9g\ninput: %v\noutput: %v\n",
				res.Status, res.Objective, res.Input, res.Output)
			return out.Success(res, text)
		},
	}
	addProblemFlags(cmd, opts)
	cmd.Flags().Float64SliceVarP(&weights, "weights", "w", nil, "objective weight per output")
	cmd.Flags().BoolVar(&maximize, "maximize", false, "maximise instead of minimise")
	return cmd
}
