package cli

import (
	"context"
	"math"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/relumip/core/network"
	"github.com/YuminosukeSato/relumip/formulation"
	"github.com/YuminosukeSato/relumip/milp"
	"github.com/YuminosukeSato/relumip/pkg/errors"
	"github.com/YuminosukeSato/relumip/pkg/log"
)

// ProblemOptions are the flags shared by every command that encodes a network.
type ProblemOptions struct {
	Upper       []float64
	Lower       []float64
	Mode        string
	SolverFile  string
	Threads     int
	OutputUpper []float64
	OutputLower []float64
}

func addProblemFlags(cmd *cobra.Command, opts *ProblemOptions) {
	cmd.Flags().Float64SliceVar(&opts.Upper, "upper", nil, "input upper bounds, one per input (required)")
	cmd.Flags().Float64SliceVar(&opts.Lower, "lower", nil, "input lower bounds, one per input (required)")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "fast", "bound tightening mode (fast|standard|output)")
	cmd.Flags().StringVar(&opts.SolverFile, "solver-config", "", "YAML solver configuration")
	cmd.Flags().IntVar(&opts.Threads, "threads", -1, "concurrent tightening solves, overrides the config (0 = one per CPU)")
	cmd.Flags().Float64SliceVar(&opts.OutputUpper, "output-upper", nil, "output upper bounds (output mode)")
	cmd.Flags().Float64SliceVar(&opts.OutputLower, "output-lower", nil, "output lower bounds (output mode)")
	_ = cmd.MarkFlagRequired("upper")
	_ = cmd.MarkFlagRequired("lower")
}

// encodeProblem loads the network at path and encodes it with the flags.
func encodeProblem(ctx context.Context, path string, opts *ProblemOptions) (*formulation.Formulation, error) {
	net, err := network.Load(path)
	if err != nil {
		return nil, err
	}

	mode, err := formulation.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	params := milp.DefaultParams()
	if opts.SolverFile != "" {
		params, err = milp.LoadParams(opts.SolverFile)
		if err != nil {
			return nil, err
		}
	}
	if opts.Threads >= 0 {
		params.Threads = opts.Threads
	}

	encodeOpts := []formulation.Option{
		formulation.WithMode(mode),
		formulation.WithSolverParams(params),
		formulation.WithLogger(log.GetLogger()),
	}
	if mode == formulation.ModeOutput {
		upper, lower, err := outputRange(net.OutputDim(), opts.OutputUpper, opts.OutputLower)
		if err != nil {
			return nil, err
		}
		encodeOpts = append(encodeOpts, formulation.WithOutputBounds(upper, lower))
	}

	return formulation.Encode(ctx, net, opts.Upper, opts.Lower, encodeOpts...)
}

// outputRange fills a missing side of the output range with infinities.
func outputRange(n int, upper, lower []float64) ([]float64, []float64, error) {
	if upper == nil && lower == nil {
		return nil, nil, errors.NewValidationError("output-upper", "output mode needs --output-upper or --output-lower", nil)
	}
	if upper == nil {
		upper = make([]float64, n)
		for i := range upper {
			upper[i] = math.Inf(1)
		}
	}
	if lower == nil {
		lower = make([]float64, n)
		for i := range lower {
			lower[i] = math.Inf(-1)
		}
	}
	return upper, lower, nil
}

// fail reports err through f with a code derived from its kind.
func fail(f *OutputFormatter, message string, err error) error {
	exit, code := classify(err)
	log.GetLogger().Debug(message, log.ErrorTypeKey, code, log.ErrAttrKey, err)
	return f.Fail(exit, code, message, err)
}

func newFormatter(rootOpts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
}
