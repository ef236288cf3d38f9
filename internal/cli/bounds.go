package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/relumip/bounds"
	"github.com/YuminosukeSato/relumip/core/network"
)

// BoundsResult is the JSON payload of the bounds command.
type BoundsResult struct {
	Mode        string        `json:"mode"`
	Bounds      *bounds.Table `json:"bounds"`
	Vars        int           `json:"vars"`
	Binaries    int           `json:"binaries"`
	Constraints int           `json:"constraints"`
	Removed     int           `json:"removed,omitempty"`
}

// NewBoundsCommand creates the bounds command.
func NewBoundsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProblemOptions{}
	var compressTo string

	cmd := &cobra.Command{
		Use:   "bounds <network>",
		Short: "Compute the pre-activation bounds of every neuron",
		Long: `Encode the network over the input box and print the upper and lower
pre-activation bound of every neuron, i.e. the big-M constants of the model.

With --compress the network is written back without the hidden neurons
whose upper bound is not positive; they are inactive on the whole box.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBounds(cmd, rootOpts, opts, args[0], compressTo)
		},
	}
	addProblemFlags(cmd, opts)
	cmd.Flags().StringVar(&compressTo, "compress", "", "write the network without dead neurons to this file (.json|.yaml)")
	return cmd
}

func runBounds(cmd *cobra.Command, rootOpts *RootOptions, opts *ProblemOptions, path, compressTo string) error {
	out := newFormatter(rootOpts, cmd)

	f, err := encodeProblem(cmd.Context(), path, opts)
	if err != nil {
		return fail(out, "encode failed", err)
	}

	m := f.Model()
	res := BoundsResult{
		Mode:        f.Mode().String(),
		Bounds:      f.Bounds(),
		Vars:        m.NumVars(),
		Binaries:    m.NumBinaries(),
		Constraints: m.NumConstraints(),
	}

	if compressTo != "" {
		compressed, removed, err := network.Compress(f.Network(), res.Bounds.Upper)
		if err != nil {
			return fail(out, "compress failed", err)
		}
		if err := network.Save(compressed, compressTo); err != nil {
			return fail(out, "save failed", err)
		}
		res.Removed = removed
	}

	var b strings.Builder
	fmt.Fprintf(&b, "mode: %s  vars: %d  binaries: %d  constraints: %d\n",
		res.Mode, res.Vars, res.Binaries, res.Constraints)
	for k := 1; k <= res.Bounds.NumLayers(); k++ {
		upper, lower := res.Bounds.Layer(k)
		fmt.Fprintf(&b, "layer %d\n", k)
		for n := range upper {
			fmt.Fprintf(&b, "  %4d  [%.6g, %.6g]\n", n, lower[n], upper[n])
		}
	}
	if compressTo != "" {
		fmt.Fprintf(&b, "removed %d dead neuron(s), wrote %s\n", res.Removed, compressTo)
	}
	return out.Success(res, b.String())
}
