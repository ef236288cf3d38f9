// Package formulation encodes a trained ReLU network as a big-M
// mixed-integer linear model whose feasible set, projected onto the inputs
// and outputs, is exactly the graph of the network over a bounded input box.
//
// Every hidden neuron n of layer k gets a non-negative activation x[k,n], a
// non-negative slack s[k,n] and a binary z[k,n] (1 = inactive) tied by
//
//	x[k,n] <= max(0, U[k,n]) * (1 - z[k,n])
//	s[k,n] <= max(0, -L[k,n]) * z[k,n]
//	x[k,n] - s[k,n] = b[k][n] + Σ_i W[k][n,i] * x[k-1,i]
//
// where U and L bound the pre-activation value. The output layer is a pure
// affine equality. How U and L are obtained is selected by Mode.
package formulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/YuminosukeSato/relumip/bounds"
	"github.com/YuminosukeSato/relumip/core/network"
	"github.com/YuminosukeSato/relumip/milp"
	"github.com/YuminosukeSato/relumip/pkg/errors"
	"github.com/YuminosukeSato/relumip/pkg/log"
)

// bigM holds the live big-M constraint handles of one hidden neuron.
type bigM struct {
	upper milp.ConstraintID
	lower milp.ConstraintID
}

// Formulation is an encoded network: the constraint model, the bounds used
// for its big-M constants and the variable handles per (layer, neuron).
//
// Layer 0 denotes the network inputs and layer K its outputs. Evaluate,
// Optimize and Verify work on clones of the model and may be called
// concurrently as long as nobody mutates Model().
type Formulation struct {
	net   *network.Network
	model *milp.Model
	table *bounds.Table
	mode  Mode

	inUpper []float64
	inLower []float64

	x       [][]milp.Var
	s       [][]milp.Var
	z       [][]milp.Var
	handles [][]bigM

	params milp.Params
	solver milp.Solver
	logger log.Logger
}

// Encode builds the MILP encoding of net over the input box [inLower, inUpper].
//
// All preconditions (input and output bound lengths, output bounds present in
// ModeOutput, precomputed table shape, solver parameters) are checked before
// any variable is created.
func Encode(ctx context.Context, net *network.Network, inUpper, inLower []float64, opts ...Option) (*Formulation, error) {
	start := time.Now()
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLogger()
	}
	if err := checkPreconditions(net, inUpper, inLower, o); err != nil {
		return nil, err
	}

	solver, err := milp.NewSolver(o.params, o.logger)
	if err != nil {
		return nil, err
	}

	K := net.NumLayers()
	f := &Formulation{
		net:     net,
		model:   milp.NewModel(),
		mode:    o.mode,
		inUpper: append([]float64(nil), inUpper...),
		inLower: append([]float64(nil), inLower...),
		x:       make([][]milp.Var, K+1),
		s:       make([][]milp.Var, K),
		z:       make([][]milp.Var, K),
		handles: make([][]bigM, K),
		params:  o.params,
		solver:  solver,
		logger:  o.logger.With(log.ComponentKey, "formulation", log.ModeKey, o.mode.String()),
	}
	if o.precomputed != nil {
		f.table = o.precomputed.Clone()
	} else {
		f.table = bounds.NewTable(net.Widths())
	}

	f.x[0] = make([]milp.Var, len(inUpper))
	for i := range inUpper {
		f.x[0][i] = f.model.AddVar(varName("x", 0, i), inLower[i], inUpper[i], milp.Continuous)
	}

	if err := f.encodeForward(ctx, o.precomputed == nil); err != nil {
		return nil, err
	}

	if f.mode == ModeOutput {
		if err := f.addOutputRange(o.outUpper, o.outLower); err != nil {
			return nil, err
		}
		if err := f.tightenBackward(ctx); err != nil {
			return nil, err
		}
	}

	f.logger.Info("model encoded",
		log.OperationKey, log.OperationEncode,
		log.LayersKey, K,
		log.VarsKey, f.model.NumVars(),
		log.BinariesKey, f.model.NumBinaries(),
		log.ConstraintsKey, f.model.NumConstraints(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return f, nil
}

func checkPreconditions(net *network.Network, inUpper, inLower []float64, o *options) error {
	if net == nil {
		return errors.NewValidationError("network", "network is required", nil)
	}
	if err := net.Validate(); err != nil {
		return err
	}
	if !o.mode.valid() {
		return errors.NewValidationError("mode", "unknown tightening mode", int(o.mode))
	}
	if err := o.params.Validate(); err != nil {
		return err
	}

	in := net.InputDim()
	if len(inUpper) != in {
		return errors.NewDimensionError("formulation.Encode input upper bounds", in, len(inUpper), 1)
	}
	if len(inLower) != in {
		return errors.NewDimensionError("formulation.Encode input lower bounds", in, len(inLower), 1)
	}
	for i := 0; i < in; i++ {
		if math.IsNaN(inUpper[i]) || math.IsNaN(inLower[i]) ||
			math.IsInf(inUpper[i], 0) || math.IsInf(inLower[i], 0) {
			return errors.NewValidationError(fmt.Sprintf("input_bounds[%d]", i),
				"input bounds must be finite", []float64{inLower[i], inUpper[i]})
		}
		if inLower[i] > inUpper[i] {
			return errors.NewValidationError(fmt.Sprintf("input_bounds[%d]", i),
				"lower bound exceeds upper bound", []float64{inLower[i], inUpper[i]})
		}
	}

	if o.mode == ModeOutput {
		if o.outUpper == nil || o.outLower == nil {
			return errors.NewValidationError("output_bounds", "required in output mode", nil)
		}
		out := net.OutputDim()
		if len(o.outUpper) != out {
			return errors.NewDimensionError("formulation.Encode output upper bounds", out, len(o.outUpper), 0)
		}
		if len(o.outLower) != out {
			return errors.NewDimensionError("formulation.Encode output lower bounds", out, len(o.outLower), 0)
		}
		for j := 0; j < out; j++ {
			if math.IsNaN(o.outUpper[j]) || math.IsNaN(o.outLower[j]) || o.outLower[j] > o.outUpper[j] {
				return errors.NewValidationError(fmt.Sprintf("output_bounds[%d]", j),
					"invalid output range", []float64{o.outLower[j], o.outUpper[j]})
			}
		}
	}

	if o.precomputed != nil {
		if err := o.precomputed.Validate(net.Widths()); err != nil {
			return err
		}
	}
	return nil
}

// encodeForward emits every layer in order. When compute is set the bounds
// of each layer are propagated from the previous one and, in ModeStandard,
// tightened against the model built so far.
func (f *Formulation) encodeForward(ctx context.Context, compute bool) error {
	K := f.net.NumLayers()
	tightener := f.newTightener()
	prevU, prevL := f.inUpper, f.inLower

	for k := 1; k <= K; k++ {
		if compute {
			u, l, err := bounds.Propagate(k, f.net.Layer(k), prevU, prevL)
			if err != nil {
				return err
			}
			if f.mode == ModeStandard && k < K {
				u, l, err = tightener.TightenLayer(ctx, f.model, f.neurons(k, u, l))
				if err != nil {
					return err
				}
			}
			f.table.Set(k, u, l)
		}
		prevU, prevL = f.table.Layer(k)

		if k < K {
			f.emitHidden(k)
		} else {
			f.emitOutput()
		}
		f.logger.Debug("layer encoded",
			log.LayerKey, k,
			log.NeuronsKey, len(prevU),
			log.ConstraintsKey, f.model.NumConstraints(),
		)
	}
	return nil
}

func (f *Formulation) emitHidden(k int) {
	lyr := f.net.Layer(k)
	out, _ := lyr.Dims()
	u, l := f.table.Layer(k)

	f.x[k] = make([]milp.Var, out)
	f.s[k] = make([]milp.Var, out)
	f.z[k] = make([]milp.Var, out)
	f.handles[k] = make([]bigM, out)

	for n := 0; n < out; n++ {
		f.x[k][n] = f.model.AddVar(varName("x", k, n), 0, milp.Inf, milp.Continuous)
		f.s[k][n] = f.model.AddVar(varName("s", k, n), 0, milp.Inf, milp.Continuous)
		f.z[k][n] = f.model.AddVar(varName("z", k, n), 0, 1, milp.Binary)

		upperExpr, upperRHS := f.upperBigM(k, n, u[n])
		lowerExpr, lowerRHS := f.lowerBigM(k, n, l[n])
		f.handles[k][n] = bigM{
			upper: f.model.AddConstraint(varName("relu_upper", k, n), upperExpr, milp.LessEqual, upperRHS),
			lower: f.model.AddConstraint(varName("relu_lower", k, n), lowerExpr, milp.LessEqual, lowerRHS),
		}

		affine := milp.NewExpr(0).Add(f.x[k][n], 1).Add(f.s[k][n], -1)
		for i, prev := range f.x[k-1] {
			affine.Add(prev, -lyr.Weights.At(n, i))
		}
		f.model.AddConstraint(varName("affine", k, n), affine, milp.Equal, lyr.Bias[n])
	}
}

func (f *Formulation) emitOutput() {
	K := f.net.NumLayers()
	lyr := f.net.Layer(K)
	out, _ := lyr.Dims()

	f.x[K] = make([]milp.Var, out)
	for n := 0; n < out; n++ {
		y := f.model.AddVar(varName("x", K, n), math.Inf(-1), milp.Inf, milp.Continuous)
		f.x[K][n] = y
		affine := milp.NewExpr(0).Add(y, 1)
		for i, prev := range f.x[K-1] {
			affine.Add(prev, -lyr.Weights.At(n, i))
		}
		f.model.AddConstraint(varName("affine", K, n), affine, milp.Equal, lyr.Bias[n])
	}
}

// upperBigM is x[k,n] + max(0,U) z[k,n] <= max(0,U).
func (f *Formulation) upperBigM(k, n int, upper float64) (*milp.Expr, float64) {
	m := math.Max(0, upper)
	return milp.NewExpr(0).Add(f.x[k][n], 1).Add(f.z[k][n], m), m
}

// lowerBigM is s[k,n] - max(0,-L) z[k,n] <= 0.
func (f *Formulation) lowerBigM(k, n int, lower float64) (*milp.Expr, float64) {
	m := math.Max(0, -lower)
	return milp.NewExpr(0).Add(f.s[k][n], 1).Add(f.z[k][n], -m), 0
}

// preActivation returns b[k][n] + Σ_i W[k][n,i] x[k-1,i].
func (f *Formulation) preActivation(k, n int) *milp.Expr {
	lyr := f.net.Layer(k)
	e := milp.NewExpr(lyr.Bias[n])
	for i, prev := range f.x[k-1] {
		e.Add(prev, lyr.Weights.At(n, i))
	}
	return e
}

func (f *Formulation) neurons(k int, upper, lower []float64) []bounds.Neuron {
	ns := make([]bounds.Neuron, len(upper))
	for n := range ns {
		ns[n] = bounds.Neuron{
			Layer: k,
			Index: n,
			Expr:  f.preActivation(k, n),
			Upper: upper[n],
			Lower: lower[n],
		}
	}
	return ns
}

func (f *Formulation) newTightener() *bounds.Tightener {
	return bounds.NewTightener(f.solver, f.params.Threads, f.logger)
}

// addOutputRange constrains the outputs to [lower, upper] and intersects the
// output-layer bounds with that range.
func (f *Formulation) addOutputRange(upper, lower []float64) error {
	K := f.net.NumLayers()
	u, l := f.table.Layer(K)
	for n, y := range f.x[K] {
		if !math.IsInf(upper[n], 1) {
			f.model.AddConstraint(varName("output_upper", K, n), milp.NewExpr(0).Add(y, 1), milp.LessEqual, upper[n])
		}
		if !math.IsInf(lower[n], -1) {
			f.model.AddConstraint(varName("output_lower", K, n), milp.NewExpr(0).Add(y, 1), milp.GreaterEqual, lower[n])
		}
		u[n] = math.Min(u[n], upper[n])
		l[n] = math.Max(l[n], lower[n])
		if l[n] > u[n] {
			return errors.NewInfeasibleError("formulation.Encode",
				fmt.Sprintf("output %d range [%g, %g] excludes every reachable value", n, lower[n], upper[n]))
		}
	}
	return nil
}

// tightenBackward re-tightens every hidden layer, last first, against the
// complete model and re-emits the big-M constraints of every neuron with the
// new constants. Earlier layers see the constraints re-emitted for later ones.
func (f *Formulation) tightenBackward(ctx context.Context) error {
	tightener := f.newTightener()
	for k := f.net.NumLayers() - 1; k >= 1; k-- {
		u, l := f.table.Layer(k)
		newU, newL, err := tightener.TightenLayer(ctx, f.model, f.neurons(k, u, l))
		if err != nil {
			return err
		}
		for n := range newU {
			if err := f.reemit(k, n, newU[n], newL[n]); err != nil {
				return err
			}
		}
		f.table.Set(k, newU, newL)
	}
	return nil
}

func (f *Formulation) reemit(k, n int, upper, lower float64) error {
	h := &f.handles[k][n]

	expr, rhs := f.upperBigM(k, n, upper)
	id, err := f.model.ReplaceConstraint(h.upper, expr, milp.LessEqual, rhs)
	if err != nil {
		return err
	}
	h.upper = id

	expr, rhs = f.lowerBigM(k, n, lower)
	id, err = f.model.ReplaceConstraint(h.lower, expr, milp.LessEqual, rhs)
	if err != nil {
		return err
	}
	h.lower = id
	return nil
}

func varName(prefix string, layer, neuron int) string {
	return fmt.Sprintf("%s[%d,%d]", prefix, layer, neuron)
}

// Model returns the constraint model. Callers must not mutate it while the
// Formulation is in use; Clone it instead.
func (f *Formulation) Model() *milp.Model {
	return f.model
}

// Bounds returns a copy of the pre-activation bounds used for the big-M
// constants. For the output layer they are the propagated (and, in
// ModeOutput, output-range clipped) bounds.
func (f *Formulation) Bounds() *bounds.Table {
	return f.table.Clone()
}

// Network returns the encoded network.
func (f *Formulation) Network() *network.Network {
	return f.net
}

// Mode returns the tightening mode used.
func (f *Formulation) Mode() Mode {
	return f.mode
}

// InputBounds returns copies of the input box.
func (f *Formulation) InputBounds() (upper, lower []float64) {
	return append([]float64(nil), f.inUpper...), append([]float64(nil), f.inLower...)
}

// X returns the activation variable of neuron n in layer k. Layer 0 holds the
// inputs and layer K the outputs.
func (f *Formulation) X(k, n int) (milp.Var, bool) {
	return lookup(f.x, k, n)
}

// S returns the slack variable of a hidden neuron.
func (f *Formulation) S(k, n int) (milp.Var, bool) {
	return lookup(f.s, k, n)
}

// Z returns the binary indicator of a hidden neuron; 1 means inactive.
func (f *Formulation) Z(k, n int) (milp.Var, bool) {
	return lookup(f.z, k, n)
}

// Inputs returns the input variables.
func (f *Formulation) Inputs() []milp.Var {
	return append([]milp.Var(nil), f.x[0]...)
}

// Outputs returns the output variables.
func (f *Formulation) Outputs() []milp.Var {
	return append([]milp.Var(nil), f.x[len(f.x)-1]...)
}

func lookup(vars [][]milp.Var, k, n int) (milp.Var, bool) {
	if k < 0 || k >= len(vars) || n < 0 || n >= len(vars[k]) {
		return 0, false
	}
	return vars[k][n], true
}
