package bounds

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/relumip/core/network"
	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// Propagate returns interval bounds on the pre-activation values of layer
// (1-based) given bounds on its inputs.
//
// For layer 1, prevU and prevL are the raw input bounds. For deeper layers
// they are the pre-activation bounds of the previous layer and are passed
// through the ReLU clamp max(0, .) before the affine map. Each output bound
// is Σ max(w·ub, w·lb) + b (resp. min), which splits into the positive and
// negative parts of W.
func Propagate(layer int, l network.Layer, prevU, prevL []float64) (upper, lower []float64, err error) {
	op := fmt.Sprintf("bounds.Propagate layer %d", layer)
	out, in := l.Dims()
	if len(prevU) != in {
		return nil, nil, errors.NewDimensionError(op+" upper", in, len(prevU), 1)
	}
	if len(prevL) != in {
		return nil, nil, errors.NewDimensionError(op+" lower", in, len(prevL), 1)
	}

	ub := make([]float64, in)
	lb := make([]float64, in)
	for i := 0; i < in; i++ {
		ub[i], lb[i] = prevU[i], prevL[i]
		if layer > 1 {
			ub[i] = math.Max(0, ub[i])
			lb[i] = math.Max(0, lb[i])
		}
	}

	pos := mat.NewDense(out, in, nil)
	neg := mat.NewDense(out, in, nil)
	pos.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, l.Weights)
	neg.Apply(func(_, _ int, v float64) float64 { return math.Min(v, 0) }, l.Weights)

	ubVec := mat.NewVecDense(in, ub)
	lbVec := mat.NewVecDense(in, lb)
	bias := mat.NewVecDense(out, append([]float64(nil), l.Bias...))

	var u, lo, tmp mat.VecDense
	u.MulVec(pos, ubVec)
	tmp.MulVec(neg, lbVec)
	u.AddVec(&u, &tmp)
	u.AddVec(&u, bias)

	lo.MulVec(pos, lbVec)
	tmp.MulVec(neg, ubVec)
	lo.AddVec(&lo, &tmp)
	lo.AddVec(&lo, bias)

	upper = mat.Col(nil, 0, &u)
	lower = mat.Col(nil, 0, &lo)
	if err := errors.CheckNumericalStability(op, upper, layer); err != nil {
		return nil, nil, err
	}
	if err := errors.CheckNumericalStability(op, lower, layer); err != nil {
		return nil, nil, err
	}
	return upper, lower, nil
}

// PropagateNetwork fills a table for every layer of net by repeated
// propagation from the input box [inL, inU].
func PropagateNetwork(net *network.Network, inU, inL []float64) (*Table, error) {
	t := NewTable(net.Widths())
	prevU, prevL := inU, inL
	for k := 1; k <= net.NumLayers(); k++ {
		u, l, err := Propagate(k, net.Layer(k), prevU, prevL)
		if err != nil {
			return nil, err
		}
		t.Set(k, u, l)
		prevU, prevL = u, l
	}
	return t, nil
}
