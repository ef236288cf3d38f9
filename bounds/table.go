// Package bounds computes the pre-activation bounds that size the big-M
// constants of a ReLU network encoding.
//
// Bounds come from interval propagation (Propagate, PropagateNetwork) and may
// be refined by solving auxiliary problems against a partial model
// (Tightener). Tightening never loosens a propagated bound.
package bounds

import (
	"fmt"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// Table holds the upper and lower pre-activation bound of every neuron.
// Layers are addressed 1..K as in the network; Upper[k-1][n] is the bound of
// neuron n in layer k.
type Table struct {
	Upper [][]float64 `json:"upper" yaml:"upper"`
	Lower [][]float64 `json:"lower" yaml:"lower"`
}

// NewTable allocates a zero table for the given layer widths.
func NewTable(widths []int) *Table {
	t := &Table{
		Upper: make([][]float64, len(widths)),
		Lower: make([][]float64, len(widths)),
	}
	for k, w := range widths {
		t.Upper[k] = make([]float64, w)
		t.Lower[k] = make([]float64, w)
	}
	return t
}

// NumLayers returns K.
func (t *Table) NumLayers() int {
	return len(t.Upper)
}

// Layer returns the bounds of layer k (1-based). The slices are shared with t.
func (t *Table) Layer(k int) (upper, lower []float64) {
	return t.Upper[k-1], t.Lower[k-1]
}

// Set copies upper and lower into layer k (1-based).
func (t *Table) Set(k int, upper, lower []float64) {
	copy(t.Upper[k-1], upper)
	copy(t.Lower[k-1], lower)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Upper: make([][]float64, len(t.Upper)),
		Lower: make([][]float64, len(t.Lower)),
	}
	for k := range t.Upper {
		c.Upper[k] = append([]float64(nil), t.Upper[k]...)
		c.Lower[k] = append([]float64(nil), t.Lower[k]...)
	}
	return c
}

// Validate checks that t matches the layer widths, holds no NaN and that
// every lower bound is at most its upper bound.
func (t *Table) Validate(widths []int) error {
	if t == nil {
		return errors.NewValidationError("bounds", "table is nil", nil)
	}
	if len(t.Upper) != len(widths) {
		return errors.NewDimensionError("bounds.Validate upper", len(widths), len(t.Upper), 0)
	}
	if len(t.Lower) != len(widths) {
		return errors.NewDimensionError("bounds.Validate lower", len(widths), len(t.Lower), 0)
	}
	for k, w := range widths {
		op := fmt.Sprintf("bounds.Validate layer %d", k+1)
		if len(t.Upper[k]) != w {
			return errors.NewDimensionError(op+" upper", w, len(t.Upper[k]), 0)
		}
		if len(t.Lower[k]) != w {
			return errors.NewDimensionError(op+" lower", w, len(t.Lower[k]), 0)
		}
		if err := errors.CheckNaN(op, t.Upper[k], k+1); err != nil {
			return err
		}
		if err := errors.CheckNaN(op, t.Lower[k], k+1); err != nil {
			return err
		}
		for n := 0; n < w; n++ {
			if t.Lower[k][n] > t.Upper[k][n] {
				return errors.NewValidationError(
					fmt.Sprintf("bounds[%d][%d]", k+1, n),
					"lower bound exceeds upper bound",
					[]float64{t.Lower[k][n], t.Upper[k][n]})
			}
		}
	}
	return nil
}

// Within reports whether every interval of t lies inside the matching
// interval of o, allowing tol of slack.
func (t *Table) Within(o *Table, tol float64) bool {
	if len(t.Upper) != len(o.Upper) {
		return false
	}
	for k := range t.Upper {
		if len(t.Upper[k]) != len(o.Upper[k]) {
			return false
		}
		for n := range t.Upper[k] {
			if t.Upper[k][n] > o.Upper[k][n]+tol || t.Lower[k][n] < o.Lower[k][n]-tol {
				return false
			}
		}
	}
	return true
}
