package formulation

import (
	"github.com/YuminosukeSato/relumip/bounds"
	"github.com/YuminosukeSato/relumip/milp"
	"github.com/YuminosukeSato/relumip/pkg/log"
)

type options struct {
	mode        Mode
	params      milp.Params
	precomputed *bounds.Table
	outUpper    []float64
	outLower    []float64
	logger      log.Logger
}

// Option configures Encode.
type Option func(*options)

// WithMode sets the tightening mode. The default is ModeFast.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithSolverParams sets the parameters of every solve made during encoding
// and by the returned Formulation.
func WithSolverParams(p milp.Params) Option {
	return func(o *options) {
		o.params = p
	}
}

// WithPrecomputedBounds skips forward bound computation and uses t instead.
// In ModeOutput the backward pass still runs.
func WithPrecomputedBounds(t *bounds.Table) Option {
	return func(o *options) {
		o.precomputed = t
	}
}

// WithOutputBounds supplies the output range required by ModeOutput.
// Infinite entries leave that side of an output unconstrained.
func WithOutputBounds(upper, lower []float64) Option {
	return func(o *options) {
		o.outUpper = upper
		o.outLower = lower
	}
}

// WithLogger sets the logger. The default is log.GetLogger().
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func defaultOptions() *options {
	return &options{
		mode:   ModeFast,
		params: milp.DefaultParams(),
	}
}
