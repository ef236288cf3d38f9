package formulation

import (
	"context"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/relumip/metrics"
	"github.com/YuminosukeSato/relumip/milp"
	"github.com/YuminosukeSato/relumip/pkg/errors"
	"github.com/YuminosukeSato/relumip/pkg/log"
)

// fixTol is how far outside its bounds an input may be fixed.
const fixTol = 1e-9

// Result is the outcome of Optimize.
type Result struct {
	Status    milp.Status `json:"status"`
	Objective float64     `json:"objective"`
	Input     []float64   `json:"input"`
	Output    []float64   `json:"output"`
}

// Evaluate runs the forward pass through the model: it fixes the inputs of a
// clone to input, solves it and reads back the outputs.
//
// An input outside the encoded box, or a model with no feasible completion
// (for instance an output range in ModeOutput that the input violates), gives
// an error matching errors.ErrInfeasible. Backend failures are returned as
// *errors.SolverError.
func (f *Formulation) Evaluate(ctx context.Context, input []float64) ([]float64, error) {
	if len(input) != len(f.x[0]) {
		return nil, errors.NewDimensionError("formulation.Evaluate", len(f.x[0]), len(input), 1)
	}

	m := f.model.Clone()
	for i, v := range f.x[0] {
		if err := m.Fix(v, input[i], fixTol); err != nil {
			return nil, err
		}
	}
	m.SetObjective(milp.NewExpr(0), milp.Minimize)

	sol, err := f.solve(ctx, m, log.OperationEvaluate)
	if err != nil {
		return nil, err
	}
	return f.readOutputs(sol), nil
}

// Optimize finds the input in the box that minimises or maximises
// Σ_j weights[j] * output[j] subject to the model. A time-limited search
// that found a feasible point returns it with StatusTimeLimit.
func (f *Formulation) Optimize(ctx context.Context, weights []float64, sense milp.ObjectiveSense) (*Result, error) {
	outputs := f.x[len(f.x)-1]
	if len(weights) != len(outputs) {
		return nil, errors.NewDimensionError("formulation.Optimize", len(outputs), len(weights), 0)
	}

	m := f.model.Clone()
	obj := milp.NewExpr(0)
	for j, y := range outputs {
		obj.Add(y, weights[j])
	}
	m.SetObjective(obj, sense)

	sol, err := f.solve(ctx, m, log.OperationOptimize)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Status:    sol.Status,
		Objective: sol.Objective,
		Input:     make([]float64, len(f.x[0])),
		Output:    f.readOutputs(sol),
	}
	for i, v := range f.x[0] {
		res.Input[i] = sol.Value(v)
	}
	return res, nil
}

// solve runs the solver and maps statuses without a usable point to errors.
func (f *Formulation) solve(ctx context.Context, m *milp.Model, op string) (*milp.Solution, error) {
	start := time.Now()
	sol, err := f.solver.Solve(ctx, m)
	if err != nil {
		var solverErr *errors.SolverError
		if errors.As(err, &solverErr) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "formulation: %s", op)
	}

	f.logger.Debug("solve finished",
		log.OperationKey, op,
		log.StatusKey, sol.Status.String(),
		log.NodesKey, sol.Nodes,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	switch sol.Status {
	case milp.StatusOptimal:
		return sol, nil
	case milp.StatusInfeasible:
		return nil, errors.NewInfeasibleError("formulation."+op, "no feasible assignment for the given input")
	case milp.StatusTimeLimit:
		if sol.HasPoint() {
			return sol, nil
		}
		return nil, errors.NewSolverError("formulation."+op, errors.New("time limit reached before a feasible point was found"))
	default:
		return nil, errors.NewSolverError("formulation."+op, errors.Newf("unexpected solver status %s", sol.Status))
	}
}

func (f *Formulation) readOutputs(sol *milp.Solution) []float64 {
	outputs := f.x[len(f.x)-1]
	out := make([]float64, len(outputs))
	for j, y := range outputs {
		out[j] = sol.Value(y)
	}
	return out
}

// Verify samples inputs uniformly from the input box with the given seed and
// compares Evaluate against the direct forward pass. Samples the model
// reports as infeasible are counted, not compared.
func (f *Formulation) Verify(ctx context.Context, samples int, seed int64) (*metrics.Report, error) {
	if samples <= 0 {
		return nil, errors.NewValidationError("samples", "must be positive", samples)
	}
	start := time.Now()
	rng := rand.New(rand.NewSource(seed))

	var direct, encoded []float64
	infeasible := 0
	x := make([]float64, len(f.inUpper))
	for s := 0; s < samples; s++ {
		for i := range x {
			x[i] = f.inLower[i] + rng.Float64()*(f.inUpper[i]-f.inLower[i])
		}
		want, err := f.net.Forward(x)
		if err != nil {
			return nil, err
		}
		got, err := f.Evaluate(ctx, x)
		if errors.Is(err, errors.ErrInfeasible) {
			infeasible++
			continue
		}
		if err != nil {
			return nil, err
		}
		direct = append(direct, want...)
		encoded = append(encoded, got...)
	}

	var report *metrics.Report
	if len(direct) == 0 {
		report = &metrics.Report{Samples: samples, Infeasible: infeasible}
	} else {
		var err error
		report, err = metrics.NewReport(samples, infeasible,
			mat.NewVecDense(len(direct), direct),
			mat.NewVecDense(len(encoded), encoded))
		if err != nil {
			return nil, err
		}
	}

	f.logger.Info("verification finished",
		log.SamplesKey, report.Samples,
		log.InfeasibleKey, report.Infeasible,
		log.MaxAbsErrorKey, report.MaxAbsError,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return report, nil
}
