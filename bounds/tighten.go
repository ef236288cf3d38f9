package bounds

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/relumip/core/parallel"
	"github.com/YuminosukeSato/relumip/milp"
	"github.com/YuminosukeSato/relumip/pkg/errors"
	"github.com/YuminosukeSato/relumip/pkg/log"
)

// Neuron is one tightening subproblem: the pre-activation expression of a
// neuron over variables of the partial model, with its propagated bounds.
type Neuron struct {
	Layer int // 1-based
	Index int // 0-based
	Expr  *milp.Expr
	Upper float64
	Lower float64
}

// Tightener refines propagated bounds by maximising and minimising each
// neuron's pre-activation expression against a partial model.
//
// Every subproblem runs against its own clone of the model, so a Tightener
// never mutates the model it is given and may fan out across neurons.
type Tightener struct {
	solver  milp.Solver
	workers int
	logger  log.Logger
}

// NewTightener returns a Tightener solving with s. workers bounds the number
// of concurrent subproblems; 0 means one per CPU and 1 runs sequentially.
func NewTightener(s milp.Solver, workers int, logger log.Logger) *Tightener {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Tightener{
		solver:  s,
		workers: workers,
		logger:  logger.With(log.ComponentKey, "bounds", log.OperationKey, log.OperationTighten),
	}
}

// Tighten returns bounds for one neuron that are no looser than nr.Upper and
// nr.Lower. A side whose subproblem does not reach optimality keeps its
// propagated bound. Only backend failures and cancellation are returned as
// errors.
func (t *Tightener) Tighten(ctx context.Context, m *milp.Model, nr Neuron) (upper, lower float64, err error) {
	sub := m.Clone()

	upper, err = t.solveSide(ctx, sub, nr, milp.Maximize)
	if err != nil {
		return 0, 0, err
	}
	lower, err = t.solveSide(ctx, sub, nr, milp.Minimize)
	if err != nil {
		return 0, 0, err
	}

	upper = math.Min(upper, nr.Upper)
	lower = math.Max(lower, nr.Lower)
	if lower > upper {
		// Only reachable through solver tolerance.
		upper, lower = math.Max(upper, lower), math.Min(upper, lower)
	}
	return upper, lower, nil
}

func (t *Tightener) solveSide(ctx context.Context, sub *milp.Model, nr Neuron, sense milp.ObjectiveSense) (float64, error) {
	side, fallback := "upper", nr.Upper
	if sense == milp.Minimize {
		side, fallback = "lower", nr.Lower
	}

	sub.SetObjective(nr.Expr, sense)
	sol, err := t.solver.Solve(ctx, sub)
	if err != nil {
		var solverErr *errors.SolverError
		if !errors.As(err, &solverErr) {
			return 0, err
		}
		// A numerical breakdown only costs this side its improvement.
		w := errors.NewTighteningFallbackWarning(nr.Layer, nr.Index, side, "solver_error")
		t.logger.Warn("tightening solver failed, using propagated bound",
			log.ErrAttrKey, w,
			log.ErrorTypeKey, "SolverError",
			log.CauseKey, err.Error(),
		)
		return fallback, nil
	}
	if sol.Status == milp.StatusOptimal {
		// The search stops within the optimality gap, so widen by it to keep
		// the bound valid.
		gap := milp.OptimalityGap(sol.Objective)
		if sense == milp.Minimize {
			gap = -gap
		}
		return sol.Objective + gap, nil
	}

	w := errors.NewTighteningFallbackWarning(nr.Layer, nr.Index, side, sol.Status.String())
	if sol.Status == milp.StatusTimeLimit {
		t.logger.Warn("tightening hit the time limit", log.ErrAttrKey, w)
	} else {
		t.logger.Debug("tightening fell back to propagated bound", log.ErrAttrKey, w)
	}
	return fallback, nil
}

// TightenLayer tightens every neuron of one layer. The neurons are
// independent, so they are solved concurrently; the result does not depend on
// the number of workers.
func (t *Tightener) TightenLayer(ctx context.Context, m *milp.Model, neurons []Neuron) (upper, lower []float64, err error) {
	start := time.Now()
	upper = make([]float64, len(neurons))
	lower = make([]float64, len(neurons))

	err = parallel.ForEach(len(neurons), 1, t.workers, func(i int) error {
		u, l, err := t.Tighten(ctx, m, neurons[i])
		if err != nil {
			return err
		}
		upper[i], lower[i] = u, l
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if len(neurons) > 0 {
		improved := 0
		for i, nr := range neurons {
			if upper[i] < nr.Upper || lower[i] > nr.Lower {
				improved++
				t.logger.Debug("neuron tightened",
					log.LayerKey, nr.Layer,
					log.NeuronKey, nr.Index,
					log.UpperKey, upper[i],
					log.LowerKey, lower[i],
				)
			}
		}
		t.logger.Debug("layer tightened",
			log.LayerKey, neurons[0].Layer,
			log.NeuronsKey, len(neurons),
			log.ImprovedKey, improved,
			log.WorkersKey, t.workers,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	return upper, lower, nil
}
