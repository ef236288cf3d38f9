package milp

import (
	"context"
	"fmt"
	"math"

	"github.com/YuminosukeSato/relumip/pkg/log"
)

// Status is the termination status of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusTimeLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusTimeLimit:
		return "time_limit"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Solution is the result of a solve. Values is indexed by Var and is nil
// unless a feasible point was found.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
}

// Value returns the value of v, or NaN if no point is available.
func (s *Solution) Value(v Var) float64 {
	if s.Values == nil {
		return math.NaN()
	}
	return s.Values[v]
}

// HasPoint reports whether the solution carries variable values.
func (s *Solution) HasPoint() bool {
	return s.Values != nil
}

// Solver solves a model without mutating it.
//
// Infeasibility, unboundedness and time limits are reported through
// Solution.Status. A non-nil error means the backend itself failed.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// NewSolver returns the backend selected by p. When p.Silent is set the
// solver does not log.
func NewSolver(p Params, logger log.Logger) (Solver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Silent || logger == nil {
		logger = log.NewNopLogger()
	}
	switch p.Backend {
	case BackendBranchAndBound:
		return &branchAndBound{
			params: p,
			logger: logger.With(log.ComponentKey, "milp"),
		}, nil
	default:
		panic("unreachable: Params.Validate accepted an unknown backend")
	}
}
