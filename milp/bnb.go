package milp

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/relumip/pkg/errors"
	"github.com/YuminosukeSato/relumip/pkg/log"
)

const (
	// intTol is the distance from an integer below which a binary counts as integral.
	intTol = 1e-6
	// relGap is the relative optimality gap used for pruning.
	relGap = 1e-9
)

// branchAndBound solves MILPs by depth-first branch-and-bound over LP
// relaxations, branching on the most fractional binary variable.
type branchAndBound struct {
	params Params
	logger log.Logger
}

// node is a subproblem: the model with tightened variable bounds.
type node struct {
	lb, ub []float64
}

// Solve implements Solver.
func (s *branchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	start := time.Now()
	var deadline time.Time
	if s.params.TimeLimit > 0 {
		deadline = start.Add(s.params.TimeLimit)
	}

	n := len(m.vars)
	root := node{lb: make([]float64, n), ub: make([]float64, n)}
	var integer []int
	for j, v := range m.vars {
		root.lb[j], root.ub[j] = v.lb, v.ub
		if v.kind == Binary && !s.params.Relax {
			integer = append(integer, j)
		}
	}

	var (
		incumbent    []float64
		incumbentObj = math.Inf(1)
		nodes        int
		status       = StatusOptimal
	)

	stack := []node{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				status = StatusTimeLimit
				break
			}
			return nil, errors.Wrap(err, "milp: solve cancelled")
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			status = StatusTimeLimit
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		res, err := solveRelaxation(m, nd.lb, nd.ub)
		if err != nil {
			return nil, err
		}

		switch res.status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			// An unbounded relaxation makes the objective unbounded or the
			// problem infeasible; bounded-domain models never reach here.
			s.logger.Debug("relaxation unbounded", log.NodesKey, nodes)
			return &Solution{Status: StatusUnbounded, Nodes: nodes}, nil
		}

		if res.obj >= incumbentObj-gapTol(incumbentObj) {
			continue
		}

		j := mostFractional(res.x, integer)
		if j < 0 {
			incumbent, incumbentObj = res.x, res.obj
			continue
		}

		down := node{lb: nd.lb, ub: append([]float64(nil), nd.ub...)}
		down.ub[j] = math.Floor(res.x[j])
		up := node{lb: append([]float64(nil), nd.lb...), ub: nd.ub}
		up.lb[j] = math.Ceil(res.x[j])

		// Explore the side the relaxation leans towards first.
		if res.x[j]-math.Floor(res.x[j]) >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	sol := &Solution{Status: status, Nodes: nodes}
	switch {
	case incumbent != nil:
		for _, j := range integer {
			incumbent[j] = math.Round(incumbent[j])
		}
		sol.Values = incumbent
		sol.Objective = incumbentObj
		if m.sense == Maximize {
			sol.Objective = -incumbentObj
		}
	case status == StatusOptimal:
		sol.Status = StatusInfeasible
	}

	s.logger.Debug("solve finished",
		log.OperationKey, log.OperationSolve,
		log.StatusKey, sol.Status.String(),
		log.ObjectiveKey, sol.Objective,
		log.NodesKey, nodes,
		log.VarsKey, n,
		log.ConstraintsKey, m.live,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return sol, nil
}

func gapTol(incumbent float64) float64 {
	if math.IsInf(incumbent, 0) {
		return 0
	}
	return OptimalityGap(incumbent)
}

// OptimalityGap is how far an optimal objective may sit from the true optimum:
// nodes whose relaxation is within this gap of the incumbent are pruned.
func OptimalityGap(objective float64) float64 {
	return relGap * math.Max(1, math.Abs(objective))
}

// mostFractional returns the integer variable whose value is closest to 1/2
// away from an integer, or -1 if all are integral.
func mostFractional(x []float64, integer []int) int {
	best, bestDist := -1, intTol
	for _, j := range integer {
		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}
