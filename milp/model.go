// Package milp provides a mutable mixed-integer linear model builder and a
// branch-and-bound solver backend.
//
// A Model owns variables (continuous or binary, each with lower and upper
// bounds), linear constraints addressed by ConstraintID handles, and a linear
// objective. Handles stay valid until the constraint is deleted; deleting or
// replacing a constraint never renumbers the others. Models are not safe for
// concurrent mutation: Clone one per goroutine.
package milp

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// VarKind is the domain of a variable.
type VarKind int

const (
	// Continuous variables take any value within their bounds.
	Continuous VarKind = iota
	// Binary variables are integers in [0, 1].
	Binary
)

func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("VarKind(%d)", int(k))
	}
}

// Var is a handle to a model variable.
type Var int

// Inf is positive infinity, used for absent bounds.
var Inf = math.Inf(1)

type variable struct {
	name string
	lb   float64
	ub   float64
	kind VarKind
}

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// ObjectiveSense selects minimisation or maximisation.
type ObjectiveSense int

const (
	Minimize ObjectiveSense = iota
	Maximize
)

func (s ObjectiveSense) String() string {
	if s == Maximize {
		return "max"
	}
	return "min"
}

// ConstraintID is a handle to a constraint.
type ConstraintID int

// Constraint is a stored linear constraint: Expr Sense RHS, where the
// expression constant has already been moved to the right-hand side.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Satisfied reports whether values satisfy the constraint within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.Expr.Eval(values)
	switch c.Sense {
	case LessEqual:
		return lhs <= c.RHS+tol
	case GreaterEqual:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// Model is a mixed-integer linear model under construction.
type Model struct {
	vars      []variable
	names     map[string]Var
	cons      []*Constraint
	live      int
	objective Expr
	sense     ObjectiveSense
}

// NewModel returns an empty model with a zero minimisation objective.
func NewModel() *Model {
	return &Model{names: make(map[string]Var)}
}

// AddVar declares a variable. Binary bounds are intersected with [0, 1].
func (m *Model) AddVar(name string, lb, ub float64, kind VarKind) Var {
	if kind == Binary {
		lb = math.Max(lb, 0)
		ub = math.Min(ub, 1)
	}
	v := Var(len(m.vars))
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub, kind: kind})
	if name != "" {
		m.names[name] = v
	}
	return v
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumBinaries returns the number of binary variables.
func (m *Model) NumBinaries() int {
	n := 0
	for _, v := range m.vars {
		if v.kind == Binary {
			n++
		}
	}
	return n
}

// VarByName looks a variable up by the name it was declared with.
func (m *Model) VarByName(name string) (Var, bool) {
	v, ok := m.names[name]
	return v, ok
}

// Name returns the name of v.
func (m *Model) Name(v Var) string {
	return m.variable(v).name
}

// Kind returns the domain of v.
func (m *Model) Kind(v Var) VarKind {
	return m.variable(v).kind
}

// Bounds returns the lower and upper bound of v.
func (m *Model) Bounds(v Var) (lb, ub float64) {
	x := m.variable(v)
	return x.lb, x.ub
}

// SetBounds replaces the bounds of v.
func (m *Model) SetBounds(v Var, lb, ub float64) error {
	if math.IsNaN(lb) || math.IsNaN(ub) {
		return errors.NewValidationError(m.Name(v), "bounds must not be NaN", []float64{lb, ub})
	}
	if lb > ub {
		return errors.NewValidationError(m.Name(v), "lower bound exceeds upper bound", []float64{lb, ub})
	}
	x := m.variable(v)
	x.lb, x.ub = lb, ub
	return nil
}

// Fix pins v to value. It fails with an InfeasibleError when value lies
// outside the current bounds of v (beyond tol).
func (m *Model) Fix(v Var, value, tol float64) error {
	x := m.variable(v)
	if math.IsNaN(value) || value < x.lb-tol || value > x.ub+tol {
		return errors.NewInfeasibleError("milp.Fix",
			fmt.Sprintf("%s = %g outside [%g, %g]", x.name, value, x.lb, x.ub))
	}
	x.lb, x.ub = value, value
	return nil
}

func (m *Model) variable(v Var) *variable {
	if int(v) < 0 || int(v) >= len(m.vars) {
		panic(fmt.Sprintf("milp: variable %d has not been declared to this model", v))
	}
	return &m.vars[v]
}

// AddConstraint adds expr sense rhs and returns its handle.
func (m *Model) AddConstraint(name string, expr *Expr, sense Sense, rhs float64) ConstraintID {
	for _, t := range expr.Terms {
		m.variable(t.Var)
	}
	stored := Expr{Terms: append([]Term(nil), expr.Terms...)}
	m.cons = append(m.cons, &Constraint{
		Name:  name,
		Expr:  stored,
		Sense: sense,
		RHS:   rhs - expr.Constant,
	})
	m.live++
	return ConstraintID(len(m.cons) - 1)
}

// Constraint returns the constraint behind id, if it is live.
func (m *Model) Constraint(id ConstraintID) (Constraint, bool) {
	if int(id) < 0 || int(id) >= len(m.cons) || m.cons[id] == nil {
		return Constraint{}, false
	}
	return *m.cons[id], true
}

// DeleteConstraint removes a live constraint. The handle becomes invalid.
func (m *Model) DeleteConstraint(id ConstraintID) error {
	if _, ok := m.Constraint(id); !ok {
		return errors.NewValueError("milp.DeleteConstraint", fmt.Sprintf("constraint %d is not live", id))
	}
	m.cons[id] = nil
	m.live--
	return nil
}

// ReplaceConstraint deletes id and adds the new constraint under the same name.
func (m *Model) ReplaceConstraint(id ConstraintID, expr *Expr, sense Sense, rhs float64) (ConstraintID, error) {
	old, ok := m.Constraint(id)
	if !ok {
		return 0, errors.NewValueError("milp.ReplaceConstraint", fmt.Sprintf("constraint %d is not live", id))
	}
	if err := m.DeleteConstraint(id); err != nil {
		return 0, err
	}
	return m.AddConstraint(old.Name, expr, sense, rhs), nil
}

// NumConstraints returns the number of live constraints.
func (m *Model) NumConstraints() int {
	return m.live
}

// Constraints returns the handles of all live constraints in insertion order.
func (m *Model) Constraints() []ConstraintID {
	ids := make([]ConstraintID, 0, m.live)
	for i, c := range m.cons {
		if c != nil {
			ids = append(ids, ConstraintID(i))
		}
	}
	return ids
}

// SetObjective sets the objective expression and direction.
func (m *Model) SetObjective(expr *Expr, sense ObjectiveSense) {
	for _, t := range expr.Terms {
		m.variable(t.Var)
	}
	m.objective = *expr.Clone()
	m.sense = sense
}

// Objective returns the current objective.
func (m *Model) Objective() (Expr, ObjectiveSense) {
	return *m.objective.Clone(), m.sense
}

// Clone returns a deep copy that shares no mutable state with m.
func (m *Model) Clone() *Model {
	c := &Model{
		vars:      append([]variable(nil), m.vars...),
		names:     make(map[string]Var, len(m.names)),
		cons:      make([]*Constraint, len(m.cons)),
		live:      m.live,
		objective: *m.objective.Clone(),
		sense:     m.sense,
	}
	for k, v := range m.names {
		c.names[k] = v
	}
	for i, con := range m.cons {
		if con == nil {
			continue
		}
		cp := *con
		cp.Expr = *con.Expr.Clone()
		c.cons[i] = &cp
	}
	return c
}

// Feasible reports whether values satisfy every bound, integrality
// requirement and live constraint within tol.
func (m *Model) Feasible(values []float64, tol float64) bool {
	if len(values) != len(m.vars) {
		return false
	}
	for i, v := range m.vars {
		x := values[i]
		if x < v.lb-tol || x > v.ub+tol {
			return false
		}
		if v.kind == Binary && math.Abs(x-math.Round(x)) > tol {
			return false
		}
	}
	for _, c := range m.cons {
		if c != nil && !c.Satisfied(values, tol) {
			return false
		}
	}
	return true
}
