package milp

// Term is coef * variable.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression sum(Terms) + Constant.
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr starts an expression holding only a constant.
//
//	e := milp.NewExpr(b).Add(x, 1).Add(s, -1)
func NewExpr(constant float64) *Expr {
	return &Expr{Constant: constant}
}

// Add appends coef * v. Zero coefficients are dropped.
func (e *Expr) Add(v Var, coef float64) *Expr {
	if coef != 0 {
		e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	}
	return e
}

// Eval evaluates the expression at values, indexed by Var.
func (e *Expr) Eval(values []float64) float64 {
	sum := e.Constant
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Clone returns a copy that does not share the term slice.
func (e *Expr) Clone() *Expr {
	return &Expr{Terms: append([]Term(nil), e.Terms...), Constant: e.Constant}
}
