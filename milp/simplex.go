package milp

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

const (
	// fixedTol is the bound gap below which a variable is substituted out.
	fixedTol = 1e-12
	// simplexTol is passed to lp.Simplex.
	simplexTol = 1e-10
	// feasTol is the tolerance for constraints with no remaining columns.
	feasTol = 1e-9
	// residualTol bounds |Ay - b| and -y, relative to 1+|b|, for a simplex
	// answer to be accepted.
	residualTol = 1e-7
	// columnOrders is how many column orderings are tried before the
	// artificial-basis fallback.
	columnOrders = 4
)

// errResidual marks a simplex answer that does not satisfy its own rows.
var errResidual = errors.New("lp: solution violates constraints")

// lpResult is the outcome of one LP relaxation in minimisation form.
type lpResult struct {
	status Status
	obj    float64   // minimisation-form objective, including constants
	x      []float64 // indexed by Var
}

// colRef says that column col contributes sign*y[col] to a variable.
type colRef struct {
	col  int
	sign float64
}

// standardForm is
//
//	minimize  c^T y + constant
//	s.t.      A y = b,  y >= 0
//
// built from a Model under a given set of variable bounds. Every variable is
// x = offset + sum(sign * y[col]).
type standardForm struct {
	c        []float64
	rows     [][]float64 // sparse rows as dense slices, grown as columns are added
	b        []float64
	constant float64

	offset []float64
	refs   [][]colRef
	ncols  int
}

func (sf *standardForm) newCol(cost float64) int {
	sf.c = append(sf.c, cost)
	sf.ncols++
	return sf.ncols - 1
}

func (sf *standardForm) addRow(coefs map[int]float64, rhs float64) {
	sf.rows = append(sf.rows, nil)
	r := len(sf.rows) - 1
	sf.b = append(sf.b, rhs)
	row := make([]float64, sf.ncols)
	for col, v := range coefs {
		row[col] = v
	}
	sf.rows[r] = row
}

// buildStandardForm converts m with the given bounds. ok is false when the
// bounds alone are already contradictory.
func buildStandardForm(m *Model, lb, ub []float64) (sf *standardForm, ok bool) {
	n := len(m.vars)
	sf = &standardForm{
		offset: make([]float64, n),
		refs:   make([][]colRef, n),
	}

	objSign := 1.0
	if m.sense == Maximize {
		objSign = -1.0
	}
	objCoef := make([]float64, n)
	for _, t := range m.objective.Terms {
		objCoef[t.Var] += objSign * t.Coef
	}
	sf.constant = objSign * m.objective.Constant

	type boundRow struct {
		col int
		rhs float64
	}
	var boundRows []boundRow

	for j := 0; j < n; j++ {
		l, u := lb[j], ub[j]
		switch {
		case l > u+fixedTol:
			return nil, false
		case u-l <= fixedTol:
			sf.offset[j] = l
		case !math.IsInf(l, -1):
			sf.offset[j] = l
			col := sf.newCol(objCoef[j])
			sf.refs[j] = []colRef{{col: col, sign: 1}}
			if !math.IsInf(u, 1) {
				boundRows = append(boundRows, boundRow{col: col, rhs: u - l})
			}
		case !math.IsInf(u, 1):
			sf.offset[j] = u
			col := sf.newCol(-objCoef[j])
			sf.refs[j] = []colRef{{col: col, sign: -1}}
		default:
			pos := sf.newCol(objCoef[j])
			neg := sf.newCol(-objCoef[j])
			sf.refs[j] = []colRef{{col: pos, sign: 1}, {col: neg, sign: -1}}
		}
		sf.constant += objCoef[j] * sf.offset[j]
	}

	type pendingRow struct {
		coefs map[int]float64
		sense Sense
		rhs   float64
	}
	var pending []pendingRow

	for _, br := range boundRows {
		pending = append(pending, pendingRow{coefs: map[int]float64{br.col: 1}, sense: LessEqual, rhs: br.rhs})
	}

	for _, con := range m.cons {
		if con == nil {
			continue
		}
		coefs := make(map[int]float64)
		rhs := con.RHS
		for _, t := range con.Expr.Terms {
			rhs -= t.Coef * sf.offset[t.Var]
			for _, ref := range sf.refs[t.Var] {
				coefs[ref.col] += t.Coef * ref.sign
			}
		}
		for col, v := range coefs {
			if v == 0 {
				delete(coefs, col)
			}
		}
		if len(coefs) == 0 {
			if !constantRowHolds(con.Sense, rhs) {
				return nil, false
			}
			continue
		}
		pending = append(pending, pendingRow{coefs: coefs, sense: con.Sense, rhs: rhs})
	}

	for _, p := range pending {
		switch p.sense {
		case LessEqual:
			p.coefs[sf.newCol(0)] = 1
		case GreaterEqual:
			p.coefs[sf.newCol(0)] = -1
		}
		sf.addRow(p.coefs, p.rhs)
	}
	for i := range sf.rows {
		if len(sf.rows[i]) < sf.ncols {
			sf.rows[i] = append(sf.rows[i], make([]float64, sf.ncols-len(sf.rows[i]))...)
		}
	}
	return sf, true
}

func constantRowHolds(sense Sense, rhs float64) bool {
	switch sense {
	case LessEqual:
		return rhs >= -feasTol
	case GreaterEqual:
		return rhs <= feasTol
	default:
		return math.Abs(rhs) <= feasTol
	}
}

// solve runs the simplex method. Columns that appear in no row are resolved
// analytically because lp.Simplex rejects them.
func (sf *standardForm) solve() (lpResult, error) {
	used := make([]bool, sf.ncols)
	for _, row := range sf.rows {
		for col, v := range row {
			if v != 0 {
				used[col] = true
			}
		}
	}

	y := make([]float64, sf.ncols)
	var active []int
	for col := 0; col < sf.ncols; col++ {
		if used[col] {
			active = append(active, col)
			continue
		}
		if sf.c[col] < 0 {
			return lpResult{status: StatusUnbounded}, nil
		}
	}

	obj := sf.constant
	if len(sf.rows) > 0 {
		m, n := len(sf.rows), len(active)
		c := make([]float64, n)
		A := mat.NewDense(m, n, nil)
		for k, col := range active {
			c[k] = sf.c[col]
			for i, row := range sf.rows {
				A.Set(i, k, row[col])
			}
		}
		b := append([]float64(nil), sf.b...)
		for i := range b {
			if b[i] < 0 {
				b[i] = -b[i]
				for k := 0; k < n; k++ {
					A.Set(i, k, -A.At(i, k))
				}
			}
		}

		optF, optY, err := solveLP(c, A, b)
		switch {
		case err == nil:
		case errors.Is(err, lp.ErrInfeasible):
			return lpResult{status: StatusInfeasible}, nil
		case errors.Is(err, lp.ErrUnbounded):
			return lpResult{status: StatusUnbounded}, nil
		default:
			return lpResult{}, errors.NewSolverError("milp.simplex", err)
		}
		for k, col := range active {
			y[col] = optY[k]
		}
		obj += optF
	}

	x := make([]float64, len(sf.offset))
	for j := range x {
		x[j] = sf.offset[j]
		for _, ref := range sf.refs[j] {
			x[j] += ref.sign * y[ref.col]
		}
	}
	return lpResult{status: StatusOptimal, obj: obj, x: x}, nil
}

// solveRelaxation solves the LP relaxation of m under the given bounds.
func solveRelaxation(m *Model, lb, ub []float64) (lpResult, error) {
	sf, ok := buildStandardForm(m, lb, ub)
	if !ok {
		return lpResult{status: StatusInfeasible}, nil
	}
	return sf.solve()
}

// solveLP runs lp.Simplex on min c^T y, A y = b, y >= 0 with b >= 0.
//
// gonum's simplex can break down on a singular basis while pivoting through a
// degenerate vertex, even when A has full row rank. The pivot sequence depends
// on the column order, so a breakdown is retried under other orders and finally
// from an explicit basis of artificial columns. Infeasible and unbounded
// answers are returned as soon as any attempt reaches them.
func solveLP(c []float64, A *mat.Dense, b []float64) (float64, []float64, error) {
	m, n := A.Dims()
	var lastErr error
	for attempt := 0; attempt < columnOrders; attempt++ {
		perm := columnOrder(n, attempt)
		pc := make([]float64, n)
		pA := mat.NewDense(m, n, nil)
		for k, col := range perm {
			pc[k] = c[col]
			pA.SetCol(k, mat.Col(nil, col, A))
		}

		var optY []float64
		err := errors.SafeExecute("lp.Simplex", func() error {
			var err error
			_, optY, err = lp.Simplex(pc, pA, b, simplexTol, nil)
			return err
		})
		switch {
		case err == nil:
			y := make([]float64, n)
			for k, col := range perm {
				y[col] = optY[k]
			}
			if residualOK(A, b, y) {
				return floats.Dot(c, y), y, nil
			}
			lastErr = errResidual
		case errors.Is(err, lp.ErrInfeasible), errors.Is(err, lp.ErrUnbounded):
			return 0, nil, err
		default:
			lastErr = err
		}
	}

	y, err := solveArtificial(c, A, b)
	if err != nil {
		if errors.Is(err, lp.ErrUnbounded) {
			return 0, nil, err
		}
		return 0, nil, lastErr
	}
	return floats.Dot(c, y), y, nil
}

// columnOrder is the identity, then the reverse, then seeded shuffles.
func columnOrder(n, attempt int) []int {
	switch attempt {
	case 0, 1:
		perm := make([]int, n)
		for k := range perm {
			perm[k] = k
			if attempt == 1 {
				perm[k] = n - 1 - k
			}
		}
		return perm
	default:
		return rand.New(rand.NewSource(int64(attempt))).Perm(n)
	}
}

// solveArtificial solves min c^T y + M sum(a), A y + a = b starting from the
// basis of artificial columns a, which is feasible because b >= 0. A solution
// that leaves any artificial column positive is rejected.
func solveArtificial(c []float64, A *mat.Dense, b []float64) ([]float64, error) {
	m, n := A.Dims()
	penalty := 1e6 * math.Max(1, floats.Norm(c, math.Inf(1)))

	cc := make([]float64, n+m)
	copy(cc, c)
	aug := mat.NewDense(m, n+m, nil)
	aug.Slice(0, m, 0, n).(*mat.Dense).Copy(A)
	basis := make([]int, m)
	for i := 0; i < m; i++ {
		cc[n+i] = penalty
		aug.Set(i, n+i, 1)
		basis[i] = n + i
	}

	var optY []float64
	err := errors.SafeExecute("lp.Simplex artificial", func() error {
		var err error
		_, optY, err = lp.Simplex(cc, aug, b, simplexTol, basis)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := 0; i < m; i++ {
		if optY[n+i] > residualTol*(1+math.Abs(b[i])) {
			return nil, errResidual
		}
	}
	y := optY[:n]
	if !residualOK(A, b, y) {
		return nil, errResidual
	}
	return y, nil
}

// residualOK reports whether y is non-negative and satisfies A y = b up to
// residualTol.
func residualOK(A *mat.Dense, b, y []float64) bool {
	for _, v := range y {
		if v < -residualTol || math.IsNaN(v) {
			return false
		}
	}
	var r mat.VecDense
	r.MulVec(A, mat.NewVecDense(len(y), y))
	for i, bi := range b {
		if math.Abs(r.AtVec(i)-bi) > residualTol*(1+math.Abs(bi)) {
			return false
		}
	}
	return true
}
