package errors

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxReported は NumericalInstabilityError に記録する値の上限です。
const maxReported = 10

// CheckNumericalStability は values に NaN または ±Inf が含まれていればエラーを返します。
// index には層番号など発生位置を渡します。
func CheckNumericalStability(operation string, values []float64, index int) error {
	bad := collect(values, func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) })
	if len(bad) == 0 {
		return nil
	}
	return NewNumericalInstabilityError(operation, bad, index)
}

// CheckNaN は NaN のみを検査します。±Inf は無制限の境界として正当です。
func CheckNaN(operation string, values []float64, index int) error {
	bad := collect(values, math.IsNaN)
	if len(bad) == 0 {
		return nil
	}
	return NewNumericalInstabilityError(operation, bad, index)
}

// CheckMatrix は重み行列の全要素を検査します。
func CheckMatrix(operation string, m mat.Matrix, index int) error {
	r, _ := m.Dims()
	var bad []float64
	for i := 0; i < r && len(bad) < maxReported; i++ {
		bad = append(bad, collect(mat.Row(nil, i, m), func(v float64) bool {
			return math.IsNaN(v) || math.IsInf(v, 0)
		})...)
	}
	if len(bad) == 0 {
		return nil
	}
	if len(bad) > maxReported {
		bad = bad[:maxReported]
	}
	return NewNumericalInstabilityError(operation, bad, index)
}

func collect(values []float64, pred func(float64) bool) []float64 {
	var out []float64
	for _, v := range values {
		if pred(v) {
			out = append(out, v)
			if len(out) == maxReported {
				break
			}
		}
	}
	return out
}
