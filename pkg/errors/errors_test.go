package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("formulation.Encode", 3, 2, 1)

	assert.Equal(t, "relumip: formulation.Encode: dimension mismatch on axis 1 (inputs). Expected 3, got 2", err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	formatted := fmt.Sprintf("%+v", err)
	assert.Contains(t, formatted, "errors_test.go", "stack trace should point at the caller")
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("mode", "unknown tightening mode", "slow")

	var valErr *ValidationError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "mode", valErr.Param)
	assert.Contains(t, err.Error(), "unknown tightening mode")
	assert.Contains(t, err.Error(), "slow")
}

func TestInfeasibleErrorMatchesSentinel(t *testing.T) {
	err := NewInfeasibleError("formulation.Evaluate", "input 0 = 2 outside [-1, 1]")

	assert.True(t, Is(err, ErrInfeasible))
	assert.True(t, Is(Wrap(err, "evaluating sample"), ErrInfeasible))
	assert.False(t, Is(NewValueError("op", "msg"), ErrInfeasible))

	var infErr *InfeasibleError
	require.True(t, As(err, &infErr))
	assert.Equal(t, "formulation.Evaluate", infErr.Op)
}

func TestSolverErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("lp: A is singular")
	err := NewSolverError("milp.Solve", cause)

	assert.True(t, Is(err, cause))
	assert.True(t, strings.Contains(err.Error(), "lp: A is singular"))
}

func TestCheckNumericalStability(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{name: "finite", values: []float64{1, -2, 0.5}},
		{name: "nan", values: []float64{1, math.NaN()}, wantErr: true},
		{name: "inf", values: []float64{math.Inf(1)}, wantErr: true},
		{name: "empty", values: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNumericalStability("test", tt.values, 0)
			if tt.wantErr {
				var numErr *NumericalInstabilityError
				require.True(t, As(err, &numErr))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckMatrixReportsOffendingValues(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, math.Inf(1), math.NaN(), 0})
	err := CheckMatrix("weights", w, 3)

	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Len(t, numErr.Values, 2)
	assert.Equal(t, 3, numErr.Index)

	assert.NoError(t, CheckMatrix("weights", mat.NewDense(1, 2, []float64{1, 2}), 1))
}

func TestCheckNaNAllowsInfinity(t *testing.T) {
	assert.NoError(t, CheckNaN("bounds", []float64{math.Inf(-1), 0, math.Inf(1)}, 0))
	assert.Error(t, CheckNaN("bounds", []float64{math.NaN()}, 0))
}

func TestSafeExecutePanic(t *testing.T) {
	err := SafeExecute("tighten", func() error {
		panic("subproblem exploded")
	})

	var panicErr *PanicError
	require.True(t, As(err, &panicErr))
	assert.Equal(t, "subproblem exploded", panicErr.Value)
	assert.Equal(t, "tighten", panicErr.Op)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestSafeExecutePassesThroughError(t *testing.T) {
	original := New("plain failure")
	err := SafeExecute("tighten", func() error { return original })
	assert.Equal(t, original, err)
}

func TestWarnUsesRegisteredFunc(t *testing.T) {
	var got error
	SetWarnFunc(func(w error) { got = w })
	defer SetWarnFunc(nil)

	w := NewTighteningFallbackWarning(2, 1, "upper", "time_limit")
	Warn(w)

	require.NotNil(t, got)
	assert.Contains(t, got.Error(), "layer 2 neuron 1")
}
