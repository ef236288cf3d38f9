package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

func TestErrorMetrics(t *testing.T) {
	tests := []struct {
		name    string
		direct  *mat.VecDense
		encoded *mat.VecDense
		mse     float64
		mae     float64
		maxAbs  float64
	}{
		{
			name:    "exact agreement",
			direct:  mat.NewVecDense(3, []float64{1, 2, 3}),
			encoded: mat.NewVecDense(3, []float64{1, 2, 3}),
		},
		{
			name:    "simple case",
			direct:  mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			encoded: mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			mse:     0.25,
			mae:     0.5,
			maxAbs:  0.5,
		},
		{
			name:    "one outlier",
			direct:  mat.NewVecDense(3, []float64{10, 20, 30}),
			encoded: mat.NewVecDense(3, []float64{12, 18, 33}),
			mse:     17.0 / 3.0, // (4 + 4 + 9) / 3
			mae:     7.0 / 3.0,
			maxAbs:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mse, err := MSE(tt.direct, tt.encoded)
			require.NoError(t, err)
			assert.InDelta(t, tt.mse, mse, 1e-12)

			rmse, err := RMSE(tt.direct, tt.encoded)
			require.NoError(t, err)
			assert.InDelta(t, math.Sqrt(tt.mse), rmse, 1e-12)

			mae, err := MAE(tt.direct, tt.encoded)
			require.NoError(t, err)
			assert.InDelta(t, tt.mae, mae, 1e-12)

			maxAbs, err := MaxAbsError(tt.direct, tt.encoded)
			require.NoError(t, err)
			assert.InDelta(t, tt.maxAbs, maxAbs, 1e-12)
		})
	}
}

func TestErrorMetricsInvalidInput(t *testing.T) {
	_, err := MSE(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = MaxAbsError(&mat.VecDense{}, &mat.VecDense{})
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}

func TestNewReport(t *testing.T) {
	report, err := NewReport(2, 0,
		mat.NewVecDense(2, []float64{1, 2}),
		mat.NewVecDense(2, []float64{1, 2 + 1e-10}))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Samples)
	assert.True(t, report.Agrees(1e-6))

	report.Infeasible = 1
	assert.False(t, report.Agrees(1e-6))
}
