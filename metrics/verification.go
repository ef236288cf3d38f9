// Package metrics はMILP符号化の出力とネットワークの直接計算を比較する誤差指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// checkPair は2つのベクトルが空でなく同じ長さであることを確認する
func checkPair(op string, direct, encoded *mat.VecDense) (int, error) {
	n := direct.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if encoded.Len() != n {
		return 0, errors.NewDimensionError(op, n, encoded.Len(), 0)
	}
	return n, nil
}

// residuals は direct - encoded を返す
func residuals(direct, encoded *mat.VecDense) []float64 {
	diff := mat.NewVecDense(direct.Len(), nil)
	diff.SubVec(direct, encoded)
	return diff.RawVector().Data
}

// MSE は平均二乗誤差を計算する
func MSE(direct, encoded *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", direct, encoded)
	if err != nil {
		return 0, err
	}
	r := residuals(direct, encoded)
	return floats.Dot(r, r) / float64(n), nil
}

// RMSE は平方根平均二乗誤差を計算する
func RMSE(direct, encoded *mat.VecDense) (float64, error) {
	mse, err := MSE(direct, encoded)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差を計算する
func MAE(direct, encoded *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", direct, encoded)
	if err != nil {
		return 0, err
	}
	// L1ノルム / n
	return floats.Norm(residuals(direct, encoded), 1) / float64(n), nil
}

// MaxAbsError は最大絶対誤差を計算する。符号化が正しければソルバーの許容誤差程度になる。
func MaxAbsError(direct, encoded *mat.VecDense) (float64, error) {
	if _, err := checkPair("MaxAbsError", direct, encoded); err != nil {
		return 0, err
	}
	return floats.Norm(residuals(direct, encoded), math.Inf(1)), nil
}

// Report はサンプリング検証の結果
type Report struct {
	Samples     int     `json:"samples" yaml:"samples"`         // 評価した入力の数
	Infeasible  int     `json:"infeasible" yaml:"infeasible"`   // 実行不能と報告された入力の数
	MaxAbsError float64 `json:"max_abs_error" yaml:"max_abs_error"`
	RMSE        float64 `json:"rmse" yaml:"rmse"`
	MAE         float64 `json:"mae" yaml:"mae"`
}

// NewReport は全サンプルの出力を連結したベクトルから Report を作成する
func NewReport(samples, infeasible int, direct, encoded *mat.VecDense) (*Report, error) {
	maxAbs, err := MaxAbsError(direct, encoded)
	if err != nil {
		return nil, err
	}
	rmse, err := RMSE(direct, encoded)
	if err != nil {
		return nil, err
	}
	mae, err := MAE(direct, encoded)
	if err != nil {
		return nil, err
	}
	return &Report{
		Samples:     samples,
		Infeasible:  infeasible,
		MaxAbsError: maxAbs,
		RMSE:        rmse,
		MAE:         mae,
	}, nil
}

// Agrees は最大絶対誤差が tol 以下で、実行不能なサンプルがないかを返す
func (r *Report) Agrees(tol float64) bool {
	return r.Infeasible == 0 && r.MaxAbsError <= tol
}
