// Package network は学習済みフィードフォワードReLUネットワークのデータモデルを提供します。
//
// ネットワークは層の順序付き列で、各層は重み行列（出力×入力）、バイアスベクトル、
// 活性化関数を持ちます。最後の層以外はReLU、最後の層は恒等写像でなければなりません。
// 一度構築したネットワークは変更しません。
package network

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// Activation は層の活性化関数の種類
type Activation int

const (
	// Identity は恒等写像（出力層）
	Identity Activation = iota
	// ReLU は max(0, x)
	ReLU
)

// String は活性化関数名を返す
func (a Activation) String() string {
	switch a {
	case Identity:
		return "identity"
	case ReLU:
		return "relu"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

// ParseActivation は活性化関数名を解釈する。未対応の名前はValidationErrorを返す。
func ParseActivation(name string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "relu":
		return ReLU, nil
	case "identity", "linear", "none", "":
		return Identity, nil
	default:
		return 0, errors.NewValidationError("activation", "unsupported activation function", name)
	}
}

// Layer は1つの全結合層
type Layer struct {
	Weights    *mat.Dense // 出力×入力
	Bias       []float64  // 長さ = 出力数
	Activation Activation
}

// NewLayer は行優先の重みから層を作成する
func NewLayer(weights [][]float64, bias []float64, act Activation) (Layer, error) {
	if len(weights) == 0 || len(weights[0]) == 0 {
		return Layer{}, errors.NewModelError("network.NewLayer", "empty weight matrix", errors.ErrEmptyData)
	}
	out, in := len(weights), len(weights[0])
	data := make([]float64, 0, out*in)
	for i, row := range weights {
		if len(row) != in {
			return Layer{}, errors.NewDimensionError(fmt.Sprintf("network.NewLayer row %d", i), in, len(row), 1)
		}
		data = append(data, row...)
	}
	if len(bias) != out {
		return Layer{}, errors.NewDimensionError("network.NewLayer bias", out, len(bias), 0)
	}
	b := make([]float64, out)
	copy(b, bias)
	return Layer{Weights: mat.NewDense(out, in, data), Bias: b, Activation: act}, nil
}

// Dims は (出力数, 入力数) を返す
func (l Layer) Dims() (out, in int) {
	return l.Weights.Dims()
}

// Network は層の順序付き列
type Network struct {
	Layers []Layer
}

// New は層を検証してネットワークを作成する
func New(layers ...Layer) (*Network, error) {
	net := &Network{Layers: layers}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

// Validate はネットワークの不変条件を検証する
//   - 少なくとも1層
//   - 層間の次元が一致
//   - 最後の層以外はReLU、最後の層はIdentity
//   - 重み・バイアスが有限
func (n *Network) Validate() error {
	if n == nil || len(n.Layers) == 0 {
		return errors.NewModelError("network.Validate", "network has no layers", errors.ErrEmptyData)
	}
	for k, l := range n.Layers {
		if l.Weights == nil {
			return errors.NewValidationError(fmt.Sprintf("layers[%d].weights", k), "weights are required", nil)
		}
		out, in := l.Dims()
		if len(l.Bias) != out {
			return errors.NewDimensionError(fmt.Sprintf("network.Validate layer %d bias", k+1), out, len(l.Bias), 0)
		}
		if k > 0 {
			prevOut, _ := n.Layers[k-1].Dims()
			if in != prevOut {
				return errors.NewDimensionError(fmt.Sprintf("network.Validate layer %d", k+1), prevOut, in, 1)
			}
		}

		last := k == len(n.Layers)-1
		switch l.Activation {
		case ReLU:
			if last {
				return errors.NewValidationError(fmt.Sprintf("layers[%d].activation", k), "output layer must use identity activation", l.Activation.String())
			}
		case Identity:
			if !last {
				return errors.NewValidationError(fmt.Sprintf("layers[%d].activation", k), "hidden layers must use relu activation", l.Activation.String())
			}
		default:
			return errors.NewValidationError(fmt.Sprintf("layers[%d].activation", k), "unsupported activation function", l.Activation.String())
		}

		if err := errors.CheckMatrix("network.Validate weights", l.Weights, k+1); err != nil {
			return err
		}
		if err := errors.CheckNumericalStability("network.Validate bias", l.Bias, k+1); err != nil {
			return err
		}
	}
	return nil
}

// NumLayers は層の数 K を返す
func (n *Network) NumLayers() int {
	return len(n.Layers)
}

// InputDim は入力の次元
func (n *Network) InputDim() int {
	_, in := n.Layers[0].Dims()
	return in
}

// OutputDim は出力の次元
func (n *Network) OutputDim() int {
	out, _ := n.Layers[len(n.Layers)-1].Dims()
	return out
}

// Widths は各層のニューロン数を返す（入力層は含まない）
func (n *Network) Widths() []int {
	widths := make([]int, len(n.Layers))
	for k, l := range n.Layers {
		widths[k], _ = l.Dims()
	}
	return widths
}

// Layer は1始まりの層番号で層を返す
func (n *Network) Layer(k int) Layer {
	return n.Layers[k-1]
}

// Forward はネットワークを直接評価する
func (n *Network) Forward(x []float64) ([]float64, error) {
	if len(x) != n.InputDim() {
		return nil, errors.NewDimensionError("network.Forward", n.InputDim(), len(x), 1)
	}

	current := mat.NewVecDense(len(x), append([]float64(nil), x...))
	for _, l := range n.Layers {
		out, _ := l.Dims()
		next := mat.NewVecDense(out, nil)
		next.MulVec(l.Weights, current)
		next.AddVec(next, mat.NewVecDense(out, l.Bias))
		if l.Activation == ReLU {
			for i := 0; i < out; i++ {
				if next.AtVec(i) < 0 {
					next.SetVec(i, 0)
				}
			}
		}
		current = next
	}

	result := make([]float64, current.Len())
	for i := range result {
		result[i] = current.AtVec(i)
	}
	return result, nil
}

// Clone はネットワークのディープコピーを作成する
func (n *Network) Clone() *Network {
	layers := make([]Layer, len(n.Layers))
	for k, l := range n.Layers {
		layers[k] = Layer{
			Weights:    mat.DenseCopyOf(l.Weights),
			Bias:       append([]float64(nil), l.Bias...),
			Activation: l.Activation,
		}
	}
	return &Network{Layers: layers}
}
