package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// Compress はどの入力に対しても出力が0になる（前活性化の上界が0以下の）隠れニューロンを
// 取り除いたネットワークを返す。upper[k] は層 k+1 の前活性化上界。
// 有界な入力領域上では元のネットワークと同じ出力になる。
//
// 層の全ニューロンが不活性な場合は重み0・バイアス0のニューロンを1つ残す。
func Compress(n *Network, upper [][]float64) (*Network, int, error) {
	hidden := n.NumLayers() - 1
	if len(upper) < hidden {
		return nil, 0, errors.NewDimensionError("network.Compress", hidden, len(upper), 0)
	}

	compressed := n.Clone()
	removed := 0
	for k := 0; k < hidden; k++ {
		layer := compressed.Layers[k]
		out, in := layer.Dims()
		if len(upper[k]) != out {
			return nil, 0, errors.NewDimensionError(fmt.Sprintf("network.Compress layer %d", k+1), out, len(upper[k]), 0)
		}

		var keep []int
		for i := 0; i < out; i++ {
			if upper[k][i] > 0 {
				keep = append(keep, i)
			}
		}
		if len(keep) == out {
			continue
		}
		removed += out - len(keep)

		zeroed := false
		if len(keep) == 0 {
			keep = []int{0}
			zeroed = true
			removed--
		}

		w := mat.NewDense(len(keep), in, nil)
		bias := make([]float64, len(keep))
		for r, i := range keep {
			if !zeroed {
				w.SetRow(r, mat.Row(nil, i, layer.Weights))
				bias[r] = layer.Bias[i]
			}
		}
		compressed.Layers[k] = Layer{Weights: w, Bias: bias, Activation: layer.Activation}

		next := compressed.Layers[k+1]
		nextOut, _ := next.Dims()
		nw := mat.NewDense(nextOut, len(keep), nil)
		for c, i := range keep {
			if !zeroed {
				nw.SetCol(c, mat.Col(nil, i, next.Weights))
			}
		}
		compressed.Layers[k+1] = Layer{Weights: nw, Bias: next.Bias, Activation: next.Activation}
	}

	if err := compressed.Validate(); err != nil {
		return nil, 0, err
	}
	return compressed, removed, nil
}
