package network

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// ModelType はシリアライズされたネットワークの種類
const ModelType = "relu_network"

// FormatVersion はシリアライズ形式のバージョン
const FormatVersion = "1"

// LayerWeights は1層分の重み（シリアライゼーション用）
type LayerWeights struct {
	// Weights は行優先の重み行列（出力×入力）
	Weights [][]float64 `json:"weights" yaml:"weights"`

	// Bias はバイアスベクトル
	Bias []float64 `json:"bias" yaml:"bias"`

	// Activation は "relu" または "identity"
	Activation string `json:"activation" yaml:"activation"`
}

// ModelWeights はネットワーク全体の重み（シリアライゼーション用）
type ModelWeights struct {
	ModelType string         `json:"model_type" yaml:"model_type"`
	Version   string         `json:"version" yaml:"version"`
	Layers    []LayerWeights `json:"layers" yaml:"layers"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "network: decode json")
	}
	return nil
}

// ToYAML はModelWeightsをYAML形式にシリアライズ
func (mw *ModelWeights) ToYAML() ([]byte, error) {
	return yaml.Marshal(mw)
}

// FromYAML はYAML形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromYAML(data []byte) error {
	if err := yaml.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "network: decode yaml")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType != "" && mw.ModelType != ModelType {
		return errors.NewValidationError("model_type", "unsupported model type", mw.ModelType)
	}
	if len(mw.Layers) == 0 {
		return errors.NewValidationError("layers", "at least one layer is required", 0)
	}
	return nil
}

// Network はModelWeightsからネットワークを構築し検証する
func (mw *ModelWeights) Network() (*Network, error) {
	if err := mw.Validate(); err != nil {
		return nil, err
	}
	layers := make([]Layer, len(mw.Layers))
	for k, lw := range mw.Layers {
		act, err := ParseActivation(lw.Activation)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", k+1)
		}
		layer, err := NewLayer(lw.Weights, lw.Bias, act)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", k+1)
		}
		layers[k] = layer
	}
	return New(layers...)
}

// WeightsOf はネットワークをシリアライズ用の構造体に変換する
func WeightsOf(n *Network) *ModelWeights {
	mw := &ModelWeights{
		ModelType: ModelType,
		Version:   FormatVersion,
		Layers:    make([]LayerWeights, len(n.Layers)),
	}
	for k, l := range n.Layers {
		out, in := l.Dims()
		rows := make([][]float64, out)
		for i := 0; i < out; i++ {
			rows[i] = make([]float64, in)
			for j := 0; j < in; j++ {
				rows[i][j] = l.Weights.At(i, j)
			}
		}
		mw.Layers[k] = LayerWeights{
			Weights:    rows,
			Bias:       append([]float64(nil), l.Bias...),
			Activation: l.Activation.String(),
		}
	}
	return mw
}

// Load はファイルからネットワークを読み込む。拡張子 .yaml/.yml はYAML、それ以外はJSON。
func Load(path string) (*Network, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrapf(err, "network: read %s", cleanPath)
	}

	mw := &ModelWeights{}
	if isYAML(cleanPath) {
		err = mw.FromYAML(data)
	} else {
		err = mw.FromJSON(data)
	}
	if err != nil {
		return nil, err
	}
	return mw.Network()
}

// Save はネットワークをファイルに保存する
func Save(n *Network, path string) error {
	mw := WeightsOf(n)
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = mw.ToYAML()
	} else {
		data, err = mw.ToJSON()
	}
	if err != nil {
		return errors.Wrap(err, "network: encode")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "network: write %s", path)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
