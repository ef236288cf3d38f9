package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/rs/zerolog"
)

var (
	warnMu sync.Mutex
	// pkg/log がzerologに差し替えるまでは標準のlogへ出力します。
	warnFunc = func(w error) { log.Printf("relumip: warning: %v", w) }
)

// SetWarnFunc は Warn の出力先を差し替えます。nil を渡すと標準のlogへ戻ります。
// pkg/log は循環importを避けるためにここへ関数を登録します。
func SetWarnFunc(fn func(warning error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	if fn == nil {
		fn = func(w error) { log.Printf("relumip: warning: %v", w) }
	}
	warnFunc = fn
}

// Warn はエラーにはならない異常を報告します。
func Warn(w error) {
	warnMu.Lock()
	fn := warnFunc
	warnMu.Unlock()
	fn(w)
}

// TighteningFallbackWarning は境界締め付けのサブ問題が最適解に到達せず、
// 伝播された境界をそのまま使った場合の警告です。
type TighteningFallbackWarning struct {
	Layer  int
	Neuron int
	Side   string // "upper" または "lower"
	Status string
}

func NewTighteningFallbackWarning(layer, neuron int, side, status string) *TighteningFallbackWarning {
	return &TighteningFallbackWarning{Layer: layer, Neuron: neuron, Side: side, Status: status}
}

func (w *TighteningFallbackWarning) Error() string {
	return fmt.Sprintf("tightening layer %d neuron %d (%s) ended with status %s; using propagated bound",
		w.Layer, w.Neuron, w.Side, w.Status)
}

func (w *TighteningFallbackWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "TighteningFallbackWarning").
		Int("layer", w.Layer).
		Int("neuron", w.Neuron).
		Str("side", w.Side).
		Str("status", w.Status)
}
