package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// DimensionError はベクトル長や層の幅が噛み合わない場合のエラーです。
// Axis は 0 が出力側（行）、1 が入力側（列）です。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func (e *DimensionError) side() string {
	if e.Axis == 0 {
		return "outputs"
	}
	return "inputs"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("relumip: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.side(), e.Expected, e.Got)
}

func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "DimensionError").
		Str("op", e.Op).
		Int("axis", e.Axis).
		Str("side", e.side()).
		Int("expected", e.Expected).
		Int("got", e.Got)
}

// ValidationError は設定値や入力値が受け付けられない場合のエラーです。
// 未対応の活性化関数、lower > upper、出力境界の欠落、不明なモードなど。
type ValidationError struct {
	Param  string
	Reason string
	Value  interface{}
}

func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{Param: param, Reason: reason, Value: value})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("relumip: validation failed for parameter '%s': %s (got: %v)", e.Param, e.Reason, e.Value)
}

func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ValidationError").
		Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

// ValueError は制約モデルの操作に不正な引数が渡された場合のエラーです。
type ValueError struct {
	Op      string
	Message string
}

func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string { return fmt.Sprintf("relumip: %s: %s", e.Op, e.Message) }

// ModelError はネットワーク定義の読み込みや構築に失敗した場合のエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("relumip: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("relumip: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// InfeasibleError は入力がモデルに焼き込まれた境界の外にあるなど、
// 制約モデルに解がないことを表します。呼び出し側で回復可能な結果です。
type InfeasibleError struct {
	Op     string
	Reason string
}

func NewInfeasibleError(op, reason string) error {
	return errors.WithStack(&InfeasibleError{Op: op, Reason: reason})
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("relumip: %s: infeasible: %s", e.Op, e.Reason)
}

// Is は errors.Is(err, ErrInfeasible) を成立させます。
func (e *InfeasibleError) Is(target error) bool { return target == ErrInfeasible }

func (e *InfeasibleError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "InfeasibleError").
		Str("op", e.Op).
		Str("reason", e.Reason)
}

// SolverError はソルバーバックエンド内部の失敗です。元のエラーは Unwrap で取り出せます。
type SolverError struct {
	Op  string
	Err error
}

func NewSolverError(op string, err error) error {
	return errors.WithStack(&SolverError{Op: op, Err: err})
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("relumip: %s: solver failure: %v", e.Op, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

func (e *SolverError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "SolverError").
		Str("op", e.Op).
		Str("cause", fmt.Sprint(e.Err))
}

// NumericalInstabilityError は重みや境界に NaN/Inf が現れた場合のエラーです。
// Values には問題のある値だけが入ります。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Index     int // 層番号など発生位置
}

func NewNumericalInstabilityError(operation string, values []float64, index int) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values, Index: index})
}

func (e *NumericalInstabilityError) Error() string {
	shown := e.Values
	more := ""
	if len(shown) > 5 {
		shown, more = shown[:5], ", ..."
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("relumip: numerical instability detected in %s at index %d. Values: [%s%s]",
		e.Operation, e.Index, strings.Join(parts, ", "), more)
}
