package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError は LP ソルバーなど外部コードの panic を回収したエラーです。
// gonum の lp.Simplex は退化した行列で panic することがあるため、
// 部分問題一つの失敗でプロセス全体が落ちないようにします。
type PanicError struct {
	Op    string      // panic を回収した操作
	Value interface{} // panic() に渡された値
	Stack []byte      // 回収時点のスタック
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("relumip: panic in %s: %v", e.Op, e.Value)
}

// MarshalZerologObject はzerologとの統合のためのメソッドです。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("op", e.Op).
		Str("panic", fmt.Sprint(e.Value)).
		Bytes("stack", e.Stack)
}

// Recover は defer で直接呼び出し、発生した panic を *err に格納します。
// 既にエラーが設定されている場合はそのエラーに panic の情報を付け加えます。
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", op, r)
		return
	}
	*err = errors.WithStack(&PanicError{Op: op, Value: r, Stack: debug.Stack()})
}

// SafeExecute は fn を実行し、panic をエラーに変換して返します。
func SafeExecute(op string, fn func() error) (err error) {
	defer Recover(&err, op)
	return fn()
}
