// Package errors はrelumip全体で使うエラー型と警告の仕組みを提供します。
//
// エラーは次の三種類に分かれます。
//   - 前提条件違反: DimensionError, ValidationError, NumericalInstabilityError
//   - 評価時の実行不能: InfeasibleError (errors.Is(err, ErrInfeasible) が成立)
//   - ソルバー内部の失敗: SolverError, PanicError
//
// すべてのコンストラクタは cockroachdb/errors でスタックトレースを付与します。
package errors

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInfeasible は評価やモデルが実行不能であることを示します。
	ErrInfeasible = errors.New("infeasible")

	// ErrEmptyData は空のネットワークやベクトルが渡された場合のエラーです。
	ErrEmptyData = errors.New("empty data")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain assignable to target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

func Wrap(err error, message string) error { return errors.Wrap(err, message) }

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

func New(message string) error { return errors.New(message) }

func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

func WithStack(err error) error { return errors.WithStack(err) }
