package emulator

import (
	"errors"

	"github.com/ezrec/maf/translate"
)

var f = translate.From

var (
	ErrBudgetExhausted = errors.New(f("instruction budget exhausted"))
	ErrCodeSize        = errors.New(f("code size invalid"))
)

// ErrRuntime indicates the source location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %v %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
