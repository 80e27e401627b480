package emulator

import (
	"errors"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From

var (
	// Loader errors
	ErrImageTruncated = errors.New(f("truncated image"))
	ErrImageTooLarge  = errors.New(f("image past end of memory"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	PC     uint16
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo != 0 {
		return f("line %d pc 0x%04x %v", err.LineNo, err.PC, err.Err)
	}
	return f("pc 0x%04x %v", err.PC, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
