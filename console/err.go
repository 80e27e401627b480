package console

import (
	"errors"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From

var (
	// Console errors
	ErrInputClosed = errors.New(f("input closed"))
)
