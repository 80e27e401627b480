package cpu

import (
	"errors"

	"github.com/ezrec/lc3/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted  = errors.New(f("halted"))
	ErrConsole = errors.New(f("console"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".EQU syntax"))
	ErrEquateDuplicate = errors.New(f(".EQU duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOriginDuplicate = errors.New(f(".ORIG duplicated"))
	ErrOriginMissing   = errors.New(f("code before .ORIG"))
	ErrStringSyntax    = errors.New(f(".STRINGZ syntax"))
	ErrOpcodeMissing   = errors.New(f("operand missing"))
	ErrOpcodeExtraArgs = errors.New(f("excessive operands"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrImmediateRange  = errors.New(f("immediate out of range"))
	ErrOffsetRange     = errors.New(f("offset out of range"))
	ErrVectorRange     = errors.New(f("trap vector out of range"))
	ErrAddressRange    = errors.New(f("address out of range"))
)

// ErrOpcode reports a fetched word with no defined semantics: the
// reserved opcodes, or a trap vector outside the fixed table.
type ErrOpcode struct {
	PC   uint16 // Address the word was fetched from.
	Word Code   // The raw instruction word.
}

func (eo ErrOpcode) Error() string {
	return f("illegal instruction 0x%04x at 0x%04x", uint16(eo.Word), eo.PC)
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrTrap reports a TRAP instruction with a vector outside the table.
type ErrTrap struct {
	PC   uint16 // Address the word was fetched from.
	Word Code   // The raw instruction word.
}

func (et ErrTrap) Error() string {
	return f("illegal trap 0x%02x at 0x%04x", uint16(et.Word)&0xFF, et.PC)
}

func (et ErrTrap) Is(err error) (ok bool) {
	_, ok = err.(ErrTrap)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
