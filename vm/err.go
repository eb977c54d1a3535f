package vm

import (
	"errors"

	"github.com/ezrec/maf/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrStackOverflow      = errors.New(f("stack overflow"))
	ErrStackUnderflow     = errors.New(f("stack underflow"))
	ErrCallStackOverflow  = errors.New(f("call stack overflow"))
	ErrCallStackUnderflow = errors.New(f("call stack underflow"))
	ErrDivisionByZero     = errors.New(f("division by zero"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))

	// Assembler errors
	ErrCodeTooBig             = errors.New(f("code too big"))
	ErrUnsupportedFixupTarget = errors.New(f("fixup target has no address"))
	ErrLabelDuplicate         = errors.New(f("label duplicated"))
	ErrLabelInvalid           = errors.New(f("label invalid"))
	ErrEquateSyntax           = errors.New(f(".equ syntax"))
	ErrEquateDuplicate        = errors.New(f(".equ duplicated"))
)

type ErrUnknownInstruction string

func (err ErrUnknownInstruction) Error() string {
	return f("unknown instruction '%v'", string(err))
}

// ErrWrongArity is returned when an instruction has too few or too many operands.
type ErrWrongArity struct {
	Expected int
	Got      int
}

func (err ErrWrongArity) Error() string {
	return f("expected %v operands, got %v", err.Expected, err.Got)
}

type ErrInvalidNumber string

func (err ErrInvalidNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrLabelMissing is returned when a referenced label is never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax locates an assembly error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %v '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrMachine is a runtime fault, tagged with the program counter of the
// faulting instruction.
type ErrMachine struct {
	Kind        error
	Pc          ProgramAddress
	Instruction Instruction
}

func (err *ErrMachine) Error() string {
	return f("pc %v '%v' %v", uint16(err.Pc), err.Instruction.String(), err.Kind)
}

func (err *ErrMachine) Unwrap() error {
	return err.Kind
}
