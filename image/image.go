// Package image encodes assembled maf programs as canonical CBOR, so a
// program can be saved once and run without reassembly.
package image

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ezrec/maf/translate"
	"github.com/ezrec/maf/vm"
)

const VERSION = 1 // Image format version.

var f = translate.From

var (
	ErrVersion = errors.New(f("image version unsupported"))
	ErrOpcode  = errors.New(f("image opcode invalid"))
	ErrLines   = errors.New(f("image line table mismatch"))
)

// word is a single encoded instruction.
type word struct {
	_       struct{} `cbor:",toarray"`
	Op      uint8
	Operand uint16
}

// Image is the encoded form of a vm.Program.
type Image struct {
	Version int    `cbor:"1,keyasint"`
	Code    []word `cbor:"2,keyasint"`
	Lines   []int  `cbor:"3,keyasint,omitempty"` // Source line per instruction.
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal serializes a program to CBOR bytes.
func Marshal(prog *vm.Program) ([]byte, error) {
	img := Image{
		Version: VERSION,
		Code:    make([]word, len(prog.Code)),
	}

	for pc, ins := range prog.Codes() {
		img.Code[pc] = word{Op: uint8(ins.Op), Operand: ins.Operand}
	}

	if len(prog.Opcodes) > 0 {
		img.Lines = make([]int, len(prog.Code))
		for pc := range prog.Codes() {
			img.Lines[pc] = prog.LineNo(pc)
		}
	}

	return encMode.Marshal(&img)
}

// Unmarshal deserializes a program from CBOR bytes.
func Unmarshal(data []byte) (*vm.Program, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}

	if img.Version != VERSION {
		return nil, fmt.Errorf("image: version %d: %w", img.Version, ErrVersion)
	}

	if len(img.Code) > vm.ADDRESS_LIMIT {
		return nil, fmt.Errorf("image: %w", vm.ErrCodeTooBig)
	}

	if len(img.Lines) != 0 && len(img.Lines) != len(img.Code) {
		return nil, fmt.Errorf("image: %w", ErrLines)
	}

	prog := &vm.Program{
		Code: make([]vm.Instruction, len(img.Code)),
	}

	for n, w := range img.Code {
		op := vm.Op(w.Op)
		if !op.Valid() {
			return nil, fmt.Errorf("image: address %d: %w", n, ErrOpcode)
		}
		if op.Operand() == vm.OPERAND_NONE && w.Operand != 0 {
			return nil, fmt.Errorf("image: address %d: %w", n, ErrOpcode)
		}
		prog.Code[n] = vm.Instruction{Op: op, Operand: w.Operand}
	}

	if len(img.Lines) != 0 {
		prog.Opcodes = make([]vm.Opcode, len(img.Lines))
		for n, lineno := range img.Lines {
			prog.Opcodes[n] = vm.Opcode{LineNo: lineno, Ip: vm.ProgramAddress(n)}
		}
	}

	return prog, nil
}
