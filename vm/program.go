package vm

import (
	"fmt"
	"io"
	"iter"
)

// Program is an assembled instruction sequence together with its listing.
type Program struct {
	Code    []Instruction // Instructions, indexed by address.
	Opcodes []Opcode      // Source line of each instruction, if known.
}

// Debug locates the source of an instruction.
type Debug struct {
	*Opcode
	Instruction Instruction
}

// Debug returns the listing entry for the instruction at pc.
// The Opcode is nil if pc is outside the program or has no listing.
func (prog *Program) Debug(pc ProgramAddress) (dbg Debug) {
	if int(pc) >= len(prog.Code) {
		return
	}

	dbg.Instruction = prog.Code[pc]

	// Assembler listings are indexed by address.
	if int(pc) < len(prog.Opcodes) && prog.Opcodes[pc].Ip == pc {
		dbg.Opcode = &prog.Opcodes[pc]
		return
	}

	for n, op := range prog.Opcodes {
		if op.Ip == pc {
			dbg.Opcode = &prog.Opcodes[n]
			break
		}
	}

	return
}

// LineNo returns the source line of the instruction at pc, or 0.
func (prog *Program) LineNo(pc ProgramAddress) int {
	dbg := prog.Debug(pc)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Codes iterates over the instructions and their addresses.
func (prog *Program) Codes() iter.Seq2[ProgramAddress, Instruction] {
	return func(yield func(pc ProgramAddress, ins Instruction) bool) {
		for n, ins := range prog.Code {
			if !yield(ProgramAddress(n), ins) {
				return
			}
		}
	}
}

// Listing writes one ">> instruction" line per instruction to w.
func (prog *Program) Listing(w io.Writer) (err error) {
	for _, ins := range prog.Codes() {
		_, err = fmt.Fprintf(w, ">> %v\n", ins)
		if err != nil {
			return
		}
	}
	return
}
