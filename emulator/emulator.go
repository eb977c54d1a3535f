// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"io"
	"iter"
	"log"
	"maps"
	"strconv"

	"github.com/ezrec/maf/internal"
	"github.com/ezrec/maf/vm"
)

// Emulator state. Machine + instruction buffer + program listing.
type Emulator struct {
	Verbose     bool        // If set, enables verbose logging.
	*vm.Machine             // Reference to the machine simulation.
	Program     *vm.Program // Reference to the currently loaded program.

	Budget  int               // Maximum instructions per Run, 0 for no limit.
	Equates map[string]string // Additional assembler predefines.

	code []vm.Instruction // Instruction buffer.
}

// NewEmulator creates a new emulator with an instruction buffer of
// codeSize instructions.
func NewEmulator(codeSize int) (emu *Emulator, err error) {
	if codeSize <= 0 {
		err = ErrCodeSize
		return
	}

	emu = &Emulator{
		Machine: vm.NewMachine(),
		Program: &vm.Program{},
		code:    make([]vm.Instruction, codeSize),
	}

	return
}

// CodeSize returns the capacity of the instruction buffer.
func (emu *Emulator) CodeSize() int {
	return len(emu.code)
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	emulator_defines := map[string]string{
		"CODE_SIZE": strconv.Itoa(len(emu.code)),
	}
	return internal.Defines(maps.All(emulator_defines),
		emu.Machine.Defines(),
		maps.All(emu.Equates),
	)
}

// Assemble assembles source into the instruction buffer, and makes it the
// current program. On error the previously loaded program is untouched.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &vm.Assembler{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}

	// The current program stays loaded unless assembly succeeds.
	scratch := make([]vm.Instruction, len(emu.code))
	count, err := asm.Parse(input, scratch)
	if err != nil {
		return
	}

	copy(emu.code, scratch[:count])
	emu.Program = &vm.Program{
		Code:    emu.code[:count],
		Opcodes: asm.Opcode,
	}

	if emu.Verbose {
		log.Printf("emulator: %d instructions, %d labels", count, len(asm.Label))
	}

	return
}

// Load makes prog the current program. The program is copied into the
// instruction buffer.
func (emu *Emulator) Load(prog *vm.Program) (err error) {
	if len(prog.Code) > len(emu.code) || len(prog.Code) > vm.ADDRESS_LIMIT {
		err = vm.ErrCodeTooBig
		return
	}

	count := copy(emu.code, prog.Code)
	emu.Program = &vm.Program{
		Code:    emu.code[:count],
		Opcodes: prog.Opcodes,
	}

	return
}

// Reset the machine state.
func (emu *Emulator) Reset() {
	emu.Machine.Verbose = emu.Verbose
	emu.Machine.Reset()
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(emu.Machine.Pc)
}

// Done returns true if the machine has halted.
func (emu *Emulator) Done() bool {
	return emu.Machine.Halted(emu.Program.Code)
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set machine verbosity
	emu.Machine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	done, err = emu.Machine.Tick(emu.Program.Code)

	return
}

// Run executes the current program from address 0 until it halts, faults,
// or exceeds the instruction budget.
func (emu *Emulator) Run() (err error) {
	emu.Machine.Pc = 0

	for ticks := 0; ; ticks++ {
		if emu.Budget > 0 && ticks >= emu.Budget && !emu.Done() {
			err = &ErrRuntime{LineNo: emu.LineNo(), Err: ErrBudgetExhausted}
			return
		}

		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
	}
}
