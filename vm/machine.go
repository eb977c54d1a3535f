package vm

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"strconv"
)

// Machine is the execution engine: registers plus the data and call stacks.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Pc    ProgramAddress        // Program counter.
	Acc   Value                 // Accumulator.
	Stack Stack[Value]          // Data stack; Stack.Pointer is sp.
	Calls Stack[ProgramAddress] // Call stack; Calls.Pointer is fp.

	Ticks int // Instructions executed since the last reset.
}

// Registers is a snapshot of the machine registers.
type Registers struct {
	Pc  ProgramAddress
	Sp  int
	Fp  int
	Acc Value
}

func (regs Registers) String() string {
	return fmt.Sprintf("pc: %d, sp: %d, fp: %d, acc: %d", regs.Pc, regs.Sp, regs.Fp, regs.Acc)
}

// NewMachine creates a machine with STACK_SIZE data slots and
// CALLSTACK_SIZE call slots. All registers start at zero.
func NewMachine() (m *Machine) {
	m = &Machine{
		Stack: NewStack(make([]Value, STACK_SIZE)),
		Calls: NewStack(make([]ProgramAddress, CALLSTACK_SIZE)),
	}

	return
}

// Defines returns the machine capacities as assembler equates.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"STACK_SIZE":     strconv.Itoa(m.Stack.Cap()),
		"CALLSTACK_SIZE": strconv.Itoa(m.Calls.Cap()),
	})
}

// Sp returns the data stack pointer (next free slot).
func (m *Machine) Sp() int {
	return m.Stack.Pointer
}

// Fp returns the call stack pointer (next free slot).
func (m *Machine) Fp() int {
	return m.Calls.Pointer
}

// Registers returns the current register state.
func (m *Machine) Registers() Registers {
	return Registers{Pc: m.Pc, Sp: m.Sp(), Fp: m.Fp(), Acc: m.Acc}
}

// String returns the current machine state as a string.
func (m *Machine) String() string {
	top := "------"
	if value, ok := m.Stack.Peek(0); ok {
		top = fmt.Sprintf("%d", value)
	}
	return fmt.Sprintf("%v, top: %v, ticks: %d", m.Registers(), top, m.Ticks)
}

// Reset zeroes the registers, both stacks, and the tick counter.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("machine: reset")
	}

	m.Pc = 0
	m.Acc = 0
	m.Stack.Reset()
	m.Calls.Reset()
	m.Ticks = 0
}

// Fetch returns the instruction at pc. It returns false if pc is outside code.
func (m *Machine) Fetch(code []Instruction) (ins Instruction, ok bool) {
	if int(m.Pc) >= len(code) {
		return
	}

	return code[m.Pc], true
}

// Halted returns true if pc is outside code or addresses a halt.
func (m *Machine) Halted(code []Instruction) bool {
	ins, ok := m.Fetch(code)
	return !ok || ins.Op == OP_HALT
}

// Tick executes the instruction at pc. done is set, and nothing is
// executed, when the machine is halted.
func (m *Machine) Tick(code []Instruction) (done bool, err error) {
	if m.Halted(code) {
		done = true
		return
	}

	err = m.Execute(code[m.Pc])
	return
}

// Run executes code from address 0 until it halts, runs off the end of
// code, or faults. The stacks are left as they are.
func (m *Machine) Run(code []Instruction) (err error) {
	m.Pc = 0

	for {
		var done bool
		done, err = m.Tick(code)
		if done || err != nil {
			return
		}
	}
}

// pop pops the data stack.
func (m *Machine) pop() (value Value, err error) {
	value, ok := m.Stack.Pop()
	if !ok {
		err = ErrStackUnderflow
	}
	return
}

// push pushes onto the data stack.
func (m *Machine) push(value Value) (err error) {
	if !m.Stack.Push(value) {
		err = ErrStackOverflow
	}
	return
}

// peek reads the data stack depth slots below its top.
func (m *Machine) peek(depth int) (value Value, err error) {
	value, ok := m.Stack.Peek(depth)
	if !ok {
		err = ErrStackUnderflow
	}
	return
}

// truth converts a comparison into 1 or 0.
func truth(cond bool) Value {
	if cond {
		return 1
	}
	return 0
}

// Execute executes a single decoded instruction. On a fault the registers
// are left at their values at the moment of the fault, and pc still
// addresses the faulting instruction.
func (m *Machine) Execute(ins Instruction) (err error) {
	defer func() {
		if err != nil {
			err = &ErrMachine{Kind: err, Pc: m.Pc, Instruction: ins}
		}
	}()

	if m.Verbose {
		log.Printf("%04x: %v", m.Pc, ins)
	}

	next_pc := m.Pc + 1

	var value Value

	switch ins.Op {
	case OP_HALT, OP_NOOP:
		// pass
	case OP_LOAD:
		m.Acc = ins.Immediate()
	case OP_PUSH:
		err = m.push(m.Acc)
	case OP_POP:
		value, err = m.pop()
		if err == nil {
			m.Acc = value
		}
	case OP_DUP:
		value, err = m.peek(0)
		if err == nil {
			err = m.push(value)
		}
	case OP_SWAP:
		if !m.Stack.Swap() {
			err = ErrStackUnderflow
		}
	case OP_LDT:
		value, err = m.peek(0)
		if err == nil {
			m.Acc = value
		}
	case OP_OVER:
		value, err = m.peek(1)
		if err == nil {
			m.Acc = value
		}
	case OP_INC:
		m.Acc++
	case OP_DEC:
		m.Acc--
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV,
		OP_EQ, OP_NEQ, OP_LT, OP_LTE, OP_GT, OP_GTE:
		value, err = m.peek(0)
		if err != nil {
			return
		}
		// A zero divisor faults with the stack untouched.
		if ins.Op == OP_DIV && value == 0 {
			err = ErrDivisionByZero
			return
		}
		m.Stack.Pop()
		m.Acc, err = binary(ins.Op, m.Acc, value)
	case OP_INV:
		m.Acc = truth(m.Acc != 1)
	case OP_JMP:
		next_pc = ins.Address()
	case OP_JZ:
		if m.Acc == 0 {
			next_pc = ins.Address()
		}
	case OP_JNZ:
		if m.Acc != 0 {
			next_pc = ins.Address()
		}
	case OP_CALL:
		if !m.Calls.Push(m.Pc) {
			err = ErrCallStackOverflow
			return
		}
		next_pc = ins.Address()
	case OP_RET:
		ret, ok := m.Calls.Pop()
		if !ok {
			err = ErrCallStackUnderflow
			return
		}
		// Resume after the call instruction.
		next_pc = ret + 1
	default:
		err = ErrOpcodeInvalid
	}

	if err != nil {
		return
	}

	m.Pc = next_pc
	m.Ticks++

	return
}

// binary combines the accumulator (left operand) with a popped value.
func binary(op Op, acc Value, value Value) (result Value, err error) {
	switch op {
	case OP_ADD:
		result = acc + value
	case OP_SUB:
		result = acc - value
	case OP_MUL:
		result = acc * value
	case OP_DIV:
		if value == 0 {
			err = ErrDivisionByZero
			result = acc
			return
		}
		// MinInt32 / -1 wraps to MinInt32.
		result = acc / value
	case OP_EQ:
		result = truth(acc == value)
	case OP_NEQ:
		result = truth(acc != value)
	case OP_LT:
		result = truth(acc < value)
	case OP_LTE:
		result = truth(acc <= value)
	case OP_GT:
		result = truth(acc > value)
	case OP_GTE:
		result = truth(acc >= value)
	default:
		err = ErrOpcodeInvalid
		result = acc
	}

	return
}
