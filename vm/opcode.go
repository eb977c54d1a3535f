package vm

import (
	"fmt"
)

// ProgramAddress is an index into the instruction buffer.
type ProgramAddress uint16

// Value is the type of the accumulator and of every data stack slot.
type Value int32

// Immediate is the signed operand of a load.
type Immediate int16

const (
	STACK_SIZE     = 16000  // Data stack capacity, in values.
	CALLSTACK_SIZE = 100    // Call stack capacity, in return addresses.
	ADDRESS_LIMIT  = 0xffff // Maximum program length; pc 0xffff is never inside code.
	CODE_SIZE      = 128000 // Default instruction buffer size.
)

// Op is an instruction operation code.
type Op uint8

const (
	OP_HALT  = Op(0)  // halt
	OP_NOOP  = Op(1)  // noop
	OP_LOAD  = Op(2)  // load
	OP_PUSH  = Op(3)  // push
	OP_POP   = Op(4)  // pop
	OP_DUP   = Op(5)  // dup
	OP_SWAP  = Op(6)  // swap
	OP_LDT   = Op(7)  // ldt
	OP_OVER  = Op(8)  // over
	OP_INC   = Op(9)  // inc
	OP_DEC   = Op(10) // dec
	OP_ADD   = Op(11) // add
	OP_SUB   = Op(12) // sub
	OP_MUL   = Op(13) // mul
	OP_DIV   = Op(14) // div
	OP_EQ    = Op(15) // eq
	OP_NEQ   = Op(16) // neq
	OP_LT    = Op(17) // lt
	OP_LTE   = Op(18) // lte
	OP_GT    = Op(19) // gt
	OP_GTE   = Op(20) // gte
	OP_INV   = Op(21) // inv
	OP_JMP   = Op(22) // jmp
	OP_JZ    = Op(23) // jz
	OP_JNZ   = Op(24) // jnz
	OP_CALL  = Op(25) // call
	OP_RET   = Op(26) // ret
	OP_COUNT = Op(27) // Number of defined opcodes.
)

// opName holds the assembly mnemonic of each opcode.
var opName = [OP_COUNT]string{
	OP_HALT: "halt",
	OP_NOOP: "noop",
	OP_LOAD: "load",
	OP_PUSH: "push",
	OP_POP:  "pop",
	OP_DUP:  "dup",
	OP_SWAP: "swap",
	OP_LDT:  "ldt",
	OP_OVER: "over",
	OP_INC:  "inc",
	OP_DEC:  "dec",
	OP_ADD:  "add",
	OP_SUB:  "sub",
	OP_MUL:  "mul",
	OP_DIV:  "div",
	OP_EQ:   "eq",
	OP_NEQ:  "neq",
	OP_LT:   "lt",
	OP_LTE:  "lte",
	OP_GT:   "gt",
	OP_GTE:  "gte",
	OP_INV:  "inv",
	OP_JMP:  "jmp",
	OP_JZ:   "jz",
	OP_JNZ:  "jnz",
	OP_CALL: "call",
	OP_RET:  "ret",
}

// Valid returns true if the opcode is part of the instruction set.
func (op Op) Valid() bool {
	return op < OP_COUNT
}

// String returns the assembly mnemonic of the opcode.
func (op Op) String() string {
	if !op.Valid() {
		return fmt.Sprintf("op(%d)", uint8(op))
	}
	return opName[op]
}

// OperandKind is the kind of payload an opcode carries.
type OperandKind int

const (
	OPERAND_NONE      = OperandKind(0) // No operand.
	OPERAND_IMMEDIATE = OperandKind(1) // 16-bit signed immediate.
	OPERAND_ADDRESS   = OperandKind(2) // 16-bit program address.
)

// Operand returns the kind of operand carried by the opcode.
func (op Op) Operand() OperandKind {
	switch op {
	case OP_LOAD:
		return OPERAND_IMMEDIATE
	case OP_JMP, OP_JZ, OP_JNZ, OP_CALL:
		return OPERAND_ADDRESS
	}
	return OPERAND_NONE
}

// Arity returns the number of operand words the opcode takes in assembly text.
func (op Op) Arity() int {
	if op.Operand() == OPERAND_NONE {
		return 0
	}
	return 1
}

// Instruction is a decoded machine instruction. Only OP_LOAD and the
// address-bearing opcodes use the Operand field.
type Instruction struct {
	Op      Op
	Operand uint16
}

// MakeCode creates an instruction that carries no operand.
func MakeCode(op Op) Instruction {
	return Instruction{Op: op}
}

// MakeLoad creates a load immediate instruction.
func MakeLoad(imm Immediate) Instruction {
	return Instruction{Op: OP_LOAD, Operand: uint16(imm)}
}

// MakeJump creates an address-bearing instruction (jmp, jz, jnz or call).
func MakeJump(op Op, addr ProgramAddress) Instruction {
	return Instruction{Op: op, Operand: uint16(addr)}
}

// Immediate returns the sign-extended immediate of a load.
func (ins Instruction) Immediate() Value {
	return Value(Immediate(ins.Operand))
}

// Address returns the target address of a jump or call.
func (ins Instruction) Address() ProgramAddress {
	return ProgramAddress(ins.Operand)
}

// WithAddress returns the instruction with its target replaced by addr,
// keeping the opcode. It fails if the opcode carries no address.
func (ins Instruction) WithAddress(addr ProgramAddress) (patched Instruction, ok bool) {
	if ins.Op.Operand() != OPERAND_ADDRESS {
		return
	}
	patched = Instruction{Op: ins.Op, Operand: uint16(addr)}
	ok = true
	return
}

// String returns the assembly language representation of this instruction.
func (ins Instruction) String() (out string) {
	switch ins.Op.Operand() {
	case OPERAND_IMMEDIATE:
		out = fmt.Sprintf("%v %d", ins.Op, ins.Immediate())
	case OPERAND_ADDRESS:
		out = fmt.Sprintf("%v %d", ins.Op, ins.Address())
	default:
		out = ins.Op.String()
	}
	return
}
