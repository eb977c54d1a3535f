// Package vm implements the maf stack machine and its assembler.
//
// The machine has a program counter (pc), a 32-bit accumulator (acc), a data
// stack of STACK_SIZE values and a call stack of CALLSTACK_SIZE return
// addresses. Every instruction combines the accumulator with the top of the
// data stack, or transfers control.
//
// The assembler translates one instruction per line of text into a caller
// supplied instruction buffer, resolving @label references on a final
// linking pass. Equates and $(...) compile-time expressions are supported.
package vm
