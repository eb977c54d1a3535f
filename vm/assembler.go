// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Opcode records the source line an instruction was assembled from.
type Opcode struct {
	LineNo int            // Line number of the instruction.
	Ip     ProgramAddress // Address of the instruction.
	Words  []string       // Words of the line, after equate expansion.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// opMap maps mnemonics to opcodes.
var opMap = func() map[string]Op {
	ops := make(map[string]Op, int(OP_COUNT))
	for op := range OP_COUNT {
		ops[op.String()] = op
	}
	return ops
}()

var (
	labelRe = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
	parenRe = regexp.MustCompile(`\$\([^\$]*\)`)
)

// fixup is an instruction slot waiting for a label address.
type fixup struct {
	slot   ProgramAddress
	lineNo int
	line   string
}

// symbol is a label known to the assembler, defined or not.
type symbol struct {
	name    string
	address ProgramAddress
	defined bool
	fixups  []fixup
}

// Assembler is a line oriented assembler for the maf machine.
// Labels may be referenced before they are defined; such references are
// patched once the whole source has been read.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // Listing of the generated instructions.

	predefine map[string]string         // Predefines
	Label     map[string]ProgramAddress // Map of labels to addresses, after linking.
	Equate    map[string]string         // Map of equates.

	symbol map[string]*symbol
	order  []*symbol // Symbols in order of first appearance.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Assemble assembles source into code, and returns the instruction count.
func Assemble(source string, code []Instruction) (count int, err error) {
	asm := &Assembler{}
	return asm.Parse(strings.NewReader(source), code)
}

// currentIp gets the address of the next instruction.
func (asm *Assembler) currentIp() ProgramAddress {
	return ProgramAddress(len(asm.Opcode))
}

// Parse assembles an input stream into code, and returns the number of
// instructions written. code is only valid for execution if err is nil.
func (asm *Assembler) Parse(input io.Reader, code []Instruction) (count int, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err == nil {
			return
		}
		count = 0
		var se *ErrSyntax
		if !errors.As(err, &se) {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Opcode = asm.Opcode[:0]
	asm.Label = make(map[string]ProgramAddress)
	asm.symbol = make(map[string]*symbol)
	asm.order = asm.order[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno, line, code)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	err = asm.link(code)
	if err != nil {
		return
	}

	count = len(asm.Opcode)

	return
}

// link patches every pending fixup with the address of its label.
func (asm *Assembler) link(code []Instruction) (err error) {
	for _, sym := range asm.order {
		if !sym.defined {
			if len(sym.fixups) == 0 {
				continue
			}
			fix := sym.fixups[0]
			err = &ErrSyntax{LineNo: fix.lineNo, Line: fix.line, Err: ErrLabelMissing(sym.name)}
			return
		}
		for _, fix := range sym.fixups {
			patched, ok := code[fix.slot].WithAddress(sym.address)
			if !ok {
				err = &ErrSyntax{LineNo: fix.lineNo, Line: fix.line, Err: ErrUnsupportedFixupTarget}
				return
			}
			code[fix.slot] = patched
		}
		if asm.Verbose && len(sym.fixups) > 0 {
			log.Printf("link: %v = %d (%d fixups)", sym.name, sym.address, len(sym.fixups))
		}
		asm.Label[sym.name] = sym.address
	}

	return
}

// lookup returns the symbol for a label, creating it if needed.
func (asm *Assembler) lookup(name string) (sym *symbol) {
	sym, ok := asm.symbol[name]
	if !ok {
		sym = &symbol{name: name}
		asm.symbol[name] = sym
		asm.order = append(asm.order, sym)
	}
	return
}

// defineLabel binds a label to the address of the next instruction.
func (asm *Assembler) defineLabel(name string) (err error) {
	if !labelRe.MatchString(name) {
		err = ErrLabelInvalid
		return
	}

	sym := asm.lookup(name)
	if sym.defined {
		err = ErrLabelDuplicate
		return
	}

	sym.defined = true
	sym.address = asm.currentIp()
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 10, 64)
		if perr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine expands a single line, handles .equ and label definitions, and
// returns the words of the instruction, if any.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			if err == nil {
				err = _err
			}
			return str
		}
		return strconv.FormatInt(value, 10)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		err = asm.defineLabel(strings.TrimSuffix(words[0], ":"))
		if err != nil {
			return
		}
		words = words[1:]
	}

	// Only operands are substituted; mnemonics are never equates.
	if len(words) > 1 {
		for n, word := range words[1:] {
			equate, ok := asm.Equate[word]
			if ok {
				words[n+1] = equate
			}
		}
	}

	return
}

// parseImmediate parses the signed decimal operand of a load.
func parseImmediate(word string) (imm Immediate, err error) {
	v64, err := strconv.ParseInt(word, 10, 16)
	if err != nil {
		err = ErrInvalidNumber(word)
		return
	}
	imm = Immediate(v64)
	return
}

// parseAddress parses an absolute address, or an @label reference.
// Unresolved labels register slot as a fixup, and yield address 0.
func (asm *Assembler) parseAddress(word string, slot ProgramAddress, lineno int, line string) (addr ProgramAddress, err error) {
	label, is_label := strings.CutPrefix(word, "@")
	if !is_label {
		var v64 uint64
		v64, err = strconv.ParseUint(word, 10, 16)
		if err != nil {
			err = ErrInvalidNumber(word)
			return
		}
		addr = ProgramAddress(v64)
		return
	}

	if !labelRe.MatchString(label) {
		err = ErrLabelInvalid
		return
	}

	sym := asm.lookup(label)
	if sym.defined {
		addr = sym.address
		return
	}

	sym.fixups = append(sym.fixups, fixup{slot: slot, lineNo: lineno, line: line})
	return
}

// parseWords assembles the words of a line into one instruction.
func (asm *Assembler) parseWords(words []string, lineno int, line string, code []Instruction) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	op, ok := opMap[words[0]]
	if !ok {
		err = ErrUnknownInstruction(words[0])
		return
	}

	ip := asm.currentIp()
	if int(ip) >= len(code) || int(ip) >= ADDRESS_LIMIT {
		err = ErrCodeTooBig
		return
	}

	args := words[1:]
	if len(args) != op.Arity() {
		err = ErrWrongArity{Expected: op.Arity(), Got: len(args)}
		return
	}

	var ins Instruction
	switch op.Operand() {
	case OPERAND_IMMEDIATE:
		var imm Immediate
		imm, err = parseImmediate(args[0])
		if err != nil {
			return
		}
		ins = MakeLoad(imm)
	case OPERAND_ADDRESS:
		var addr ProgramAddress
		addr, err = asm.parseAddress(args[0], ip, lineno, line)
		if err != nil {
			return
		}
		ins = MakeJump(op, addr)
	default:
		ins = MakeCode(op)
	}

	code[ip] = ins
	asm.Opcode = append(asm.Opcode, Opcode{LineNo: lineno, Ip: ip, Words: words})

	if asm.Verbose {
		log.Printf("%04x: %v", ip, ins)
	}

	return
}

// String returns the listing line of an opcode.
func (op Opcode) String() string {
	return fmt.Sprintf("%04d %5d: %v", op.Ip, op.LineNo, strings.Join(op.Words, " "))
}
