// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/lc3/mem"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass assembler for LC-3 assembly, with a final
// link pass for label references.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to absolute addresses.
	Equate    map[string]string // Map of equates.

	origin int
	ended  bool
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// register parses a register operand r0-r7.
func (asm *Assembler) register(word string) (reg int, err error) {
	up := strings.ToUpper(word)
	if len(up) == 2 && up[0] == 'R' && up[1] >= '0' && up[1] <= '7' {
		reg = int(up[1] - '0')
		return
	}

	err = ErrRegisterInvalid

	return
}

// valueOf returns the value of a literal: #10 decimal, x1F hex, or any
// strconv base-0 form.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	switch {
	case strings.HasPrefix(word, "#"):
		value, err = strconv.ParseInt(word[1:], 10, 32)
	case len(word) > 1 && (word[0] == 'x' || word[0] == 'X'):
		value, err = strconv.ParseInt(word[1:], 16, 32)
	default:
		value, err = strconv.ParseInt(word, 0, 32)
	}
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// signedField range-checks value as a signed width-bit field and returns
// the masked encoding.
func (asm *Assembler) signedField(value int64, width uint) (field int, err error) {
	limit := int64(1) << (width - 1)
	if value < -limit || value >= limit {
		err = ErrOffsetRange
		return
	}

	field = int(value) & ((1 << width) - 1)

	return
}

// parenEval does compile-time $(...) evaluations.
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value64, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = st_int64
	return
}

// stripComment removes a ';' comment, ignoring ';' inside string quotes.
func stripComment(text string) string {
	inQuote := false
	for n, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ';' && !inQuote:
			return text[:n]
		}
	}

	return text
}

// fields splits a line on blanks and commas, keeping quoted strings as
// single tokens.
func fields(line string) (words []string) {
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == ','):
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}

	return
}

// currentAddr gets the address of the next generated word.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return asm.origin
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Codes)
}

// parseLine expands one source line into operand tokens, recording any
// leading labels.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "0":
				str = "\x00"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("#%d", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("#%d", value)
	})
	if err != nil {
		return
	}

	words = fields(line)

	if len(words) == 0 {
		return
	}

	// .EQU CONST VALUE
	if strings.EqualFold(words[0], ".EQU") {
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

	for n, word := range words {
		if strings.HasPrefix(word, "\"") {
			continue
		}

		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}
		if asm.origin < 0 {
			err = ErrOriginMissing
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.origin = -1
	asm.ended = false
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() && !asm.ended {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if asm.origin < 0 {
		err = ErrOriginMissing
		return
	}

	// Final linking of label references.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		addr, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}

		linked := &op.Codes[len(op.Codes)-1]
		if op.LinkWidth == 16 {
			*linked = uint16(addr)
			continue
		}

		var field int
		delta := int64(addr - (op.Addr + len(op.Codes)))
		field, err = asm.signedField(delta, uint(op.LinkWidth))
		if err != nil {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			return
		}
		*linked |= uint16(field)
	}

	prog = &Program{
		Origin:  uint16(asm.origin),
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// trapMap maps trap alias opcodes to vectors.
var trapMap = map[string]TrapVector{
	"GETC":  TRAP_GETC,
	"OUT":   TRAP_OUT,
	"PUTS":  TRAP_PUTS,
	"IN":    TRAP_IN,
	"PUTSP": TRAP_PUTSP,
	"HALT":  TRAP_HALT,
}

// operandCount checks the exact operand count for an opcode.
func operandCount(words []string, count int) (err error) {
	switch {
	case len(words) < count+1:
		err = ErrOpcodeMissing
	case len(words) > count+1:
		err = ErrOpcodeExtraArgs
	}

	return
}

// pcRelative encodes a label or literal PC-relative operand. A label
// defers to the link pass; a literal is range-checked here.
func (asm *Assembler) pcRelative(word string, width uint) (field int, label string, err error) {
	value, verr := asm.valueOf(word)
	if verr == nil {
		field, err = asm.signedField(value, width)
		return
	}

	label = word

	return
}

// regOrImm5 encodes the third operand of ADD/AND.
func (asm *Assembler) regOrImm5(word string) (field int, imm bool, err error) {
	field, err = asm.register(word)
	if err == nil {
		return
	}

	imm = true
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if value < -16 || value > 15 {
		err = ErrImmediateRange
		return
	}
	field = int(value)

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint16
	var label string
	var width int

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		if asm.origin < 0 {
			err = ErrOriginMissing
			return
		}
		opcode := Opcode{
			LineNo:    lineno,
			Addr:      asm.currentAddr(),
			Words:     initial_words,
			Codes:     codes,
			LinkLabel: label,
			LinkWidth: width,
		}
		if opcode.Addr+len(codes) > mem.Size {
			err = ErrAddressRange
			return
		}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	op := strings.ToUpper(words[0])

	switch op {
	case ".ORIG":
		if err = operandCount(words, 1); err != nil {
			return
		}
		if asm.origin >= 0 {
			err = ErrOriginDuplicate
			return
		}
		var value int64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value < 0 || value >= mem.Size {
			err = ErrAddressRange
			return
		}
		asm.origin = int(value)

	case ".END":
		asm.ended = true

	case ".FILL":
		if err = operandCount(words, 1); err != nil {
			return
		}
		value, verr := asm.valueOf(words[1])
		if verr == nil {
			if value < -(1<<15) || value >= (1<<16) {
				err = ErrImmediateRange
				return
			}
			codes = append(codes, uint16(value))
		} else {
			// Absolute label reference.
			codes = append(codes, 0)
			label = words[1]
			width = 16
		}

	case ".BLKW":
		if err = operandCount(words, 1); err != nil {
			return
		}
		var value int64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value < 1 || value >= mem.Size {
			err = ErrAddressRange
			return
		}
		codes = append(codes, make([]uint16, value)...)

	case ".STRINGZ":
		if err = operandCount(words, 1); err != nil {
			return
		}
		str, uerr := strconv.Unquote(words[1])
		if uerr != nil {
			err = ErrStringSyntax
			return
		}
		for _, c := range []byte(str) {
			codes = append(codes, uint16(c))
		}
		codes = append(codes, 0)

	case "ADD", "AND":
		if err = operandCount(words, 3); err != nil {
			return
		}
		var dr, sr1, arg int
		var imm bool
		if dr, err = asm.register(words[1]); err != nil {
			return
		}
		if sr1, err = asm.register(words[2]); err != nil {
			return
		}
		if arg, imm, err = asm.regOrImm5(words[3]); err != nil {
			return
		}
		switch {
		case op == "ADD" && imm:
			codes = append(codes, uint16(MakeAddImm(dr, sr1, arg)))
		case op == "ADD":
			codes = append(codes, uint16(MakeAdd(dr, sr1, arg)))
		case imm:
			codes = append(codes, uint16(MakeAndImm(dr, sr1, arg)))
		default:
			codes = append(codes, uint16(MakeAnd(dr, sr1, arg)))
		}

	case "NOT":
		if err = operandCount(words, 2); err != nil {
			return
		}
		var dr, sr int
		if dr, err = asm.register(words[1]); err != nil {
			return
		}
		if sr, err = asm.register(words[2]); err != nil {
			return
		}
		codes = append(codes, uint16(MakeNot(dr, sr)))

	case "JMP":
		if err = operandCount(words, 1); err != nil {
			return
		}
		var base int
		if base, err = asm.register(words[1]); err != nil {
			return
		}
		codes = append(codes, uint16(MakeJmp(base)))

	case "RET":
		if err = operandCount(words, 0); err != nil {
			return
		}
		codes = append(codes, uint16(MakeRet()))

	case "JSR":
		if err = operandCount(words, 1); err != nil {
			return
		}
		var field int
		if field, label, err = asm.pcRelative(words[1], 11); err != nil {
			return
		}
		width = 11
		codes = append(codes, uint16(MakeJsr(field)))

	case "JSRR":
		if err = operandCount(words, 1); err != nil {
			return
		}
		var base int
		if base, err = asm.register(words[1]); err != nil {
			return
		}
		codes = append(codes, uint16(MakeJsrr(base)))

	case "LD", "LDI", "LEA", "ST", "STI":
		if err = operandCount(words, 2); err != nil {
			return
		}
		var reg, field int
		if reg, err = asm.register(words[1]); err != nil {
			return
		}
		if field, label, err = asm.pcRelative(words[2], 9); err != nil {
			return
		}
		width = 9
		switch op {
		case "LD":
			codes = append(codes, uint16(MakeLd(reg, field)))
		case "LDI":
			codes = append(codes, uint16(MakeLdi(reg, field)))
		case "LEA":
			codes = append(codes, uint16(MakeLea(reg, field)))
		case "ST":
			codes = append(codes, uint16(MakeSt(reg, field)))
		case "STI":
			codes = append(codes, uint16(MakeSti(reg, field)))
		}

	case "LDR", "STR":
		if err = operandCount(words, 3); err != nil {
			return
		}
		var reg, base, field int
		if reg, err = asm.register(words[1]); err != nil {
			return
		}
		if base, err = asm.register(words[2]); err != nil {
			return
		}
		var value int64
		if value, err = asm.valueOf(words[3]); err != nil {
			return
		}
		if field, err = asm.signedField(value, 6); err != nil {
			return
		}
		if op == "LDR" {
			codes = append(codes, uint16(MakeLdr(reg, base, field)))
		} else {
			codes = append(codes, uint16(MakeStr(reg, base, field)))
		}

	case "TRAP":
		if err = operandCount(words, 1); err != nil {
			return
		}
		var value int64
		if value, err = asm.valueOf(words[1]); err != nil {
			return
		}
		if value < 0 || value > 0xFF {
			err = ErrVectorRange
			return
		}
		codes = append(codes, uint16(MakeTrap(TrapVector(value))))

	case "RTI":
		// Encodable, not executable on this machine.
		if err = operandCount(words, 0); err != nil {
			return
		}
		codes = append(codes, uint16(OP_RTI)<<12)

	default:
		vector, isTrap := trapMap[op]
		if isTrap {
			if err = operandCount(words, 0); err != nil {
				return
			}
			codes = append(codes, uint16(MakeTrap(vector)))
			return
		}

		if strings.HasPrefix(op, "BR") {
			nzp := Flag(0)
			for _, c := range op[2:] {
				switch c {
				case 'N':
					nzp |= FLAG_NEG
				case 'Z':
					nzp |= FLAG_ZRO
				case 'P':
					nzp |= FLAG_POS
				default:
					err = ErrOpcodeInvalid
					return
				}
			}
			if nzp == 0 {
				nzp = FLAG_ANY
			}
			if err = operandCount(words, 1); err != nil {
				return
			}
			var field int
			if field, label, err = asm.pcRelative(words[1], 9); err != nil {
				return
			}
			width = 9
			codes = append(codes, uint16(MakeBr(nzp, field)))
			return
		}

		err = ErrOpcodeInvalid
	}

	return
}
