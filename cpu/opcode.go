package cpu

import (
	"fmt"
)

// Op is a 4-bit operation code, bits 15-12 of an instruction word.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_BR   = Op(0)  // BR
	OP_ADD  = Op(1)  // ADD
	OP_LD   = Op(2)  // LD
	OP_ST   = Op(3)  // ST
	OP_JSR  = Op(4)  // JSR
	OP_AND  = Op(5)  // AND
	OP_LDR  = Op(6)  // LDR
	OP_STR  = Op(7)  // STR
	OP_RTI  = Op(8)  // RTI
	OP_NOT  = Op(9)  // NOT
	OP_LDI  = Op(10) // LDI
	OP_STI  = Op(11) // STI
	OP_JMP  = Op(12) // JMP
	OP_RES  = Op(13) // RES
	OP_LEA  = Op(14) // LEA
	OP_TRAP = Op(15) // TRAP
)

// TrapVector is an 8-bit trap table index.
type TrapVector int

//go:generate go tool stringer -linecomment -type=TrapVector
const (
	TRAP_GETC  = TrapVector(0x20) // GETC
	TRAP_OUT   = TrapVector(0x21) // OUT
	TRAP_PUTS  = TrapVector(0x22) // PUTS
	TRAP_IN    = TrapVector(0x23) // IN
	TRAP_PUTSP = TrapVector(0x24) // PUTSP
	TRAP_HALT  = TrapVector(0x25) // HALT
)

// Flag is the condition flag state. Exactly one flag is set after any
// flag-defining instruction; the three bits together also encode the
// condition field of a BR instruction.
type Flag uint16

const (
	FLAG_POS = Flag(1 << 0)
	FLAG_ZRO = Flag(1 << 1)
	FLAG_NEG = Flag(1 << 2)

	FLAG_ANY = FLAG_NEG | FLAG_ZRO | FLAG_POS
)

// String returns the BR-style "nzp" spelling of the flag set.
func (fl Flag) String() (out string) {
	if fl&FLAG_NEG != 0 {
		out += "n"
	}
	if fl&FLAG_ZRO != 0 {
		out += "z"
	}
	if fl&FLAG_POS != 0 {
		out += "p"
	}
	return
}

// General-purpose register indexes.
const (
	R0 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
)

// Code is a single 16-bit instruction word.
type Code uint16

// signExtend widens the low bits of x to a 16-bit two's-complement value.
func signExtend(x uint16, bits uint) uint16 {
	if (x>>(bits-1))&1 != 0 {
		x |= 0xFFFF << bits
	}
	return x
}

// Op returns the operation code, bits 15-12.
func (code Code) Op() Op {
	return Op(code >> 12)
}

// DR returns the destination register field, bits 11-9. The same field
// holds the source register of ST/STI/STR.
func (code Code) DR() int {
	return int((code >> 9) & 0x7)
}

// SR1 returns the first source register field, bits 8-6. The same field
// holds the base register of JMP/JSRR/LDR/STR.
func (code Code) SR1() int {
	return int((code >> 6) & 0x7)
}

// SR2 returns the second source register field, bits 2-0.
func (code Code) SR2() int {
	return int(code & 0x7)
}

// ImmBit reports whether bit 5 selects the immediate form of ADD/AND.
func (code Code) ImmBit() bool {
	return (code>>5)&1 != 0
}

// LongBit reports whether bit 11 selects the PC-relative form of JSR.
func (code Code) LongBit() bool {
	return (code>>11)&1 != 0
}

// Imm5 returns the sign-extended 5-bit immediate.
func (code Code) Imm5() uint16 {
	return signExtend(uint16(code)&0x1F, 5)
}

// Offset6 returns the sign-extended 6-bit base offset.
func (code Code) Offset6() uint16 {
	return signExtend(uint16(code)&0x3F, 6)
}

// PCOffset9 returns the sign-extended 9-bit PC-relative offset.
func (code Code) PCOffset9() uint16 {
	return signExtend(uint16(code)&0x1FF, 9)
}

// PCOffset11 returns the sign-extended 11-bit PC-relative offset.
func (code Code) PCOffset11() uint16 {
	return signExtend(uint16(code)&0x7FF, 11)
}

// NZP returns the condition field of a BR instruction, bits 11-9. The bit
// layout matches the Flag encoding.
func (code Code) NZP() Flag {
	return Flag((code >> 9) & 0x7)
}

// Trap returns the trap vector, bits 7-0.
func (code Code) Trap() TrapVector {
	return TrapVector(code & 0xFF)
}

// MakeAdd encodes register-mode ADD.
func MakeAdd(dr, sr1, sr2 int) Code {
	return Code(uint16(OP_ADD)<<12 | uint16(dr&7)<<9 | uint16(sr1&7)<<6 | uint16(sr2&7))
}

// MakeAddImm encodes immediate-mode ADD.
func MakeAddImm(dr, sr1, imm5 int) Code {
	return Code(uint16(OP_ADD)<<12 | uint16(dr&7)<<9 | uint16(sr1&7)<<6 | 1<<5 | uint16(imm5)&0x1F)
}

// MakeAnd encodes register-mode AND.
func MakeAnd(dr, sr1, sr2 int) Code {
	return Code(uint16(OP_AND)<<12 | uint16(dr&7)<<9 | uint16(sr1&7)<<6 | uint16(sr2&7))
}

// MakeAndImm encodes immediate-mode AND.
func MakeAndImm(dr, sr1, imm5 int) Code {
	return Code(uint16(OP_AND)<<12 | uint16(dr&7)<<9 | uint16(sr1&7)<<6 | 1<<5 | uint16(imm5)&0x1F)
}

// MakeNot encodes NOT. Bits 5-0 are all ones per the reference encoding.
func MakeNot(dr, sr int) Code {
	return Code(uint16(OP_NOT)<<12 | uint16(dr&7)<<9 | uint16(sr&7)<<6 | 0x3F)
}

// MakeBr encodes BR with the given condition set.
func MakeBr(nzp Flag, pcoffset9 int) Code {
	return Code(uint16(OP_BR)<<12 | uint16(nzp&7)<<9 | uint16(pcoffset9)&0x1FF)
}

// MakeJmp encodes JMP through a base register.
func MakeJmp(base int) Code {
	return Code(uint16(OP_JMP)<<12 | uint16(base&7)<<6)
}

// MakeRet encodes RET, the JMP-through-r7 calling convention.
func MakeRet() Code {
	return MakeJmp(R7)
}

// MakeJsr encodes PC-relative JSR.
func MakeJsr(pcoffset11 int) Code {
	return Code(uint16(OP_JSR)<<12 | 1<<11 | uint16(pcoffset11)&0x7FF)
}

// MakeJsrr encodes register-mode JSRR.
func MakeJsrr(base int) Code {
	return Code(uint16(OP_JSR)<<12 | uint16(base&7)<<6)
}

// MakeLd encodes LD.
func MakeLd(dr, pcoffset9 int) Code {
	return Code(uint16(OP_LD)<<12 | uint16(dr&7)<<9 | uint16(pcoffset9)&0x1FF)
}

// MakeLdi encodes LDI.
func MakeLdi(dr, pcoffset9 int) Code {
	return Code(uint16(OP_LDI)<<12 | uint16(dr&7)<<9 | uint16(pcoffset9)&0x1FF)
}

// MakeLdr encodes LDR.
func MakeLdr(dr, base, offset6 int) Code {
	return Code(uint16(OP_LDR)<<12 | uint16(dr&7)<<9 | uint16(base&7)<<6 | uint16(offset6)&0x3F)
}

// MakeLea encodes LEA.
func MakeLea(dr, pcoffset9 int) Code {
	return Code(uint16(OP_LEA)<<12 | uint16(dr&7)<<9 | uint16(pcoffset9)&0x1FF)
}

// MakeSt encodes ST.
func MakeSt(sr, pcoffset9 int) Code {
	return Code(uint16(OP_ST)<<12 | uint16(sr&7)<<9 | uint16(pcoffset9)&0x1FF)
}

// MakeSti encodes STI.
func MakeSti(sr, pcoffset9 int) Code {
	return Code(uint16(OP_STI)<<12 | uint16(sr&7)<<9 | uint16(pcoffset9)&0x1FF)
}

// MakeStr encodes STR.
func MakeStr(sr, base, offset6 int) Code {
	return Code(uint16(OP_STR)<<12 | uint16(sr&7)<<9 | uint16(base&7)<<6 | uint16(offset6)&0x3F)
}

// MakeTrap encodes TRAP.
func MakeTrap(vector TrapVector) Code {
	return Code(uint16(OP_TRAP)<<12 | uint16(vector)&0xFF)
}

// String returns the assembly language representation of the word.
func (code Code) String() (out string) {
	signed := func(v uint16) int { return int(int16(v)) }

	switch code.Op() {
	case OP_ADD, OP_AND:
		if code.ImmBit() {
			out = fmt.Sprintf("%v r%d r%d #%d", code.Op(), code.DR(), code.SR1(), signed(code.Imm5()))
		} else {
			out = fmt.Sprintf("%v r%d r%d r%d", code.Op(), code.DR(), code.SR1(), code.SR2())
		}
	case OP_NOT:
		out = fmt.Sprintf("%v r%d r%d", code.Op(), code.DR(), code.SR1())
	case OP_BR:
		out = fmt.Sprintf("%v%v #%d", code.Op(), code.NZP(), signed(code.PCOffset9()))
	case OP_JMP:
		if code.SR1() == R7 {
			out = "RET"
		} else {
			out = fmt.Sprintf("%v r%d", code.Op(), code.SR1())
		}
	case OP_JSR:
		if code.LongBit() {
			out = fmt.Sprintf("%v #%d", code.Op(), signed(code.PCOffset11()))
		} else {
			out = fmt.Sprintf("JSRR r%d", code.SR1())
		}
	case OP_LD, OP_LDI, OP_LEA:
		out = fmt.Sprintf("%v r%d #%d", code.Op(), code.DR(), signed(code.PCOffset9()))
	case OP_LDR, OP_STR:
		out = fmt.Sprintf("%v r%d r%d #%d", code.Op(), code.DR(), code.SR1(), signed(code.Offset6()))
	case OP_ST, OP_STI:
		out = fmt.Sprintf("%v r%d #%d", code.Op(), code.DR(), signed(code.PCOffset9()))
	case OP_TRAP:
		out = fmt.Sprintf("%v %v", code.Op(), code.Trap())
	default:
		out = fmt.Sprintf("%v 0x%04x", code.Op(), uint16(code))
	}

	return
}
