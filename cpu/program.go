package cpu

import (
	"encoding/binary"
	"iter"
)

// Opcode represents a line of assembled source with its location and
// generated words.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      int      // Absolute address of the first word.
	Words     []string // Source tokens.
	Codes     []uint16 // Assembled words.
	LinkLabel string   // Label to resolve during the final link pass.
	LinkWidth int      // Link field width: 9 or 11 bit PC offset, 16 bit absolute.
}

// Program is an assembled listing with its load origin.
type Program struct {
	Origin  uint16
	Opcodes []Opcode
}

// Debug locates the opcode covering an address.
type Debug struct {
	*Opcode
	Index int
}

func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if pc >= uint16(op.Addr) && pc < uint16(op.Addr)+uint16(len(op.Codes)) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc - uint16(op.Addr)),
			}
			break
		}
	}

	return
}

// LineNo returns the source line covering an address, or 0.
func (prog *Program) LineNo(pc uint16) (lineno int) {
	dbg := prog.Debug(pc)
	if dbg.Opcode != nil {
		lineno = dbg.LineNo
	}

	return
}

// Words iterates over the assembled (address, word) pairs in load order.
func (prog *Program) Words() iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, word uint16) bool) {
		for _, op := range prog.Opcodes {
			addr := uint16(op.Addr)
			for n, word := range op.Codes {
				if !yield(addr+uint16(n), word) {
					return
				}
			}
		}
	}
}

// Image serializes the program to the big-endian object format the
// loader consumes: one origin word followed by the program words.
func (prog *Program) Image() (image []byte) {
	image = binary.BigEndian.AppendUint16(image, prog.Origin)
	for _, word := range prog.Words() {
		image = binary.BigEndian.AppendUint16(image, word)
	}

	return
}
