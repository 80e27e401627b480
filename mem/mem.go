// Package mem implements the LC-3 memory: a flat 65536-word store with
// the two memory-mapped keyboard registers.
//
// All addresses are 16-bit, so addressing can never go out of bounds.
// Reads of the keyboard status register poll the attached keyboard for a
// pending key; reads of the keyboard data register clear the ready bit.
// Every other address is plain storage.
package mem

import (
	"fmt"
	"iter"
	"maps"
)

// Size is the number of addressable words.
const Size = 1 << 16

// Memory layout.
const (
	TrapVectorTableStart      = 0x0000
	InterruptVectorTableStart = 0x0100
	SystemSpaceStart          = 0x0200
	UserSpaceStart            = 0x3000
	DeviceRegisterStart       = 0xFE00
)

// Memory-mapped keyboard register addresses.
const (
	KBSR = DeviceRegisterStart          // keyboard status register
	KBDR = DeviceRegisterStart + 0x0002 // keyboard data register
)

// KeyReady is the KBSR bit indicating a key press is available.
const KeyReady = uint16(1 << 15)

var _mem_defines = map[string]string{
	"KBSR":       fmt.Sprintf("0x%04x", uint16(KBSR)),
	"KBDR":       fmt.Sprintf("0x%04x", uint16(KBDR)),
	"USER_SPACE": fmt.Sprintf("0x%04x", uint16(UserSpaceStart)),
}

// Keyboard is the non-blocking input source behind the keyboard registers.
type Keyboard interface {
	// Poll returns a pending key press without blocking.
	Poll() (key byte, ok bool)
}

// Memory is a 64K word store. The zero value is ready to use.
type Memory struct {
	Keyboard Keyboard // Keyboard device; nil reads KBSR as never ready.

	words [Size]uint16
}

// Defines for the memory layout.
func (m *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(_mem_defines)
}

// Read returns the word at addr.
// Reading KBSR refreshes the ready bit from the keyboard; reading KBDR
// returns the buffered key and clears the ready bit.
func (m *Memory) Read(addr uint16) (value uint16) {
	switch addr {
	case KBSR:
		m.pollKeyboard()
	case KBDR:
		m.words[KBSR] &^= KeyReady
	}

	return m.words[addr]
}

// Write stores value at addr unconditionally. Writes to the keyboard
// registers land in the backing store like any other address; the next
// poll overwrites them.
func (m *Memory) Write(addr, value uint16) {
	m.words[addr] = value
}

// pollKeyboard latches the next pending key into KBDR and sets the ready
// bit. A key already latched stays latched until KBDR is read.
func (m *Memory) pollKeyboard() {
	if m.words[KBSR]&KeyReady != 0 {
		return
	}
	if m.Keyboard == nil {
		return
	}

	key, ok := m.Keyboard.Poll()
	if !ok {
		return
	}

	m.words[KBSR] |= KeyReady
	m.words[KBDR] = uint16(key)
}

// Reset zeroes the store.
func (m *Memory) Reset() {
	clear(m.words[:])
}
