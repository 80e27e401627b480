// Package console provides the console I/O collaborator for the LC-3
// emulator. A Console supplies both input styles the machine needs:
// non-blocking polling for the memory-mapped keyboard registers, and
// blocking single-character reads for the GETC and IN traps. Output is a
// plain byte stream.
//
// Two implementations are provided: Terminal for an interactive raw-mode
// terminal, and Pipe for redirected or in-memory streams.
package console

// Console is the I/O boundary between the machine and the outside world.
type Console interface {
	// Poll returns a pending key press without blocking.
	Poll() (key byte, ok bool)
	// ReadKey blocks until one key press arrives.
	ReadKey() (key byte, err error)
	// WriteByte sends one character to the display.
	WriteByte(c byte) error
	// Write sends a character sequence to the display.
	Write(p []byte) (n int, err error)
}
