package console

import (
	"io"
)

// Pipe adapts an io.Reader and io.Writer into a Console. It serves
// redirected input and output, and deterministic tests: Poll consumes the
// next input byte when one is available, and ReadKey reports
// ErrInputClosed once the input is exhausted instead of blocking.
type Pipe struct {
	Input  io.Reader
	Output io.Writer

	pending  byte
	buffered bool
}

var _ Console = (*Pipe)(nil)

// Poll returns the next input byte without blocking.
func (p *Pipe) Poll() (key byte, ok bool) {
	if !p.buffered {
		var one [1]byte
		n, err := p.Input.Read(one[:])
		if n == 0 || err != nil {
			return
		}
		p.pending = one[0]
		p.buffered = true
	}

	key = p.pending
	ok = true
	p.buffered = false

	return
}

// ReadKey returns the next input byte, or ErrInputClosed at end of input.
func (p *Pipe) ReadKey() (key byte, err error) {
	key, ok := p.Poll()
	if !ok {
		err = ErrInputClosed
	}
	return
}

// WriteByte sends one character to the output.
func (p *Pipe) WriteByte(c byte) (err error) {
	_, err = p.Output.Write([]byte{c})
	return
}

// Write sends a character sequence to the output.
func (p *Pipe) Write(b []byte) (n int, err error) {
	return p.Output.Write(b)
}
