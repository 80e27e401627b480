package console

import (
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal is an interactive Console over the process terminal. A reader
// goroutine feeds key presses into a one-deep buffer so that Poll never
// blocks while ReadKey suspends the caller until a key arrives.
//
// Raw switches the input into non-canonical no-echo mode; Restore puts the
// saved configuration back. Both are no-ops when the input is not a
// terminal, so redirected input keeps working.
type Terminal struct {
	In  *os.File
	Out *os.File

	origConfig unix.Termios
	rawMode    bool
	keys       chan byte
}

var _ Console = (*Terminal)(nil)

// NewTerminal creates a Terminal over stdin and stdout.
func NewTerminal() (t *Terminal) {
	return &Terminal{
		In:   os.Stdin,
		Out:  os.Stdout,
		keys: make(chan byte, 1),
	}
}

// Start launches the keyboard reader goroutine.
func (t *Terminal) Start() {
	go func() {
		defer close(t.keys)
		for {
			var one [1]byte
			n, err := t.In.Read(one[:])
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			t.keys <- one[0]
		}
	}()
}

// Raw configures the input terminal in non-canonical mode without echo.
func (t *Terminal) Raw() (err error) {
	if !term.IsTerminal(int(t.In.Fd())) {
		return
	}

	err = termios.Tcgetattr(t.In.Fd(), &t.origConfig)
	if err != nil {
		return
	}

	newConfig := t.origConfig
	newConfig.Lflag &^= unix.ICANON | unix.ECHO
	err = termios.Tcsetattr(t.In.Fd(), termios.TCSANOW, &newConfig)
	if err != nil {
		return
	}

	t.rawMode = true

	return
}

// Restore puts back the terminal configuration saved by Raw.
func (t *Terminal) Restore() (err error) {
	if !t.rawMode {
		return
	}

	t.rawMode = false

	return termios.Tcsetattr(t.In.Fd(), termios.TCSANOW, &t.origConfig)
}

// Poll returns a pending key press without blocking.
func (t *Terminal) Poll() (key byte, ok bool) {
	select {
	case key, ok = <-t.keys:
	default:
	}
	return
}

// ReadKey blocks until one key press arrives.
func (t *Terminal) ReadKey() (key byte, err error) {
	key, ok := <-t.keys
	if !ok {
		err = ErrInputClosed
	}
	return
}

// WriteByte sends one character to the display.
func (t *Terminal) WriteByte(c byte) (err error) {
	_, err = t.Out.Write([]byte{c})
	return
}

// Write sends a character sequence to the display.
func (t *Terminal) Write(p []byte) (n int, err error) {
	return t.Out.Write(p)
}
