package terminal

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/term"
)

// Reader reads one line of input. ReadLine returns domain.ErrInterrupted on
// Ctrl-C and io.EOF at end of input.
type Reader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
	Close() error
}

type Config struct {
	HistoryFile string
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// New picks a line-editing reader on a terminal and a plain line reader for
// pipes and redirected input.
func New(cfg Config) (Reader, error) {
	// Ctrl-C вне чтения строки не должен убивать процесс
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	if IsTerminal(os.Stdin) && IsTerminal(os.Stdout) {
		r, err := NewReadline(cfg)
		if err != nil {
			signal.Stop(interrupts)
			return nil, err
		}
		r.interrupts = interrupts
		r.onClose = func() { signal.Stop(interrupts) }
		return r, nil
	}

	p := NewPipe(os.Stdin, os.Stdout, interrupts)
	p.onClose = func() { signal.Stop(interrupts) }
	return p, nil
}
