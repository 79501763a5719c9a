package terminal

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var spinnerFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

type Spinner struct {
	w        io.Writer
	frames   []rune
	interval time.Duration
	message  string
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		frames:   spinnerFrames,
		interval: 120 * time.Millisecond,
		message:  message,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		defer close(s.doneCh)

		frame := 0
		for {
			select {
			case <-s.stopCh:
				s.clearLine()
				return
			case <-ticker.C:
				fmt.Fprintf(s.w, "\r%c %s", s.frames[frame], s.message)
				frame = (frame + 1) % len(s.frames)
			}
		}
	}()
}

// Stop blocks until the line is cleared, so nothing else writes over it.
func (s *Spinner) Stop() {
	select {
	case <-s.stopCh:
		return
	default:
		close(s.stopCh)
	}
	<-s.doneCh
}

func (s *Spinner) clearLine() {
	clearLen := len([]rune(s.message)) + 2
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", clearLen))
}

// Progress returns a wait indicator for the chat service. When tty is false
// nothing is drawn.
func Progress(message string, tty bool) func(w io.Writer) func() {
	return func(w io.Writer) func() {
		if !tty {
			return func() {}
		}
		s := NewSpinner(w, message)
		s.Start()
		return s.Stop
	}
}
