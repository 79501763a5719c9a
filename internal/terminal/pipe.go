package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kitbuilder587/ctxchat/internal/domain"
)

const maxLineSize = 1 << 20

type lineResult struct {
	line string
	err  error
}

// PipeReader reads lines from a non-interactive input. Interrupt signals are
// delivered through a channel so a blocked read can still be interrupted.
type PipeReader struct {
	out        io.Writer
	lines      chan lineResult
	interrupts <-chan os.Signal
	onClose    func()
	closeOnce  sync.Once
}

func NewPipe(in io.Reader, out io.Writer, interrupts <-chan os.Signal) *PipeReader {
	p := &PipeReader{
		out:        out,
		lines:      make(chan lineResult),
		interrupts: interrupts,
	}
	go p.pump(in)
	return p
}

// pump читает вход в отдельной горутине, ReadLine только выбирает из канала
func (p *PipeReader) pump(in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		p.lines <- lineResult{line: strings.TrimRight(scanner.Text(), "\r")}
	}

	if err := scanner.Err(); err != nil {
		p.lines <- lineResult{err: err}
	}
	close(p.lines)
}

func (p *PipeReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	if p.out != nil {
		fmt.Fprint(p.out, prompt)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.interrupts:
		return "", domain.ErrInterrupted
	case res, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

func (p *PipeReader) Close() error {
	p.closeOnce.Do(func() {
		if p.onClose != nil {
			p.onClose()
		}
	})
	return nil
}
