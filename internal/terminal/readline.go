package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chzyer/readline"

	"github.com/kitbuilder587/ctxchat/internal/domain"
)

// Commands - автодополнение по Tab
var Commands = []string{":help", ":history", ":reset", ":save", ":load", ":max", ":quit", ":exit"}

type ReadlineReader struct {
	rl *readline.Instance
	// stdin закрываем сами: rl.Close не прерывает заблокированное чтение
	stdin io.Closer
	// сигналы, пришедшие пока ждали ответа модели
	interrupts <-chan os.Signal
	onClose    func()
	closeOnce  sync.Once
	closeErr   error
}

func NewReadline(cfg Config) (*ReadlineReader, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(Commands))
	for _, c := range Commands {
		items = append(items, readline.PcItem(c))
	}

	stdin := readline.NewCancelableStdin(os.Stdin)
	return newReadline(stdin, &readline.Config{
		Stdin:             stdin,
		HistoryFile:       cfg.HistoryFile,
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

func newReadline(stdin io.Closer, rlCfg *readline.Config) (*ReadlineReader, error) {
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("init readline: %w", err)
	}
	return &ReadlineReader{rl: rl, stdin: stdin}, nil
}

// ReadLine blocks until a line is entered. Cancelling ctx closes the input,
// so after that every call returns ctx.Err().
func (r *ReadlineReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	select {
	case <-r.interrupts:
		return "", domain.ErrInterrupted
	default:
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.stdin.Close()
		case <-done:
		}
	}()

	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return line, mapReadlineErr(err)
}

func (r *ReadlineReader) Close() error {
	r.closeOnce.Do(func() {
		if r.onClose != nil {
			r.onClose()
		}
		r.stdin.Close()
		r.closeErr = r.rl.Close()
	})
	return r.closeErr
}

func mapReadlineErr(err error) error {
	if errors.Is(err, readline.ErrInterrupt) {
		return domain.ErrInterrupted
	}
	return err
}
