package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/domain"
	"github.com/kitbuilder587/ctxchat/internal/metrics"
	"github.com/kitbuilder587/ctxchat/internal/repository"
	"github.com/kitbuilder587/ctxchat/internal/service"
)

type State int

const (
	Running State = iota
	Terminated
)

func (s State) String() string {
	if s == Terminated {
		return "terminated"
	}
	return "running"
}

// historyPreview - сколько символов записи показывает :history
const historyPreview = 80

// LineReader blocks for one input line. It returns domain.ErrInterrupted on
// Ctrl-C and io.EOF at end of input.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

type Deps struct {
	Chat  service.ChatService
	Store repository.SnapshotRepository
	// Slot - имя сохранения для :save и :load
	Slot string

	SystemPrompt string
	MaxHistory   int

	Out     io.Writer
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Session owns one conversation and is not safe for concurrent use.
type Session struct {
	id         string
	conv       *domain.Conversation
	chat       service.ChatService
	store      repository.SnapshotRepository
	slot       string
	defaultMax int
	out        io.Writer
	logger     *zap.Logger
	metrics    *metrics.Metrics

	state      State
	interrupts int
}

func New(deps Deps) *Session {
	if deps.SystemPrompt == "" {
		deps.SystemPrompt = domain.DefaultSystemPrompt
	}
	if deps.MaxHistory < domain.MinMaxHistory {
		deps.MaxHistory = domain.DefaultMaxHistory
	}
	if deps.Slot == "" {
		deps.Slot = "conversation"
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	id := uuid.New().String()

	return &Session{
		id:         id,
		conv:       domain.NewConversation(deps.SystemPrompt, deps.MaxHistory),
		chat:       deps.Chat,
		store:      deps.Store,
		slot:       deps.Slot,
		defaultMax: deps.MaxHistory,
		out:        deps.Out,
		logger:     deps.Logger.With(zap.String("session_id", id)),
		metrics:    deps.Metrics,
		state:      Running,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return s.state }

func (s *Session) Conversation() *domain.Conversation { return s.conv }

// Usage renders the context fill line, e.g. "ctx: 3/10 (30%)".
func (s *Session) Usage() string {
	length, limit, percent := s.conv.Usage()
	return fmt.Sprintf("ctx: %d/%d (%d%%)", length, limit, percent)
}

func (s *Session) Prompt() string {
	return s.Usage() + "> "
}

// Run reads lines until quit, end of input, a second consecutive interrupt
// or ctx cancellation. Only a broken reader is returned as an error.
func (s *Session) Run(ctx context.Context, r LineReader) error {
	s.printf("🚀 model: %s\n", s.chat.Model())
	s.printf("💡 type :help to see available commands\n")
	s.logger.Info("session started", zap.String("model", s.chat.Model()))
	defer s.logger.Info("session finished")

	for s.state == Running {
		if ctx.Err() != nil {
			s.state = Terminated
			return nil
		}

		line, err := r.ReadLine(ctx, s.Prompt())
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInterrupted):
				s.interrupts++
				if s.interrupts >= 2 {
					s.printf("\n👋 bye!\n")
					s.state = Terminated
					return nil
				}
				s.printf("\nhint: type :quit to exit (press Ctrl-C again to force)\n\n")
				continue
			case errors.Is(err, io.EOF):
				s.printf("\n👋 bye!\n")
				s.state = Terminated
				return nil
			case ctx.Err() != nil:
				s.state = Terminated
				return nil
			default:
				s.logger.Error("read input failed", zap.Error(err))
				s.state = Terminated
				return fmt.Errorf("read input: %w", err)
			}
		}

		s.interrupts = 0
		s.HandleLine(ctx, line)
	}

	return nil
}

// HandleLine processes one input line. A panic inside is reported and the
// session keeps running.
func (s *Session) HandleLine(ctx context.Context, line string) (state State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered from panic",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			s.printf("\n⚠️ error: %v\n", r)
			s.printf("🔄 continuing the conversation...\n")
			state = s.state
		}
	}()

	if strings.TrimSpace(line) == "" {
		return s.state
	}

	if IsCommand(line) {
		s.handleCommand(ctx, ParseCommand(line))
		return s.state
	}

	s.chatTurn(ctx, line)
	return s.state
}

func (s *Session) chatTurn(ctx context.Context, line string) {
	s.metrics.RecordEvictions(s.conv.AddUserMessage(line))

	reply, ok := s.chat.Reply(ctx, s.out, s.conv.Entries())
	if !ok {
		// запись пользователя остаётся в истории, ответа нет
		s.metrics.RecordTurn("no_response")
		s.metrics.SetHistoryLength(s.conv.Len())
		return
	}

	s.metrics.RecordEvictions(s.conv.AddAssistantMessage(reply))
	s.metrics.RecordTurn("ok")
	s.metrics.SetHistoryLength(s.conv.Len())

	s.printf("\n🤖: %s\n\n", reply)
}

func (s *Session) handleCommand(ctx context.Context, cmd Command) {
	s.metrics.RecordCommand(cmd.Kind.String())
	s.logger.Debug("command", zap.String("command", cmd.Text))

	switch cmd.Kind {
	case CmdQuit:
		s.printf("👋 bye!\n")
		s.state = Terminated
	case CmdReset:
		s.conv.Reset()
		s.metrics.SetHistoryLength(s.conv.Len())
		s.printf("\n🔄 conversation reset\n\n")
	case CmdHistory:
		s.printHistory()
	case CmdHelp:
		s.printHelp()
	case CmdSave:
		s.save(ctx)
	case CmdLoad:
		s.load(ctx)
	case CmdShowMax:
		s.printf("\ncurrent max history: %d\n", s.conv.MaxHistory())
	case CmdSetMax:
		s.setMax(cmd.Arg)
	default:
		s.printf("\n⚠️ unknown command: :%s. type :help for help\n\n", cmd.Text)
	}
}

func (s *Session) printHistory() {
	s.printf("\n📜 conversation history:\n")
	for i, e := range s.conv.Entries() {
		s.printf("%d. %s %s\n", i+1, e.Role.Icon(), preview(e.Content))
	}
	s.printf("\n")
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= historyPreview {
		return content
	}
	return string([]rune(content)[:historyPreview]) + "..."
}

func (s *Session) printHelp() {
	s.printf(`
🆘 available commands:
  :help        - show this help
  :history     - show the conversation history
  :reset       - reset the conversation
  :quit        - exit (:exit works too)
  :save        - save the conversation
  :load        - load the saved conversation
  :max         - show the max history size
  :max <n>     - set the max history size

`)
}

func (s *Session) save(ctx context.Context) {
	snapshot := s.conv.Snapshot()
	snapshot.SessionID = s.id

	if err := s.store.Save(ctx, s.slot, snapshot); err != nil {
		s.metrics.RecordPersistence("save", "error")
		s.logger.Warn("save failed", zap.String("slot", s.slot), zap.Error(err))
		s.printf("\n⚠️ save failed: %v\n\n", err)
		return
	}

	s.metrics.RecordPersistence("save", "ok")
	s.printf("\n💾 conversation saved to %s\n\n", s.store.Location(s.slot))
}

func (s *Session) load(ctx context.Context) {
	snapshot, err := s.store.Load(ctx, s.slot)
	if err == nil {
		err = s.conv.Restore(snapshot, s.defaultMax)
	}
	if err != nil {
		s.conv.Fallback(s.defaultMax)
		s.metrics.RecordPersistence("load", "error")
		s.metrics.SetHistoryLength(s.conv.Len())
		s.logger.Warn("load failed, conversation reset", zap.String("slot", s.slot), zap.Error(err))
		s.printf("\n⚠️ load failed: %v\n", err)
		s.printf("🔄 started over with the system prompt and max history %d\n\n", s.conv.MaxHistory())
		return
	}

	s.metrics.RecordPersistence("load", "ok")
	s.metrics.SetHistoryLength(s.conv.Len())
	s.printf("\n📂 conversation loaded\n\n")
}

func (s *Session) setMax(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		s.printf("\n⚠️ invalid format. usage: :max <number>\n\n")
		return
	}

	dropped, err := s.conv.SetMaxHistory(n)
	if err != nil {
		s.printf("\n⚠️ max history cannot be less than %d\n\n", domain.MinMaxHistory)
		return
	}

	s.metrics.RecordEvictions(dropped)
	s.metrics.SetHistoryLength(s.conv.Len())
	s.printf("\n🔄 max history set to: %d\n\n", n)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
