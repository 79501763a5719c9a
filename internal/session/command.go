package session

import "strings"

// Sentinel - первый символ строки, который превращает её в команду
const Sentinel = ":"

type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdQuit
	CmdReset
	CmdHistory
	CmdHelp
	CmdSave
	CmdLoad
	CmdShowMax
	CmdSetMax
)

var commandNames = map[CommandKind]string{
	CmdUnknown: "unknown",
	CmdQuit:    "quit",
	CmdReset:   "reset",
	CmdHistory: "history",
	CmdHelp:    "help",
	CmdSave:    "save",
	CmdLoad:    "load",
	CmdShowMax: "max",
	CmdSetMax:  "max_set",
}

func (k CommandKind) String() string {
	return commandNames[k]
}

// Command is a parsed sentinel line. Text is the normalized command text
// (sentinel stripped, trimmed, lower-cased); Arg is only set for CmdSetMax.
type Command struct {
	Kind CommandKind
	Text string
	Arg  string
}

func IsCommand(line string) bool {
	return strings.HasPrefix(line, Sentinel)
}

func ParseCommand(line string) Command {
	text := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, Sentinel)))
	cmd := Command{Kind: CmdUnknown, Text: text}

	switch text {
	case "quit", "exit":
		cmd.Kind = CmdQuit
	case "reset":
		cmd.Kind = CmdReset
	case "history":
		cmd.Kind = CmdHistory
	case "help":
		cmd.Kind = CmdHelp
	case "save":
		cmd.Kind = CmdSave
	case "load":
		cmd.Kind = CmdLoad
	case "max":
		cmd.Kind = CmdShowMax
	default:
		// max <n>: всё после первого аргумента игнорируем
		fields := strings.Fields(text)
		if len(fields) >= 2 && fields[0] == "max" {
			cmd.Kind = CmdSetMax
			cmd.Arg = fields[1]
		}
	}

	return cmd
}
