package session

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantKind CommandKind
		wantText string
		wantArg  string
	}{
		{":quit", CmdQuit, "quit", ""},
		{":exit", CmdQuit, "exit", ""},
		{":QUIT", CmdQuit, "quit", ""},
		{":  Exit  ", CmdQuit, "exit", ""},
		{":reset", CmdReset, "reset", ""},
		{":history", CmdHistory, "history", ""},
		{":help", CmdHelp, "help", ""},
		{":save", CmdSave, "save", ""},
		{":load", CmdLoad, "load", ""},
		{":max", CmdShowMax, "max", ""},
		{":max 5", CmdSetMax, "max 5", "5"},
		{":MAX 12", CmdSetMax, "max 12", "12"},
		{":max 5 extra tokens", CmdSetMax, "max 5 extra tokens", "5"},
		{":max abc", CmdSetMax, "max abc", "abc"},
		{":max -3", CmdSetMax, "max -3", "-3"},
		{":maximum", CmdUnknown, "maximum", ""},
		{":quit now", CmdUnknown, "quit now", ""},
		{":", CmdUnknown, "", ""},
		{":foo", CmdUnknown, "foo", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ParseCommand(tt.line)
			if got.Kind != tt.wantKind {
				t.Errorf("ParseCommand(%q).Kind = %v, want %v", tt.line, got.Kind, tt.wantKind)
			}
			if got.Text != tt.wantText {
				t.Errorf("ParseCommand(%q).Text = %q, want %q", tt.line, got.Text, tt.wantText)
			}
			if got.Arg != tt.wantArg {
				t.Errorf("ParseCommand(%q).Arg = %q, want %q", tt.line, got.Arg, tt.wantArg)
			}
		})
	}
}

func TestIsCommand(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{":help", true},
		{":", true},
		{"help", false},
		{" :help", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCommand(tt.line); got != tt.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
