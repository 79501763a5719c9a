package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewConversation(t *testing.T) {
	tests := []struct {
		name       string
		maxHistory int
		wantMax    int
	}{
		{"explicit threshold", 4, 4},
		{"minimum threshold", 2, 2},
		{"too small falls back to default", 1, DefaultMaxHistory},
		{"zero falls back to default", 0, DefaultMaxHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConversation("sys", tt.maxHistory)
			if conv.Len() != 1 {
				t.Fatalf("Len() = %d, want 1", conv.Len())
			}
			if conv.System().Role != RoleSystem || conv.System().Content != "sys" {
				t.Errorf("System() = %+v", conv.System())
			}
			if conv.MaxHistory() != tt.wantMax {
				t.Errorf("MaxHistory() = %d, want %d", conv.MaxHistory(), tt.wantMax)
			}
		})
	}
}

func TestConversation_AddMessage(t *testing.T) {
	conv := NewConversation("You are helpful.", 10)

	conv.AddUserMessage("Hello")
	conv.AddAssistantMessage("Hi there!")

	entries := conv.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantRoles := []Role{RoleSystem, RoleUser, RoleAssistant}
	for i, want := range wantRoles {
		if entries[i].Role != want {
			t.Errorf("entry %d role = %q, want %q", i, entries[i].Role, want)
		}
	}
}

func TestConversation_EntriesIsCopy(t *testing.T) {
	conv := NewConversation("sys", 10)
	conv.AddUserMessage("original")

	entries := conv.Entries()
	entries[1].Content = "changed"

	if got := conv.Entries()[1].Content; got != "original" {
		t.Errorf("stored entry changed through copy: %q", got)
	}
}

func TestConversation_Bound(t *testing.T) {
	tests := []struct {
		name        string
		maxHistory  int
		appends     int
		wantLen     int
		wantDropped int
		wantFirst   string
	}{
		{"under threshold", 5, 3, 4, 0, "m0"},
		{"exactly at threshold", 5, 4, 5, 0, "m0"},
		{"one over", 5, 5, 5, 1, "m1"},
		{"threshold two keeps last entry", 2, 6, 2, 5, "m5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConversation("sys", tt.maxHistory)
			// bypass add() so Bound() is exercised in one step
			for i := 0; i < tt.appends; i++ {
				conv.entries = append(conv.entries, Entry{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
			}

			dropped := conv.Bound()

			if dropped != tt.wantDropped {
				t.Errorf("Bound() dropped = %d, want %d", dropped, tt.wantDropped)
			}
			if conv.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", conv.Len(), tt.wantLen)
			}
			if conv.entries[0].Role != RoleSystem {
				t.Errorf("entry 0 role = %q, want system", conv.entries[0].Role)
			}
			if conv.entries[1].Content != tt.wantFirst {
				t.Errorf("entry 1 = %q, want %q", conv.entries[1].Content, tt.wantFirst)
			}
		})
	}
}

func TestConversation_SystemEntryAlwaysFirst(t *testing.T) {
	conv := NewConversation("sys", 3)

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			conv.AddUserMessage(fmt.Sprintf("u%d", i))
		} else {
			conv.AddAssistantMessage(fmt.Sprintf("a%d", i))
		}
		if conv.System().Role != RoleSystem || conv.System().Content != "sys" {
			t.Fatalf("after append %d system entry = %+v", i, conv.System())
		}
		if conv.Len() > conv.MaxHistory() {
			t.Fatalf("after append %d Len() = %d exceeds %d", i, conv.Len(), conv.MaxHistory())
		}
	}
}

func TestConversation_TwelveTurnsScenario(t *testing.T) {
	conv := NewConversation("sys", 10)

	var appended []Entry
	for turn := 1; turn <= 12; turn++ {
		user := fmt.Sprintf("question %d", turn)
		reply := fmt.Sprintf("answer %d", turn)
		conv.AddUserMessage(user)
		conv.AddAssistantMessage(reply)
		appended = append(appended,
			Entry{Role: RoleUser, Content: user},
			Entry{Role: RoleAssistant, Content: reply},
		)
	}

	if conv.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", conv.Len())
	}
	entries := conv.Entries()
	if entries[0].Role != RoleSystem {
		t.Errorf("entry 0 role = %q, want system", entries[0].Role)
	}
	want := appended[len(appended)-9:]
	for i, e := range entries[1:] {
		if e != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i+1, e, want[i])
		}
	}
}

func TestConversation_Reset(t *testing.T) {
	conv := NewConversation("sys", 4)
	conv.AddUserMessage("a")
	conv.AddAssistantMessage("b")
	conv.AddUserMessage("c")

	conv.Reset()

	if conv.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", conv.Len())
	}
	if conv.System() != (Entry{Role: RoleSystem, Content: "sys"}) {
		t.Errorf("System() = %+v", conv.System())
	}
	if conv.MaxHistory() != 4 {
		t.Errorf("Reset changed MaxHistory to %d", conv.MaxHistory())
	}
}

func TestConversation_SetMaxHistory(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantMax int
		wantLen int
		wantErr error
	}{
		{"below minimum rejected", 1, 10, 7, ErrMaxHistoryTooSmall},
		{"negative rejected", -3, 10, 7, ErrMaxHistoryTooSmall},
		{"minimum accepted", 2, 2, 2, nil},
		{"shrink rebounds", 4, 4, 4, nil},
		{"grow keeps everything", 20, 20, 7, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConversation("sys", 10)
			for i := 0; i < 6; i++ {
				conv.AddUserMessage(fmt.Sprintf("m%d", i))
			}
			before := conv.Entries()

			_, err := conv.SetMaxHistory(tt.n)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetMaxHistory() error = %v, want %v", err, tt.wantErr)
			}
			if conv.MaxHistory() != tt.wantMax {
				t.Errorf("MaxHistory() = %d, want %d", conv.MaxHistory(), tt.wantMax)
			}
			if conv.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", conv.Len(), tt.wantLen)
			}
			if tt.wantErr != nil {
				for i, e := range conv.Entries() {
					if e != before[i] {
						t.Errorf("entry %d changed on rejected update", i)
					}
				}
			}
		})
	}
}

func TestConversation_Usage(t *testing.T) {
	tests := []struct {
		name        string
		maxHistory  int
		appends     int
		wantPercent int
	}{
		{"system only", 10, 0, 10},
		{"third full", 3, 0, 33},
		{"full", 4, 3, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConversation("sys", tt.maxHistory)
			for i := 0; i < tt.appends; i++ {
				conv.AddUserMessage("x")
			}
			length, limit, percent := conv.Usage()
			if length != conv.Len() || limit != tt.maxHistory {
				t.Errorf("Usage() = %d/%d", length, limit)
			}
			if percent != tt.wantPercent {
				t.Errorf("Usage() percent = %d, want %d", percent, tt.wantPercent)
			}
		})
	}
}

func TestConversation_SnapshotRestoreRoundTrip(t *testing.T) {
	conv := NewConversation("sys", 6)
	conv.AddUserMessage("привет")
	conv.AddAssistantMessage("hello")

	snap := conv.Snapshot()

	other := NewConversation("other", 10)
	if err := other.Restore(snap, DefaultMaxHistory); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if other.MaxHistory() != 6 {
		t.Errorf("MaxHistory() = %d, want 6", other.MaxHistory())
	}
	got := other.Entries()
	want := conv.Entries()
	if len(got) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestConversation_Restore(t *testing.T) {
	sys := Entry{Role: RoleSystem, Content: "loaded sys"}
	user := Entry{Role: RoleUser, Content: "u"}

	tests := []struct {
		name    string
		snap    Snapshot
		wantErr bool
		wantLen int
		wantMax int
	}{
		{
			name:    "missing history keeps system only",
			snap:    Snapshot{MaxHistory: 5},
			wantLen: 1,
			wantMax: 5,
		},
		{
			name:    "missing max uses default",
			snap:    Snapshot{History: []Entry{sys, user}},
			wantLen: 2,
			wantMax: 7,
		},
		{
			name:    "longer than threshold is bounded",
			snap:    Snapshot{History: []Entry{sys, user, user, user, user}, MaxHistory: 3},
			wantLen: 3,
			wantMax: 3,
		},
		{
			name:    "empty history rejected",
			snap:    Snapshot{History: []Entry{}, MaxHistory: 5},
			wantErr: true,
		},
		{
			name:    "first entry not system rejected",
			snap:    Snapshot{History: []Entry{user}, MaxHistory: 5},
			wantErr: true,
		},
		{
			name:    "unknown role rejected",
			snap:    Snapshot{History: []Entry{sys, {Role: "tool", Content: "x"}}, MaxHistory: 5},
			wantErr: true,
		},
		{
			name:    "second system entry rejected",
			snap:    Snapshot{History: []Entry{sys, sys}, MaxHistory: 5},
			wantErr: true,
		},
		{
			name:    "threshold below minimum rejected",
			snap:    Snapshot{History: []Entry{sys}, MaxHistory: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConversation("current sys", 10)
			conv.AddUserMessage("kept on error")

			err := conv.Restore(tt.snap, 7)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSnapshot) {
					t.Fatalf("Restore() error = %v, want ErrInvalidSnapshot", err)
				}
				if conv.Len() != 2 || conv.MaxHistory() != 10 {
					t.Errorf("conversation changed on invalid snapshot: len=%d max=%d", conv.Len(), conv.MaxHistory())
				}
				return
			}
			if err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if conv.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", conv.Len(), tt.wantLen)
			}
			if conv.MaxHistory() != tt.wantMax {
				t.Errorf("MaxHistory() = %d, want %d", conv.MaxHistory(), tt.wantMax)
			}
			if conv.System().Role != RoleSystem {
				t.Errorf("entry 0 role = %q", conv.System().Role)
			}
		})
	}
}

func TestConversation_Fallback(t *testing.T) {
	conv := NewConversation("sys", 4)
	conv.AddUserMessage("a")
	conv.AddAssistantMessage("b")

	conv.Fallback(8)

	if conv.Len() != 1 || conv.System().Content != "sys" {
		t.Errorf("Fallback() left %+v", conv.Entries())
	}
	if conv.MaxHistory() != 8 {
		t.Errorf("MaxHistory() = %d, want 8", conv.MaxHistory())
	}
}
