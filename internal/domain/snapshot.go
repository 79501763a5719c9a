package domain

import "fmt"

// Snapshot is the persisted form of a conversation.
type Snapshot struct {
	History    []Entry `json:"history"`
	MaxHistory int     `json:"max_history"`
	// SessionID is kept in database backends only, never in the JSON body.
	SessionID string `json:"-"`
}

// withDefaults fills the fields a saved file may omit: a missing history
// means "system entry only", a missing threshold means the default.
func (s Snapshot) withDefaults(system Entry, defaultMax int) Snapshot {
	if s.History == nil {
		s.History = []Entry{system}
	}
	if s.MaxHistory == 0 {
		s.MaxHistory = defaultMax
	}
	return s
}

func (s Snapshot) Validate() error {
	if len(s.History) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, ErrEmptyHistory)
	}
	if s.History[0].Role != RoleSystem {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, ErrMissingSystemEntry)
	}
	for i, e := range s.History {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: entry %d: %v %q", ErrInvalidSnapshot, i+1, err, e.Role)
		}
		if i > 0 && e.Role == RoleSystem {
			return fmt.Errorf("%w: entry %d: extra system entry", ErrInvalidSnapshot, i+1)
		}
	}
	if s.MaxHistory < MinMaxHistory {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, ErrMaxHistoryTooSmall)
	}
	return nil
}
