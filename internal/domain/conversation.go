package domain

const (
	DefaultSystemPrompt = "You are a helpful assistant"
	DefaultMaxHistory   = 10
	MinMaxHistory       = 2
)

// Conversation is the ordered history sent to the completion endpoint.
// Entry 0 is always the system entry and is never evicted.
type Conversation struct {
	entries    []Entry
	maxHistory int
}

func NewConversation(systemPrompt string, maxHistory int) *Conversation {
	if maxHistory < MinMaxHistory {
		maxHistory = DefaultMaxHistory
	}
	return &Conversation{
		entries:    []Entry{{Role: RoleSystem, Content: systemPrompt}},
		maxHistory: maxHistory,
	}
}

func (c *Conversation) Len() int { return len(c.entries) }

func (c *Conversation) MaxHistory() int { return c.maxHistory }

func (c *Conversation) System() Entry { return c.entries[0] }

// Entries returns a copy of the history.
func (c *Conversation) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Conversation) AddUserMessage(content string) int {
	return c.add(Entry{Role: RoleUser, Content: content})
}

func (c *Conversation) AddAssistantMessage(content string) int {
	return c.add(Entry{Role: RoleAssistant, Content: content})
}

func (c *Conversation) add(e Entry) int {
	c.entries = append(c.entries, e)
	return c.Bound()
}

// Bound keeps the system entry plus the most recent maxHistory-1 entries.
// Returns how many entries were dropped.
func (c *Conversation) Bound() int {
	if len(c.entries) <= c.maxHistory {
		return 0
	}
	dropped := len(c.entries) - c.maxHistory
	kept := make([]Entry, 0, c.maxHistory)
	kept = append(kept, c.entries[0])
	kept = append(kept, c.entries[len(c.entries)-c.maxHistory+1:]...)
	c.entries = kept
	return dropped
}

func (c *Conversation) Reset() {
	c.entries = []Entry{c.entries[0]}
}

// SetMaxHistory changes the threshold and re-bounds immediately.
func (c *Conversation) SetMaxHistory(n int) (int, error) {
	if n < MinMaxHistory {
		return 0, ErrMaxHistoryTooSmall
	}
	c.maxHistory = n
	return c.Bound(), nil
}

// Usage reports the prompt figures: length, threshold and fill percentage
// capped at 100.
func (c *Conversation) Usage() (length, limit, percent int) {
	length = len(c.entries)
	limit = c.maxHistory
	percent = min(length*100/limit, 100)
	return length, limit, percent
}

func (c *Conversation) Snapshot() Snapshot {
	return Snapshot{
		History:    c.Entries(),
		MaxHistory: c.maxHistory,
	}
}

// Restore replaces the history and threshold with a loaded snapshot.
// An invalid snapshot leaves the conversation untouched.
func (c *Conversation) Restore(s Snapshot, defaultMax int) error {
	s = s.withDefaults(c.entries[0], defaultMax)
	if err := s.Validate(); err != nil {
		return err
	}
	c.entries = make([]Entry, len(s.History))
	copy(c.entries, s.History)
	c.maxHistory = s.MaxHistory
	c.Bound()
	return nil
}

// Fallback drops everything except the current system entry and restores
// the default threshold.
func (c *Conversation) Fallback(defaultMax int) {
	if defaultMax < MinMaxHistory {
		defaultMax = DefaultMaxHistory
	}
	c.entries = []Entry{c.entries[0]}
	c.maxHistory = defaultMax
}
