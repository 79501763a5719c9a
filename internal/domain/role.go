package domain

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Icon - значок роли для вывода истории
func (r Role) Icon() string {
	switch r {
	case RoleSystem:
		return "🧠"
	case RoleUser:
		return "👤"
	default:
		return "🤖"
	}
}

// Entry is one role-tagged message. It is a value type: the conversation
// only hands out copies, so an appended entry never changes.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (e Entry) Validate() error {
	if !e.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
