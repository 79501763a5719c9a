package telegram

import "strings"

// ToSessionLine turns a Telegram message into a session input line.
// Slash commands become colon commands: "/max 6" -> ":max 6",
// "/save@ctxchat_bot" -> ":save". /start shows help.
func ToSessionLine(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}

	name, args, _ := strings.Cut(text[1:], " ")
	// в группах команда приходит как /cmd@botname
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	name = strings.ToLower(name)

	if name == "start" {
		return ":help"
	}

	args = strings.TrimSpace(args)
	if args == "" {
		return ":" + name
	}
	return ":" + name + " " + args
}
