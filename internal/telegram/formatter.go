package telegram

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength - лимит Telegram на длину сообщения
const MaxMessageLength = 4096

// FormatReply splits session output into sendable messages and appends the
// context usage line to the last one.
func FormatReply(output, usage string) []string {
	text := strings.TrimSpace(output)
	if usage != "" {
		if text != "" {
			text += "\n\n"
		}
		text += usage
	}
	if text == "" {
		return nil
	}
	return SplitMessage(text, MaxMessageLength)
}

func FormatRateLimited(wait time.Duration) string {
	if wait < time.Second {
		wait = time.Second
	}
	return fmt.Sprintf("⏳ too many messages, try again in %s", wait)
}

// FormatRemaining is appended to the usage line when the chat is close to
// its rate limit.
func FormatRemaining(left int) string {
	if left == 1 {
		return " · 1 message left this minute"
	}
	return fmt.Sprintf(" · %d messages left this minute", left)
}

// SplitMessage cuts text into chunks of at most maxLen runes, preferring
// paragraph, line and word boundaries.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)

	for len(runes) > 0 {
		if len(runes) <= maxLen {
			parts = append(parts, string(runes))
			break
		}

		splitAt := findSafeSplitPoint(runes, maxLen)
		parts = append(parts, strings.TrimRight(string(runes[:splitAt]), " \n"))
		runes = trimLeftRunes(runes[splitAt:])
	}

	return parts
}

func findSafeSplitPoint(runes []rune, maxLen int) int {
	window := string(runes[:maxLen])

	for _, sep := range []string{"\n\n", "\n", " "} {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		if n := utf8.RuneCountInString(window[:idx]); n > maxLen/2 {
			return n
		}
	}

	return maxLen
}

func trimLeftRunes(runes []rune) []rune {
	for len(runes) > 0 && (runes[0] == ' ' || runes[0] == '\n') {
		runes = runes[1:]
	}
	return runes
}
