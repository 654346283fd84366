package engine

import "strings"

// CommandKind enumerates every inbound command the engine understands. The
// set is closed: transports resolve raw input to a kind exactly once, at the
// boundary, and the engine never re-parses text.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandStart
	CommandHelp
	CommandNext
	CommandStop
	CommandMessage
	CommandReport
)

// Command is one classified inbound event for one identity.
type Command struct {
	Kind   CommandKind
	UserID string
	// Text is the message payload for CommandMessage and the reason for
	// CommandReport; empty otherwise.
	Text string
}

// ParseText classifies a raw text line the way both transports need it:
// slash commands become their kinds, "/report <reason>" keeps the reason as
// Text, anything else is a message to relay.
func ParseText(userID, text string) Command {
	if !strings.HasPrefix(text, "/") {
		return Command{Kind: CommandMessage, UserID: userID, Text: text}
	}

	name, rest, _ := strings.Cut(text, " ")
	name = strings.TrimPrefix(name, "/")
	// Telegram clients append the bot's mention in group contexts
	// ("/next@SomeBot"); the mention is not part of the command.
	if at := strings.IndexByte(name, '@'); at != -1 {
		name = name[:at]
	}
	switch name {
	case "start":
		return Command{Kind: CommandStart, UserID: userID}
	case "help":
		return Command{Kind: CommandHelp, UserID: userID}
	case "next":
		return Command{Kind: CommandNext, UserID: userID}
	case "stop":
		return Command{Kind: CommandStop, UserID: userID}
	case "report":
		return Command{Kind: CommandReport, UserID: userID, Text: strings.TrimSpace(rest)}
	default:
		return Command{Kind: CommandUnknown, UserID: userID}
	}
}
