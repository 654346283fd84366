package models

// NotificationKind classifies an outbound event for a participant. Transports
// map kinds to human-readable text; the engine never formats user-facing copy.
type NotificationKind string

const (
	KindWelcome        NotificationKind = "welcome"
	KindHelp           NotificationKind = "help"
	KindConnected      NotificationKind = "connected"
	KindWaiting        NotificationKind = "waiting"
	KindYouLeft        NotificationKind = "you_left"
	KindPartnerLeft    NotificationKind = "partner_left"
	KindNotChatting    NotificationKind = "not_chatting"
	KindNotPaired      NotificationKind = "not_paired"
	KindAlreadyActive  NotificationKind = "already_chatting"
	KindReportReceived NotificationKind = "report_received"
	KindUnknownCommand NotificationKind = "unknown_command"
	KindTryAgain       NotificationKind = "try_again"
	KindTyping         NotificationKind = "typing"
	KindMessage        NotificationKind = "message"
)

// Notification is one outbound event handed to a transport for delivery.
type Notification struct {
	Kind NotificationKind `json:"kind"`
	// Data carries kind-specific payload: the pairing nickname for
	// "connected", the relayed text for "message", empty otherwise.
	Data string `json:"data,omitempty"`
}
