package irc

import (
	"strings"

	"github.com/lrstanley/girc"
)

// ctcpDelim marks both ends of a CTCP envelope
const ctcpDelim = "\x01"

// Text is a PRIVMSG/NOTICE payload as carried on the wire
type Text struct {
	raw string
}

// TextFromString builds a Text from user input
func TextFromString(s string) Text {
	return Text{raw: s}
}

// TextFromRaw builds a Text from wire bytes
func TextFromRaw(raw string) Text {
	return Text{raw: raw}
}

// TextFromCTCPData wraps data (command plus arguments) in a CTCP envelope
func TextFromCTCPData(data string) Text {
	return Text{raw: ctcpDelim + data + ctcpDelim}
}

// Raw returns the payload as sent on the wire
func (t Text) Raw() string {
	return t.raw
}

// IsEmpty reports whether the payload is empty
func (t Text) IsEmpty() bool {
	return t.raw == ""
}

// IsCTCP reports whether the payload is a CTCP envelope. Some clients omit the
// closing delimiter, so only the leading one is required.
func (t Text) IsCTCP() bool {
	return len(t.raw) >= 2 && strings.HasPrefix(t.raw, ctcpDelim)
}

// CTCPData returns the envelope contents, or "" if the text is not CTCP
func (t Text) CTCPData() string {
	if !t.IsCTCP() {
		return ""
	}
	return strings.TrimSuffix(t.raw[1:], ctcpDelim)
}

// CTCPCommand splits the envelope into an upper-cased command and its arguments
func (t Text) CTCPCommand() (command, args string) {
	data := t.CTCPData()
	command, args, _ = strings.Cut(data, " ")
	return strings.ToUpper(command), args
}

// String returns the payload with colour and formatting codes removed
func (t Text) String() string {
	if t.IsCTCP() {
		return girc.StripRaw(t.CTCPData())
	}
	return girc.StripRaw(t.raw)
}
