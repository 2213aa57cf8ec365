package irc

import (
	"strconv"
)

// MessageType is the closed set of message kinds the session dispatches on
type MessageType int

const (
	TypeUnknown MessageType = iota
	TypeNumeric
	TypeNick
	TypeJoin
	TypePart
	TypeKick
	TypeQuit
	TypeChannelMode
	TypeNickMode
	TypeTopic
	TypePrivmsg
	TypeNotice
	TypePing
)

var messageTypeNames = [...]string{
	TypeUnknown:     "unknown",
	TypeNumeric:     "numeric",
	TypeNick:        "nick",
	TypeJoin:        "join",
	TypePart:        "part",
	TypeKick:        "kick",
	TypeQuit:        "quit",
	TypeChannelMode: "channel-mode",
	TypeNickMode:    "nick-mode",
	TypeTopic:       "topic",
	TypePrivmsg:     "privmsg",
	TypeNotice:      "notice",
	TypePing:        "ping",
}

func (t MessageType) String() string {
	if int(t) < len(messageTypeNames) {
		return messageTypeNames[t]
	}
	return "unknown"
}

// Type classifies the message from its command and parameter count alone
func (m *Message) Type() MessageType {
	n := len(m.Params)

	if m.IsNumeric() {
		if n >= 1 {
			return TypeNumeric
		}
		return TypeUnknown
	}

	switch m.Command {
	case "NICK":
		if n >= 1 {
			return TypeNick
		}
	case "JOIN":
		if n >= 1 {
			return TypeJoin
		}
	case "PART":
		if n >= 1 {
			return TypePart
		}
	case "KICK":
		if n >= 2 {
			return TypeKick
		}
	case "QUIT":
		return TypeQuit
	case "MODE":
		if n >= 2 {
			if EntityFromRaw(m.Params[0]).IsChannel() {
				return TypeChannelMode
			}
			return TypeNickMode
		}
	case "TOPIC":
		if n >= 2 {
			return TypeTopic
		}
	case "PRIVMSG":
		if n >= 2 {
			return TypePrivmsg
		}
	case "NOTICE":
		if n >= 2 {
			return TypeNotice
		}
	case "PING":
		if n >= 1 {
			return TypePing
		}
	}
	return TypeUnknown
}

// Variant is one case of the decoded message union. Each case carries only
// the fields that are valid for its kind.
type Variant interface {
	Type() MessageType
}

// NumericMessage is a three-digit server reply
type NumericMessage struct {
	Sender Entity
	Code   int
	Target Entity   // the nick the reply is addressed to
	Args   []string // parameters after the target
}

// Text returns the human-readable trailing parameter
func (m *NumericMessage) Text() string {
	if len(m.Args) == 0 {
		return ""
	}
	return m.Args[len(m.Args)-1]
}

// Arg returns the i-th argument after the target, or ""
func (m *NumericMessage) Arg(i int) string {
	if i < 0 || i >= len(m.Args) {
		return ""
	}
	return m.Args[i]
}

type NickMessage struct {
	Sender  Entity
	NewNick Entity
}

type JoinMessage struct {
	Sender  Entity
	Channel Entity
}

type PartMessage struct {
	Sender  Entity
	Channel Entity
	Reason  Text
}

type KickMessage struct {
	Sender  Entity
	Channel Entity
	Victim  Entity
	Reason  Text
}

type QuitMessage struct {
	Sender Entity
	Reason Text
}

type ChannelModeMessage struct {
	Sender  Entity
	Channel Entity
	Params  []string // mode string followed by its arguments
}

type NickModeMessage struct {
	Sender Entity
	Target Entity
	Params []string
}

type TopicMessage struct {
	Sender  Entity
	Channel Entity
	Topic   Text
}

type PrivmsgMessage struct {
	Sender Entity
	Target Entity
	Text   Text
}

type NoticeMessage struct {
	Sender Entity
	Target Entity
	Text   Text
}

// PingMessage carries the daemon tokens to echo back in PONG
type PingMessage struct {
	Tokens []string
}

// UnknownMessage wraps anything outside the dispatched set
type UnknownMessage struct {
	*Message
}

func (*NumericMessage) Type() MessageType     { return TypeNumeric }
func (*NickMessage) Type() MessageType        { return TypeNick }
func (*JoinMessage) Type() MessageType        { return TypeJoin }
func (*PartMessage) Type() MessageType        { return TypePart }
func (*KickMessage) Type() MessageType        { return TypeKick }
func (*QuitMessage) Type() MessageType        { return TypeQuit }
func (*ChannelModeMessage) Type() MessageType { return TypeChannelMode }
func (*NickModeMessage) Type() MessageType    { return TypeNickMode }
func (*TopicMessage) Type() MessageType       { return TypeTopic }
func (*PrivmsgMessage) Type() MessageType     { return TypePrivmsg }
func (*NoticeMessage) Type() MessageType      { return TypeNotice }
func (*PingMessage) Type() MessageType        { return TypePing }
func (*UnknownMessage) Type() MessageType     { return TypeUnknown }

// Decode projects the message onto its typed variant
func (m *Message) Decode() Variant {
	p := m.Params
	switch m.Type() {
	case TypeNumeric:
		code, _ := strconv.Atoi(m.Command)
		return &NumericMessage{
			Sender: m.Prefix,
			Code:   code,
			Target: EntityFromRaw(p[0]),
			Args:   p[1:],
		}
	case TypeNick:
		return &NickMessage{Sender: m.Prefix, NewNick: EntityFromRaw(p[0])}
	case TypeJoin:
		return &JoinMessage{Sender: m.Prefix, Channel: EntityFromRaw(p[0])}
	case TypePart:
		msg := &PartMessage{Sender: m.Prefix, Channel: EntityFromRaw(p[0])}
		if len(p) > 1 {
			msg.Reason = TextFromRaw(p[1])
		}
		return msg
	case TypeKick:
		msg := &KickMessage{Sender: m.Prefix, Channel: EntityFromRaw(p[0]), Victim: EntityFromRaw(p[1])}
		if len(p) > 2 {
			msg.Reason = TextFromRaw(p[2])
		}
		return msg
	case TypeQuit:
		return &QuitMessage{Sender: m.Prefix, Reason: TextFromRaw(m.Trailing())}
	case TypeChannelMode:
		return &ChannelModeMessage{Sender: m.Prefix, Channel: EntityFromRaw(p[0]), Params: p[1:]}
	case TypeNickMode:
		return &NickModeMessage{Sender: m.Prefix, Target: EntityFromRaw(p[0]), Params: p[1:]}
	case TypeTopic:
		return &TopicMessage{Sender: m.Prefix, Channel: EntityFromRaw(p[0]), Topic: TextFromRaw(p[1])}
	case TypePrivmsg:
		return &PrivmsgMessage{Sender: m.Prefix, Target: EntityFromRaw(p[0]), Text: TextFromRaw(p[1])}
	case TypeNotice:
		return &NoticeMessage{Sender: m.Prefix, Target: EntityFromRaw(p[0]), Text: TextFromRaw(p[1])}
	case TypePing:
		return &PingMessage{Tokens: p}
	}
	return &UnknownMessage{Message: m}
}
