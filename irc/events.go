package irc

import (
	"net"
	"time"

	"github.com/presbrey/ircclient/hooks"
)

// Status is the session's connect status
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

type StatusEvent struct {
	Status Status
}

// ChannelEvent reports our own join or part
type ChannelEvent struct {
	Channel *JoinedChannel
}

// MemberEvent reports another user joining, leaving or being kicked
type MemberEvent struct {
	Channel *JoinedChannel
	Nick    Entity
	By      Entity // kicker, for kicks
	Reason  Text
}

type NickChangeEvent struct {
	Old  Entity
	New  Entity
	Self bool
}

// MessageEvent carries a PRIVMSG, NOTICE or ACTION
type MessageEvent struct {
	Sender Entity
	Target Entity
	Text   Text
}

// TextEvent carries system or error text for display
type TextEvent struct {
	Text string
}

type TopicEvent struct {
	Channel *JoinedChannel
}

type NamesEvent struct {
	Channel *JoinedChannel
}

type ModeEvent struct {
	Sender Entity
	Target Entity
	Params []string
}

// DCCFileOffer is an incoming DCC SEND offer. Accepting it is up to the
// application.
type DCCFileOffer struct {
	Sender   Entity
	Filename string
	IP       net.IP
	Port     int
	Size     int64
	Received time.Time
}

// DCCChatOffer is an incoming DCC CHAT offer
type DCCChatOffer struct {
	Sender   Entity
	IP       net.IP
	Port     int
	Received time.Time
}

// Events is the session's subscribable surface. Every hook runs on the
// goroutine that calls Session.Process.
type Events struct {
	StatusChanged *hooks.Registry[StatusEvent]

	Joined *hooks.Registry[ChannelEvent]
	Parted *hooks.Registry[ChannelEvent]

	UserJoined  *hooks.Registry[MemberEvent]
	UserParted  *hooks.Registry[MemberEvent]
	UserKicked  *hooks.Registry[MemberEvent]
	UserQuit    *hooks.Registry[MemberEvent]
	NickChanged *hooks.Registry[NickChangeEvent]

	TextReceived   *hooks.Registry[MessageEvent]
	NoticeReceived *hooks.Registry[MessageEvent]
	ActionReceived *hooks.Registry[MessageEvent]
	SystemText     *hooks.Registry[TextEvent]
	ErrorText      *hooks.Registry[TextEvent]

	TopicUpdated *hooks.Registry[TopicEvent]
	NamesUpdated *hooks.Registry[NamesEvent]

	ChannelModeChanged *hooks.Registry[ModeEvent]
	NickModeChanged    *hooks.Registry[ModeEvent]

	DCCFileOffered *hooks.Registry[DCCFileOffer]
	DCCChatOffered *hooks.Registry[DCCChatOffer]
}

func newEvents() *Events {
	return &Events{
		StatusChanged:      hooks.NewRegistry[StatusEvent](),
		Joined:             hooks.NewRegistry[ChannelEvent](),
		Parted:             hooks.NewRegistry[ChannelEvent](),
		UserJoined:         hooks.NewRegistry[MemberEvent](),
		UserParted:         hooks.NewRegistry[MemberEvent](),
		UserKicked:         hooks.NewRegistry[MemberEvent](),
		UserQuit:           hooks.NewRegistry[MemberEvent](),
		NickChanged:        hooks.NewRegistry[NickChangeEvent](),
		TextReceived:       hooks.NewRegistry[MessageEvent](),
		NoticeReceived:     hooks.NewRegistry[MessageEvent](),
		ActionReceived:     hooks.NewRegistry[MessageEvent](),
		SystemText:         hooks.NewRegistry[TextEvent](),
		ErrorText:          hooks.NewRegistry[TextEvent](),
		TopicUpdated:       hooks.NewRegistry[TopicEvent](),
		NamesUpdated:       hooks.NewRegistry[NamesEvent](),
		ChannelModeChanged: hooks.NewRegistry[ModeEvent](),
		NickModeChanged:    hooks.NewRegistry[ModeEvent](),
		DCCFileOffered:     hooks.NewRegistry[DCCFileOffer](),
		DCCChatOffered:     hooks.NewRegistry[DCCChatOffer](),
	}
}
