package irc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-log/log"
)

// handleMessage dispatches one received line on the owner goroutine
func (s *Session) handleMessage(msg *Message) {
	switch m := msg.Decode().(type) {
	case *NumericMessage:
		s.handleNumeric(m)
	case *NickMessage:
		s.handleNick(m)
	case *JoinMessage:
		s.handleJoin(m)
	case *PartMessage:
		s.handlePart(m)
	case *KickMessage:
		s.handleKick(m)
	case *QuitMessage:
		s.handleQuit(m)
	case *ChannelModeMessage:
		s.handleChannelMode(m)
	case *NickModeMessage:
		s.Events.NickModeChanged.Emit(ModeEvent{Sender: m.Sender, Target: m.Target, Params: m.Params})
	case *TopicMessage:
		s.handleTopic(m)
	case *PrivmsgMessage:
		if m.Text.IsCTCP() {
			s.handleCTCP(m.Sender, m.Target, m.Text, false)
			return
		}
		s.Events.TextReceived.Emit(MessageEvent{Sender: m.Sender, Target: m.Target, Text: m.Text})
	case *NoticeMessage:
		if m.Text.IsCTCP() {
			s.handleCTCP(m.Sender, m.Target, m.Text, true)
			return
		}
		s.Events.NoticeReceived.Emit(MessageEvent{Sender: m.Sender, Target: m.Target, Text: m.Text})
	case *PingMessage:
		s.conn.SendPong(m.Tokens...)
	case *UnknownMessage:
		s.handleUnknown(m.Message)
	}
}

func (s *Session) handleUnknown(msg *Message) {
	switch msg.Command {
	case "ERROR":
		s.errorText(msg.Trailing())
	case "INVITE":
		if len(msg.Params) >= 2 {
			s.systemText(fmt.Sprintf("%s invites you to %s", msg.Prefix.Label(), msg.Params[1]))
		}
	default:
		if Debug {
			log.Logf("unhandled %s", msg.Command)
		}
	}
}

func (s *Session) handleNumeric(m *NumericMessage) {
	switch m.Code {
	case RPL_WELCOME:
		s.nick = m.Target.Label()
		s.backoff.Reset()
		s.setStatus(StatusConnected)
		s.systemText(m.Text())
		s.conn.SendUserhost(s.nick)
		s.runPerform()

	case RPL_USERHOST:
		s.handleUserhost(m.Text())

	case RPL_NAMREPLY:
		s.handleNames(m)

	case RPL_ENDOFNAMES:
		if ch := s.findChannel(EntityFromRaw(m.Arg(0))); ch != nil {
			ch.namesPending = false
			s.Events.NamesUpdated.Emit(NamesEvent{Channel: ch})
		}

	case RPL_NOTOPIC:
		ch := s.ensureChannel(EntityFromRaw(m.Arg(0)))
		ch.topic = Text{}
		ch.topicAuthor = Nick{}
		ch.topicTime = time.Time{}
		s.Events.TopicUpdated.Emit(TopicEvent{Channel: ch})

	case RPL_TOPIC:
		if len(m.Args) < 2 {
			return
		}
		ch := s.ensureChannel(EntityFromRaw(m.Args[0]))
		// reported once RPL_TOPICWHOTIME completes it
		ch.topic = TextFromRaw(m.Args[1])

	case RPL_TOPICWHOTIME:
		if len(m.Args) < 3 {
			return
		}
		ch := s.ensureChannel(EntityFromRaw(m.Args[0]))
		ch.topicAuthor = NickFromRaw(EntityFromRaw(m.Args[1]).Label())
		if sec, err := strconv.ParseInt(m.Args[2], 10, 64); err == nil {
			ch.topicTime = time.Unix(sec, 0)
		}
		s.Events.TopicUpdated.Emit(TopicEvent{Channel: ch})

	case ERR_NICKNAMEINUSE:
		alt := EntityFromText(s.params.AltNick)
		if s.status == StatusConnecting && !alt.IsEmpty() && !s.isSelf(alt) {
			s.systemText(fmt.Sprintf("Nickname %s is in use, trying %s", s.nick, alt.Raw()))
			s.nick = alt.Raw()
			s.conn.SendNick(s.nick)
			return
		}
		s.errorText(numericText(m))

	default:
		if IsErrorReply(m.Code) {
			s.errorText(numericText(m))
			return
		}
		if info, ok := LookupNumeric(m.Code); ok && !info.Visible {
			return
		}
		s.systemText(numericText(m))
	}
}

// numericText renders a reply for display, e.g. "bob: No such nick/channel"
func numericText(m *NumericMessage) string {
	switch len(m.Args) {
	case 0:
		return strconv.Itoa(m.Code)
	case 1:
		return m.Args[0]
	default:
		return strings.Join(m.Args[:len(m.Args)-1], " ") + ": " + m.Text()
	}
}

// handleUserhost picks our own host out of "nick[*]=+user@host ..." replies
func (s *Session) handleUserhost(reply string) {
	for _, entry := range strings.Fields(reply) {
		nick, userhost, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		nick = strings.TrimSuffix(nick, "*")
		if !s.isSelf(EntityFromRaw(nick)) {
			continue
		}
		if _, host, ok := strings.Cut(userhost, "@"); ok && host != "" {
			s.hostname = host
		}
	}
}

// handleNames applies a 353 reply. The first reply after a join or an
// end-of-names replaces the roster; later ones extend it.
func (s *Session) handleNames(m *NumericMessage) {
	// "= #chan :names", though some servers omit the channel type
	if len(m.Args) < 2 {
		return
	}
	channel := m.Args[len(m.Args)-2]
	names := m.Args[len(m.Args)-1]

	ch := s.ensureChannel(EntityFromRaw(channel))
	if !ch.namesPending {
		ch.clearMembers()
		ch.namesPending = true
	}
	for _, name := range strings.Fields(names) {
		// userhost-in-names sends nick!user@host
		nick := NickFromRaw(name)
		ch.addName(nick.WithPrivilege(nick.Privilege()))
	}
}

func (s *Session) handleJoin(m *JoinMessage) {
	ch := s.ensureChannel(m.Channel)
	if s.isSelf(m.Sender) {
		ch.active = true
		ch.namesPending = false
		ch.clearMembers()
		s.Events.Joined.Emit(ChannelEvent{Channel: ch})
		return
	}
	ch.addName(NickFromRaw(m.Sender.Label()))
	s.Events.UserJoined.Emit(MemberEvent{Channel: ch, Nick: m.Sender})
}

func (s *Session) handlePart(m *PartMessage) {
	ch := s.findChannel(m.Channel)
	if ch == nil {
		return
	}
	if s.isSelf(m.Sender) {
		ch.active = false
		s.Events.Parted.Emit(ChannelEvent{Channel: ch})
		return
	}
	if ch.removeMember(m.Sender) {
		s.Events.UserParted.Emit(MemberEvent{Channel: ch, Nick: m.Sender, Reason: m.Reason})
	}
}

func (s *Session) handleKick(m *KickMessage) {
	ch := s.findChannel(m.Channel)
	if ch == nil {
		return
	}
	if s.isSelf(m.Victim) {
		ch.active = false
		ch.removeMember(m.Victim)
		s.systemText(fmt.Sprintf("You were kicked from %s by %s (%s)", ch.name.Label(), m.Sender.Label(), m.Reason.String()))
		s.Events.Parted.Emit(ChannelEvent{Channel: ch})
		return
	}
	if ch.removeMember(m.Victim) {
		s.Events.UserKicked.Emit(MemberEvent{Channel: ch, Nick: m.Victim, By: m.Sender, Reason: m.Reason})
	}
}

func (s *Session) handleQuit(m *QuitMessage) {
	if s.isSelf(m.Sender) {
		return
	}
	for _, ch := range s.channels {
		if ch.removeMember(m.Sender) {
			s.Events.UserQuit.Emit(MemberEvent{Channel: ch, Nick: m.Sender, Reason: m.Reason})
		}
	}
}

func (s *Session) handleNick(m *NickMessage) {
	self := s.isSelf(m.Sender)
	newNick := m.NewNick.Label()
	for _, ch := range s.channels {
		ch.renameMember(m.Sender, newNick)
	}
	if self {
		s.nick = newNick
	}
	s.Events.NickChanged.Emit(NickChangeEvent{Old: m.Sender, New: m.NewNick, Self: self})
}

func (s *Session) handleTopic(m *TopicMessage) {
	ch := s.ensureChannel(m.Channel)
	ch.topic = m.Topic
	ch.topicAuthor = NickFromRaw(m.Sender.Label())
	ch.topicTime = s.now()
	s.Events.TopicUpdated.Emit(TopicEvent{Channel: ch})
}

func (s *Session) handleChannelMode(m *ChannelModeMessage) {
	if ch := s.findChannel(m.Channel); ch != nil {
		applyChannelModes(ch, m.Params)
	}
	s.Events.ChannelModeChanged.Emit(ModeEvent{Sender: m.Sender, Target: m.Channel, Params: m.Params})
}

// applyChannelModes updates member privileges from a MODE change. Only o and
// v touch the roster; other argument-taking modes just consume their argument.
func applyChannelModes(ch *JoinedChannel, params []string) {
	if len(params) == 0 {
		return
	}
	args := params[1:]
	next := func() (string, bool) {
		if len(args) == 0 {
			return "", false
		}
		arg := args[0]
		args = args[1:]
		return arg, true
	}

	adding := true
	for _, mode := range params[0] {
		switch mode {
		case '+':
			adding = true
		case '-':
			adding = false
		case 'o', 'v':
			arg, ok := next()
			if !ok {
				continue
			}
			nick := EntityFromRaw(arg)
			member, ok := ch.Member(nick)
			if !ok {
				continue
			}
			ch.setPrivilege(nick, modePrivilege(member.Privilege(), mode, adding))
		case 'b', 'k', 'h', 'e', 'I', 'q', 'a':
			next()
		case 'l':
			if adding {
				next()
			}
		}
	}
}

// modePrivilege only tracks the highest privilege, so removing voice from an
// operator is a no-op and removing op leaves no privilege.
func modePrivilege(current Privilege, mode rune, adding bool) Privilege {
	switch {
	case mode == 'o' && adding:
		return PrivilegeOperator
	case mode == 'o' && current == PrivilegeOperator:
		return PrivilegeNone
	case mode == 'v' && adding && current == PrivilegeNone:
		return PrivilegeVoice
	case mode == 'v' && !adding && current == PrivilegeVoice:
		return PrivilegeNone
	}
	return current
}

func (s *Session) runPerform() {
	for _, command := range s.opts.Perform {
		if err := s.ExecuteCommand("", command); err != nil {
			s.errorText(fmt.Sprintf("Perform %q failed: %v", command, err))
			return
		}
	}
}
