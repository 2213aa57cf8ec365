package irc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-log/log"
	"github.com/lrstanley/girc"
)

// ErrSyntax matches every *SyntaxError
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports a malformed slash-command. Nothing is sent when it is
// returned.
type SyntaxError struct {
	Command string
	Usage   string
	Reason  string
}

func (e *SyntaxError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("/%s: %s (usage: /%s %s)", e.Command, e.Reason, e.Command, e.Usage)
	}
	return fmt.Sprintf("usage: /%s %s", e.Command, e.Usage)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

type command struct {
	usage string
	// args is the most fields the line is split into; the last one keeps
	// its spaces. Zero splits every field.
	args    int
	minArgs int
	run     func(s *Session, filter Entity, args []string) error
}

var commands = map[string]*command{
	"nick":    {usage: "<nick>", args: 1, minArgs: 1, run: cmdNick},
	"join":    {usage: "<#channel> [key]", args: 2, minArgs: 1, run: cmdJoin},
	"part":    {usage: "[#channel] [reason]", args: 2, run: cmdPart},
	"topic":   {usage: "[#channel] [topic]", args: 2, run: cmdTopic},
	"kick":    {usage: "[#channel] <nick> [reason]", args: 3, minArgs: 1, run: cmdKick},
	"msg":     {usage: "<target> <text>", args: 2, minArgs: 2, run: cmdMsg},
	"privmsg": {usage: "<target> <text>", args: 2, minArgs: 2, run: cmdMsg},
	"notice":  {usage: "<target> <text>", args: 2, minArgs: 2, run: cmdNotice},
	"who":     {usage: "<mask>", args: 1, minArgs: 1, run: cmdWho},
	"whois":   {usage: "<nick>", args: 1, minArgs: 1, run: cmdWhois},
	"me":      {usage: "<action>", args: 1, minArgs: 1, run: cmdMe},
	"quit":    {usage: "[reason]", args: 1, run: cmdQuit},
	"mode":    {usage: "<target> [modes [args...]]", minArgs: 1, run: cmdMode},
	"ctcp":    {usage: "<target> <command> [data]", args: 3, minArgs: 2, run: cmdCTCP},
	"raw":     {usage: "<line>", args: 1, minArgs: 1, run: cmdRaw},
	"quote":   {usage: "<line>", args: 1, minArgs: 1, run: cmdRaw},
}

// ExecuteCommand runs one line of user input. A line starting with "/" is a
// command; anything else, or a line starting with "//", is sent as text to
// filter, the target currently in view. Unknown commands are ignored.
func (s *Session) ExecuteCommand(filter, line string) error {
	line = strings.TrimRight(line, "\r\n")
	target := EntityFromText(filter)

	if !strings.HasPrefix(line, "/") || strings.HasPrefix(line, "//") {
		if strings.HasPrefix(line, "/") {
			line = line[1:]
		}
		if target.IsEmpty() {
			return ErrNoTarget
		}
		return s.SendText(target.Raw(), line)
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	name = strings.ToLower(name)
	cmd, ok := commands[name]
	if !ok {
		if Debug {
			log.Logf("ignoring unknown command /%s", name)
		}
		return nil
	}

	args := splitArgs(rest, cmd.args)
	if len(args) < cmd.minArgs {
		return &SyntaxError{Command: name, Usage: cmd.usage}
	}
	if err := cmd.run(s, target, args); err != nil {
		var syntax *SyntaxError
		if errors.As(err, &syntax) {
			syntax.Command = name
			syntax.Usage = cmd.usage
		}
		return err
	}
	return nil
}

// splitArgs splits on spaces into at most n fields. The last field keeps its
// inner spaces so trailing text survives intact.
func splitArgs(s string, n int) []string {
	var args []string
	s = strings.TrimLeft(s, " ")
	for s != "" {
		if n > 0 && len(args) == n-1 {
			args = append(args, s)
			break
		}
		arg, rest, _ := strings.Cut(s, " ")
		args = append(args, arg)
		s = strings.TrimLeft(rest, " ")
	}
	return args
}

func invalid(reason string) error {
	return &SyntaxError{Reason: reason}
}

// isChannelName accepts only '#' channels, matching Entity.IsChannel
func isChannelName(name string) bool {
	return strings.HasPrefix(name, "#") && girc.IsValidChannel(name)
}

func validChannel(name string) error {
	if !isChannelName(name) {
		return invalid(fmt.Sprintf("invalid channel %q", name))
	}
	return nil
}

func validNick(name string) error {
	if !girc.IsValidNick(name) {
		return invalid(fmt.Sprintf("invalid nick %q", name))
	}
	return nil
}

// channelArg takes an explicit leading channel argument, falling back to the
// filter when it is a channel
func channelArg(filter Entity, args []string) (string, []string, error) {
	if len(args) > 0 && isChannelName(args[0]) {
		return args[0], args[1:], nil
	}
	if filter.IsChannel() {
		return filter.Raw(), args, nil
	}
	return "", nil, invalid("no channel given")
}

func cmdNick(s *Session, _ Entity, args []string) error {
	if err := validNick(args[0]); err != nil {
		return err
	}
	return s.SetNick(args[0])
}

func cmdJoin(s *Session, _ Entity, args []string) error {
	if err := validChannel(args[0]); err != nil {
		return err
	}
	if len(args) > 1 {
		return s.JoinWithKey(args[0], strings.TrimSpace(args[1]))
	}
	return s.Join(args[0])
}

func cmdPart(s *Session, filter Entity, args []string) error {
	// without a channel both fields belong to the reason
	if len(args) == 2 && !isChannelName(args[0]) {
		args = []string{args[0] + " " + args[1]}
	}
	channel, rest, err := channelArg(filter, args)
	if err != nil {
		return err
	}
	return s.Part(channel, strings.Join(rest, " "))
}

func cmdTopic(s *Session, filter Entity, args []string) error {
	if len(args) == 2 && !isChannelName(args[0]) {
		args = []string{args[0] + " " + args[1]}
	}
	channel, rest, err := channelArg(filter, args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		if err := s.requireConnected(); err != nil {
			return err
		}
		s.conn.SendRaw("TOPIC", channel)
		return nil
	}
	return s.SetTopic(channel, rest[0])
}

func cmdKick(s *Session, filter Entity, args []string) error {
	if !isChannelName(args[0]) {
		// no channel: the reason may hold spaces that were split off
		if len(args) == 3 {
			args = []string{args[0], args[1] + " " + args[2]}
		}
	}
	channel, rest, err := channelArg(filter, args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return invalid("no nick given")
	}
	if err := validNick(rest[0]); err != nil {
		return err
	}
	if err := s.requireConnected(); err != nil {
		return err
	}
	reason := ""
	if len(rest) > 1 {
		reason = rest[1]
	}
	s.conn.SendKick(channel, rest[0], reason)
	return nil
}

func cmdMsg(s *Session, _ Entity, args []string) error {
	return s.SendText(args[0], args[1])
}

func cmdNotice(s *Session, _ Entity, args []string) error {
	return s.SendNotice(args[0], args[1])
}

func cmdWho(s *Session, _ Entity, args []string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	s.conn.SendWho(args[0])
	return nil
}

func cmdWhois(s *Session, _ Entity, args []string) error {
	if err := validNick(args[0]); err != nil {
		return err
	}
	if err := s.requireConnected(); err != nil {
		return err
	}
	s.conn.SendWhois(args[0])
	return nil
}

func cmdMe(s *Session, filter Entity, args []string) error {
	if filter.IsEmpty() {
		return ErrNoTarget
	}
	return s.SendAction(filter.Raw(), args[0])
}

func cmdQuit(s *Session, _ Entity, args []string) error {
	if s.status == StatusDisconnected {
		return ErrNotConnected
	}
	reason := ""
	if len(args) > 0 {
		reason = args[0]
	}
	s.Quit(reason)
	return nil
}

func cmdMode(s *Session, _ Entity, args []string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	s.conn.SendMode(args[0], args[1:]...)
	return nil
}

func cmdCTCP(s *Session, _ Entity, args []string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	data := ""
	if len(args) > 2 {
		data = args[2]
	}
	s.conn.SendCTCPRequest(args[0], strings.ToUpper(args[1]), data)
	return nil
}

func cmdRaw(s *Session, _ Entity, args []string) error {
	msg := ParseLine(args[0])
	if msg == nil || msg.Command == "" {
		return invalid("empty line")
	}
	if err := s.requireConnected(); err != nil {
		return err
	}
	s.conn.SendRaw(msg.Command, msg.Params...)
	return nil
}
