package irc

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-log/log"
)

// ctcpClientInfo is the CLIENTINFO reply; keep it in step with ctcpHandlers
const ctcpClientInfo = "ACTION CLIENTINFO DCC FINGER PING TIME USERINFO VERSION"

type ctcpHandler func(s *Session, sender, target Entity, args string)

var ctcpHandlers = map[string]ctcpHandler{
	"ACTION": func(s *Session, sender, target Entity, args string) {
		s.Events.ActionReceived.Emit(MessageEvent{Sender: sender, Target: target, Text: TextFromRaw(args)})
	},
	"VERSION": func(s *Session, sender, _ Entity, _ string) {
		s.ctcpReply(sender, "VERSION", s.opts.Version)
	},
	"PING": func(s *Session, sender, _ Entity, args string) {
		s.ctcpReply(sender, "PING", args)
	},
	"TIME": func(s *Session, sender, _ Entity, _ string) {
		s.ctcpReply(sender, "TIME", s.now().Format(time.RFC1123Z))
	},
	"FINGER": func(s *Session, sender, _ Entity, _ string) {
		s.ctcpReply(sender, "FINGER", fmt.Sprintf("%s (%s)", s.params.RealName, s.params.User))
	},
	"USERINFO": func(s *Session, sender, _ Entity, _ string) {
		info := s.opts.UserInfo
		if info == "" {
			info = s.params.RealName
		}
		s.ctcpReply(sender, "USERINFO", info)
	},
	"CLIENTINFO": func(s *Session, sender, _ Entity, _ string) {
		s.ctcpReply(sender, "CLIENTINFO", ctcpClientInfo)
	},
	"DCC": func(s *Session, sender, _ Entity, args string) {
		s.handleDCC(sender, args)
	},
}

// handleCTCP answers a CTCP request. Replies arriving in a NOTICE are shown
// but never answered, which keeps two clients from looping.
func (s *Session) handleCTCP(sender, target Entity, text Text, notice bool) {
	command, args := text.CTCPCommand()

	if notice {
		if command == "ACTION" {
			s.Events.ActionReceived.Emit(MessageEvent{Sender: sender, Target: target, Text: TextFromRaw(args)})
			return
		}
		s.systemText(fmt.Sprintf("CTCP %s reply from %s: %s", command, sender.Label(), TextFromRaw(args).String()))
		return
	}

	handler, ok := ctcpHandlers[command]
	if !ok {
		if Debug {
			log.Logf("ignoring CTCP %s from %s", command, sender.Label())
		}
		return
	}
	if command != "ACTION" && command != "DCC" {
		s.systemText(fmt.Sprintf("Received CTCP %s from %s", command, sender.Label()))
	}
	handler(s, sender, target, args)
}

func (s *Session) ctcpReply(to Entity, command, data string) {
	s.conn.SendCTCPReply(to.Label(), command, data)
}

// handleDCC parses DCC SEND and DCC CHAT offers and announces them
func (s *Session) handleDCC(sender Entity, args string) {
	kind, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	switch strings.ToUpper(kind) {
	case "SEND":
		filename, rest := dccFilename(rest)
		fields := strings.Fields(rest)
		if filename == "" || len(fields) < 2 {
			break
		}
		ip, port, ok := dccAddress(fields[0], fields[1])
		if !ok {
			break
		}
		offer := DCCFileOffer{
			Sender:   sender,
			Filename: filename,
			IP:       ip,
			Port:     port,
			Size:     -1,
			Received: s.now(),
		}
		if len(fields) > 2 {
			if size, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
				offer.Size = size
			}
		}
		s.systemText(fmt.Sprintf("%s offers file %s", sender.Label(), filename))
		s.Events.DCCFileOffered.Emit(offer)
		return

	case "CHAT":
		// the argument after CHAT is the protocol, conventionally "chat"
		fields := strings.Fields(rest)
		if len(fields) < 3 {
			break
		}
		ip, port, ok := dccAddress(fields[1], fields[2])
		if !ok {
			break
		}
		s.systemText(fmt.Sprintf("%s offers a DCC chat", sender.Label()))
		s.Events.DCCChatOffered.Emit(DCCChatOffer{Sender: sender, IP: ip, Port: port, Received: s.now()})
		return
	}
	s.errorText(fmt.Sprintf("Malformed DCC request from %s: %s", sender.Label(), args))
}

// dccFilename splits a possibly quoted filename off the front of args
func dccFilename(args string) (string, string) {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, `"`) {
		if end := strings.IndexByte(args[1:], '"'); end >= 0 {
			return args[1 : end+1], args[end+2:]
		}
		return "", ""
	}
	name, rest, _ := strings.Cut(args, " ")
	return name, rest
}

// dccAddress decodes the address as a 32-bit integer (IPv4) or a literal
// address (IPv6) and the port
func dccAddress(addr, portText string) (net.IP, int, bool) {
	port, err := strconv.Atoi(portText)
	if err != nil || port < 0 || port > 65535 {
		return nil, 0, false
	}

	if n, err := strconv.ParseUint(addr, 10, 32); err == nil {
		return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n)), port, true
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip, port, true
	}
	return nil, 0, false
}
