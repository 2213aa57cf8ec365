package irc

import (
	"strings"
)

// Low-level quoting byte. NUL, CR, LF and the quote byte itself never
// appear on the wire unescaped.
const lowQuote = '\x10'

// Message represents one parsed IRC line
type Message struct {
	Prefix  Entity
	Command string
	Params  []string
}

// CreateLine serializes a message into a CRLF-terminated wire line. The last
// parameter is always written in trailing form; a message without parameters
// ends in a bare colon.
func CreateLine(prefix, command string, params ...string) string {
	var builder strings.Builder

	if prefix != "" {
		builder.WriteString(":")
		builder.WriteString(prefix)
		builder.WriteString(" ")
	}

	builder.WriteString(command)

	if len(params) == 0 {
		builder.WriteString(" :")
	}
	for i, param := range params {
		builder.WriteString(" ")
		if i == len(params)-1 {
			builder.WriteString(":")
		}
		builder.WriteString(param)
	}

	return lowLevelQuote(builder.String()) + "\r\n"
}

// ParseLine parses a raw wire line. It returns nil for a blank line.
func ParseLine(raw string) *Message {
	line := lowLevelDequote(strings.TrimRight(raw, "\r\n"))
	if line == "" {
		return nil
	}

	msg := &Message{
		Params: make([]string, 0),
	}

	// Check if the message has a prefix
	if line[0] == ':' {
		prefix, rest, found := strings.Cut(line[1:], " ")
		if !found {
			return nil
		}
		msg.Prefix = EntityFromRaw(prefix)
		line = strings.TrimLeft(rest, " ")
	}

	command, paramPart, _ := strings.Cut(line, " ")
	msg.Command = strings.ToUpper(command)
	if msg.Command == "" {
		return nil
	}

	for paramPart != "" {
		if paramPart[0] == ':' {
			msg.Params = append(msg.Params, paramPart[1:])
			break
		}
		if paramPart[0] == ' ' {
			paramPart = paramPart[1:]
			continue
		}

		param, rest, _ := strings.Cut(paramPart, " ")
		msg.Params = append(msg.Params, param)
		paramPart = rest
	}

	// "CMD :" is how a parameterless message is written
	if len(msg.Params) == 1 && msg.Params[0] == "" {
		msg.Params = msg.Params[:0]
	}

	return msg
}

// Line serializes the message back into a wire line
func (m *Message) Line() string {
	return CreateLine(m.Prefix.Raw(), m.Command, m.Params...)
}

// String returns the line without its terminator, for logging
func (m *Message) String() string {
	return strings.TrimRight(m.Line(), "\r\n")
}

// Trailing returns the last parameter, or "" if there is none
func (m *Message) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

// IsNumeric reports whether the command is a three-digit reply code
func (m *Message) IsNumeric() bool {
	if len(m.Command) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if m.Command[i] < '0' || m.Command[i] > '9' {
			return false
		}
	}
	return true
}

func lowLevelQuote(s string) string {
	if !strings.ContainsAny(s, "\x00\r\n\x10") {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case lowQuote:
			builder.WriteByte(lowQuote)
			builder.WriteByte(lowQuote)
		case 0:
			builder.WriteByte(lowQuote)
			builder.WriteByte('0')
		case '\r':
			builder.WriteByte(lowQuote)
			builder.WriteByte('r')
		case '\n':
			builder.WriteByte(lowQuote)
			builder.WriteByte('n')
		default:
			builder.WriteByte(c)
		}
	}
	return builder.String()
}

func lowLevelDequote(s string) string {
	if strings.IndexByte(s, lowQuote) < 0 {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != lowQuote {
			builder.WriteByte(c)
			continue
		}
		// a dangling quote byte at the end of the line is dropped
		i++
		if i == len(s) {
			break
		}
		switch s[i] {
		case '0':
			builder.WriteByte(0)
		case 'r':
			builder.WriteByte('\r')
		case 'n':
			builder.WriteByte('\n')
		default:
			builder.WriteByte(s[i])
		}
	}
	return builder.String()
}
