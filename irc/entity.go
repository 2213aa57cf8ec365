package irc

import (
	"strings"

	"github.com/lrstanley/girc"
	"golang.org/x/text/unicode/norm"
)

// Entity is a protocol label naming a nick, a channel or a server. The raw
// bytes are kept as received; accessors derive display names from them.
type Entity struct {
	raw string
}

// EntityFromText builds an Entity from user-typed input
func EntityFromText(s string) Entity {
	return Entity{raw: norm.NFC.String(strings.TrimSpace(s))}
}

// EntityFromRaw builds an Entity from wire bytes, which need not be valid UTF-8
func EntityFromRaw(raw string) Entity {
	return Entity{raw: raw}
}

// Raw returns the label exactly as it was created
func (e Entity) Raw() string {
	return e.raw
}

// IsEmpty reports whether the entity carries no label at all
func (e Entity) IsEmpty() bool {
	return e.raw == ""
}

// Label returns the raw label without the !user@host suffix
func (e Entity) Label() string {
	if i := strings.IndexByte(e.raw, '!'); i >= 0 {
		return e.raw[:i]
	}
	if i := strings.IndexByte(e.raw, '@'); i > 0 {
		return e.raw[:i]
	}
	return e.raw
}

// Name returns the label with a single leading sigil (#, @ or +) removed
func (e Entity) Name() string {
	label := e.Label()
	if label != "" && isSigil(label[0]) {
		return label[1:]
	}
	return label
}

// User returns the user part of a nick!user@host label
func (e Entity) User() string {
	i := strings.IndexByte(e.raw, '!')
	if i < 0 {
		return ""
	}
	rest := e.raw[i+1:]
	if j := strings.IndexByte(rest, '@'); j >= 0 {
		return rest[:j]
	}
	return rest
}

// Host returns the host part of a nick!user@host label
func (e Entity) Host() string {
	if i := strings.LastIndexByte(e.raw, '@'); i >= 0 && i < len(e.raw)-1 {
		return e.raw[i+1:]
	}
	return ""
}

// IsChannel reports whether the label names a channel
func (e Entity) IsChannel() bool {
	return strings.HasPrefix(e.raw, "#")
}

// Key returns the casefolded comparison key for the entity. Channels and
// nicks never share a key.
func (e Entity) Key() string {
	name := girc.ToRFC1459(e.Name())
	if e.IsChannel() {
		return "#" + name
	}
	return name
}

// Equal compares two entities under RFC 1459 casemapping
func (e Entity) Equal(o Entity) bool {
	return e.IsChannel() == o.IsChannel() && girc.ToRFC1459(e.Name()) == girc.ToRFC1459(o.Name())
}

// String implements fmt.Stringer
func (e Entity) String() string {
	return e.Label()
}

func isSigil(c byte) bool {
	return c == '#' || c == '@' || c == '+'
}

// Privilege is a member's status within one channel
type Privilege int

const (
	PrivilegeNone Privilege = iota
	PrivilegeVoice
	PrivilegeOperator
)

// String returns the nick sigil for the privilege
func (p Privilege) String() string {
	switch p {
	case PrivilegeOperator:
		return "@"
	case PrivilegeVoice:
		return "+"
	default:
		return ""
	}
}

// Nick is a channel member. The privilege is carried by the label sigil the
// way NAMES replies render it.
type Nick struct {
	Entity
}

// NickFromRaw builds a Nick from a wire label such as "@alice" or "bob!u@h".
// NAMES replies from multi-prefix servers may carry several sigils; only the
// highest one is kept.
func NickFromRaw(raw string) Nick {
	priv := PrivilegeNone
	for raw != "" && strings.IndexByte("@+%~&", raw[0]) >= 0 {
		switch raw[0] {
		case '@', '~', '&':
			priv = PrivilegeOperator
		case '+', '%':
			if priv == PrivilegeNone {
				priv = PrivilegeVoice
			}
		}
		raw = raw[1:]
	}
	return Nick{Entity: EntityFromRaw(priv.String() + raw)}
}

// Privilege returns the member's channel privilege
func (n Nick) Privilege() Privilege {
	switch {
	case strings.HasPrefix(n.raw, "@"):
		return PrivilegeOperator
	case strings.HasPrefix(n.raw, "+"):
		return PrivilegeVoice
	default:
		return PrivilegeNone
	}
}

// WithPrivilege returns a copy of the nick rendered with the given privilege
func (n Nick) WithPrivilege(p Privilege) Nick {
	return Nick{Entity: EntityFromRaw(p.String() + n.Name())}
}

// Rename returns the nick under a new name, keeping its privilege
func (n Nick) Rename(name string) Nick {
	return Nick{Entity: EntityFromRaw(n.Privilege().String() + name)}
}
