package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityAccessors(t *testing.T) {
	e := EntityFromRaw("alice!ali@host.example")
	assert.Equal(t, "alice", e.Label())
	assert.Equal(t, "alice", e.Name())
	assert.Equal(t, "ali", e.User())
	assert.Equal(t, "host.example", e.Host())
	assert.False(t, e.IsChannel())
	assert.Equal(t, "alice", e.String())

	ch := EntityFromRaw("#Go-Nuts")
	assert.True(t, ch.IsChannel())
	assert.Equal(t, "#Go-Nuts", ch.Label())
	assert.Equal(t, "Go-Nuts", ch.Name())

	server := EntityFromRaw("irc.example.net")
	assert.Equal(t, "irc.example.net", server.Label())
	assert.Equal(t, "", server.Host())

	assert.True(t, EntityFromRaw("").IsEmpty())
	assert.Equal(t, "bob", EntityFromRaw("@bob").Name())
}

func TestEntityFromText(t *testing.T) {
	// "e" followed by a combining acute accent normalizes to a single rune
	e := EntityFromText("  cafe\u0301 ")
	assert.Equal(t, "caf\u00e9", e.Raw())
}

func TestEntityEqual(t *testing.T) {
	tests := []struct {
		a, b  string
		equal bool
	}{
		{"Alice", "alice", true},
		{"alice!u@h", "ALICE", true},
		{"nick[away]", "NICK{AWAY}", true},
		{"a\\b", "A|B", true},
		{"#Go", "#go", true},
		{"@bob", "bob", true},
		{"#bob", "bob", false},
		{"alice", "alicia", false},
	}

	for _, tt := range tests {
		a, b := EntityFromRaw(tt.a), EntityFromRaw(tt.b)
		assert.Equal(t, tt.equal, a.Equal(b), "%s vs %s", tt.a, tt.b)
		assert.Equal(t, tt.equal, b.Equal(a), "%s vs %s", tt.b, tt.a)
		assert.Equal(t, tt.equal, a.Key() == b.Key(), "keys of %s and %s", tt.a, tt.b)
	}
}

func TestNickPrivilege(t *testing.T) {
	tests := []struct {
		raw       string
		name      string
		privilege Privilege
	}{
		{"@alice", "alice", PrivilegeOperator},
		{"+bob", "bob", PrivilegeVoice},
		{"carol", "carol", PrivilegeNone},
		{"@+dave", "dave", PrivilegeOperator},
		{"+@erin", "erin", PrivilegeOperator},
		{"~frank", "frank", PrivilegeOperator},
		{"%gina", "gina", PrivilegeVoice},
	}

	for _, tt := range tests {
		n := NickFromRaw(tt.raw)
		assert.Equal(t, tt.name, n.Name(), tt.raw)
		assert.Equal(t, tt.privilege, n.Privilege(), tt.raw)
	}

	n := NickFromRaw("bob")
	assert.Equal(t, "@bob", n.WithPrivilege(PrivilegeOperator).Raw())
	assert.Equal(t, "bob", n.WithPrivilege(PrivilegeOperator).WithPrivilege(PrivilegeNone).Raw())
	assert.Equal(t, "+robert", NickFromRaw("+bob").Rename("robert").Raw())
	assert.True(t, NickFromRaw("@bob").Equal(EntityFromRaw("BOB")))
}

func TestText(t *testing.T) {
	plain := TextFromString("\x02bold\x02 move")
	assert.False(t, plain.IsCTCP())
	assert.Equal(t, "bold move", plain.String())

	action := TextFromRaw("\x01ACTION waves\x01")
	assert.True(t, action.IsCTCP())
	assert.Equal(t, "ACTION waves", action.CTCPData())
	command, args := action.CTCPCommand()
	assert.Equal(t, "ACTION", command)
	assert.Equal(t, "waves", args)

	// a missing closing delimiter is tolerated
	command, args = TextFromRaw("\x01version").CTCPCommand()
	assert.Equal(t, "VERSION", command)
	assert.Equal(t, "", args)

	assert.False(t, TextFromRaw("\x01").IsCTCP())
	assert.Equal(t, "\x01PING 123\x01", TextFromCTCPData("PING 123").Raw())
}
