package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLineTrailing(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		command  string
		params   []string
		expected string
	}{
		{"single param", "", "NICK", []string{"alice"}, "NICK :alice\r\n"},
		{"text with spaces", "", "PRIVMSG", []string{"#go", "hello there"}, "PRIVMSG #go :hello there\r\n"},
		{"prefix", "srv", "PING", []string{"tok"}, ":srv PING :tok\r\n"},
		{"no params", "", "QUIT", nil, "QUIT :\r\n"},
		{"empty last param", "", "TOPIC", []string{"#go", ""}, "TOPIC #go :\r\n"},
		{"user", "", "USER", []string{"alice", "0", "*", "Alice A"}, "USER alice 0 * :Alice A\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CreateLine(tt.prefix, tt.command, tt.params...))
		})
	}
}

func TestParseLine(t *testing.T) {
	msg := ParseLine(":alice!a@host.example PRIVMSG #go :hello there\r\n")
	require.NotNil(t, msg)
	assert.Equal(t, "alice!a@host.example", msg.Prefix.Raw())
	assert.Equal(t, "alice", msg.Prefix.Label())
	assert.Equal(t, "PRIVMSG", msg.Command)
	assert.Equal(t, []string{"#go", "hello there"}, msg.Params)
	assert.Equal(t, "hello there", msg.Trailing())

	msg = ParseLine("ping tok")
	require.NotNil(t, msg)
	assert.Equal(t, "PING", msg.Command)
	assert.True(t, msg.Prefix.IsEmpty())
	assert.Equal(t, []string{"tok"}, msg.Params)

	msg = ParseLine("MODE  #go   +o  bob")
	require.NotNil(t, msg)
	assert.Equal(t, []string{"#go", "+o", "bob"}, msg.Params)

	msg = ParseLine(":srv 001 me :Welcome :)")
	require.NotNil(t, msg)
	assert.True(t, msg.IsNumeric())
	assert.Equal(t, []string{"me", "Welcome :)"}, msg.Params)

	assert.Nil(t, ParseLine(""))
	assert.Nil(t, ParseLine("\r\n"))
	assert.Nil(t, ParseLine(":prefixonly"))
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		command string
		params  []string
	}{
		{"PRIVMSG", []string{"#go", "hi"}},
		{"PRIVMSG", []string{"#go", "with spaces and :colons"}},
		{"PRIVMSG", []string{"bob", "nul\x00cr\rlf\nquote\x10end"}},
		{"TOPIC", []string{"#go", ""}},
		{"QUIT", []string{}},
		{"MODE", []string{"#go", "+ov", "alice", "bob"}},
	}

	for _, tt := range tests {
		line := CreateLine("", tt.command, tt.params...)
		msg := ParseLine(line)
		require.NotNil(t, msg, line)
		assert.Equal(t, tt.command, msg.Command)
		assert.Equal(t, tt.params, msg.Params, "%q", line)
	}
}

func TestLowLevelQuoting(t *testing.T) {
	line := CreateLine("", "PRIVMSG", "bob", "a\x00b\rc\nd\x10e")
	assert.Equal(t, "PRIVMSG bob :a\x100b\x10rc\x10nd\x10\x10e\r\n", line)

	// CR and LF never appear before the terminator
	body := line[:len(line)-2]
	assert.NotContains(t, body, "\r")
	assert.NotContains(t, body, "\n")
	assert.NotContains(t, body, "\x00")

	assert.Equal(t, "a\x00b\rc\nd\x10e", lowLevelDequote("a\x100b\x10rc\x10nd\x10\x10e"))
	assert.Equal(t, "x", lowLevelDequote("\x10x"), "unknown escapes yield the escaped byte")
	assert.Equal(t, "ab", lowLevelDequote("ab\x10"), "a dangling quote byte is dropped")
}

func TestDecode(t *testing.T) {
	tests := []struct {
		line     string
		expected MessageType
	}{
		{":srv 001 me :Welcome", TypeNumeric},
		{":a!u@h NICK b", TypeNick},
		{":a!u@h JOIN #go", TypeJoin},
		{":a!u@h PART #go :bye", TypePart},
		{":a!u@h KICK #go b :out", TypeKick},
		{":a!u@h KICK #go", TypeUnknown},
		{":a!u@h QUIT", TypeQuit},
		{":a!u@h MODE #go +o b", TypeChannelMode},
		{":a MODE a +i", TypeNickMode},
		{":a MODE #go", TypeUnknown},
		{":a!u@h TOPIC #go :new", TypeTopic},
		{":a!u@h PRIVMSG #go :hi", TypePrivmsg},
		{":a!u@h PRIVMSG #go", TypeUnknown},
		{":a!u@h NOTICE me :hi", TypeNotice},
		{"PING :tok", TypePing},
		{"ERROR :Closing link", TypeUnknown},
	}

	for _, tt := range tests {
		msg := ParseLine(tt.line)
		require.NotNil(t, msg, tt.line)
		assert.Equal(t, tt.expected, msg.Type(), tt.line)
		assert.Equal(t, tt.expected, msg.Decode().Type(), tt.line)
	}
}

func TestDecodeFields(t *testing.T) {
	kick, ok := ParseLine(":op!u@h KICK #go bob :flooding").Decode().(*KickMessage)
	require.True(t, ok)
	assert.Equal(t, "op", kick.Sender.Label())
	assert.Equal(t, "#go", kick.Channel.Raw())
	assert.Equal(t, "bob", kick.Victim.Raw())
	assert.Equal(t, "flooding", kick.Reason.Raw())

	num, ok := ParseLine(":srv 353 me = #go :@alice +bob carol").Decode().(*NumericMessage)
	require.True(t, ok)
	assert.Equal(t, RPL_NAMREPLY, num.Code)
	assert.Equal(t, "me", num.Target.Raw())
	assert.Equal(t, "#go", num.Arg(1))
	assert.Equal(t, "@alice +bob carol", num.Text())
	assert.Equal(t, "", num.Arg(7))

	mode, ok := ParseLine(":op MODE #go +ov alice bob").Decode().(*ChannelModeMessage)
	require.True(t, ok)
	assert.Equal(t, []string{"+ov", "alice", "bob"}, mode.Params)

	ping, ok := ParseLine("PING tok1 :tok2").Decode().(*PingMessage)
	require.True(t, ok)
	assert.Equal(t, []string{"tok1", "tok2"}, ping.Tokens)
}

func TestNumerics(t *testing.T) {
	info, ok := LookupNumeric(RPL_WELCOME)
	require.True(t, ok)
	assert.Equal(t, "RPL_WELCOME", info.Name)

	assert.True(t, IsErrorReply(ERR_NICKNAMEINUSE))
	assert.True(t, IsErrorReply(ERR_NOSUCHNICK))
	assert.False(t, IsErrorReply(RPL_TOPIC))

	_, ok = LookupNumeric(999)
	assert.False(t, ok)
}
