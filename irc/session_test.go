package irc

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presbrey/ircclient/hooks"
	"github.com/presbrey/ircclient/wait"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestSession returns a session mid-registration without a socket. Lines
// sent by the session stay in the send queue for inspection.
func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Backoff == nil {
		opts.Backoff = wait.NewFixedStrategy(time.Hour)
	}
	s := NewSession(opts)
	s.now = func() time.Time { return testTime }
	s.params = ConnectParams{Server: "irc.test", Port: 6667, Nick: "me", AltNick: "me_", User: "meuser", RealName: "Me Myself"}
	s.hasParams = true
	s.nick = "me"
	s.status = StatusConnecting
	t.Cleanup(s.cancelReconnect)
	return s
}

func newConnectedSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s := newTestSession(t, opts)
	feed(s, ":irc.test 001 me :Welcome to the test network")
	sent(s)
	return s
}

func feed(s *Session, lines ...string) {
	for _, line := range lines {
		s.handleMessage(ParseLine(line))
	}
}

// sent drains the send queue
func sent(s *Session) []string {
	var lines []string
	for {
		line := s.conn.Queues().PopSend()
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func collect[T any](registry *hooks.Registry[T]) *[]T {
	var events []T
	registry.Subscribe(func(e T) error {
		events = append(events, e)
		return nil
	})
	return &events
}

func TestRegistration(t *testing.T) {
	s := newTestSession(t, Options{Perform: []string{"/join #go", "/msg nickserv identify hunter2"}})
	statuses := collect(s.Events.StatusChanged)

	feed(s, ":irc.test 001 Me :Welcome to the test network")

	assert.Equal(t, StatusConnected, s.Status())
	assert.Equal(t, "Me", s.Nick())
	require.Len(t, *statuses, 1)
	assert.Equal(t, StatusConnected, (*statuses)[0].Status)
	assert.Equal(t, []string{
		"USERHOST :Me\r\n",
		"JOIN :#go\r\n",
		"PRIVMSG nickserv :identify hunter2\r\n",
	}, sent(s))

	feed(s, ":irc.test 302 Me :Me=+meuser@host.example.org")
	assert.Equal(t, "host.example.org", s.Hostname())
}

func TestPerformStopsOnError(t *testing.T) {
	s := newTestSession(t, Options{Perform: []string{"/join nochannel", "/join #go"}})
	errs := collect(s.Events.ErrorText)

	feed(s, ":irc.test 001 me :Welcome")

	assert.Equal(t, []string{"USERHOST :me\r\n"}, sent(s))
	require.Len(t, *errs, 1)
	assert.Contains(t, (*errs)[0].Text, "/join nochannel")
}

func TestAltNick(t *testing.T) {
	s := newTestSession(t, Options{})
	errs := collect(s.Events.ErrorText)

	feed(s, ":irc.test 433 * me :Nickname is already in use")
	assert.Equal(t, []string{"NICK :me_\r\n"}, sent(s))
	assert.Equal(t, "me_", s.Nick())
	assert.Empty(t, *errs)

	// the alternate is only tried once
	feed(s, ":irc.test 433 * me_ :Nickname is already in use")
	assert.Empty(t, sent(s))
	require.Len(t, *errs, 1)
	assert.Contains(t, (*errs)[0].Text, "Nickname is already in use")
}

func TestNickInUseAfterRegistration(t *testing.T) {
	s := newConnectedSession(t, Options{})
	errs := collect(s.Events.ErrorText)

	feed(s, ":irc.test 433 me taken :Nickname is already in use")
	assert.Empty(t, sent(s))
	assert.Len(t, *errs, 1)
}

func TestPing(t *testing.T) {
	s := newTestSession(t, Options{})
	feed(s, "PING :irc.test", "PING a :b c")
	assert.Equal(t, []string{"PONG :irc.test\r\n", "PONG a :b c\r\n"}, sent(s))
}

func TestPrivmsgAndNotice(t *testing.T) {
	s := newConnectedSession(t, Options{})
	texts := collect(s.Events.TextReceived)
	notices := collect(s.Events.NoticeReceived)

	feed(s,
		":alice!a@h PRIVMSG #go :hello there",
		":irc.test NOTICE me :*** Looking up your hostname",
	)

	require.Len(t, *texts, 1)
	assert.Equal(t, "alice", (*texts)[0].Sender.Label())
	assert.Equal(t, "#go", (*texts)[0].Target.Raw())
	assert.Equal(t, "hello there", (*texts)[0].Text.String())

	require.Len(t, *notices, 1)
	assert.Equal(t, "*** Looking up your hostname", (*notices)[0].Text.Raw())
	assert.Empty(t, sent(s))
}

func TestSendText(t *testing.T) {
	s := newTestSession(t, Options{})
	assert.ErrorIs(t, s.SendText("#go", "hi"), ErrNotConnected)

	feed(s, ":irc.test 001 me :Welcome")
	sent(s)
	echoes := collect(s.Events.TextReceived)

	assert.ErrorIs(t, s.SendText("#go", ""), ErrEmptyText)
	require.NoError(t, s.SendText("#go", "hi all"))
	assert.Equal(t, []string{"PRIVMSG #go :hi all\r\n"}, sent(s))
	require.Len(t, *echoes, 1)
	assert.Equal(t, "me", (*echoes)[0].Sender.Label())
}

func TestCTCPRequests(t *testing.T) {
	s := newConnectedSession(t, Options{Version: "testclient 1.0", UserInfo: "just testing"})
	actions := collect(s.Events.ActionReceived)

	feed(s,
		":alice!a@h PRIVMSG me :\x01VERSION\x01",
		":alice!a@h PRIVMSG me :\x01PING 12345\x01",
		":alice!a@h PRIVMSG me :\x01USERINFO\x01",
		":alice!a@h PRIVMSG me :\x01CLIENTINFO\x01",
		":alice!a@h PRIVMSG me :\x01TIME\x01",
		":alice!a@h PRIVMSG #go :\x01ACTION waves\x01",
		":alice!a@h PRIVMSG me :\x01BOGUS\x01",
	)

	assert.Equal(t, []string{
		"NOTICE alice :\x01VERSION testclient 1.0\x01\r\n",
		"NOTICE alice :\x01PING 12345\x01\r\n",
		"NOTICE alice :\x01USERINFO just testing\x01\r\n",
		"NOTICE alice :\x01CLIENTINFO " + ctcpClientInfo + "\x01\r\n",
		"NOTICE alice :\x01TIME " + testTime.Format(time.RFC1123Z) + "\x01\r\n",
	}, sent(s))

	require.Len(t, *actions, 1)
	assert.Equal(t, "waves", (*actions)[0].Text.Raw())
	assert.Equal(t, "#go", (*actions)[0].Target.Raw())
}

func TestCTCPNoticeNeverAnswered(t *testing.T) {
	s := newConnectedSession(t, Options{})
	system := collect(s.Events.SystemText)

	feed(s, ":alice!a@h NOTICE me :\x01VERSION otherclient 2.0\x01")

	assert.Empty(t, sent(s))
	require.Len(t, *system, 1)
	assert.Contains(t, (*system)[0].Text, "otherclient 2.0")
}

func TestDCCOffers(t *testing.T) {
	s := newConnectedSession(t, Options{})
	files := collect(s.Events.DCCFileOffered)
	chats := collect(s.Events.DCCChatOffered)

	feed(s,
		":alice!a@h PRIVMSG me :\x01DCC SEND file.txt 3232235777 5000 1024\x01",
		":alice!a@h PRIVMSG me :\x01DCC SEND \"my file.txt\" 2130706433 6000\x01",
		":alice!a@h PRIVMSG me :\x01DCC CHAT chat 2130706433 7000\x01",
		":alice!a@h PRIVMSG me :\x01DCC SEND broken\x01",
	)

	require.Len(t, *files, 2)
	assert.Equal(t, "file.txt", (*files)[0].Filename)
	assert.True(t, net.IPv4(192, 168, 1, 1).Equal((*files)[0].IP))
	assert.Equal(t, 5000, (*files)[0].Port)
	assert.Equal(t, int64(1024), (*files)[0].Size)
	assert.Equal(t, testTime, (*files)[0].Received)

	assert.Equal(t, "my file.txt", (*files)[1].Filename)
	assert.True(t, net.IPv4(127, 0, 0, 1).Equal((*files)[1].IP))
	assert.Equal(t, int64(-1), (*files)[1].Size)

	require.Len(t, *chats, 1)
	assert.Equal(t, 7000, (*chats)[0].Port)
	assert.Empty(t, sent(s))
}

func TestChannelRoster(t *testing.T) {
	s := newConnectedSession(t, Options{})
	joined := collect(s.Events.Joined)
	userJoined := collect(s.Events.UserJoined)
	names := collect(s.Events.NamesUpdated)

	feed(s,
		":me!meuser@host JOIN #go",
		":irc.test 353 me = #go :@me +bob carol",
		":irc.test 353 me = #go :dave",
		":irc.test 366 me #go :End of /NAMES list.",
	)

	require.Len(t, *joined, 1)
	ch := s.Channel("#GO")
	require.NotNil(t, ch)
	assert.True(t, ch.Active())
	assert.Len(t, ch.Members(), 4)
	assert.Len(t, *names, 1)

	bob, ok := ch.Member(EntityFromRaw("BOB"))
	require.True(t, ok)
	assert.Equal(t, PrivilegeVoice, bob.Privilege())

	// a fresh NAMES burst replaces the roster
	feed(s,
		":irc.test 353 me = #go :@me carol",
		":irc.test 366 me #go :End of /NAMES list.",
	)
	assert.Len(t, ch.Members(), 2)

	feed(s, ":erin!e@h JOIN #go")
	require.Len(t, *userJoined, 1)
	assert.Len(t, ch.Members(), 3)
	assert.True(t, ch.HasMember(EntityFromRaw("erin")))

	feed(s, ":erin!e@h PART #go :later")
	assert.False(t, ch.HasMember(EntityFromRaw("erin")))
	assert.Len(t, ch.Members(), 2)

	// parting an unknown nick changes nothing
	feed(s, ":zed!z@h PART #go")
	assert.Len(t, ch.Members(), 2)
}

func TestQuitRemovesFromEveryChannel(t *testing.T) {
	s := newConnectedSession(t, Options{})
	quits := collect(s.Events.UserQuit)

	feed(s,
		":me!u@h JOIN #a",
		":irc.test 353 me = #a :me bob",
		":irc.test 366 me #a :End",
		":me!u@h JOIN #b",
		":irc.test 353 me = #b :me bob carol",
		":irc.test 366 me #b :End",
		":bob!b@h QUIT :Ping timeout",
	)

	assert.Len(t, *quits, 2)
	assert.False(t, s.Channel("#a").HasMember(EntityFromRaw("bob")))
	assert.False(t, s.Channel("#b").HasMember(EntityFromRaw("bob")))
	assert.True(t, s.Channel("#b").HasMember(EntityFromRaw("carol")))
}

func TestNickChange(t *testing.T) {
	s := newConnectedSession(t, Options{})
	changes := collect(s.Events.NickChanged)

	feed(s,
		":me!u@h JOIN #go",
		":irc.test 353 me = #go :@me +bob",
		":irc.test 366 me #go :End",
		":bob!b@h NICK robert",
		":me!u@h NICK :myself",
	)

	require.Len(t, *changes, 2)
	assert.False(t, (*changes)[0].Self)
	assert.True(t, (*changes)[1].Self)
	assert.Equal(t, "myself", s.Nick())

	ch := s.Channel("#go")
	robert, ok := ch.Member(EntityFromRaw("robert"))
	require.True(t, ok)
	assert.Equal(t, PrivilegeVoice, robert.Privilege())
	assert.False(t, ch.HasMember(EntityFromRaw("bob")))

	self, ok := ch.Member(EntityFromRaw("myself"))
	require.True(t, ok)
	assert.Equal(t, PrivilegeOperator, self.Privilege())
}

func TestKick(t *testing.T) {
	s := newConnectedSession(t, Options{})
	kicks := collect(s.Events.UserKicked)
	parted := collect(s.Events.Parted)

	feed(s,
		":me!u@h JOIN #go",
		":irc.test 353 me = #go :@op me bob",
		":irc.test 366 me #go :End",
		":op!o@h KICK #go bob :flooding",
	)

	require.Len(t, *kicks, 1)
	assert.Equal(t, "bob", (*kicks)[0].Nick.Raw())
	assert.Equal(t, "op", (*kicks)[0].By.Label())
	assert.Equal(t, "flooding", (*kicks)[0].Reason.Raw())

	ch := s.Channel("#go")
	assert.Len(t, ch.Members(), 2)

	feed(s, ":op!o@h KICK #go me :bye")
	require.Len(t, *parted, 1)
	assert.False(t, ch.Active())
	assert.False(t, ch.HasMember(EntityFromRaw("me")))

	// channels are kept after we leave them
	assert.Len(t, s.Channels(), 1)
}

func TestChannelModes(t *testing.T) {
	s := newConnectedSession(t, Options{})
	modes := collect(s.Events.ChannelModeChanged)

	feed(s,
		":me!u@h JOIN #go",
		":irc.test 353 me = #go :@me bob carol",
		":irc.test 366 me #go :End",
	)
	ch := s.Channel("#go")
	privilege := func(nick string) Privilege {
		member, ok := ch.Member(EntityFromRaw(nick))
		require.True(t, ok, nick)
		return member.Privilege()
	}

	feed(s, ":me!u@h MODE #go +o bob")
	assert.Equal(t, PrivilegeOperator, privilege("bob"))

	// voice does not demote an operator
	feed(s, ":me!u@h MODE #go +v bob")
	assert.Equal(t, PrivilegeOperator, privilege("bob"))

	feed(s, ":me!u@h MODE #go -o bob")
	assert.Equal(t, PrivilegeNone, privilege("bob"))

	// k, l and b consume their arguments before o and v
	feed(s, ":me!u@h MODE #go +klbv secret 10 *!*@spam carol")
	assert.Equal(t, PrivilegeVoice, privilege("carol"))
	assert.Equal(t, PrivilegeNone, privilege("bob"))

	// -l takes no argument
	feed(s, ":me!u@h MODE #go -l+o carol")
	assert.Equal(t, PrivilegeOperator, privilege("carol"))

	feed(s, ":me!u@h MODE #go +o nobody")
	assert.Len(t, ch.Members(), 3)
	assert.Len(t, *modes, 6)
}

func TestTopic(t *testing.T) {
	s := newConnectedSession(t, Options{})
	topics := collect(s.Events.TopicUpdated)

	feed(s,
		":me!u@h JOIN #go",
		":irc.test 332 me #go :Welcome to #go",
	)

	// the bare text is stored but not reported until author and time arrive
	ch := s.Channel("#go")
	assert.Equal(t, "Welcome to #go", ch.Topic().String())
	assert.Empty(t, *topics)

	feed(s, ":irc.test 333 me #go alice!a@h 1700000000")
	assert.Equal(t, "alice", ch.TopicAuthor().Raw())
	assert.Equal(t, time.Unix(1700000000, 0), ch.TopicTime())
	require.Len(t, *topics, 1)
	assert.Equal(t, "Welcome to #go", (*topics)[0].Channel.Topic().String())

	feed(s, ":bob!b@h TOPIC #go :New topic")
	assert.Equal(t, "New topic", ch.Topic().Raw())
	assert.Equal(t, "bob", ch.TopicAuthor().Raw())
	assert.Equal(t, testTime, ch.TopicTime())

	feed(s, ":irc.test 331 me #go :No topic is set")
	assert.True(t, ch.Topic().IsEmpty())
	assert.True(t, ch.TopicTime().IsZero())
	assert.Len(t, *topics, 3)
}

func TestNumericText(t *testing.T) {
	s := newConnectedSession(t, Options{})
	system := collect(s.Events.SystemText)
	errs := collect(s.Events.ErrorText)

	feed(s,
		":irc.test 401 me bob :No such nick/channel",
		":irc.test 372 me :- message of the day",
		":irc.test 005 me CHANTYPES=# :are supported by this server",
		":irc.test 999 me :something new",
	)

	require.Len(t, *errs, 1)
	assert.Equal(t, "bob: No such nick/channel", (*errs)[0].Text)
	require.Len(t, *system, 2)
	assert.Equal(t, "- message of the day", (*system)[0].Text)
	assert.Equal(t, "something new", (*system)[1].Text)
}

func TestErrorCommand(t *testing.T) {
	s := newConnectedSession(t, Options{})
	errs := collect(s.Events.ErrorText)

	feed(s, "ERROR :Closing Link: me (Quit)")
	require.Len(t, *errs, 1)
	assert.Equal(t, "Closing Link: me (Quit)", (*errs)[0].Text)
}

func TestDisconnectArmsReconnect(t *testing.T) {
	s := newConnectedSession(t, Options{Backoff: wait.NewFixedStrategy(5 * time.Millisecond)})
	statuses := collect(s.Events.StatusChanged)
	errs := collect(s.Events.ErrorText)

	feed(s, ":me!u@h JOIN #go")
	s.handleDisconnect("Connection closed by server")

	assert.Equal(t, StatusDisconnected, s.Status())
	require.Len(t, *statuses, 1)
	require.Len(t, *errs, 1)
	assert.Equal(t, "Connection closed by server", (*errs)[0].Text)
	assert.False(t, s.Channel("#go").Active())
	assert.True(t, s.ReconnectPending())

	select {
	case <-s.Wakeup():
	case <-time.After(time.Second):
		t.Fatal("reconnect timer did not signal the wakeup")
	}

	s.mu.Lock()
	due := s.reconnectDue
	s.mu.Unlock()
	assert.True(t, due)
}

func TestUserDisconnectDoesNotReconnect(t *testing.T) {
	s := newConnectedSession(t, Options{})
	statuses := collect(s.Events.StatusChanged)

	s.Disconnect(true)

	assert.Equal(t, StatusDisconnected, s.Status())
	assert.Len(t, *statuses, 1)
	assert.False(t, s.ReconnectPending())

	s.handleDisconnect("Disconnected")
	assert.False(t, s.ReconnectPending())
}

func TestNoReconnectOption(t *testing.T) {
	s := newConnectedSession(t, Options{NoReconnect: true})
	s.handleDisconnect("Read error: connection reset by peer")
	assert.False(t, s.ReconnectPending())
}

func TestBackoffResetOnWelcome(t *testing.T) {
	backoff := wait.NewExponentialBackoff(2*time.Second, 0, time.Minute)
	s := newTestSession(t, Options{Backoff: backoff})

	s.handleDisconnect("Unable to connect")
	s.handleDisconnect("Unable to connect")
	assert.Equal(t, 2, backoff.Attempt())

	first, _ := backoff.Next()
	assert.Equal(t, 8*time.Second, first)

	s.status = StatusConnecting
	feed(s, ":irc.test 001 me :Welcome")
	assert.Equal(t, 0, backoff.Attempt())
	next, _ := backoff.Next()
	assert.Equal(t, 2*time.Second, next)
}

func TestInvokeRunsOnProcess(t *testing.T) {
	s := newTestSession(t, Options{})

	done := make(chan struct{})
	go s.Invoke(func() {
		s.nick = "invoked"
		close(done)
	})

	<-s.Wakeup()
	s.Process()
	<-done
	assert.Equal(t, "invoked", s.Nick())
}

func TestConnectValidatesParams(t *testing.T) {
	s := NewSession(Options{})
	assert.ErrorIs(t, s.Connect(ConnectParams{Server: "irc.test"}), ErrInvalidParam)
	assert.ErrorIs(t, s.Connect(ConnectParams{Nick: "me"}), ErrInvalidParam)
	assert.Equal(t, StatusDisconnected, s.Status())
}
