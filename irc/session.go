package irc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/go-log/log"

	"github.com/presbrey/ircclient/metrics"
	"github.com/presbrey/ircclient/wait"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrEmptyText    = errors.New("empty text")
	ErrNoTarget     = errors.New("no target")
	ErrInvalidParam = errors.New("invalid connect parameters")
)

// Reconnect delay defaults: 2s doubling per failure, plus up to 500ms jitter
const (
	DefaultReconnectBase   = 2 * time.Second
	DefaultReconnectJitter = 500 * time.Millisecond
	DefaultReconnectMax    = 5 * time.Minute
)

// ConnectParams are the registration parameters reused on every reconnect
type ConnectParams struct {
	Server   string
	Port     int
	Nick     string
	AltNick  string
	User     string
	RealName string
}

// Address returns the host:port to dial
func (p ConnectParams) Address() string {
	return net.JoinHostPort(p.Server, strconv.Itoa(p.Port))
}

// Options configures a Session
type Options struct {
	// Perform lists slash-commands run in order after registration
	Perform []string

	// NoReconnect disables the reconnect timer
	NoReconnect bool

	// Backoff produces reconnect delays. Defaults to an exponential backoff
	// from DefaultReconnectBase.
	Backoff wait.Strategy

	// Version is the CTCP VERSION reply
	Version string

	// UserInfo is the CTCP USERINFO reply; defaults to the real name
	UserInfo string

	// QuitMessage is sent with a graceful disconnect
	QuitMessage string

	Connection ConnectionOptions
}

// Session is the client state machine. Apart from Wakeup, Invoke and Run,
// its methods must be called from the single owner goroutine that also
// calls Process.
type Session struct {
	Events *Events

	opts    Options
	conn    *Connection
	wakeup  chan struct{}
	backoff wait.Strategy
	now     func() time.Time

	params         ConnectParams
	hasParams      bool
	status         Status
	nick           string
	hostname       string
	channels       []*JoinedChannel
	userDisconnect bool

	// guards state shared with timers and other goroutines
	mu           sync.Mutex
	invokes      []func()
	timer        *time.Timer
	timerGen     int
	reconnectDue bool
}

// NewSession creates a disconnected session
func NewSession(opts Options) *Session {
	if opts.Backoff == nil {
		opts.Backoff = wait.NewExponentialBackoff(DefaultReconnectBase, DefaultReconnectJitter, DefaultReconnectMax)
	}
	if opts.Version == "" {
		opts.Version = "ircclient " + Version
	}
	if opts.QuitMessage == "" {
		opts.QuitMessage = "Leaving"
	}

	s := &Session{
		Events:  newEvents(),
		opts:    opts,
		wakeup:  make(chan struct{}, 1),
		backoff: opts.Backoff,
		now:     time.Now,
	}
	s.conn = NewConnection(s.signal, opts.Connection)
	s.conn.OnMessage = s.handleMessage
	s.conn.OnDisconnect = s.handleDisconnect
	return s
}

// Wakeup fires whenever Process has work to do
func (s *Session) Wakeup() <-chan struct{} {
	return s.wakeup
}

func (s *Session) signal() {
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}

// Invoke queues fn to run on the owner goroutine during the next Process.
// It is safe to call from any goroutine.
func (s *Session) Invoke(fn func()) {
	s.mu.Lock()
	s.invokes = append(s.invokes, fn)
	s.mu.Unlock()
	s.signal()
}

// Run calls Process on every wakeup until ctx is done
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wakeup:
			s.Process()
		}
	}
}

// Process runs queued invocations, drains received lines and fires a due
// reconnect. It never blocks on the network.
func (s *Session) Process() {
	s.mu.Lock()
	invokes := s.invokes
	s.invokes = nil
	due := s.reconnectDue
	s.reconnectDue = false
	s.mu.Unlock()

	for _, fn := range invokes {
		fn()
	}

	s.conn.Process()

	if due && s.status == StatusDisconnected && s.hasParams && !s.userDisconnect {
		s.open()
	}
}

// Connect stores the registration parameters and starts connecting.
// Registration success is reported later through StatusChanged.
func (s *Session) Connect(params ConnectParams) error {
	if params.Server == "" || params.Nick == "" {
		return fmt.Errorf("%w: server and nick are required", ErrInvalidParam)
	}
	if params.Port == 0 {
		params.Port = 6667
	}
	if params.User == "" {
		params.User = params.Nick
	}
	if params.RealName == "" {
		params.RealName = params.Nick
	}

	s.cancelReconnect()
	if s.status != StatusDisconnected {
		s.conn.DisconnectAbortive()
	}

	s.params = params
	s.hasParams = true
	s.userDisconnect = false
	s.backoff.Reset()
	s.open()
	return nil
}

func (s *Session) open() {
	s.nick = s.params.Nick
	s.hostname = ""
	s.setStatus(StatusConnecting)
	s.systemText(fmt.Sprintf("Connecting to %s", s.params.Address()))

	s.conn.Connect(s.params.Address())
	s.conn.SendNick(s.nick)
	s.conn.SendUser(s.params.User, s.params.RealName)
}

// Disconnect closes the connection at the user's request; no reconnect
// follows. A graceful disconnect sends QUIT first.
func (s *Session) Disconnect(graceful bool) {
	s.disconnect(graceful, s.opts.QuitMessage)
}

// Quit disconnects gracefully with a custom quit message
func (s *Session) Quit(message string) {
	if message == "" {
		message = s.opts.QuitMessage
	}
	s.disconnect(true, message)
}

func (s *Session) disconnect(graceful bool, message string) {
	s.userDisconnect = true
	s.cancelReconnect()

	if graceful && s.conn.State() != StateIdle {
		s.conn.DisconnectGraceful(message)
	} else {
		s.conn.DisconnectAbortive()
	}

	// surface the disconnect now rather than on the next wakeup
	s.conn.Process()
	s.setStatus(StatusDisconnected)
}

func (s *Session) handleDisconnect(reason string) {
	cause := "remote"
	if s.userDisconnect {
		cause = "user"
	}
	metrics.Disconnects.WithLabelValues(cause).Inc()

	for _, ch := range s.channels {
		ch.active = false
	}
	s.setStatus(StatusDisconnected)
	s.errorText(reason)

	if s.userDisconnect || s.opts.NoReconnect || !s.hasParams {
		return
	}

	delay, ok := s.backoff.Next()
	if !ok {
		return
	}
	metrics.ReconnectDelay.Observe(delay.Seconds())
	s.systemText(fmt.Sprintf("Reconnecting in %s", delay.Round(time.Millisecond)))
	s.armReconnect(delay)
}

func (s *Session) armReconnect(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if gen == s.timerGen {
			s.reconnectDue = true
		}
		s.mu.Unlock()
		s.signal()
	})
}

func (s *Session) cancelReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	s.reconnectDue = false
}

// ReconnectPending reports whether a reconnect timer is armed
func (s *Session) ReconnectPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil && (s.status == StatusDisconnected)
}

func (s *Session) setStatus(status Status) {
	if s.status == status {
		return
	}
	s.status = status
	metrics.SessionStatus.Set(float64(status))
	s.Events.StatusChanged.Emit(StatusEvent{Status: status})
}

// Status returns the connect status
func (s *Session) Status() Status {
	return s.status
}

// Nick returns our current nickname
func (s *Session) Nick() string {
	return s.nick
}

// Hostname returns our host as reported by USERHOST, once known
func (s *Session) Hostname() string {
	return s.hostname
}

// Params returns the stored registration parameters
func (s *Session) Params() ConnectParams {
	return s.params
}

// Connection returns the underlying transport
func (s *Session) Connection() *Connection {
	return s.conn
}

// Channel returns the tracked state of a channel, or nil
func (s *Session) Channel(name string) *JoinedChannel {
	return s.findChannel(EntityFromText(name))
}

// Channels returns every channel seen during the session's lifetime
func (s *Session) Channels() []*JoinedChannel {
	channels := make([]*JoinedChannel, len(s.channels))
	copy(channels, s.channels)
	return channels
}

func (s *Session) findChannel(name Entity) *JoinedChannel {
	for _, ch := range s.channels {
		if ch.name.Equal(name) {
			return ch
		}
	}
	return nil
}

func (s *Session) ensureChannel(name Entity) *JoinedChannel {
	if ch := s.findChannel(name); ch != nil {
		return ch
	}
	ch := newJoinedChannel(name)
	s.channels = append(s.channels, ch)
	return ch
}

func (s *Session) isSelf(e Entity) bool {
	return s.nick != "" && EntityFromRaw(s.nick).Equal(e)
}

func (s *Session) requireConnected() error {
	if s.status != StatusConnected {
		return ErrNotConnected
	}
	return nil
}

// Join joins a channel
func (s *Session) Join(channel string) error {
	return s.JoinWithKey(channel, "")
}

// JoinWithKey joins a keyed channel
func (s *Session) JoinWithKey(channel, key string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	name := EntityFromText(channel)
	if key == "" {
		s.conn.SendJoin(name.Raw())
	} else {
		s.conn.SendJoinWithKey(name.Raw(), key)
	}
	return nil
}

// Part leaves a channel
func (s *Session) Part(channel, reason string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	s.conn.SendPart(EntityFromText(channel).Raw(), reason)
	return nil
}

// SendText sends a PRIVMSG and echoes it locally through TextReceived
func (s *Session) SendText(target, text string) error {
	return s.sendMessage(target, text, false)
}

// SendNotice sends a NOTICE and echoes it locally through NoticeReceived
func (s *Session) SendNotice(target, text string) error {
	return s.sendMessage(target, text, true)
}

func (s *Session) sendMessage(target, text string, notice bool) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	if target == "" {
		return ErrNoTarget
	}
	if text == "" {
		return ErrEmptyText
	}

	to := EntityFromText(target)
	event := MessageEvent{Sender: EntityFromRaw(s.nick), Target: to, Text: TextFromString(text)}
	if notice {
		s.conn.SendNotice(to.Raw(), event.Text)
		s.Events.NoticeReceived.Emit(event)
	} else {
		s.conn.SendPrivmsg(to.Raw(), event.Text)
		s.Events.TextReceived.Emit(event)
	}
	return nil
}

// SendAction sends a CTCP ACTION and echoes it locally through ActionReceived
func (s *Session) SendAction(target, text string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	if target == "" {
		return ErrNoTarget
	}
	if text == "" {
		return ErrEmptyText
	}

	to := EntityFromText(target)
	s.conn.SendCTCPRequest(to.Raw(), "ACTION", text)
	s.Events.ActionReceived.Emit(MessageEvent{Sender: EntityFromRaw(s.nick), Target: to, Text: TextFromString(text)})
	return nil
}

// SetTopic changes a channel topic
func (s *Session) SetTopic(channel, topic string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	s.conn.SendTopic(EntityFromText(channel).Raw(), TextFromString(topic))
	return nil
}

// SetNick requests a nickname change. Before registration completes it also
// replaces the nick the alt-nick fallback compares against.
func (s *Session) SetNick(nick string) error {
	if s.status == StatusDisconnected {
		return ErrNotConnected
	}
	name := EntityFromText(nick)
	if name.IsEmpty() {
		return ErrInvalidParam
	}
	if s.status == StatusConnecting {
		s.nick = name.Raw()
	}
	s.conn.SendNick(name.Raw())
	return nil
}

func (s *Session) systemText(text string) {
	log.Logf("*** %s", text)
	s.Events.SystemText.Emit(TextEvent{Text: text})
}

func (s *Session) errorText(text string) {
	log.Logf("!!! %s", text)
	s.Events.ErrorText.Emit(TextEvent{Text: text})
}
