package irc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-log/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/presbrey/ircclient/metrics"
)

// ConnectionState is the transport lifecycle state
type ConnectionState int32

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "idle"
	}
}

const readBufferSize = 4096

var (
	// DialTimeout is the default timeout of dial
	DialTimeout = 30 * time.Second
	// KeepAliveTime is the keep alive period for the TCP connection
	KeepAliveTime = 180 * time.Second
	// FlushTimeout bounds how long a graceful disconnect may spend writing
	FlushTimeout = 2 * time.Second
)

// ConnectionOptions tunes the transport. Zero values fall back to the
// package defaults.
type ConnectionOptions struct {
	DialTimeout  time.Duration
	KeepAlive    time.Duration
	FlushTimeout time.Duration

	// Limiter throttles outgoing lines. Nil disables flood control.
	Limiter *rate.Limiter
}

// Connection owns one TCP socket and the worker goroutine serving it.
// OnMessage and OnDisconnect are only ever called from Process, on the
// owner's goroutine.
type Connection struct {
	OnMessage    func(msg *Message)
	OnDisconnect func(reason string)

	queues *ConnectionQueues
	notify func()
	opts   ConnectionOptions
	state  atomic.Int32

	mu     sync.Mutex
	worker *worker
}

// NewConnection creates an idle connection. notify is called from the worker
// goroutine whenever Process has something to do; it must not block.
func NewConnection(notify func(), opts ConnectionOptions) *Connection {
	if notify == nil {
		notify = func() {}
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DialTimeout
	}
	if opts.KeepAlive == 0 {
		opts.KeepAlive = KeepAliveTime
	}
	if opts.FlushTimeout == 0 {
		opts.FlushTimeout = FlushTimeout
	}
	return &Connection{
		queues: NewConnectionQueues(),
		notify: notify,
		opts:   opts,
	}
}

// Queues exposes the connection's line buffers
func (c *Connection) Queues() *ConnectionQueues {
	return c.queues
}

// State returns the current transport state
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Connect starts a worker that dials address ("host:port"). Any previous
// worker is stopped first. Failures are reported through the disconnect
// latch, never returned.
func (c *Connection) Connect(address string) {
	c.DisconnectAbortive()
	c.queues.Reset()

	w := &worker{
		id:      uuid.NewString()[:8],
		address: address,
		conn:    c,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	c.worker = w
	c.mu.Unlock()

	c.state.Store(int32(StateConnecting))
	metrics.ConnectAttempts.Inc()
	go w.run()
}

// DisconnectGraceful queues a QUIT and stops the worker once the send queue
// has been flushed. Delivery of the QUIT is best effort. It blocks until the
// worker has exited.
func (c *Connection) DisconnectGraceful(message string) {
	c.SendQuit(message)
	c.stop(true)
}

// DisconnectAbortive stops the worker immediately, dropping queued output.
// It blocks until the worker has exited.
func (c *Connection) DisconnectAbortive() {
	c.stop(false)
}

func (c *Connection) stop(flush bool) {
	c.mu.Lock()
	w := c.worker
	c.mu.Unlock()

	if w == nil {
		return
	}

	select {
	case <-w.done:
		return
	default:
	}

	c.state.Store(int32(StateDisconnecting))
	w.requestStop(flush, c.opts.FlushTimeout)
	<-w.done
	c.state.Store(int32(StateIdle))
}

// Process drains received lines into OnMessage and then reports a pending
// disconnect, if any, through OnDisconnect. It never blocks.
func (c *Connection) Process() {
	for {
		line, ok := c.queues.PopReceived()
		if !ok {
			break
		}

		msg := ParseLine(line)
		if msg == nil {
			continue
		}
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}

	if reason, ok := c.queues.PopDisconnected(); ok && c.OnDisconnect != nil {
		c.OnDisconnect(reason)
	}
}

// SendRaw queues an arbitrary command
func (c *Connection) SendRaw(command string, params ...string) {
	c.queues.PushSend(CreateLine("", command, params...))
}

func (c *Connection) SendNick(nick string) {
	c.SendRaw("NICK", nick)
}

func (c *Connection) SendUser(username, realname string) {
	c.SendRaw("USER", username, "0", "*", realname)
}

func (c *Connection) SendJoin(channel string) {
	c.SendRaw("JOIN", channel)
}

func (c *Connection) SendJoinWithKey(channel, key string) {
	c.SendRaw("JOIN", channel, key)
}

func (c *Connection) SendPart(channel, reason string) {
	if reason == "" {
		c.SendRaw("PART", channel)
		return
	}
	c.SendRaw("PART", channel, reason)
}

func (c *Connection) SendPrivmsg(target string, text Text) {
	c.SendRaw("PRIVMSG", target, text.Raw())
}

func (c *Connection) SendNotice(target string, text Text) {
	c.SendRaw("NOTICE", target, text.Raw())
}

func (c *Connection) SendTopic(channel string, topic Text) {
	c.SendRaw("TOPIC", channel, topic.Raw())
}

func (c *Connection) SendKick(channel, nick, reason string) {
	if reason == "" {
		c.SendRaw("KICK", channel, nick)
		return
	}
	c.SendRaw("KICK", channel, nick, reason)
}

func (c *Connection) SendMode(target string, modes ...string) {
	c.SendRaw("MODE", append([]string{target}, modes...)...)
}

// SendPong answers a server PING, echoing its tokens
func (c *Connection) SendPong(tokens ...string) {
	c.SendRaw("PONG", tokens...)
}

func (c *Connection) SendQuit(message string) {
	if message == "" {
		c.SendRaw("QUIT")
		return
	}
	c.SendRaw("QUIT", message)
}

func (c *Connection) SendUserhost(nick string) {
	c.SendRaw("USERHOST", nick)
}

func (c *Connection) SendWho(mask string) {
	c.SendRaw("WHO", mask)
}

func (c *Connection) SendWhois(nick string) {
	c.SendRaw("WHOIS", nick)
}

// SendCTCPRequest sends a CTCP request inside a PRIVMSG
func (c *Connection) SendCTCPRequest(target, command, data string) {
	c.SendPrivmsg(target, TextFromCTCPData(joinCTCP(command, data)))
}

// SendCTCPReply sends a CTCP reply inside a NOTICE
func (c *Connection) SendCTCPReply(target, command, data string) {
	c.SendNotice(target, TextFromCTCPData(joinCTCP(command, data)))
}

func joinCTCP(command, data string) string {
	command = strings.ToUpper(command)
	if data == "" {
		return command
	}
	return command + " " + data
}

// worker serves one connection attempt
type worker struct {
	id      string
	address string
	conn    *Connection

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	flush    atomic.Bool

	mu     sync.Mutex
	socket net.Conn
}

type readResult struct {
	data []byte
	err  error
}

func (w *worker) requestStop(flush bool, flushTimeout time.Duration) {
	w.stopOnce.Do(func() {
		w.flush.Store(flush)

		// Bound any in-flight socket call so the worker observes the stop
		w.mu.Lock()
		if w.socket != nil {
			if flush {
				w.socket.SetDeadline(time.Now().Add(flushTimeout))
			} else {
				w.socket.SetDeadline(time.Now())
			}
		}
		w.mu.Unlock()

		close(w.stop)
	})
}

func (w *worker) run() {
	defer close(w.done)

	reason := w.loop()
	log.Logf("[%s] *** Disconnected from %s: %s", w.id, w.address, reason)

	w.conn.state.Store(int32(StateIdle))
	w.conn.queues.SetDisconnected(reason)
	w.conn.notify()
}

func (w *worker) loop() string {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	opts := w.conn.opts
	dialer := net.Dialer{Timeout: opts.DialTimeout, KeepAlive: opts.KeepAlive}

	log.Logf("[%s] *** Connecting to %s", w.id, w.address)
	socket, err := dialer.DialContext(ctx, "tcp", w.address)
	if err != nil {
		if ctx.Err() != nil {
			return "Disconnected"
		}
		return fmt.Sprintf("Unable to connect to %s: %v", w.address, err)
	}
	defer socket.Close()

	if tcp, ok := socket.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
		tcp.SetKeepAlive(true)
		tcp.SetKeepAlivePeriod(opts.KeepAlive)
	}

	w.mu.Lock()
	w.socket = socket
	w.mu.Unlock()

	// A stop requested while dialing must still be honoured
	select {
	case <-w.stop:
		return "Disconnected"
	default:
	}

	w.conn.state.Store(int32(StateConnected))
	log.Logf("[%s] *** Connected to %s", w.id, socket.RemoteAddr())

	reads := make(chan readResult)
	go w.readLoop(ctx, socket, reads)

	var (
		tail      []byte
		limitWait *time.Timer
		limitC    <-chan time.Time
	)
	defer func() {
		if limitWait != nil {
			limitWait.Stop()
		}
	}()

	for {
		sendReady := w.conn.queues.SendReady()
		if limitC != nil {
			sendReady = nil
		}

		select {
		case <-w.stop:
			if w.flush.Load() {
				w.flushQueue(socket)
			}
			return "Disconnected"

		case r := <-reads:
			if r.err != nil {
				if errors.Is(r.err, io.EOF) {
					return "Connection closed by server"
				}
				return fmt.Sprintf("Read error: %v", r.err)
			}
			tail = w.frame(append(tail, r.data...))

		case <-sendReady:
			delay, err := w.drain(socket)
			if err != nil {
				return fmt.Sprintf("Write error: %v", err)
			}
			if delay > 0 {
				limitWait = time.NewTimer(delay)
				limitC = limitWait.C
			}

		case <-limitC:
			limitC = nil
			delay, err := w.drain(socket)
			if err != nil {
				return fmt.Sprintf("Write error: %v", err)
			}
			if delay > 0 {
				limitWait.Reset(delay)
				limitC = limitWait.C
			}
		}
	}
}

// readLoop feeds raw chunks to the worker until the socket fails
func (w *worker) readLoop(ctx context.Context, socket net.Conn, out chan<- readResult) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := socket.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			metrics.BytesTotal.WithLabelValues(metrics.In).Add(float64(n))

			select {
			case out <- readResult{data: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case out <- readResult{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}

// frame pushes every complete line in buf to the receive queue and returns
// the unterminated tail
func (w *worker) frame(buf []byte) []byte {
	pushed := false
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}

		line := string(buf[:i])
		buf = buf[i+1:]
		if strings.TrimRight(line, "\r") == "" {
			continue
		}

		if Debug {
			log.Logf("[%s] <= %s", w.id, strings.TrimRight(line, "\r"))
		}
		metrics.LinesTotal.WithLabelValues(metrics.In).Inc()
		w.conn.queues.PushReceived(line)
		pushed = true
	}

	if pushed {
		w.conn.notify()
	}
	if len(buf) == 0 {
		return nil
	}
	return append([]byte(nil), buf...)
}

// drain writes queued lines until the queue is empty or the flood limiter
// asks for a pause, in which case the pause is returned
func (w *worker) drain(socket net.Conn) (time.Duration, error) {
	limiter := w.conn.opts.Limiter

	for {
		if limiter != nil {
			if w.conn.queues.PendingSend() == 0 {
				w.conn.queues.PopSend()
				return 0, nil
			}
			r := limiter.Reserve()
			if delay := r.Delay(); delay > 0 {
				r.Cancel()
				return delay, nil
			}
		}

		line := w.conn.queues.PopSend()
		if line == "" {
			return 0, nil
		}
		if err := w.write(socket, line); err != nil {
			return 0, err
		}
	}
}

// flushQueue writes whatever is still queued, ignoring the flood limiter
func (w *worker) flushQueue(socket net.Conn) {
	for {
		line := w.conn.queues.PopSend()
		if line == "" {
			return
		}
		if err := w.write(socket, line); err != nil {
			log.Logf("[%s] Error flushing send queue: %v", w.id, err)
			return
		}
	}
}

func (w *worker) write(socket net.Conn, line string) error {
	if Debug {
		log.Logf("[%s] => %s", w.id, strings.TrimRight(line, "\r\n"))
	}

	n, err := io.WriteString(socket, line)
	metrics.BytesTotal.WithLabelValues(metrics.Out).Add(float64(n))
	if err != nil {
		return err
	}
	metrics.LinesTotal.WithLabelValues(metrics.Out).Inc()
	return nil
}
