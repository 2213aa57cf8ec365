package irc

import (
	"sync"
)

// ConnectionQueues buffers lines between the socket worker and the owner.
// The mutex is held only for the duration of a queue mutation.
type ConnectionQueues struct {
	mu           sync.Mutex
	send         []string
	received     []string
	sendReady    chan struct{}
	disconnected bool
	reason       string
}

// NewConnectionQueues creates an empty set of queues
func NewConnectionQueues() *ConnectionQueues {
	return &ConnectionQueues{
		sendReady: make(chan struct{}, 1),
	}
}

// PushSend appends an outgoing line and raises the send-ready event
func (q *ConnectionQueues) PushSend(line string) {
	q.mu.Lock()
	q.send = append(q.send, line)
	q.mu.Unlock()

	select {
	case q.sendReady <- struct{}{}:
	default:
	}
}

// PopSend removes the oldest outgoing line. On an empty queue it clears the
// send-ready event and returns "".
func (q *ConnectionQueues) PopSend() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.send) == 0 {
		select {
		case <-q.sendReady:
		default:
		}
		return ""
	}

	line := q.send[0]
	q.send[0] = ""
	q.send = q.send[1:]
	return line
}

// PendingSend returns the number of queued outgoing lines
func (q *ConnectionQueues) PendingSend() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.send)
}

// SendReady fires when the send queue may be non-empty
func (q *ConnectionQueues) SendReady() <-chan struct{} {
	return q.sendReady
}

// PushReceived appends a line read from the socket
func (q *ConnectionQueues) PushReceived(line string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.received = append(q.received, line)
}

// PopReceived removes the oldest received line
func (q *ConnectionQueues) PopReceived() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.received) == 0 {
		return "", false
	}

	line := q.received[0]
	q.received[0] = ""
	q.received = q.received[1:]
	return line, true
}

// SetDisconnected latches a disconnect with its reason
func (q *ConnectionQueues) SetDisconnected(reason string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.disconnected = true
	q.reason = reason
}

// PopDisconnected consumes the disconnect latch. Only the first call after
// SetDisconnected returns true.
func (q *ConnectionQueues) PopDisconnected() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.disconnected {
		return "", false
	}
	q.disconnected = false
	reason := q.reason
	q.reason = ""
	return reason, true
}

// Reset clears all queue state before a fresh connect
func (q *ConnectionQueues) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.send = nil
	q.received = nil
	q.disconnected = false
	q.reason = ""
	select {
	case <-q.sendReady:
	default:
	}
}
