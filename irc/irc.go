/*
Package irc implements an Internet Relay Chat client engine following
RFC 1459 and the CTCP conventions most clients share.

# Layers

  - Entity and Text model labels and message payloads as raw wire bytes
    with RFC 1459 casemapping for comparison.
  - ParseLine and CreateLine form the wire codec, including the CTCP
    low-level quoting of NUL, CR, LF and 0x10.
  - Connection owns the socket on a worker goroutine and exchanges lines
    with the owner through ConnectionQueues.
  - Session is the state machine: registration, alt-nick fallback, channel
    rosters, topics, CTCP replies, DCC offers and reconnect with backoff.
  - ExecuteCommand parses slash-commands typed by the user.

# Threading

A Session and everything reachable from it belong to one owner goroutine.
Other goroutines hand work over with Session.Invoke; the owner either calls
Session.Run or selects on Session.Wakeup and calls Session.Process. Events
are delivered from Process, on the owner goroutine.

# Example

	s := irc.NewSession(irc.Options{Perform: []string{"/join #go-nuts"}})
	s.Events.TextReceived.Subscribe(func(e irc.MessageEvent) error {
		fmt.Printf("<%s> %s\n", e.Sender, e.Text)
		return nil
	})
	s.Connect(irc.ConnectParams{Server: "irc.libera.chat", Port: 6667, Nick: "gopher"})
	s.Run(ctx)
*/
package irc

// Version is reported in CTCP VERSION replies
const Version = "0.3.0"
