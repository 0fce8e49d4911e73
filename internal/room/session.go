package room

import "sync"

// SessionHandle is how a room reaches one connected client. Rooms only know
// this interface; the websocket plumbing lives behind it.
type SessionHandle interface {
	// ID returns the session identifier.
	ID() string

	// Send delivers an event. It must return without blocking even when
	// the receiver is slow; the tick loop calls it on every broadcast.
	Send(evt Event)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}
}

// ChannelSession is a SessionHandle over a buffered channel. The transport
// layer drains Events and writes them to the connection.
type ChannelSession struct {
	id       string
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelSession creates a channel-backed session handle holding at most
// bufferSize undelivered events.
func NewChannelSession(id string, bufferSize int) *ChannelSession {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelSession{
		id:     id,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() string {
	return s.id
}

// Send queues an event for delivery. A slow consumer never blocks the room:
// when the buffer is full the oldest event is dropped to make space. State
// snapshots are full-state, so a dropped one is superseded by the next.
func (s *ChannelSession) Send(evt Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel the transport layer drains.
func (s *ChannelSession) Events() <-chan Event {
	return s.events
}

// Done returns the channel closed by Close.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close ends the session. Calling it again is a no-op.
func (s *ChannelSession) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}
