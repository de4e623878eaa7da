// Package sse streams server-sent events. A Broker fans published events
// out to every connected subscriber; ServeHTTP attaches one client.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Stream writes events to one client.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewStream sets the event-stream headers. It returns nil when w cannot
// flush.
func NewStream(w http.ResponseWriter) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Stream{w: w, flusher: flusher}
}

func (s *Stream) Send(e Event) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", e.Name, e.Data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Comment writes a keepalive line that clients ignore.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Event is a named, JSON-encoded payload.
type Event struct {
	Name string
	Data []byte
}

type Broker struct {
	mu        sync.RWMutex
	subs      map[chan Event]struct{}
	buffer    int
	heartbeat time.Duration
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan Event]struct{}{}, buffer: 16, heartbeat: 25 * time.Second}
}

// Subscribe returns a channel of events and a function that detaches it.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

// Publish encodes data once and offers it to every subscriber. Slow
// subscribers miss the event.
func (b *Broker) Publish(name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal %s: %w", name, err)
	}
	e := Event{Name: name, Data: raw}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// ServeHTTP streams events until the client disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stream := NewStream(w)
	if stream == nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	// The server's write timeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	events, cancel := b.Subscribe()
	defer cancel()

	tick := time.NewTicker(b.heartbeat)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			if stream.Send(e) != nil {
				return
			}
		case <-tick.C:
			if stream.Comment("ping") != nil {
				return
			}
		}
	}
}
