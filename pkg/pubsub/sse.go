package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/forge-graph/pkg/logging"
)

var log = logging.New("pubsub")

// ErrClosed is returned by a publisher after Close
var ErrClosed = errors.New("publisher is closed")

// subscriberQueue is the per-subscriber channel capacity. A subscriber that
// falls this far behind loses events rather than stalling Publish.
const subscriberQueue = 100

// TopicConfig configures the backlog kept for late subscribers
type TopicConfig struct {
	BufferSize int  // Events kept per topic, 0 keeps none
	ReplayAll  bool // Replay the whole backlog instead of only the newest event
}

// topic holds everything the publisher tracks for one topic
type topic struct {
	config  TopicConfig
	version int
	backlog []Event
	subs    map[*sseSubscription]struct{}
}

// replay returns the events a new subscriber should see first
func (t *topic) replay() []Event {
	if len(t.backlog) == 0 {
		return nil
	}
	events := t.backlog
	if !t.config.ReplayAll {
		events = events[len(events)-1:]
	}
	return append([]Event(nil), events...)
}

func (t *topic) remember(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.backlog = append(t.backlog, event)
	if over := len(t.backlog) - t.config.BufferSize; over > 0 {
		t.backlog = t.backlog[over:]
	}
}

// SSEPublisher is an in-process Publisher whose events are meant to be
// streamed to HTTP clients with WriteSSE.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// topicLocked returns the state for name, creating it on first use.
// p.mu must be held.
func (p *SSEPublisher) topicLocked(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets the backlog policy of a topic. Events already in the
// backlog are trimmed to the new size.
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.topicLocked(name)
	t.config = config
	if config.BufferSize <= 0 {
		t.backlog = nil
	} else if over := len(t.backlog) - config.BufferSize; over > 0 {
		t.backlog = t.backlog[over:]
	}
}

// Subscribe registers a subscriber and queues the replayed backlog ahead of
// any live event. The subscription closes when ctx is done.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberQueue),
		publisher: p,
	}
	t := p.topicLocked(name)
	replay := t.replay()
	// Queued under the lock so a concurrent Publish cannot overtake the replay
	for _, event := range replay {
		sub.events <- event
		if len(sub.events) == cap(sub.events) {
			break
		}
	}
	t.subs[sub] = struct{}{}
	p.mu.Unlock()

	if len(replay) > 0 {
		log.Debug("Replayed backlog", "topic", name, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// Publish marshals data and delivers it to every subscriber of the topic.
// Versions increase per topic; a full subscriber queue drops the event.
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	t := p.topicLocked(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}
	t.remember(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			log.Warn("Subscriber queue full, dropping event", "topic", name, "type", eventType, "version", event.Version)
		}
	}
	return nil
}

// Close ends every subscription. Later Publish and Subscribe calls fail
// with ErrClosed.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = nil
	}
	return nil
}

// unsubscribe removes sub and closes its channel. Publisher.Close closes the
// channels of every subscriber it still holds, so only a registered
// subscriber is closed here.
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.topics[sub.topic]
	if !ok {
		return
	}
	if _, registered := t.subs[sub]; registered {
		delete(t.subs, sub)
		close(sub.events)
	}
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *sseSubscription) Topic() string { return s.topic }

func (s *sseSubscription) Events() <-chan Event { return s.events }

// Close unsubscribes and closes the events channel. Events already queued
// can still be received.
func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes one event frame: the version as the event id followed by
// the JSON encoded event on a single data line.
func WriteSSE(w io.Writer, event Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Version, frame)
	return err
}
