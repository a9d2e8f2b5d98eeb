package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic("test", TopicConfig{
		BufferSize: 3,
		ReplayAll:  true,
	})

	for i := 1; i <= 5; i++ {
		err := pub.Publish("test", "event", map[string]int{"num": i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Last 3 of 5
	for want := 3; want <= 5; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Expected version %d, got %d", want, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for version %d", want)
		}
	}
}

func TestProjectStatusReplaysLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicProjectStatus, TopicConfig{BufferSize: 5})

	statuses := []ProjectStatus{
		{State: StateLoading, Root: "/game"},
		{State: StateReady, Root: "/game", Generation: 1, Types: 12},
		{State: StateReloading, Root: "/game", Generation: 1},
		{State: StateReady, Root: "/game", Generation: 2, Types: 13},
	}
	for _, s := range statuses {
		if err := pub.Publish(TopicProjectStatus, s.State, s); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicProjectStatus)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Version != 4 || event.Type != StateReady {
			t.Errorf("replayed event = %d %s", event.Version, event.Type)
		}
		var got ProjectStatus
		if err := json.Unmarshal(event.Data, &got); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if got.Generation != 2 || got.Types != 13 {
			t.Errorf("payload = %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	for i := 1; i <= 3; i++ {
		if err := pub.Publish("test", "event", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	if err := pub.Publish("test", "event", map[string]int{"num": 4}); err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestConfigureTopicTrimsBacklog(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic("test", TopicConfig{BufferSize: 4, ReplayAll: true})
	for i := 1; i <= 4; i++ {
		if err := pub.Publish("test", "event", i); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	pub.ConfigureTopic("test", TopicConfig{BufferSize: 2, ReplayAll: true})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	var got []int
	for len(got) < 2 {
		select {
		case event := <-sub.Events():
			got = append(got, event.Version)
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout, got versions %v", got)
		}
	}
	if got[0] != 3 || got[1] != 4 {
		t.Errorf("replayed versions = %v, want [3 4]", got)
	}
}

func TestClosedPublisher(t *testing.T) {
	pub := NewSSEPublisher()
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Publish(TopicProjectStatus, StateReady, ProjectStatus{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	if _, err := pub.Subscribe(context.Background(), TopicProjectStatus); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrClosed", err)
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicProjectStatus, Type: StateFailed, Data: json.RawMessage(`{"error":"boom"}`), Version: 7}
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "id: 7\ndata: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("unexpected frame %q", out)
	}
	if !strings.Contains(out, `"version":7`) || !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("frame lacks event fields: %q", out)
	}
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureTopic(TopicProjectStatus, TopicConfig{BufferSize: 1})
	if err := pub.Publish(TopicProjectStatus, StateReady, ProjectStatus{State: StateReady}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicProjectStatus)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	// The replayed event is still delivered, then the channel closes
	var received int
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				if received != 1 {
					t.Errorf("received %d events before close, want 1", received)
				}
				if err := sub.Close(); err != nil {
					t.Errorf("second Close: %v", err)
				}
				return
			}
			received++
		case <-time.After(time.Second):
			t.Fatal("events channel not closed after the context was cancelled")
		}
	}
}

func TestPublisherCloseThenSubscriptionClose(t *testing.T) {
	pub := NewSSEPublisher()
	sub, err := pub.Subscribe(context.Background(), TopicProjectStatus)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("expected a closed events channel")
	}
	// Must not close the channel a second time
	if err := sub.Close(); err != nil {
		t.Errorf("subscription Close: %v", err)
	}
}
