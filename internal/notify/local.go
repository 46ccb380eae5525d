package notify

import (
	"context"
	"sync"
)

const localBuffer = 16

// Local fans events out inside one process. A slow subscriber whose buffer is
// full misses events rather than blocking the publisher.
type Local struct {
	mu     sync.Mutex
	topics map[string]map[*localSub]struct{}
}

type localSub struct {
	ch   chan Event
	once sync.Once
}

var _ Notifier = (*Local)(nil)

func NewLocal() *Local {
	return &Local{topics: make(map[string]map[*localSub]struct{})}
}

func (l *Local) Publish(_ context.Context, topic string, ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for sub := range l.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error) {
	sub := &localSub{ch: make(chan Event, localBuffer)}

	l.mu.Lock()
	if l.topics[topic] == nil {
		l.topics[topic] = make(map[*localSub]struct{})
	}
	l.topics[topic][sub] = struct{}{}
	l.mu.Unlock()

	done := make(chan struct{})
	cancel := func() {
		sub.once.Do(func() {
			l.mu.Lock()
			delete(l.topics[topic], sub)
			if len(l.topics[topic]) == 0 {
				delete(l.topics, topic)
			}
			close(sub.ch)
			l.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return sub.ch, cancel, nil
}

// Subscribers reports how many subscriptions topic has.
func (l *Local) Subscribers(topic string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.topics[topic])
}
