// Package notify carries "this cart changed" signals between the code that
// mutates a profile's cart and whoever is watching it.
package notify

import "context"

type Event string

const (
	Updated Event = "updated"
	Cleared Event = "cleared"
)

// CartTopic is the channel of one profile's cart.
func CartTopic(profileID string) string { return "cart:" + profileID }

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

// Subscriber delivers the events of topic until cancel is called or ctx ends.
// The channel is closed once the subscription is gone.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (events <-chan Event, cancel func(), err error)
}

type Notifier interface {
	Publisher
	Subscriber
}
