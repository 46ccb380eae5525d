// Package audit fans domain events out to long-lived subscribers such as the
// audit log and the receipt mailer.
package audit

import (
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"coffeeshop/internal/models"
)

const (
	ProductCreate = "product.create"
	ProductUpdate = "product.update"
	ProductDelete = "product.delete"
	OrderPlaced   = "order.placed"
	OrderStatus   = "order.status"
	UserRegister  = "user.register"
	UserLogin     = "user.login"
	UserUpdate    = "user.update"
)

// Topics lists every event the application records.
var Topics = []string{
	ProductCreate, ProductUpdate, ProductDelete,
	OrderPlaced, OrderStatus,
	UserRegister, UserLogin, UserUpdate,
}

type Event struct {
	Topic   string        `json:"topic"`
	Actor   string        `json:"actor,omitempty"`
	Subject string        `json:"subject"`
	At      time.Time     `json:"at"`
	Order   *models.Order `json:"order,omitempty"`
}

// Recorder accepts events. Implementations must not block the caller for long.
type Recorder interface {
	Record(Event)
}

type nop struct{}

func (nop) Record(Event) {}

// Nop discards every event.
var Nop Recorder = nop{}

// Trail is a Recorder backed by an in-process bus.
type Trail struct {
	bus EventBus.Bus
	log *zap.Logger
}

var _ Recorder = (*Trail)(nil)

// NewTrail returns a trail whose events are written to log at info level.
func NewTrail(log *zap.Logger) (*Trail, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Trail{bus: EventBus.New(), log: log.Named("audit")}
	for _, topic := range Topics {
		if err := t.Subscribe(topic, t.write); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Trail) Record(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	t.bus.Publish(e.Topic, e)
}

// Subscribe registers fn for topic. Each handler runs off the caller's
// goroutine and sees events in publish order.
func (t *Trail) Subscribe(topic string, fn func(Event)) error {
	return t.bus.SubscribeAsync(topic, fn, true)
}

// Close waits for queued events to be handled.
func (t *Trail) Close() {
	t.bus.WaitAsync()
}

func (t *Trail) write(e Event) {
	fields := []zap.Field{
		zap.String("topic", e.Topic),
		zap.String("subject", e.Subject),
		zap.Time("at", e.At),
	}
	if e.Actor != "" {
		fields = append(fields, zap.String("actor", e.Actor))
	}
	if e.Order != nil {
		fields = append(fields,
			zap.String("order_id", e.Order.ID),
			zap.String("total", e.Order.Total.StringFixed(2)),
			zap.Int("items", e.Order.ItemCount()))
	}
	t.log.Info("audit event", fields...)
}
