// Package storage persists whole collections under named keys of a key-value
// namespace. Every write overwrites the previous value; there is no merge, no
// versioning and no transaction spanning two keys, so concurrent writers to
// the same namespace race and the last one wins.
package storage

import (
	"bytes"
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Collection keys.
const (
	KeyProducts    = "products"
	KeyCart        = "cart"
	KeyUsers       = "users"
	KeyCurrentUser = "currentUser"
	KeyOrders      = "orders"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Backend is a raw key-value namespace. Get reports ok=false for a key that
// was never written or has been deleted.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Store couples a backend with the collection codec.
type Store struct {
	backend Backend
	log     *zap.Logger
}

type Option func(*Store)

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Backend() Backend { return s.backend }

func (s *Store) Logger() *zap.Logger { return s.log }

// Namespace returns a store over the same backend with every key prefixed.
func (s *Store) Namespace(prefix string) *Store {
	return &Store{backend: WithPrefix(s.backend, prefix), log: s.log}
}

// Collection is a typed view of one key.
type Collection[T any] struct {
	store *Store
	key   string
}

func NewCollection[T any](s *Store, key string) *Collection[T] {
	return &Collection[T]{store: s, key: key}
}

func (c *Collection[T]) Key() string { return c.key }

// Load returns the stored value. A missing, null or undecodable payload is
// reported as absent; only backend failures are returned as errors.
func (c *Collection[T]) Load(ctx context.Context) (T, bool, error) {
	var zero T
	raw, ok, err := c.store.backend.Get(ctx, c.key)
	if err != nil {
		c.store.log.Error("storage read failed", zap.String("key", c.key), zap.Error(err))
		return zero, false, errors.Wrapf(err, "load %s", c.key)
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.store.log.Warn("discarding malformed collection",
			zap.String("key", c.key), zap.Int("bytes", len(raw)), zap.Error(err))
		return zero, false, nil
	}
	return v, true, nil
}

// Save serializes v and overwrites the key.
func (c *Collection[T]) Save(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", c.key)
	}
	if err := c.store.backend.Put(ctx, c.key, raw); err != nil {
		c.store.log.Error("storage write failed", zap.String("key", c.key), zap.Error(err))
		return errors.Wrapf(err, "save %s", c.key)
	}
	return nil
}

// Clear deletes the key.
func (c *Collection[T]) Clear(ctx context.Context) error {
	if err := c.store.backend.Delete(ctx, c.key); err != nil {
		c.store.log.Error("storage delete failed", zap.String("key", c.key), zap.Error(err))
		return errors.Wrapf(err, "clear %s", c.key)
	}
	return nil
}
