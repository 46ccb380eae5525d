package storage

import "context"

type prefixed struct {
	backend Backend
	prefix  string
}

// WithPrefix namespaces every key of b. Closing the returned view leaves the
// shared backend open.
func WithPrefix(b Backend, prefix string) Backend {
	if p, ok := b.(*prefixed); ok {
		return &prefixed{backend: p.backend, prefix: p.prefix + prefix}
	}
	return &prefixed{backend: b, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.backend.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key string, value []byte) error {
	return p.backend.Put(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.backend.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Close() error { return nil }
