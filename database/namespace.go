package database

import "context"

// Namespaced prefixes every key before handing it to the wrapped Store.
// Closing it does not close the underlying store.
type Namespaced struct {
	inner  Store
	prefix string
}

// Namespace scopes store to keys starting with prefix.
func Namespace(store Store, prefix string) *Namespaced {
	return &Namespaced{inner: store, prefix: prefix}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) MultiSet(ctx context.Context, pairs map[string]string) error {
	scoped := make(map[string]string, len(pairs))
	for k, v := range pairs {
		scoped[n.prefix+k] = v
	}
	return n.inner.MultiSet(ctx, scoped)
}

func (n *Namespaced) Remove(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = n.prefix + k
	}
	return n.inner.Remove(ctx, scoped...)
}

func (n *Namespaced) Close() error { return nil }
