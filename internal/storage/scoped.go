package storage

import "context"

// Scoped prefixes every key with a namespace before delegating to the
// underlying Medium. Isolation between namespaces is by key naming only.
type Scoped struct {
	medium    Medium
	namespace string
}

func Scope(medium Medium, namespace string) *Scoped {
	return &Scoped{medium: medium, namespace: namespace}
}

func (s *Scoped) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.medium.Get(ctx, s.key(key))
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.medium.Set(ctx, s.key(key), value)
}

func (s *Scoped) Ping(ctx context.Context) error {
	return s.medium.Ping(ctx)
}
