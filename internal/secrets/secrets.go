// Package secrets resolves the token signing secret at call time. A Resolver
// walks a list of variable names against a Source and returns the first
// non-empty value, so the secret can be rotated or provisioned while the
// process is running.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotConfigured is returned when none of the resolver's names has a value.
var ErrNotConfigured = errors.New("JWT_SECRET is not configured")

// SigningSecretNames are checked in order; the first non-empty one wins.
var SigningSecretNames = []string{"JWT_SECRET", "JWT_ACCESS_SECRET"}

// Source looks up a named secret. An unset name yields "" and a nil error.
type Source interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// EnvSource reads secrets from the process environment.
type EnvSource struct {
	getenv func(string) string
}

func NewEnvSource() *EnvSource {
	return &EnvSource{getenv: os.Getenv}
}

func (s *EnvSource) Lookup(_ context.Context, name string) (string, error) {
	return s.getenv(name), nil
}

// Resolver returns the first non-empty secret among its names.
type Resolver struct {
	source Source
	names  []string
}

// NewResolver builds a Resolver over source. With no names it uses
// SigningSecretNames.
func NewResolver(source Source, names ...string) *Resolver {
	if len(names) == 0 {
		names = SigningSecretNames
	}
	return &Resolver{source: source, names: names}
}

// Resolve performs the lookup. It is called on every token operation.
func (r *Resolver) Resolve(ctx context.Context) ([]byte, error) {
	for _, name := range r.names {
		v, err := r.source.Lookup(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", name, err)
		}
		if v != "" {
			return []byte(v), nil
		}
	}
	return nil, ErrNotConfigured
}
