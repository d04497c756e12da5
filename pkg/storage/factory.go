package storage

import (
	"context"
	"fmt"
	"sort"
)

// ClientConstructor is a function that creates a client instance
type ClientConstructor func(ctx context.Context, cfg Config) (Client, error)

var clientRegistry = make(map[string]ClientConstructor)

// RegisterBackend registers a client constructor under a backend type
func RegisterBackend(backendType string, constructor ClientConstructor) {
	clientRegistry[backendType] = constructor
}

// RegisteredTypes lists the backend types that can be initialized
func RegisteredTypes() []string {
	types := make([]string, 0, len(clientRegistry))
	for t := range clientRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Init builds the client described by cfg. Every failure wraps ErrClientInit,
// and a nil error always comes with a usable client.
func Init(ctx context.Context, cfg Config) (Client, error) {
	backendType := cfg.Type
	if backendType == "" {
		backendType = DefaultType
	}

	constructor, ok := clientRegistry[backendType]
	if !ok {
		return nil, fmt.Errorf("%w: %w: unknown backend type %q", ErrClientInit, ErrInvalidConfig, backendType)
	}

	client, err := constructor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientInit, err)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: backend %q returned no client", ErrClientInit, backendType)
	}

	return client, nil
}
