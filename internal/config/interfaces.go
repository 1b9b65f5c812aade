package config

import "context"

// SecretProvider resolves secret material (weather provider API key,
// database URL) from wherever the deployment keeps it. Production resolves
// against SSM Parameter Store; local development reads plain environment
// variables. The loader only depends on this interface.
type SecretProvider interface {
	// GetParametersBatch resolves the given keys and returns a map of
	// key to plaintext value. Keys that cannot be resolved may be
	// omitted or reported as an error depending on the backing store.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
