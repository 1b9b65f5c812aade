package config

import (
	"context"
	"os"
)

// EnvVarProvider resolves secrets from process environment variables. Used
// when APP_ENV=local, typically together with a .env file loaded by godotenv,
// so developers never need SSM access to run the service.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch looks up each key with os.LookupEnv. Keys absent from
// the environment are left out of the result rather than treated as errors;
// the loader decides which secrets are required.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	resolved := make(map[string]string, len(keys))
	for _, key := range keys {
		val, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		resolved[key] = val
	}
	return resolved, nil
}
