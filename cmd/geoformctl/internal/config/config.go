package config

import (
	"context"

	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/client"
)

type contextKey string

const configKey contextKey = "geoformctl-config"

// GlobalConfig holds shared configuration for all geoformctl commands.
// The root command injects it into the cobra command context.
type GlobalConfig struct {
	ServerURL      string
	NonInteractive bool
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("geoformctl: config not found in context - this is a bug in geoformctl")
	}
	return cfg
}
