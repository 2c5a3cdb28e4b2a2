package cmdutil

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/terraconstructs/geoform/internal/config"
)

// Runtime carries the loaded configuration and process logger to subcommands.
type Runtime struct {
	Config *config.Config
	Logger *logrus.Logger
}

type runtimeKey struct{}

// WithRuntime stores rt on ctx.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// RuntimeFrom returns the runtime set by the root command.
func RuntimeFrom(ctx context.Context) (*Runtime, error) {
	if ctx == nil {
		return nil, errors.New("command context is not set")
	}
	rt, ok := ctx.Value(runtimeKey{}).(*Runtime)
	if !ok || rt == nil {
		return nil, errors.New("configuration was not loaded")
	}
	return rt, nil
}
