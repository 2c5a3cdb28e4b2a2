package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// With no provider installed the global noop provider backs every instrument,
// so recording must be safe and allocation of instruments must succeed.
func TestInstrumentsWithNoopProvider(t *testing.T) {
	ctx := context.Background()

	server, err := NewServerMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		server.RecordRequest(ctx, "GET", "/api/users/me", 200, 1.5)
		server.RecordRequest(ctx, "GET", "/api/users/me", 500, 3)
	})

	auth, err := NewAuthMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		auth.RecordAuth(ctx, "bearer", "", 0.4)
		auth.RecordAuth(ctx, "bearer", "invalid_token", 0.2)
	})
}

func TestSpanHelpers(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "geoform/test", "test.Op")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		RecordError(span, errors.New("boom"))
		RecordError(span, nil)
	})
}
