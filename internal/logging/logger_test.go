package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.NotNil(t, l.Underlying())
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "not-a-level"})
	assert.Error(t, err)
}

func TestContextFields_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithTenant(ctx, "T1")
	ctx = WithTool(ctx, "search_documents")
	ctx = WithRequestID(ctx, "req-123")

	fields := ContextFields(ctx)
	require.Len(t, fields, 3)
}

func TestContextFields_Empty(t *testing.T) {
	fields := ContextFields(context.Background())
	assert.Empty(t, fields)
}
