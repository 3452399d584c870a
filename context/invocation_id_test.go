package context

import (
	stdctx "context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvocationID(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		ctx := WithInvocationID(stdctx.Background(), "abc")
		assert.Equal(t, "abc", InvocationIDFromContext(ctx))
	})

	t.Run("Missing", func(t *testing.T) {
		assert.Equal(t, "", InvocationIDFromContext(stdctx.Background()))
		assert.Equal(t, "", InvocationIDFromContext(nil))
	})

	t.Run("UnrelatedStringKey", func(t *testing.T) {
		ctx := stdctx.WithValue(stdctx.Background(), struct{ name string }{"invocation"}, "abc")
		assert.Equal(t, "", InvocationIDFromContext(ctx))
	})

	t.Run("EnsureKeepsExisting", func(t *testing.T) {
		ctx := WithInvocationID(stdctx.Background(), "abc")
		got, id := EnsureInvocationID(ctx)
		assert.Equal(t, "abc", id)
		assert.Equal(t, ctx, got)
	})

	t.Run("EnsureGenerates", func(t *testing.T) {
		ctx, id := EnsureInvocationID(stdctx.Background())
		assert.NotEmpty(t, id)
		assert.Equal(t, id, InvocationIDFromContext(ctx))

		_, other := EnsureInvocationID(stdctx.Background())
		assert.NotEqual(t, id, other)
	})
}
