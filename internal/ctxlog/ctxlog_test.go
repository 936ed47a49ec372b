package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		var buf bytes.Buffer
		l := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), l)

		FromContext(ctx, nil).Info("hello")
		assert.Contains(t, buf.String(), "hello")
	})

	t.Run("falls back when missing", func(t *testing.T) {
		fb := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		assert.Same(t, fb, FromContext(context.Background(), fb))
		assert.Same(t, slog.Default(), FromContext(context.Background(), nil))
	})
}
