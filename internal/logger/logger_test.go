package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrs(t *testing.T) {
	var (
		buf bytes.Buffer
		l   = New(&buf, "json", slog.LevelInfo)
		ctx = Ctx(context.Background(), slog.String("request_id", "abc"))
	)
	ctx = Ctx(ctx, slog.String("user_id", "u-usr"))

	l.With("component", "test").InfoContext(ctx, "hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "u-usr", line["user_id"])
	assert.Equal(t, "test", line["component"])
}

func TestCtx_SiblingsDoNotShareAttrs(t *testing.T) {
	parent := Ctx(context.Background(), slog.String("a", "1"))
	left := Ctx(parent, slog.String("b", "left"))
	right := Ctx(parent, slog.String("b", "right"))

	leftAttrs := left.Value(attrKey).([]slog.Attr)
	rightAttrs := right.Value(attrKey).([]slog.Attr)
	assert.Equal(t, "left", leftAttrs[1].Value.String())
	assert.Equal(t, "right", rightAttrs[1].Value.String())
}

func TestNew_TextByDefault(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "", slog.LevelInfo).Info("plain", "k", "v")

	assert.Contains(t, buf.String(), "msg=plain")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "text", slog.LevelWarn).Info("dropped")

	assert.Empty(t, buf.String())
}
