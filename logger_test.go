package plsom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithKind("plsom2").WithDimension(3).WithNodes(25)
	l.Info("hello")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "plsom2", recs[0]["kind"])
	assert.Equal(t, 3.0, recs[0]["dimension"])
	assert.Equal(t, 25.0, recs[0]["nodes"])
}

func TestLogger_Persistence(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)
	ctx := context.Background()

	l.LogSave(ctx, "a.psom", time.Millisecond, nil)
	l.LogSave(ctx, "b.psom", 0, errors.New("denied"))
	l.LogLoad(ctx, "a.psom", "plsom2", time.Millisecond, nil)
	l.LogBuild(ctx, Config{Kind: "plsom2", InputDim: 2, OutputDims: []int{3}}, nil)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 4)
	assert.Equal(t, "snapshot saved", recs[0]["msg"])
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, "denied", recs[1]["error"])
	assert.Equal(t, "plsom2", recs[2]["kind"])
	assert.Equal(t, "DEBUG", recs[3]["level"])
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.LogSave(context.Background(), "x", 0, errors.New("ignored"))
}
