package manager

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestOpIDHandlerAnnotatesRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOpIDHandler(slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := ContextWithOpID(context.Background(), 42)
	logger.InfoContext(ctx, "hello")

	if got := buf.String(); !strings.Contains(got, "op_id=42") {
		t.Fatalf("expected op_id=42 in output, got %q", got)
	}
}

func TestOpIDHandlerIgnoresBareContext(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOpIDHandler(slog.New(slog.NewTextHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "hello")

	if got := buf.String(); strings.Contains(got, "op_id") {
		t.Fatalf("expected no op_id in output, got %q", got)
	}
}

func TestOpIDHandlerSurvivesWith(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOpIDHandler(slog.New(slog.NewTextHandler(&buf, nil)))
	logger = logger.With("component", "manager")

	ctx := ContextWithOpID(context.Background(), 7)
	logger.InfoContext(ctx, "hello")

	got := buf.String()
	if !strings.Contains(got, "component=manager") {
		t.Fatalf("expected component attr in output, got %q", got)
	}
	if !strings.Contains(got, "op_id=7") {
		t.Fatalf("expected op_id to survive With, got %q", got)
	}
}

func TestOpIDFromContextAbsent(t *testing.T) {
	if got := OpIDFromContext(context.Background()); got != 0 {
		t.Fatalf("expected 0 for bare context, got %d", got)
	}
}
