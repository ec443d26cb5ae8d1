package contextutil

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, nil))

	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("LoggerFromContext() without logger should return slog.Default()")
	}

	ctx := WithLogger(context.Background(), custom)
	if got := LoggerFromContext(ctx); got != custom {
		t.Error("LoggerFromContext() did not return the stored logger")
	}
}

func TestUserIDFromContext(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("UserIDFromContext() = %q, want empty", got)
	}
	ctx := WithUserID(context.Background(), "user_1")
	if got := UserIDFromContext(ctx); got != "user_1" {
		t.Errorf("UserIDFromContext() = %q, want user_1", got)
	}
}
