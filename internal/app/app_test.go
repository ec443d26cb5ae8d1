package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		level    slog.Level
		wantJSON bool
		wantLine bool
	}{
		{"json", "json", slog.LevelInfo, true, true},
		{"text", "text", slog.LevelInfo, false, true},
		{"filtered by level", "text", slog.LevelWarn, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, tt.level, tt.format).Info("ready", "port", 9000)

			if got := buf.Len() > 0; got != tt.wantLine {
				t.Fatalf("logged = %v, want %v", got, tt.wantLine)
			}
			if !tt.wantLine {
				return
			}
			isJSON := json.Valid(bytes.TrimSpace(buf.Bytes()))
			if isJSON != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %s", isJSON, tt.wantJSON, buf.String())
			}
			if !strings.Contains(buf.String(), "ready") {
				t.Errorf("missing message: %s", buf.String())
			}
		})
	}
}

func TestApp_CloseReverseOrder(t *testing.T) {
	var order []string
	a := &App{}
	a.onClose(func(context.Context) error { order = append(order, "first"); return nil })
	a.onClose(func(context.Context) error { order = append(order, "second"); return errors.New("boom") })

	err := a.Close(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Close() error = %v, want boom", err)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("close order = %v", order)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
