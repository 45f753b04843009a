package backend

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		command string
		want    []string
	}{
		{"", nil},
		{"make build", []string{"make", "build"}},
		{"sh -c 'echo hi there'", []string{"sh", "-c", "echo hi there"}},
		{`dotnet publish -o "out dir"`, []string{"dotnet", "publish", "-o", "out dir"}},
	}
	for _, tc := range cases {
		got, err := parseCommand(tc.command)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.command, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parse %q: got %v, want %v", tc.command, got, tc.want)
		}
	}
}

func TestParseCommandUnterminatedQuote(t *testing.T) {
	if _, err := parseCommand("sh -c 'echo"); err == nil {
		t.Fatalf("expected error for unterminated quote")
	}
}

func TestPublishRunsCommand(t *testing.T) {
	dir := t.TempDir()

	if err := Publish(context.Background(), dir, "touch built.txt", discardLogger()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "built.txt")); err != nil {
		t.Fatalf("publish command did not run in dir: %v", err)
	}
}

func TestPublishEmptyCommandIsNoop(t *testing.T) {
	if err := Publish(context.Background(), t.TempDir(), "", discardLogger()); err != nil {
		t.Fatalf("empty publish command should be a no-op, got %v", err)
	}
}

func TestPublishFailure(t *testing.T) {
	err := Publish(context.Background(), t.TempDir(), "sh -c 'exit 1'", discardLogger())
	if err == nil {
		t.Fatalf("expected publish failure")
	}
}
