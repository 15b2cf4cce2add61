package operator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestLines_ReadsOneReplyPerPrompt(t *testing.T) {
	var out bytes.Buffer
	l := NewLines(strings.NewReader("  hi there \n\n"), &out)

	got, err := l.Reply(context.Background(), Prompt{ChatID: 7, Name: "Ana", Text: "hello"})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "hi there" {
		t.Fatalf("reply = %q, want %q", got, "hi there")
	}
	if !strings.Contains(out.String(), "--- New message from Ana (7) ---\nhello\n") {
		t.Fatalf("banner missing, output: %q", out.String())
	}

	got, err = l.Reply(context.Background(), Prompt{ChatID: 7, Name: "Ana", Text: "again"})
	if err != nil || got != "" {
		t.Fatalf("second reply = %q, %v; want empty", got, err)
	}
}

func TestLines_EOF(t *testing.T) {
	l := NewLines(strings.NewReader(""), io.Discard)
	for i := 0; i < 2; i++ {
		_, err := l.Reply(context.Background(), Prompt{ChatID: 1})
		if !errors.Is(err, io.EOF) {
			t.Fatalf("call %d: err = %v, want io.EOF", i, err)
		}
	}
}

func TestLines_ContextCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	l := NewLines(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Reply(ctx, Prompt{ChatID: 1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestSilent(t *testing.T) {
	got, err := Silent{}.Reply(context.Background(), Prompt{ChatID: 1, Text: "hi"})
	if got != "" || err != nil {
		t.Fatalf("Silent reply = %q, %v", got, err)
	}
}
