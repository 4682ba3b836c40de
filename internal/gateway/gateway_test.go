package gateway

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arjun/wayfarer/internal/state"
)

func TestConsoleGatewayAsk(t *testing.T) {
	var out bytes.Buffer
	g := &ConsoleGateway{In: strings.NewReader("  Lisbon \n"), Out: &out}

	in, err := g.Ask(context.Background(), state.HumanRequest{Prompt: "Where to?", Field: "destination"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if in.Field != "destination" || in.Value != "Lisbon" {
		t.Errorf("input = %+v", in)
	}
	if !strings.Contains(out.String(), "Where to?") {
		t.Errorf("prompt not shown: %q", out.String())
	}
}

func TestConsoleGatewayAskContextCancel(t *testing.T) {
	// A reader that never produces a line must not block past the context.
	blocked := &ConsoleGateway{In: neverReader{}, Out: &bytes.Buffer{}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := blocked.Ask(ctx, state.HumanRequest{Prompt: "hi"}); err == nil {
		t.Error("expected context error")
	}
}

type neverReader struct{}

func (neverReader) Read([]byte) (int, error) {
	select {}
}

func TestConsoleGatewayNotify(t *testing.T) {
	var out bytes.Buffer
	g := &ConsoleGateway{Out: &out}
	if err := g.Notify("done"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if out.String() != "done\n" {
		t.Errorf("output = %q", out.String())
	}
}
