package governance

import (
	"context"
	"testing"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	// Allow by default
	res1, err := engine.Evaluate(ctx, Request{URL: "https://en.wikivoyage.org/wiki/Lisbon"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res1.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow, got %s", res1.Effect)
	}

	// Denied host
	engine.DenyHost("internal.example.com")
	res2, err := engine.Evaluate(ctx, Request{URL: "https://internal.example.com/admin"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res2.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res2.Effect)
	}

	// Denied URL pattern
	if err := engine.DenyURL(`\.onion`); err != nil {
		t.Fatal(err)
	}
	res3, _ := engine.Evaluate(ctx, Request{URL: "http://hidden.onion/page"})
	if res3.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny for pattern match, got %s", res3.Effect)
	}
}

func TestEvaluateFetch(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	engine.DenyHost("blocked.test")

	if err := engine.EvaluateFetch(context.Background(), "https://ok.test/"); err != nil {
		t.Errorf("expected allow, got %v", err)
	}
	if err := engine.EvaluateFetch(context.Background(), "https://blocked.test/a"); err == nil {
		t.Error("expected deny error for blocked host")
	}
}
