package governance

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of an outbound fetch to be evaluated.
type Request struct {
	URL  string
	Host string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates outbound fetches against a set of rules before
// any capability touches the network.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine is a basic deny-list implementation of PolicyEngine.
type DefaultPolicyEngine struct {
	DeniedHosts map[string]bool
	DeniedRegex []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedHosts: make(map[string]bool),
		DeniedRegex: make([]*regexp.Regexp, 0),
	}
}

func (e *DefaultPolicyEngine) DenyHost(host string) {
	e.DeniedHosts[strings.ToLower(host)] = true
}

func (e *DefaultPolicyEngine) DenyURL(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	host := strings.ToLower(req.Host)
	if host == "" {
		if u, err := url.Parse(req.URL); err == nil {
			host = strings.ToLower(u.Hostname())
		}
	}
	if e.DeniedHosts[host] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Host '%s' is restricted by system policy", host),
		}, nil
	}

	for _, re := range e.DeniedRegex {
		if re.MatchString(req.URL) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("URL matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}

// EvaluateFetch adapts Evaluate to the error-only contract the tools use.
func (e *DefaultPolicyEngine) EvaluateFetch(ctx context.Context, rawURL string) error {
	res, err := e.Evaluate(ctx, Request{URL: rawURL})
	if err != nil {
		return err
	}
	if res.Effect == EffectDeny {
		return fmt.Errorf("fetch denied: %s", res.Reason)
	}
	return nil
}
