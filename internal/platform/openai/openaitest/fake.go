// Package openaitest provides a scriptable stand-in for openai.Client.
package openaitest

import (
	"context"
	"sync"
)

type Call struct {
	Schema string
	System string
	User   string
}

// Fake answers GenerateJSON and GenerateText through the supplied funcs and records calls.
type Fake struct {
	JSON func(ctx context.Context, schemaName, system, user string) (map[string]any, error)
	Text func(ctx context.Context, system, user string) (string, error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	f.record(Call{Schema: schemaName, System: system, User: user})
	if f.JSON == nil {
		return map[string]any{}, nil
	}
	return f.JSON(ctx, schemaName, system, user)
}

func (f *Fake) GenerateText(ctx context.Context, system string, user string) (string, error) {
	f.record(Call{System: system, User: user})
	if f.Text == nil {
		return "", nil
	}
	return f.Text(ctx, system, user)
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor returns the recorded calls made with schemaName ("" for text calls).
func (f *Fake) CallsFor(schemaName string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Schema == schemaName {
			out = append(out, c)
		}
	}
	return out
}
