// Package mocks holds in-memory fakes shared by service tests.
package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	ai "concierge/services/intelligence"
)

// FakeOracle answers completions from canned JSON keyed by call name. Each call name has a
// queue of answers; the last answer repeats once the queue is drained.
type FakeOracle struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	Calls     []ai.Request
}

// NewFakeOracle returns an oracle with no answers; unanswered calls fail with ErrNullResult.
func NewFakeOracle() *FakeOracle {
	return &FakeOracle{responses: map[string][]string{}, errs: map[string]error{}}
}

// Respond queues raw JSON answers for a call name.
func (f *FakeOracle) Respond(call string, raw ...string) *FakeOracle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[call] = append(f.responses[call], raw...)
	return f
}

// RespondValue queues a value marshalled to JSON.
func (f *FakeOracle) RespondValue(call string, v any) *FakeOracle {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mocks: marshal oracle answer: %v", err))
	}
	return f.Respond(call, string(b))
}

// Fail makes every call with the given name return err.
func (f *FakeOracle) Fail(call string, err error) *FakeOracle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[call] = err
	return f
}

// CallCount returns how many times a call name was invoked.
func (f *FakeOracle) CallCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Name == call {
			n++
		}
	}
	return n
}

func (f *FakeOracle) Complete(ctx context.Context, req ai.Request, out any) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	if err, ok := f.errs[req.Name]; ok {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", req.Name, err)
	}
	queue := f.responses[req.Name]
	if len(queue) == 0 {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", req.Name, ai.ErrNullResult)
	}
	raw := queue[0]
	if len(queue) > 1 {
		f.responses[req.Name] = queue[1:]
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", req.Name, ai.ErrTimeout)
	}
	return ai.DecodeJSON(raw, out)
}
