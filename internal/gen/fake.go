package gen

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a deterministic in-memory Client for tests. Responses are scripted
// per capability label and consumed in order; a capability with no scripted
// response falls back to the Default response, and a scripted error is
// returned in place of a response.
type Fake struct {
	mu sync.Mutex

	responses map[string][]string
	errs      map[string][]error

	// Default is returned when no response is scripted for a capability.
	// When empty, unscripted calls fail.
	Default string

	// Calls records every request in arrival order.
	Calls []Request
}

// NewFake returns an empty fake client.
func NewFake() *Fake {
	return &Fake{
		responses: map[string][]string{},
		errs:      map[string][]error{},
	}
}

// Script queues responses for a capability, consumed first-in first-out.
func (f *Fake) Script(capability string, responses ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[capability] = append(f.responses[capability], responses...)
	return f
}

// ScriptError queues an error for a capability. Errors are consumed before
// responses, so Script + ScriptError can model fail-then-succeed retries by
// queue order: each call pops one error if any remain, else one response.
func (f *Fake) ScriptError(capability string, errs ...error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[capability] = append(f.errs[capability], errs...)
	return f
}

// CallCount returns how many requests were made for a capability.
func (f *Fake) CallCount(capability string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Capability == capability {
			n++
		}
	}
	return n
}

// Generate implements Client.
func (f *Fake) Generate(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, req)

	if queue := f.errs[req.Capability]; len(queue) > 0 {
		err := queue[0]
		f.errs[req.Capability] = queue[1:]
		return "", err
	}
	if queue := f.responses[req.Capability]; len(queue) > 0 {
		resp := queue[0]
		f.responses[req.Capability] = queue[1:]
		return resp, nil
	}
	if f.Default != "" {
		return f.Default, nil
	}
	return "", fmt.Errorf("%w: no scripted response for %q", ErrGeneration, req.Capability)
}
