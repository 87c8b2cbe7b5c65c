// Package mockhttp implements the debug mock-HTTP bridge: an incoming
// request is parked until a human operator supplies a response template, or
// until the bounded wait expires. Resolution is guaranteed-once.
package mockhttp

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultWait bounds how long a parked request waits for an operator
const DefaultWait = 5 * time.Minute

// Request is a parked mock-HTTP request as shown to the operator
type Request struct {
	ID       string                 `json:"id"`
	Method   string                 `json:"method"`
	URL      string                 `json:"url"`
	Headers  map[string]string      `json:"headers,omitempty"`
	Body     map[string]interface{} `json:"body,omitempty"`
	ParkedAt time.Time              `json:"parkedAt"`
}

// Response is the operator-supplied template answering a parked request
type Response struct {
	Status  int                    `json:"status"`
	Headers map[string]string      `json:"headers,omitempty"`
	Body    map[string]interface{} `json:"body,omitempty"`
}

type pending struct {
	req  Request
	done chan Response
	once sync.Once
}

// Bridge is the pending-request registry
type Bridge struct {
	mu      sync.Mutex
	waiting map[string]*pending
	wait    time.Duration
}

// NewBridge creates an empty bridge with the given wait bound; zero means
// DefaultWait.
func NewBridge(wait time.Duration) *Bridge {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Bridge{
		waiting: make(map[string]*pending),
		wait:    wait,
	}
}

// Park registers the request and blocks until Resolve supplies a response
// or the wait bound expires.
func (b *Bridge) Park(req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.ParkedAt = time.Now()

	p := &pending{req: req, done: make(chan Response, 1)}

	b.mu.Lock()
	b.waiting[req.ID] = p
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.waiting, req.ID)
		b.mu.Unlock()
	}()

	select {
	case resp := <-p.done:
		return resp, nil
	case <-time.After(b.wait):
		return Response{}, fmt.Errorf("no response supplied for request %s within %s", req.ID, b.wait)
	}
}

// Resolve answers a parked request. The first resolution wins; later calls
// for the same id report an error.
func (b *Bridge) Resolve(id string, resp Response) error {
	b.mu.Lock()
	p, ok := b.waiting[id]
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending request %s", id)
	}

	resolved := false
	p.once.Do(func() {
		p.done <- resp
		resolved = true
	})
	if !resolved {
		return fmt.Errorf("request %s already resolved", id)
	}
	return nil
}

// Pending lists the currently parked requests, oldest first
func (b *Bridge) Pending() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Request, 0, len(b.waiting))
	for _, p := range b.waiting {
		out = append(out, p.req)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ParkedAt.Before(out[j-1].ParkedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
