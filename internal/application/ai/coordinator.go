package ai

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bryanwahyu/exploitsearch/internal/application"
	domai "github.com/bryanwahyu/exploitsearch/internal/domain/ai"
	"github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/infra/ai/prompt"
)

// Status of the display slot
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Result is the terminal event of one request. Exactly one of Err and Text
// is meaningful: Err != nil means failure.
type Result struct {
	RequestID uint64
	Record    exploits.Record
	Text      string
	NoData    bool
	Err       error
}

// OK reports whether the request succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Request is one in-flight analysis call.
type Request struct {
	ID     uint64
	Prompt string
	Record exploits.Record

	done   chan struct{}
	result Result
}

// Done is closed once the terminal event is available.
func (r *Request) Done() <-chan struct{} { return r.done }

// Result returns the terminal event. Only valid after Done is closed.
func (r *Request) Result() Result {
	<-r.done
	return r.result
}

// Wait blocks until the terminal event or ctx ends. Giving up on the wait
// does not stop the remote call.
func (r *Request) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (r *Request) finish(res Result) {
	r.result = res
	close(r.done)
}

// Display is the "currently displayed analysis" slot.
type Display struct {
	RequestID uint64    `json:"request_id"`
	ExploitID string    `json:"exploit_id,omitempty"`
	Status    Status    `json:"status"`
	Text      string    `json:"text,omitempty"`
	NoData    bool      `json:"no_data,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Coordinator dispatches analysis requests one goroutine each and keeps the
// display slot pointed at the latest one. Terminal events of superseded
// requests are dropped by Settle.
type Coordinator struct {
	client domai.Client
	clock  application.Clock

	latest atomic.Uint64

	mu      sync.Mutex
	display Display
}

// NewCoordinator wires a coordinator. A nil client disables dispatching.
func NewCoordinator(client domai.Client, clock application.Clock) *Coordinator {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Coordinator{
		client:  client,
		clock:   clock,
		display: Display{Status: StatusIdle, UpdatedAt: clock.Now()},
	}
}

// Enabled reports whether a generation client is configured.
func (c *Coordinator) Enabled() bool { return c.client != nil }

// Dispatch builds the prompt for rec and starts the remote call in the
// background. It returns immediately. The call keeps running even if ctx is
// cancelled afterwards.
func (c *Coordinator) Dispatch(ctx context.Context, rec exploits.Record) (*Request, error) {
	if c.client == nil {
		return nil, domai.ErrDisabled
	}

	req := &Request{
		Prompt: prompt.ForExploit(rec),
		Record: rec,
		done:   make(chan struct{}),
	}

	// the id and the pending slot change under one lock
	c.mu.Lock()
	req.ID = c.latest.Add(1)
	c.display = Display{
		RequestID: req.ID,
		ExploitID: rec.ID,
		Status:    StatusPending,
		UpdatedAt: c.clock.Now(),
	}
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), req)
	return req, nil
}

func (c *Coordinator) run(ctx context.Context, req *Request) {
	res := Result{RequestID: req.ID, Record: req.Record}
	defer func() {
		if p := recover(); p != nil {
			res = Result{RequestID: req.ID, Record: req.Record, Err: fmt.Errorf("ai client panic: %v", p)}
		}
		req.finish(res)
	}()

	segments, err := c.client.Generate(ctx, req.Prompt)
	if err != nil {
		res.Err = err
		return
	}
	res.Text, res.NoData = Normalize(segments)
}

// Latest returns the id of the most recently dispatched request.
func (c *Coordinator) Latest() uint64 { return c.latest.Load() }

// Settle writes res into the display slot when it belongs to the latest
// request and reports whether it did.
func (c *Coordinator) Settle(res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.RequestID != c.latest.Load() {
		return false
	}
	d := Display{
		RequestID: res.RequestID,
		ExploitID: res.Record.ID,
		UpdatedAt: c.clock.Now(),
	}
	if res.OK() {
		d.Status = StatusReady
		d.Text = res.Text
		d.NoData = res.NoData
	} else {
		d.Status = StatusFailed
		d.Error = res.Err.Error()
	}
	c.display = d
	return true
}

// Current returns a copy of the display slot.
func (c *Coordinator) Current() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}
