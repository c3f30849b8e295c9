package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Correlator matches asynchronous host responses to the requests that
// produced them. It holds one slot per kind: issuing a new request of a
// kind supersedes the previous one, and a response whose id is not the
// latest is discarded. A timeout fires the request's fallback so the editor
// proceeds with a safe default instead of hanging.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

type pendingRequest struct {
	id       string
	timer    *time.Timer
	onResult func(payload json.RawMessage)
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[string]*pendingRequest)}
}

// Track registers the next outstanding request of a kind and returns its
// id. Any previous pending request of the same kind is superseded and none
// of its callbacks will fire. onTimeout may be nil; a timeout <= 0 disables
// the timer.
func (c *Correlator) Track(kind string, timeout time.Duration, onResult func(json.RawMessage), onTimeout func()) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.pending[kind]; ok {
		prev.stopTimer()
	}

	req := &pendingRequest{id: uuid.NewString(), onResult: onResult}
	c.pending[kind] = req
	if timeout > 0 {
		req.timer = time.AfterFunc(timeout, func() {
			if !c.take(kind, req.id) {
				return
			}
			if onTimeout != nil {
				onTimeout()
			}
		})
	}
	return req.id
}

// Resolve hands an inbound response to the matching pending request and
// reports whether it was accepted. Stale and unknown ids are discarded.
func (c *Correlator) Resolve(kind, id string, payload json.RawMessage) bool {
	c.mu.Lock()
	req, ok := c.pending[kind]
	if !ok || req.id != id {
		c.mu.Unlock()
		return false
	}
	delete(c.pending, kind)
	req.stopTimer()
	onResult := req.onResult
	c.mu.Unlock()

	// Outside the lock: the callback may issue follow-up requests.
	if onResult != nil {
		onResult(payload)
	}
	return true
}

// Cancel deregisters the pending request of a kind. Late responses and
// timeouts become no-ops.
func (c *Correlator) Cancel(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req, ok := c.pending[kind]; ok {
		req.stopTimer()
		delete(c.pending, kind)
	}
}

// CancelAll deregisters everything. Called when the editor session closes
// so no stale callback outlives the UI it belongs to.
func (c *Correlator) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for kind, req := range c.pending {
		req.stopTimer()
		delete(c.pending, kind)
	}
}

// Pending reports whether a request of the kind is outstanding.
func (c *Correlator) Pending(kind string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[kind]
	return ok
}

// take removes the pending request only if it still carries the given id.
func (c *Correlator) take(kind, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[kind]
	if !ok || req.id != id {
		return false
	}
	delete(c.pending, kind)
	return true
}

func (r *pendingRequest) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
	}
}
