package resync

import (
	"sync"
	"sync/atomic"
)

// Once behaves like sync.Once but can be rearmed with Reset.
// Useful for package-level singletons that tests must reinitialize.
type Once struct {
	m    sync.Mutex
	done uint32
}

// Do calls the function f only once per arming of the Once.
func (o *Once) Do(f func()) {
	if atomic.LoadUint32(&o.done) == 1 {
		return
	}
	o.m.Lock()
	defer o.m.Unlock()
	if o.done == 0 {
		defer atomic.StoreUint32(&o.done, 1)
		f()
	}
}

// Reset rearms the Once so the next Do invokes its function again.
func (o *Once) Reset() {
	o.m.Lock()
	defer o.m.Unlock()
	atomic.StoreUint32(&o.done, 0)
}
