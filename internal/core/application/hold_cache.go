package application

import (
	"fmt"
	"sync"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
)

var (
	errOvershoot       = fmt.Errorf("part would exceed the expected amount")
	errAlreadyComplete = fmt.Errorf("expected amount already reached")
)

type heldHtlc struct {
	key        domain.CircuitKey
	amountMsat uint64
	settled    bool
	stream     ports.HtlcInterceptorStream
}

type holdEntry struct {
	parts []*heldHtlc
	// complete is set once the expected total is reached and every part has
	// been told to settle. Such parts are never failed afterwards.
	complete bool
}

func (e *holdEntry) totalMsat() uint64 {
	total := uint64(0)
	for _, p := range e.parts {
		total += p.amountMsat
	}
	return total
}

func (e *holdEntry) find(key domain.CircuitKey) *heldHtlc {
	for _, p := range e.parts {
		if p.key == key {
			return p
		}
	}
	return nil
}

// holdCache keeps the intercepted parts of every channel request being paid.
// It lives in memory only and starts empty.
type holdCache struct {
	lock    sync.Mutex
	entries map[domain.ChannelId]*holdEntry
}

func newHoldCache() *holdCache {
	return &holdCache{entries: make(map[domain.ChannelId]*holdEntry)}
}

// add holds the part and reports whether it is the first one for the channel
// id. When the part makes the total equal expectedMsat the entry becomes
// complete and a copy of all parts to settle is returned.
func (c *holdCache) add(
	channelId domain.ChannelId, part heldHtlc, expectedMsat uint64,
) (isFirst bool, toSettle []heldHtlc, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.entries[channelId]
	if !ok {
		entry = &holdEntry{}
	}
	if entry.complete {
		return false, nil, errAlreadyComplete
	}

	// the node re-delivers held htlcs when the interceptor reconnects
	if held := entry.find(part.key); held != nil {
		held.stream = part.stream
		return false, nil, nil
	}

	total := entry.totalMsat()
	if total+part.amountMsat > expectedMsat {
		return false, nil, errOvershoot
	}

	p := part
	entry.parts = append(entry.parts, &p)
	if !ok {
		c.entries[channelId] = entry
	}

	if total+part.amountMsat == expectedMsat {
		entry.complete = true
		toSettle = make([]heldHtlc, 0, len(entry.parts))
		for _, held := range entry.parts {
			toSettle = append(toSettle, *held)
		}
	}
	return !ok, toSettle, nil
}

// markSettled flags the part as settled, it returns false if no such part is
// held.
func (c *holdCache) markSettled(channelId domain.ChannelId, key domain.CircuitKey) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.entries[channelId]
	if !ok {
		return false
	}
	held := entry.find(key)
	if held == nil {
		return false
	}
	held.settled = true
	return true
}

// expire drops the entry and returns the parts that must be failed: every
// unsettled part, unless they were already told to settle.
func (c *holdCache) expire(channelId domain.ChannelId) []heldHtlc {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.entries[channelId]
	if !ok {
		return nil
	}
	delete(c.entries, channelId)

	if entry.complete {
		return nil
	}
	toFail := make([]heldHtlc, 0, len(entry.parts))
	for _, p := range entry.parts {
		if !p.settled {
			toFail = append(toFail, *p)
		}
	}
	return toFail
}

// abort drops the entry and returns all its parts.
func (c *holdCache) abort(channelId domain.ChannelId) []heldHtlc {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.entries[channelId]
	if !ok {
		return nil
	}
	delete(c.entries, channelId)

	parts := make([]heldHtlc, 0, len(entry.parts))
	for _, p := range entry.parts {
		parts = append(parts, *p)
	}
	return parts
}

func (c *holdCache) remove(channelId domain.ChannelId) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.entries, channelId)
}

func (c *holdCache) has(channelId domain.ChannelId) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.entries[channelId]
	return ok
}

func (c *holdCache) totalMsat(channelId domain.ChannelId) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.entries[channelId]
	if !ok {
		return 0
	}
	return entry.totalMsat()
}
