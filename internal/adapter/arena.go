package adapter

import (
	"sync/atomic"
	"unsafe"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// instance is the state behind one handle given to Rainmeter
type instance struct {
	plugin rainmeter.Plugin
	// rm is the context pointer of the last Initialize or Reload.
	// Update, GetString, ExecuteBang and Finalize get no context from
	// Rainmeter and use this one.
	rm unsafe.Pointer
}

// arena maps handles to instances.
// Handles start at 1 and are never reused, so a live handle always denotes
// exactly one instance and 0 is never a valid handle.
type arena struct {
	next  atomic.Uintptr
	slots cmap.ConcurrentMap[uintptr, *instance]
}

func newArena() *arena {
	return &arena{
		slots: cmap.NewWithCustomShardingFunction[uintptr, *instance](shardHandle),
	}
}

func shardHandle(h uintptr) uint32 {
	x := uint64(h)
	return uint32(x ^ x>>32)
}

// alloc stores inst and returns its handle
func (a *arena) alloc(inst *instance) uintptr {
	h := a.next.Add(1)
	a.slots.Set(h, inst)
	return h
}

// get returns the instance behind h
func (a *arena) get(h uintptr) (*instance, bool) {
	if h == 0 {
		return nil, false
	}
	return a.slots.Get(h)
}

// release removes h from the arena
func (a *arena) release(h uintptr) (*instance, bool) {
	if h == 0 {
		return nil, false
	}
	return a.slots.Pop(h)
}

// live returns the number of instances not yet finalized
func (a *arena) live() int {
	return a.slots.Count()
}
