// Package adapter drives registered plugins through the Rainmeter measure
// lifecycle.
//
// It is the Go half of the six DLL entry points: internal/bridge converts
// the raw C arguments and calls the matching Adapter method. Every method is
// total: panics in plugin code are recovered and replaced by a safe default.
//
// Rainmeter serializes calls for one measure, and only hands out handles
// returned by Initialize, so instances are never locked. Different measures
// may be driven concurrently.
package adapter

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/corrreia/rainmeter-go/internal/config"
	"github.com/corrreia/rainmeter-go/internal/recovery"
	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// Transition names used in diagnostics
const (
	TransitionInitialize  = "Initialize"
	TransitionReload      = "Reload"
	TransitionUpdate      = "Update"
	TransitionGetString   = "GetString"
	TransitionExecuteBang = "ExecuteBang"
	TransitionFinalize    = "Finalize"
)

// Allocator copies a NUL-terminated UTF-16 buffer into memory that stays
// valid after GetString returns.
//
// Rainmeter does not document how long it uses the returned pointer, so the
// memory is never freed.
type Allocator func(units []uint16) unsafe.Pointer

// Adapter owns all measures of one plugin DLL
type Adapter struct {
	api     rainmeter.API
	factory rainmeter.Factory
	cfg     config.Config
	alloc   Allocator

	arena   *arena
	barrier *recovery.Barrier
	metrics *metrics

	retainWarned atomic.Bool
}

// Option configures an Adapter
type Option func(*Adapter)

// WithConfig sets the adapter configuration
func WithConfig(cfg config.Config) Option {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithAllocator sets how GetString results are kept alive
func WithAllocator(alloc Allocator) Option {
	return func(a *Adapter) {
		a.alloc = alloc
	}
}

// New creates an Adapter calling into api and building plugins with factory.
// A nil factory makes every Initialize fail with a logged error.
func New(api rainmeter.API, factory rainmeter.Factory, opts ...Option) *Adapter {
	a := &Adapter{
		api:     api,
		factory: factory,
		cfg:     config.Default(),
		alloc:   newRetainer().retain,
		arena:   newArena(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.barrier = recovery.New(
		recovery.WithPrefix(a.cfg.LogPrefix),
		recovery.WithStackTraces(a.cfg.StackTraces),
		recovery.OnPanic(func(transition string) {
			a.metrics.panics.WithLabelValues(transition).Inc()
		}),
	)
	return a
}

// Live returns the number of measures initialized and not yet finalized
func (a *Adapter) Live() int {
	return a.arena.live()
}

// ============================================================
// Lifecycle
// ============================================================

// Initialize creates a measure and returns its handle, or 0 on failure
func (a *Adapter) Initialize(rm unsafe.Pointer) uintptr {
	ctx := rainmeter.NewContext(a.api, rm)
	if a.factory == nil {
		ctx.Log(rainmeter.LogError, a.prefixed("no plugin registered"))
		return 0
	}

	var inst *instance
	h := recovery.GuardValue(a.barrier, TransitionInitialize, ctx, uintptr(0), func() uintptr {
		inst = &instance{plugin: a.factory(), rm: rm}
		inst.plugin.Initialize(ctx)

		h := a.arena.alloc(inst)
		a.metrics.initialized.Inc()
		a.metrics.live.Inc()
		a.trace(ctx, TransitionInitialize, h)
		return h
	})
	if h == 0 && inst != nil {
		// No handle reaches Rainmeter, so this is the plugin's only chance
		// to release what Initialize acquired before it failed.
		a.barrier.Guard(TransitionFinalize, ctx, func() {
			inst.plugin.Finalize(ctx)
		})
	}
	return h
}

// Reload stores the new context pointer and lets the plugin re-read its
// options. maxValue is written back only if the plugin returns normally.
func (a *Adapter) Reload(h uintptr, rm unsafe.Pointer, maxValue *float64) {
	ctx := rainmeter.NewContext(a.api, rm)
	inst, ok := a.arena.get(h)
	if !ok {
		a.unknown(ctx, TransitionReload, h)
		return
	}
	inst.rm = rm

	var value float64
	if maxValue != nil {
		value = *maxValue
	}
	ok = a.barrier.Guard(TransitionReload, ctx, func() {
		inst.plugin.Reload(ctx, &value)
	})
	if ok && maxValue != nil {
		*maxValue = value
	}
	a.trace(ctx, TransitionReload, h)
}

// Update returns the measure's number value, or 0 on failure
func (a *Adapter) Update(h uintptr) float64 {
	inst, ok := a.arena.get(h)
	if !ok {
		a.unknown(rainmeter.NewContext(a.api, nil), TransitionUpdate, h)
		return 0
	}
	ctx := rainmeter.NewContext(a.api, inst.rm)

	return recovery.GuardValue(a.barrier, TransitionUpdate, ctx, 0.0, func() float64 {
		return inst.plugin.Update(ctx)
	})
}

// GetString returns the measure's string value as a retained UTF-16 buffer,
// or nil if the plugin has none.
func (a *Adapter) GetString(h uintptr) unsafe.Pointer {
	inst, ok := a.arena.get(h)
	if !ok {
		a.unknown(rainmeter.NewContext(a.api, nil), TransitionGetString, h)
		return nil
	}
	ctx := rainmeter.NewContext(a.api, inst.rm)

	return recovery.GuardValue(a.barrier, TransitionGetString, ctx, unsafe.Pointer(nil), func() unsafe.Pointer {
		sp, ok := inst.plugin.(rainmeter.StringProvider)
		if !ok {
			return nil
		}
		s, ok := sp.GetString(ctx)
		if !ok {
			return nil
		}
		return a.retain(ctx, rainmeter.Encode(s))
	})
}

// ExecuteBang passes the arguments of !CommandMeasure to the plugin.
// A nil args pointer is an empty argument string.
func (a *Adapter) ExecuteBang(h uintptr, args *uint16) {
	inst, ok := a.arena.get(h)
	if !ok {
		a.unknown(rainmeter.NewContext(a.api, nil), TransitionExecuteBang, h)
		return
	}
	ctx := rainmeter.NewContext(a.api, inst.rm)

	a.barrier.Guard(TransitionExecuteBang, ctx, func() {
		text := rainmeter.Decode(args)
		if bh, ok := inst.plugin.(rainmeter.BangHandler); ok {
			bh.ExecuteBang(ctx, text)
		}
	})
	a.trace(ctx, TransitionExecuteBang, h)
}

// Finalize lets the plugin clean up, then releases the measure.
// The handle is released even if the plugin panics.
func (a *Adapter) Finalize(h uintptr) {
	inst, ok := a.arena.get(h)
	if !ok {
		a.unknown(rainmeter.NewContext(a.api, nil), TransitionFinalize, h)
		return
	}
	ctx := rainmeter.NewContext(a.api, inst.rm)

	a.barrier.Guard(TransitionFinalize, ctx, func() {
		inst.plugin.Finalize(ctx)
	})

	a.arena.release(h)
	a.metrics.finalized.Inc()
	a.metrics.live.Dec()
	if a.cfg.Debug {
		ctx.Log(rainmeter.LogDebug, a.prefixed(
			"Finalize: handle=%d live=%d %s", h, a.arena.live(), a.metrics.summary()))
	}
}

// ============================================================
// Helpers
// ============================================================

func (a *Adapter) retain(ctx rainmeter.Context, units []uint16) unsafe.Pointer {
	p := a.alloc(units)
	a.metrics.stringsRetained.Inc()
	a.metrics.bytesRetained.Add(float64(len(units) * 2))

	n := counterValue(a.metrics.stringsRetained)
	limit := float64(a.cfg.RetainedStringsWarn)
	if limit > 0 && n >= limit && a.retainWarned.CompareAndSwap(false, true) {
		ctx.Log(rainmeter.LogWarning, a.prefixed(
			"%.0f GetString results retained (%.0f bytes); string memory is never freed",
			n, counterValue(a.metrics.bytesRetained)))
	}
	return p
}

func (a *Adapter) trace(ctx rainmeter.Context, transition string, h uintptr) {
	if !a.cfg.Debug {
		return
	}
	ctx.Log(rainmeter.LogDebug, a.prefixed("%s: handle=%d", transition, h))
}

func (a *Adapter) unknown(ctx rainmeter.Context, transition string, h uintptr) {
	if !a.cfg.Debug {
		return
	}
	ctx.Log(rainmeter.LogDebug, a.prefixed("%s: unknown handle %d ignored", transition, h))
}

func (a *Adapter) prefixed(format string, args ...interface{}) string {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if a.cfg.LogPrefix != "" {
		msg = a.cfg.LogPrefix + ": " + msg
	}
	return msg
}

// ============================================================
// Retained Strings
// ============================================================

// retainer is the default Allocator. It keeps Go buffers reachable for the
// life of the process; the cgo bridge replaces it with C memory because C
// may not hold Go pointers.
type retainer struct {
	mu   sync.Mutex
	bufs [][]uint16
}

func newRetainer() *retainer {
	return &retainer{}
}

func (r *retainer) retain(units []uint16) unsafe.Pointer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bufs = append(r.bufs, units)
	return unsafe.Pointer(&units[0])
}
