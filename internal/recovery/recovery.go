// Package recovery keeps panics in plugin code from unwinding into Rainmeter.
//
// A Go panic that reaches a cgo export aborts the whole host process, so
// every entry point runs its body through a Barrier. A recovered panic is
// logged once at error severity and the entry point returns its safe
// default instead.
package recovery

import (
	"fmt"
	"runtime/debug"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

const nonString = "<non-string>"

// Barrier recovers panics and reports them through the measure's log
type Barrier struct {
	stackTraces bool
	prefix      string
	onPanic     func(transition string)
}

// Option configures a Barrier
type Option func(*Barrier)

// WithStackTraces logs the stack of each recovered panic at debug severity
func WithStackTraces(enabled bool) Option {
	return func(b *Barrier) {
		b.stackTraces = enabled
	}
}

// WithPrefix prepends prefix to each diagnostic
func WithPrefix(prefix string) Option {
	return func(b *Barrier) {
		b.prefix = prefix
	}
}

// OnPanic registers a function called after each recovered panic
func OnPanic(fn func(transition string)) Option {
	return func(b *Barrier) {
		b.onPanic = fn
	}
}

// New creates a Barrier
func New(opts ...Option) *Barrier {
	b := &Barrier{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Guard calls fn with panic recovery.
// Returns true if fn completed without panicking.
func (b *Barrier) Guard(transition string, ctx rainmeter.Context, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.report(transition, ctx, r)
			ok = false
		}
	}()
	fn()
	return true
}

// GuardValue calls fn with panic recovery and returns its result.
// If fn panics, def is returned.
func GuardValue[T any](b *Barrier, transition string, ctx rainmeter.Context, def T, fn func() T) (result T) {
	defer func() {
		if r := recover(); r != nil {
			b.report(transition, ctx, r)
			result = def
		}
	}()
	return fn()
}

// report logs a recovered panic. It runs inside a deferred call of a
// panicking entry point and must not panic itself.
func (b *Barrier) report(transition string, ctx rainmeter.Context, r interface{}) {
	defer func() { _ = recover() }()

	msg := fmt.Sprintf("Panic in %s: %s", transition, Describe(r))
	if b.prefix != "" {
		msg = b.prefix + ": " + msg
	}
	ctx.Log(rainmeter.LogError, msg)

	if b.stackTraces {
		ctx.Log(rainmeter.LogDebug, string(debug.Stack()))
	}
	if b.onPanic != nil {
		b.onPanic(transition)
	}
}

// Describe extracts a message from a panic payload.
// Payloads that are not strings, errors or Stringers, or whose methods
// panic, yield "<non-string>".
func Describe(r interface{}) (msg string) {
	defer func() {
		if recover() != nil {
			msg = nonString
		}
	}()

	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return nonString
	}
}
