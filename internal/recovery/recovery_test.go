package recovery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
	"github.com/corrreia/rainmeter-go/pkg/rainmeter/rmtest"
)

type stringer struct{}

func (stringer) String() string { return "stringer payload" }

type badError struct{}

func (badError) Error() string { panic("Error() exploded") }

func newContext(t *testing.T) (*rmtest.Host, rainmeter.Context) {
	t.Helper()
	host := rmtest.NewHost()
	rm := host.NewMeasure(&rmtest.Skin{Name: "test"}, "MeasureGo", nil)
	return host, rainmeter.NewContext(host, rm)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    string
	}{
		{"string", "boom", "boom"},
		{"error", errors.New("bad thing"), "bad thing"},
		{"stringer", stringer{}, "stringer payload"},
		{"int", 42, "<non-string>"},
		{"panicking error", badError{}, "<non-string>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Describe(tc.payload))
		})
	}
}

func TestGuardNoPanic(t *testing.T) {
	host, ctx := newContext(t)
	called := false

	ok := New().Guard("Reload", ctx, func() { called = true })

	assert.True(t, ok)
	assert.True(t, called)
	assert.Empty(t, host.Logs())
}

func TestGuardRecoversAndLogsOnce(t *testing.T) {
	host, ctx := newContext(t)
	var panicked []string
	b := New(OnPanic(func(transition string) { panicked = append(panicked, transition) }))

	ok := b.Guard("ExecuteBang", ctx, func() { panic("boom") })

	assert.False(t, ok)
	errs := host.LogsAt(rainmeter.LogError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Panic in ExecuteBang: boom", errs[0].Message)
	assert.Equal(t, "MeasureGo", errs[0].Measure)
	assert.Equal(t, []string{"ExecuteBang"}, panicked)
}

func TestGuardValueReturnsDefault(t *testing.T) {
	host, ctx := newContext(t)

	got := GuardValue(New(), "Update", ctx, 0.0, func() float64 {
		var m map[string]float64
		m["x"] = 1
		return 5
	})

	assert.Zero(t, got)
	errs := host.LogsAt(rainmeter.LogError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Panic in Update: assignment to entry in nil map")
}

func TestGuardValuePassesResult(t *testing.T) {
	_, ctx := newContext(t)

	got := GuardValue(New(), "Update", ctx, -1.0, func() float64 { return 42 })

	assert.Equal(t, 42.0, got)
}

func TestGuardPrefixAndStackTrace(t *testing.T) {
	host, ctx := newContext(t)
	b := New(WithPrefix("Counter"), WithStackTraces(true))

	b.Guard("Finalize", ctx, func() { panic(errors.New("closed twice")) })

	errs := host.LogsAt(rainmeter.LogError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Counter: Panic in Finalize: closed twice", errs[0].Message)
	debugs := host.LogsAt(rainmeter.LogDebug)
	require.Len(t, debugs, 1)
	assert.Contains(t, debugs[0].Message, "goroutine")
}

func TestGuardSurvivesFailingLogSink(t *testing.T) {
	host, ctx := newContext(t)
	host.FailLog = true

	assert.NotPanics(t, func() {
		ok := New().Guard("Update", ctx, func() { panic("boom") })
		assert.False(t, ok)
	})
}

func TestGuardWithoutHost(t *testing.T) {
	var ctx rainmeter.Context

	assert.NotPanics(t, func() {
		New().Guard("Finalize", ctx, func() { panic("boom") })
	})
}
