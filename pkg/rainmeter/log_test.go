package rainmeter_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

func TestLogHandlerLevels(t *testing.T) {
	host, _, ctx := newContext(t, nil)
	logger := ctx.Logger(rainmeter.WithLevel(slog.LevelDebug))

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	logs := host.Logs()
	require.Len(t, logs, 4)
	assert.Equal(t, rainmeter.LogDebug, logs[0].Level)
	assert.Equal(t, rainmeter.LogNotice, logs[1].Level)
	assert.Equal(t, rainmeter.LogWarning, logs[2].Level)
	assert.Equal(t, rainmeter.LogError, logs[3].Level)
}

func TestLogHandlerFiltersBelowLevel(t *testing.T) {
	host, _, ctx := newContext(t, nil)
	logger := ctx.Logger()

	logger.Debug("hidden")
	logger.Info("shown")

	logs := host.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "shown", logs[0].Message)
}

func TestLogHandlerFormatsAttrs(t *testing.T) {
	host, _, ctx := newContext(t, nil)
	logger := ctx.Logger(rainmeter.WithPrefix("sysinfo")).
		With("type", "cpu").
		WithGroup("disk").
		With("path", "C:")

	logger.Info("sampled", "usage", 42.5, slog.Group("io", "reads", 3))

	logs := host.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "sysinfo: sampled type=cpu disk.path=C: disk.usage=42.5 disk.io.reads=3", logs[0].Message)
}

func TestLogHandlerInlinesGroupWithoutKey(t *testing.T) {
	host, _, ctx := newContext(t, nil)
	logger := ctx.Logger().WithGroup("disk").With(slog.Group("", "path", "C:"))

	logger.Info("sampled", slog.Group("", "free", 10, slog.Group("", "used", 90)))
	ctx.Logger().Info("top", slog.Group("", "n", 1))

	logs := host.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, "sampled disk.path=C: disk.free=10 disk.used=90", logs[0].Message)
	assert.Equal(t, "top n=1", logs[1].Message)
}
