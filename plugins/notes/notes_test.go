package notes

import (
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/rainmeter-go/internal/adapter"
	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
	"github.com/corrreia/rainmeter-go/pkg/rainmeter/rmtest"
)

func TestStoreMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")

	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Add("todo", "first"))
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM notes_migrations").Scan(&version))
	assert.Equal(t, len(migrations), version)

	n, err := s.Count("todo")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreListsAreIndependent(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Add("a", "one"))
	require.NoError(t, s.Add("a", "two"))
	require.NoError(t, s.Add("b", "other"))

	latest, ok, err := s.Latest("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", latest)

	require.NoError(t, s.Pop("a"))
	latest, _, _ = s.Latest("a")
	assert.Equal(t, "one", latest)

	require.NoError(t, s.Clear("a"))
	_, ok, err = s.Latest("a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, _ := s.Count("b")
	assert.Equal(t, 1, n)
}

func setup(t *testing.T, options map[string]string) (*rmtest.Host, *adapter.Adapter, uintptr, unsafe.Pointer) {
	t.Helper()
	host := rmtest.NewHost()
	skin := &rmtest.Skin{Name: "Notes", Path: t.TempDir()}
	rm := host.NewMeasure(skin, "MeasureNotes", options)
	a := adapter.New(host, rainmeter.Registered())

	h := a.Initialize(rm)
	require.NotZero(t, h)
	t.Cleanup(func() { a.Finalize(h) })

	mv := 0.0
	a.Reload(h, rm, &mv)
	return host, a, h, rm
}

func TestNotesMeasure(t *testing.T) {
	host, a, h, _ := setup(t, map[string]string{
		"List":           "Todo",
		"OnChangeAction": "[!UpdateMeter *]",
	})

	assert.Equal(t, 0.0, a.Update(h))
	assert.Equal(t, "", rainmeter.Decode((*uint16)(a.GetString(h))))

	a.ExecuteBang(h, rainmeter.EncodePtr("Add buy milk"))
	a.ExecuteBang(h, rainmeter.EncodePtr("add  call   home "))
	assert.Equal(t, 2.0, a.Update(h))
	assert.Equal(t, "call   home", rainmeter.Decode((*uint16)(a.GetString(h))))

	a.ExecuteBang(h, rainmeter.EncodePtr("Pop"))
	assert.Equal(t, "buy milk", rainmeter.Decode((*uint16)(a.GetString(h))))

	a.ExecuteBang(h, rainmeter.EncodePtr("Clear"))
	assert.Equal(t, 0.0, a.Update(h))

	assert.Len(t, host.Bangs(), 4)
	assert.Empty(t, host.LogsAt(rainmeter.LogError))
}

func TestNotesInvalidCommands(t *testing.T) {
	host, a, h, _ := setup(t, nil)

	a.ExecuteBang(h, rainmeter.EncodePtr("Add"))
	a.ExecuteBang(h, rainmeter.EncodePtr("Sort"))
	a.ExecuteBang(h, rainmeter.EncodePtr("   "))

	warns := host.LogsAt(rainmeter.LogWarning)
	require.Len(t, warns, 3)
	assert.Equal(t, "MeasureNotes: usage: Add <text>", warns[0].Message)
	assert.Equal(t, "MeasureNotes: unknown command command=Sort", warns[1].Message)
	assert.Equal(t, "MeasureNotes: empty command", warns[2].Message)
	assert.Empty(t, host.Bangs(), "invalid commands run no action")
}

func TestNotesReloadKeepsOpenStore(t *testing.T) {
	_, a, h, rm := setup(t, nil)
	a.ExecuteBang(h, rainmeter.EncodePtr("Add kept"))

	mv := 0.0
	a.Reload(h, rm, &mv)
	assert.Equal(t, 1.0, a.Update(h))
}

func TestNotesUnavailableDatabase(t *testing.T) {
	host, a, h, _ := setup(t, map[string]string{
		"DatabaseFile": filepath.Join(t.TempDir(), "missing", "dir", "notes.db"),
	})

	assert.Equal(t, 0.0, a.Update(h))
	a.ExecuteBang(h, rainmeter.EncodePtr("Add x"))

	errs := host.LogsAt(rainmeter.LogError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "MeasureNotes: database unavailable")
	assert.Len(t, host.LogsAt(rainmeter.LogWarning), 1)
}

func TestNotesLogsThroughCurrentContext(t *testing.T) {
	host, a, h, _ := setup(t, nil)

	renamed := host.NewMeasure(&rmtest.Skin{Name: "Notes", Path: t.TempDir()}, "MeasureRenamed", nil)
	mv := 0.0
	a.Reload(h, renamed, &mv)
	a.ExecuteBang(h, rainmeter.EncodePtr("Sort"))

	warns := host.LogsAt(rainmeter.LogWarning)
	require.Len(t, warns, 1)
	assert.Equal(t, "MeasureRenamed", warns[0].Measure)
	assert.Equal(t, "MeasureRenamed: unknown command command=Sort", warns[0].Message)
}
