// Package notes provides a measure that keeps a persistent list of short
// notes in a SQLite file.
//
//	[MeasureNotes]
//	Measure=Plugin
//	Plugin=Notes
//	DatabaseFile=#@#notes.db
//	List=Todo
//	OnChangeAction=[!UpdateMeter *][!Redraw]
//
// The number value is the count of notes in List and the string value is
// the most recent one. Bangs: "Add <text>", "Pop", "Clear".
package notes

import (
	"log/slog"
	"strings"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// Notes is a measure backed by a Store
type Notes struct {
	rainmeter.BasePlugin

	store          *Store
	list           string
	onChangeAction string
}

func (n *Notes) log(rm rainmeter.Context) *slog.Logger {
	return rm.Logger(rainmeter.WithPrefix(rm.MeasureName()))
}

// Reload opens DatabaseFile, reopening it when the path changed
func (n *Notes) Reload(rm rainmeter.Context, maxValue *float64) {
	n.list = rm.ReadString("List", rm.MeasureName())
	n.onChangeAction = rm.ReadString("OnChangeAction", "")

	path := rm.ReadPath("DatabaseFile", "notes.db")
	if n.store != nil && n.store.Path() == path {
		return
	}
	n.close(rm)

	store, err := OpenStore(path)
	if err != nil {
		n.log(rm).Error("database unavailable", "err", err)
		return
	}
	n.store = store
}

// Update returns the number of notes in the list
func (n *Notes) Update(rm rainmeter.Context) float64 {
	if n.store == nil {
		return 0
	}
	count, err := n.store.Count(n.list)
	if err != nil {
		n.log(rm).Warn("count failed", "err", err)
		return 0
	}
	return float64(count)
}

// GetString returns the most recent note
func (n *Notes) GetString(rm rainmeter.Context) (string, bool) {
	if n.store == nil {
		return "", true
	}
	body, _, err := n.store.Latest(n.list)
	if err != nil {
		n.log(rm).Warn("read failed", "err", err)
	}
	return body, true
}

// ExecuteBang handles Add, Pop and Clear
func (n *Notes) ExecuteBang(rm rainmeter.Context, args string) {
	if n.store == nil {
		n.log(rm).Warn("database unavailable, ignoring command")
		return
	}

	cmd, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	var err error
	switch strings.ToLower(cmd) {
	case "add":
		text := strings.TrimSpace(rest)
		if text == "" {
			n.log(rm).Warn("usage: Add <text>")
			return
		}
		err = n.store.Add(n.list, text)
	case "pop":
		err = n.store.Pop(n.list)
	case "clear":
		err = n.store.Clear(n.list)
	case "":
		n.log(rm).Warn("empty command")
		return
	default:
		n.log(rm).Warn("unknown command", "command", cmd)
		return
	}

	if err != nil {
		n.log(rm).Error("command failed", "command", cmd, "err", err)
		return
	}
	if n.onChangeAction != "" {
		rm.Execute(n.onChangeAction)
	}
}

// Finalize closes the database
func (n *Notes) Finalize(rm rainmeter.Context) {
	n.close(rm)
}

func (n *Notes) close(rm rainmeter.Context) {
	if n.store == nil {
		return
	}
	if err := n.store.Close(); err != nil {
		n.log(rm).Warn("close failed", "err", err)
	}
	n.store = nil
}

func init() {
	rainmeter.Register[Notes]()
}
