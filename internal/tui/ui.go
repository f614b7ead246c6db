// Package tui renders a dev session as an interactive watcher board.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/uncovr/unc/internal/cliutil"
	"github.com/uncovr/unc/internal/engine"
	"github.com/uncovr/unc/internal/runtime"
)

const (
	tableTitle            = "Watchers"
	eventsTitle           = "Events"
	defaultEventRetention = 200

	sessionRow = "session"
)

// rowOrder fixes the table layout; a session has at most two watchers.
var rowOrder = []string{sessionRow, string(runtime.RolePrimary), string(runtime.RoleSecondary)}

// Option configures UI behaviour.
type Option func(*UI)

// WithMaxEvents sets the number of event records kept for the events pane.
func WithMaxEvents(n int) Option {
	return func(u *UI) {
		if n > 0 {
			u.maxEvents = n
		}
	}
}

// WithWatcherNames labels the watcher rows, e.g. "cargo" and "tailwind".
func WithWatcherNames(primary, secondary string) Option {
	return func(u *UI) {
		u.names[string(runtime.RolePrimary)] = primary
		u.names[string(runtime.RoleSecondary)] = secondary
	}
}

// WithQuit registers the callback invoked when the user asks to stop the
// session. The board itself keeps running until Stop so shutdown progress
// stays visible.
func WithQuit(fn func()) Option {
	return func(u *UI) {
		u.onQuit = fn
	}
}

// UI coordinates the watcher board backed by tview.
type UI struct {
	app    *tview.Application
	table  *tview.Table
	events *tview.TextView
	sink   chan engine.Event

	rows      map[string]*rowState
	names     map[string]string
	records   []cliutil.EventRecord
	pretty    bool
	focused   bool
	maxEvents int
	onQuit    func()
	quitOnce  sync.Once

	mu sync.RWMutex

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	wg        sync.WaitGroup
	stopOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

type rowState struct {
	firstSeen time.Time
	lastEvent time.Time
	state     engine.EventType
	pid       int
	message   string
}

// New constructs a UI configured with the supplied options.
func New(opts ...Option) *UI {
	app := tview.NewApplication()
	table := tview.NewTable().SetFixed(1, 1).SetSelectable(true, false)
	table.SetBorder(true).SetTitle(tableTitle)

	events := tview.NewTextView().SetDynamicColors(false).SetWrap(false)
	events.SetBorder(true).SetTitle(eventsTitle)
	events.SetChangedFunc(func() {
		app.Draw()
	})

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(table, 5, 0, true).
		AddItem(events, 0, 1, false)

	ui := newUI(app, table, events, opts...)
	app.SetRoot(flex, true)
	app.SetInputCapture(ui.handleKey)

	ui.mu.Lock()
	ui.refreshTableLocked()
	ui.mu.Unlock()

	return ui
}

func newUI(app *tview.Application, table *tview.Table, events *tview.TextView, opts ...Option) *UI {
	ui := &UI{
		app:       app,
		table:     table,
		events:    events,
		sink:      make(chan engine.Event, 256),
		rows:      make(map[string]*rowState),
		names:     map[string]string{sessionRow: "unc dev"},
		pretty:    false,
		maxEvents: defaultEventRetention,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ui)
	}
	return ui
}

// EventSink exposes the channel where supervisor events should be delivered.
func (u *UI) EventSink() chan<- engine.Event {
	return u.sink
}

// CloseEvents releases the event channel, allowing internal goroutines to
// exit.
func (u *UI) CloseEvents() {
	u.closeOnce.Do(func() {
		close(u.sink)
	})
}

// Done returns a channel that is closed when the UI stops.
func (u *UI) Done() <-chan struct{} {
	return u.done
}

// Run starts the tview application and processes incoming events until Stop
// is invoked or ctx is cancelled. It returns once the event channel has been
// closed.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	u.cancelMu.Lock()
	u.cancel = cancel
	u.cancelMu.Unlock()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		u.consumeEvents(ctx)
	}()

	go func() {
		<-ctx.Done()
		u.Stop()
	}()

	err := u.app.Run()

	u.cancelMu.Lock()
	cancel = u.cancel
	u.cancel = nil
	u.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}

	u.wg.Wait()
	u.Stop()

	return err
}

// Stop terminates the application loop.
func (u *UI) Stop() {
	u.stopOnce.Do(func() {
		u.cancelMu.Lock()
		cancel := u.cancel
		u.cancel = nil
		u.cancelMu.Unlock()
		if cancel != nil {
			cancel()
		}
		u.app.Stop()
		close(u.done)
	})
}

// consumeEvents applies events until the sink is closed. Once ctx is done the
// remaining events are drained without drawing so senders never block.
func (u *UI) consumeEvents(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	draining := false
	ctxDone := ctx.Done()

	for {
		var tick <-chan time.Time
		if !draining {
			tick = ticker.C
		}

		select {
		case <-ctxDone:
			if !draining {
				draining = true
				ticker.Stop()
			}
			ctxDone = nil
		case evt, ok := <-u.sink:
			if !ok {
				return
			}
			if draining {
				continue
			}
			u.applyEvent(evt)
			u.queueRefresh()
		case <-tick:
			u.queueRefresh()
		}
	}
}

func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEnter:
		u.toggleFocus()
		return nil
	case tcell.KeyCtrlC:
		u.quit()
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			u.quit()
			return nil
		case 'j', 'J':
			u.toggleJSON()
			return nil
		}
	}
	return event
}

func (u *UI) quit() {
	u.quitOnce.Do(func() {
		if u.onQuit != nil {
			go u.onQuit()
			return
		}
		go u.Stop()
	})
}

func (u *UI) toggleFocus() {
	if u.focused {
		u.app.SetFocus(u.table)
	} else {
		u.app.SetFocus(u.events)
	}
	u.focused = !u.focused
}

func (u *UI) toggleJSON() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pretty = !u.pretty
	u.renderEventsLocked()
}

func (u *UI) applyEvent(evt engine.Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	key := sessionRow
	if evt.Role != "" {
		key = string(evt.Role)
	}
	row := u.rows[key]
	if row == nil {
		row = &rowState{firstSeen: evt.Timestamp}
		u.rows[key] = row
	}
	row.lastEvent = evt.Timestamp
	row.state = evt.Type
	if evt.Pid != 0 {
		row.pid = evt.Pid
	}
	row.message = formatEventMessage(evt)

	u.records = append(u.records, cliutil.NewEventRecord(evt))
	if len(u.records) > u.maxEvents {
		trim := len(u.records) - u.maxEvents
		u.records = append([]cliutil.EventRecord(nil), u.records[trim:]...)
	}
}

func (u *UI) queueRefresh() {
	u.app.QueueUpdateDraw(func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.refreshTableLocked()
		u.renderEventsLocked()
	})
}

func (u *UI) refreshTableLocked() {
	u.table.Clear()

	headers := []string{"WATCHER", "NAME", "STATE", "PID", "AGE", "MESSAGE"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold)
		u.table.SetCell(0, col, cell)
	}

	for i, key := range u.visibleRowsLocked() {
		for col, value := range u.rowValuesLocked(key) {
			u.table.SetCell(i+1, col, tview.NewTableCell(value))
		}
	}
}

// visibleRowsLocked lists the rows that have seen at least one event, in
// table order.
func (u *UI) visibleRowsLocked() []string {
	keys := make([]string, 0, len(rowOrder))
	for _, key := range rowOrder {
		if _, ok := u.rows[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func (u *UI) rowValuesLocked(key string) []string {
	row := u.rows[key]
	age := "-"
	if !row.firstSeen.IsZero() {
		age = time.Since(row.firstSeen).Truncate(time.Second).String()
	}
	pid := "-"
	if row.pid != 0 {
		pid = fmt.Sprintf("%d", row.pid)
	}
	name := u.names[key]
	if name == "" {
		name = "-"
	}
	message := row.message
	if len(message) > 80 {
		message = message[:77] + "..."
	}
	return []string{key, name, formatState(row.state), pid, age, message}
}

func (u *UI) renderEventsLocked() {
	u.events.Clear()
	for _, record := range u.records {
		var data []byte
		var err error
		if u.pretty {
			data, err = json.MarshalIndent(record, "", "  ")
		} else {
			data, err = json.Marshal(record)
		}
		if err != nil {
			fmt.Fprintf(u.events, "{\"error\":\"%v\"}\n", err)
			continue
		}
		fmt.Fprintf(u.events, "%s\n", data)
	}
	u.events.ScrollToEnd()
}

func formatEventMessage(evt engine.Event) string {
	msg := evt.Message
	if evt.Err != nil {
		errText := evt.Err.Error()
		switch {
		case msg == "":
			msg = errText
		case !strings.Contains(msg, errText):
			msg = msg + ": " + errText
		}
	}
	if evt.Reason != "" {
		if msg == "" {
			return evt.Reason
		}
		msg = fmt.Sprintf("%s (%s)", msg, evt.Reason)
	}
	return cliutil.RedactSecrets(msg)
}

func formatState(t engine.EventType) string {
	if t == "" {
		return "-"
	}
	s := string(t)
	if len(s) <= 1 {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
