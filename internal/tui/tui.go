/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tui is a terminal host for a session. It lists every stored element
// and moves the selected one with the arrow keys through the same controllers
// the graphical overlay uses, so the drag-mode gate and the store stay in
// charge of every change.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chartoverlay/internal/export"
	"chartoverlay/internal/gesture"
	"chartoverlay/internal/notify"
	"chartoverlay/internal/persist"
	"chartoverlay/internal/position"
	"chartoverlay/internal/session"
	"chartoverlay/internal/vector"
)

// Step is the distance of one arrow-key nudge; shift moves ten times as far.
const Step = 1.0

// saveTimeout bounds one save started from the terminal.
const saveTimeout = time.Minute

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4361EE")).
			MarginLeft(1)

	modeOnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4361EE")).
			Padding(0, 1)

	modeOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#6C757D")).
			Padding(0, 1)

	tableBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6C757D"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(1)
)

type keyMap struct {
	Up, Down       key.Binding
	NudgeUp        key.Binding
	NudgeDown      key.Binding
	NudgeLeft      key.Binding
	NudgeRight     key.Binding
	FarUp, FarDown key.Binding
	FarLeft        key.Binding
	FarRight       key.Binding
	Quit           key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("k"), key.WithHelp("k/j", "select")),
	Down:       key.NewBinding(key.WithKeys("j")),
	NudgeUp:    key.NewBinding(key.WithKeys("up"), key.WithHelp("←↑↓→", "nudge")),
	NudgeDown:  key.NewBinding(key.WithKeys("down")),
	NudgeLeft:  key.NewBinding(key.WithKeys("left")),
	NudgeRight: key.NewBinding(key.WithKeys("right")),
	FarUp:      key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("shift+arrow", "nudge x10")),
	FarDown:    key.NewBinding(key.WithKeys("shift+down")),
	FarLeft:    key.NewBinding(key.WithKeys("shift+left")),
	FarRight:   key.NewBinding(key.WithKeys("shift+right")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.NudgeUp, k.FarUp, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.NudgeUp, k.FarUp}, {k.Quit}}
}

// nudge maps a key to a movement, or reports false.
func (k keyMap) nudge(msg tea.KeyMsg) (vector.Pt, bool) {
	switch {
	case key.Matches(msg, k.NudgeUp):
		return vector.Pt{Y: -Step}, true
	case key.Matches(msg, k.NudgeDown):
		return vector.Pt{Y: Step}, true
	case key.Matches(msg, k.NudgeLeft):
		return vector.Pt{X: -Step}, true
	case key.Matches(msg, k.NudgeRight):
		return vector.Pt{X: Step}, true
	case key.Matches(msg, k.FarUp):
		return vector.Pt{Y: -10 * Step}, true
	case key.Matches(msg, k.FarDown):
		return vector.Pt{Y: 10 * Step}, true
	case key.Matches(msg, k.FarLeft):
		return vector.Pt{X: -10 * Step}, true
	case key.Matches(msg, k.FarRight):
		return vector.Pt{X: 10 * Step}, true
	}
	return vector.Pt{}, false
}

// boxCell holds the box of a terminal row; it has nothing to draw.
type boxCell struct{ box position.Box }

func (c *boxCell) ApplyBox(b position.Box) { c.box = b }

// target is one row of the table with the controller that moves it.
type target struct {
	loc    position.Location
	canvas *gesture.Canvas
	box    *gesture.BoxDrag
}

// move runs one complete gesture of d through the controller. It reports
// false when drag mode is off or the element has no controller.
func (t target) move(d vector.Pt) bool {
	switch {
	case t.canvas != nil:
		if !t.canvas.Begin(gesture.Event{}) {
			return false
		}
		ok := t.canvas.Update(gesture.Event{DX: d.X, DY: d.Y})
		t.canvas.End()
		return ok
	case t.box != nil:
		if !t.box.Begin(0, 0) {
			return false
		}
		ok := t.box.Update(d.X, d.Y)
		t.box.End()
		return ok
	}
	return false
}

// Notifier queues session notifications for the program loop. Notify never
// blocks; messages beyond the buffer are dropped.
type Notifier struct {
	ch chan notify.Message
}

// NewNotifier returns a Notifier holding up to 16 pending messages.
func NewNotifier() *Notifier { return &Notifier{ch: make(chan notify.Message, 16)} }

func (n *Notifier) Notify(m notify.Message) {
	select {
	case n.ch <- m:
	default:
	}
}

type statusMsg notify.Message

type clearStatusMsg struct{ seq int }

type savedMsg struct {
	rep persist.Report
	err error
}

// Model is the bubbletea model of the terminal host.
type Model struct {
	sess    *session.Session
	notes   *Notifier
	targets []target
	table   table.Model
	help    help.Model
	keys    keyMap

	status    notify.Message
	statusSeq int
	saving    bool
	width     int
}

// New registers a controller for every element in the session store and
// returns the model. notes must be the notifier the session was built with,
// or nil when the host does not show notifications.
func New(sess *session.Session, notes *Notifier) Model {
	m := Model{sess: sess, notes: notes, help: help.New(), keys: keys}
	if st := sess.Store(); st != nil {
		for _, p := range st.Panels() {
			for _, e := range st.Elements(p) {
				m.targets = append(m.targets, register(sess, position.Location{Panel: p, Element: e}))
			}
		}
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Panel", Width: 14},
			{Title: "Element", Width: 20},
			{Title: "Shape", Width: 12},
			{Title: "Placement", Width: 36},
		}),
		table.WithFocused(true),
		table.WithHeight(min(max(len(m.targets), 1), 12)),
	)
	// arrows nudge; selection stays on j/k
	t.KeyMap = table.KeyMap{
		LineUp:   key.NewBinding(key.WithKeys("k")),
		LineDown: key.NewBinding(key.WithKeys("j")),
	}
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4361EE")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4361EE")).
		Bold(false)
	t.SetStyles(s)
	m.table = t
	m.refreshRows()
	return m
}

func register(sess *session.Session, loc position.Location) target {
	d, _ := sess.Get(loc.Panel, loc.Element)
	switch d.(type) {
	case position.Translation:
		return target{loc: loc, canvas: sess.RegisterCanvas(loc, &gesture.PointNode{}, vector.Pt{})}
	case position.LabelOffset:
		return target{loc: loc, canvas: sess.RegisterCanvas(loc, &gesture.PointNode{}, vector.Pt{}, gesture.WithCodec(gesture.LabelCodec))}
	case position.Box:
		return target{loc: loc, box: sess.RegisterBox(loc, &boxCell{}, position.Box{})}
	}
	return target{loc: loc}
}

func (m *Model) refreshRows() {
	rows := make([]table.Row, 0, len(m.targets))
	for _, t := range m.targets {
		d, _ := m.sess.Get(t.loc.Panel, t.loc.Element)
		kind := ""
		if d != nil {
			kind = d.Kind().String()
		}
		rows = append(rows, table.Row{t.loc.Panel, t.loc.Element, kind, export.Describe(d)})
	}
	m.table.SetRows(rows)
}

func (m Model) waitStatus() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	ch := m.notes.ch
	return func() tea.Msg { return statusMsg(<-ch) }
}

func (m Model) save() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		rep, err := sess.Save(ctx)
		return savedMsg{rep: rep, err: err}
	}
}

func (m Model) Init() tea.Cmd { return m.waitStatus() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case statusMsg:
		m.status = notify.Message(msg)
		m.statusSeq++
		seq := m.statusSeq
		d := m.status.Duration
		if d <= 0 {
			d = notify.DefaultSaveDuration
		}
		return m, tea.Batch(m.waitStatus(), tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} }))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = notify.Message{}
		}
		return m, nil

	case savedMsg:
		m.saving = false
		switch {
		case msg.rep.Skipped:
			m.status = notify.Message{Kind: notify.KindError, Text: "Nothing to save", Color: notify.ColorModeOff}
		case msg.err != nil:
			m.status = notify.ErrorMessage("Save failed: "+msg.err.Error(), 0)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if d, ok := m.keys.nudge(msg); ok {
			if i := m.table.Cursor(); i >= 0 && i < len(m.targets) && m.targets[i].move(d) {
				m.refreshRows()
			}
			return m, nil
		}
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			switch m.sess.KeyAction(msg.Runes[0]) {
			case session.ActionToggleDrag:
				m.sess.ToggleDragMode()
				return m, nil
			case session.ActionSave:
				if m.saving {
					return m, nil
				}
				m.saving = true
				return m, m.save()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Chart Overlay"))
	s.WriteString("  ")
	if m.sess.Flag().Enabled() {
		s.WriteString(modeOnStyle.Render("DRAG ON"))
	} else {
		s.WriteString(modeOffStyle.Render("DRAG OFF"))
	}
	s.WriteString("\n\n")

	if len(m.targets) == 0 {
		s.WriteString(helpStyle.Render("no positions recorded"))
	} else {
		s.WriteString(tableBoxStyle.Render(m.table.View()))
	}
	s.WriteString("\n")

	switch {
	case m.saving:
		s.WriteString(helpStyle.Render("saving…"))
	case m.status.Text != "":
		st := lipgloss.NewStyle().Bold(true).MarginLeft(1).Foreground(lipgloss.Color(hexColor(m.status)))
		s.WriteString(st.Render(m.status.Text))
	}
	s.WriteString("\n")

	var extra []string
	for _, b := range m.sess.Help() {
		extra = append(extra, strings.ToLower(b.Key)+" "+shortAction(b.Description))
	}
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()) + " • " + strings.Join(extra, " • ")))
	return s.String()
}

func hexColor(m notify.Message) string {
	c := m.Color
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// shortAction keeps the first word group of a binding description.
func shortAction(desc string) string {
	if i := strings.IndexAny(desc, "(,"); i > 0 {
		desc = desc[:i]
	}
	words := strings.Fields(desc)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.ToLower(strings.Join(words, " "))
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(sess *session.Session, notes *Notifier) error {
	p := tea.NewProgram(New(sess, notes), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
