package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-realtime/internal/config"
	"github.com/rxtech-lab/argo-realtime/internal/control"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/service"
	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
	"github.com/rxtech-lab/argo-realtime/internal/status"
)

// Model is the Bubble Tea model of the watch monitor. It only reads the
// status and latest files; its key bindings write the control and config files
// exactly like the CLI verbs do.
type Model struct {
	layout  service.Layout
	loc     *time.Location
	refresh time.Duration

	reporter *status.Reporter
	channel  *control.Channel

	quotes    table.Model
	codeInput textinput.Model
	adding    bool

	status     optional.Option[status.ServiceStatus]
	latest     optional.Option[snapshot.Latest]
	shown      map[string]snapshot.Record
	prevPrices map[string]decimal.Decimal
	notice     string
	err        error
	width      int
	height     int
}

// NewModel creates a monitor for the data directory of layout.
func NewModel(layout service.Layout, loc *time.Location, refresh time.Duration) Model {
	log := logger.NewNopLogger()

	return Model{
		layout:     layout,
		loc:        loc,
		refresh:    refresh,
		reporter:   status.NewReporter(layout.StatusPath(), log),
		channel:    control.NewChannel(layout.ControlPath(), log),
		quotes:     NewQuoteTable(),
		codeInput:  NewCodeInput(),
		status:     optional.None[status.ServiceStatus](),
		latest:     optional.None[snapshot.Latest](),
		shown:      make(map[string]snapshot.Record),
		prevPrices: make(map[string]decimal.Decimal),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.adding {
			return m.updateCodeInput(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "p":
			return m, m.send(verbPause)
		case "r":
			return m, m.send(verbResume)
		case "s":
			return m, m.send(verbStop)
		case "a":
			m.adding = true
			m.codeInput.Focus()

			return m, textinput.Blink
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.quotes.SetWidth(msg.Width)
		m.quotes.SetHeight(max(msg.Height-12, 3))

		return m, nil

	case TickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case RefreshMsg:
		m.err = msg.Err
		m.status = msg.Status
		m.latest = msg.Latest

		if msg.Latest.IsSome() && !msg.Latest.Unwrap().IsHeartbeat() {
			m.trackPrices(msg.Latest.Unwrap().Records)
			m.quotes = UpdateQuoteRows(m.quotes, msg.Latest.Unwrap().Records, m.prevPrices)
		}

		return m, nil

	case ControlMsg:
		if msg.Err != nil {
			m.err = msg.Err
		} else {
			m.notice = fmt.Sprintf("%s requested", msg.Verb)
		}

		return m, m.load()

	case CodesSavedMsg:
		if msg.Err != nil {
			m.err = msg.Err
		} else {
			m.notice = fmt.Sprintf("tracking %d codes", len(msg.Codes))
		}

		return m, nil
	}

	var cmd tea.Cmd
	m.quotes, cmd = m.quotes.Update(msg)

	return m, cmd
}

func (m Model) updateCodeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		codes := ParseCodes(m.codeInput.Value())
		m.adding = false
		m.codeInput.Reset()
		m.codeInput.Blur()

		if len(codes) == 0 {
			return m, nil
		}

		return m, m.addCodes(codes)
	case "esc", "ctrl+c":
		m.adding = false
		m.codeInput.Reset()
		m.codeInput.Blur()

		return m, nil
	}

	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)

	return m, cmd
}

// trackPrices remembers the previous price of every code whose quote changed.
func (m *Model) trackPrices(records []snapshot.Record) {
	for _, r := range records {
		if old, ok := m.shown[r.Code]; ok && !old.CollectedAt.Equal(r.CollectedAt) {
			m.prevPrices[r.Code] = old.Price
		}

		m.shown[r.Code] = r
	}
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		latest, err := snapshot.ReadLatest(m.layout.LatestPath(), m.loc)

		return RefreshMsg{
			Status: m.reporter.Read(),
			Latest: latest,
			Err:    err,
		}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) send(v verb) tea.Cmd {
	return func() tea.Msg {
		state, err := m.channel.Set(v.update())

		return ControlMsg{Verb: v, State: state, Err: err}
	}
}

func (m Model) addCodes(codes []string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Load(m.layout.ConfigPath())
		if err != nil {
			return CodesSavedMsg{Codes: nil, Err: err}
		}

		cfg = cfg.WithTrackedCodes(mergeCodes(cfg.TrackedCodes, codes, nil))
		if err := config.Save(m.layout.ConfigPath(), cfg); err != nil {
			return CodesSavedMsg{Codes: nil, Err: err}
		}

		return CodesSavedMsg{Codes: cfg.TrackedCodes, Err: nil}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Realtime monitor: " + m.layout.Dir))
	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	b.WriteString("\n\n")
	b.WriteString(m.quotesView())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(m.notice)
		b.WriteString("\n")
	}

	if m.adding {
		b.WriteString("Add codes: ")
		b.WriteString(m.codeInput.View())
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("enter: save • esc: cancel"))
	} else {
		b.WriteString(HelpStyle.Render("p: pause • r: resume • s: stop • a: add codes • q: quit"))
	}

	return b.String()
}

func (m Model) statusView() string {
	if m.status.IsNone() {
		return "Service has not published a status yet"
	}

	st := m.status.Unwrap()

	lastPoll := "never"
	if st.LastPollTime != nil {
		lastPoll = st.LastPollTime.In(m.loc).Format(snapshot.TimeLayout)
	}

	lines := []string{
		fmt.Sprintf("Service: %s   State: %s   Trading: %t", st.Describe(), st.State, st.Trading),
		fmt.Sprintf("Errors: %d   Last poll: %s   Tracked: %d", st.ErrorCount, lastPoll, st.TrackedCount),
		fmt.Sprintf("Interval progress: %.0f%%", st.ProgressPct),
	}

	if st.LastError != "" {
		lines = append(lines, ErrorStyle.Render("Last error: "+st.LastError))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) quotesView() string {
	if m.latest.IsNone() {
		return "No snapshot written yet"
	}

	l := m.latest.Unwrap()
	if l.IsHeartbeat() {
		hb := l.Heartbeat.Unwrap()

		return fmt.Sprintf("Market closed (%s at %s)", hb.Status, hb.CollectedAt.Format(snapshot.TimeLayout))
	}

	alerts := len(snapshot.Alerts(l.Records))
	if alerts == 0 {
		return m.quotes.View()
	}

	return m.quotes.View() + "\n" + AlertStyle.Render(fmt.Sprintf("%d alerts", alerts))
}

func watchAction(_ context.Context, cmd *cli.Command, app appEnv) error {
	p := tea.NewProgram(NewModel(app.layout, app.loc, cmd.Duration("refresh")), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	return nil
}
