// Package ui is the interactive terminal front end: a Bubble Tea program
// for poking the account, firing stress runs in either mode, and reading
// the resulting consistency report side by side.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"racebank/pkg/bank"
	"racebank/pkg/guard"
	"racebank/pkg/simulator"
	"racebank/pkg/teller"
)

// Options fixes the request set used for interactive calls and stress runs
// so unsafe and protected rounds stay directly comparable.
type Options struct {
	Tellers int
	Amount  decimal.Decimal
}

// Model represents the application state
type Model struct {
	bank *bank.Bank
	opts Options

	outcomeTable table.Model
	spinner      spinner.Model
	help         help.Model
	keys         keyMap

	width     int
	height    int
	executing bool
	showHelp  bool

	lastRun     *simulator.Run
	lastOutcome *teller.Outcome
	lastError   error
	statusNote  string
}

// NewModel builds the TUI around a bank facade.
func NewModel(b *bank.Bank, opts Options) Model {
	t := table.New(
		table.WithColumns(outcomeColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(bgDark).
		Background(secondaryColor).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		bank:         b,
		opts:         opts,
		outcomeTable: t,
		spinner:      sp,
		help:         help.New(),
		keys:         keys,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if m.executing {
			return m, nil // Ignore input while a run is in flight
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Deposit):
			m.executing = true
			return m, tea.Batch(m.spinner.Tick, m.applyOnce(teller.Deposit))

		case key.Matches(msg, m.keys.Withdraw):
			m.executing = true
			return m, tea.Batch(m.spinner.Tick, m.applyOnce(teller.Withdraw))

		case key.Matches(msg, m.keys.RunUnsafe):
			m.executing = true
			return m, tea.Batch(m.spinner.Tick, m.runStress(guard.ModeUnsafe))

		case key.Matches(msg, m.keys.RunProtected):
			m.executing = true
			return m, tea.Batch(m.spinner.Tick, m.runStress(guard.ModeProtected))

		case key.Matches(msg, m.keys.Reset):
			return m, m.resetAccount()

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}

	case runResultMsg:
		m.executing = false
		m.lastError = msg.err
		m.lastOutcome = nil
		if msg.err == nil {
			m.lastRun = msg.run
			m.outcomeTable.SetRows(outcomeRows(msg.run))
			m.outcomeTable.Focus()
		}

	case applyResultMsg:
		m.executing = false
		m.lastError = msg.err
		if msg.err == nil {
			out := msg.outcome
			m.lastOutcome = &out
			m.statusNote = fmt.Sprintf("%s of %s committed, balance %s",
				out.Request.Kind, out.Request.Amount, out.WrittenBalance)
		}

	case resetDoneMsg:
		m.lastError = msg.err
		if msg.err == nil {
			m.lastRun = nil
			m.lastOutcome = nil
			m.outcomeTable.SetRows([]table.Row{})
			m.statusNote = "account reset"
		}

	case spinner.TickMsg:
		if m.executing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	if !m.executing {
		var cmd tea.Cmd
		m.outcomeTable, cmd = m.outcomeTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())

	switch {
	case m.executing:
		sections = append(sections, m.renderExecuting())
	case m.lastError != nil:
		sections = append(sections, m.renderError())
	case m.lastRun != nil:
		sections = append(sections, m.renderRunReport())
	case m.statusNote != "":
		sections = append(sections, m.renderNote())
	default:
		sections = append(sections, m.renderWelcome())
	}

	sections = append(sections, m.renderStatusBar())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

// rendering

func (m Model) renderHeader() string {
	info := m.bank.Info()

	title := titleStyle.Render("🏦 RaceBank — one account, many tellers")

	badge := modeBadgeSafeStyle.Render("MODE: PROTECTED")
	if info.Mode == guard.ModeUnsafe {
		badge = modeBadgeUnsafeStyle.Render("MODE: UNSAFE")
	}

	counters := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(fmt.Sprintf("Balance: %s | Writes: %d | Runs: %d | Lost updates: %d",
			info.Balance, info.TransactionCount, info.RunsExecuted, info.LostUpdatesTotal))

	header := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", badge, "  ", counters)

	separatorWidth := m.width - 4
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := lipgloss.NewStyle().
		Foreground(bgLight).
		Render(strings.Repeat("─", separatorWidth))

	return header + "\n" + separator
}

func (m Model) renderExecuting() string {
	content := lipgloss.JoinHorizontal(
		lipgloss.Left,
		m.spinner.View(),
		fmt.Sprintf(" %d tellers hammering the account...", m.opts.Tellers),
	)

	return lipgloss.NewStyle().
		Foreground(primaryColor).
		Padding(1, 0).
		Render(content)
}

func (m Model) renderError() string {
	icon := errorStyle.Render(" ⚠ ERROR ")
	message := lipgloss.NewStyle().
		Foreground(errorColor).
		Render(m.lastError.Error())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(0, 1).
		Render(fmt.Sprintf("%s %s", icon, message))
}

func (m Model) renderRunReport() string {
	run := m.lastRun

	verdict := consistentStyle.Render(" ✓ CONSISTENT ")
	if !run.Consistent() {
		verdict = lostUpdateStyle.Render(fmt.Sprintf(" ⚡ %d LOST UPDATE(S) ", run.LostUpdateCount))
	}

	summary := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(fmt.Sprintf("%s run, %d tellers × %s %s | expected %s, observed %s, committed %d, rejected %d (%v)",
			run.Mode, run.RequestedCount, run.Kind, run.AmountPerReq,
			run.ExpectedFinalBalance, run.ObservedFinalBalance,
			run.CommittedCount, run.RejectedCount, run.Duration.Round(time.Millisecond)))

	header := lipgloss.JoinHorizontal(lipgloss.Left, verdict, "  ", summary)

	return fmt.Sprintf("%s\n%s", header, m.outcomeTable.View())
}

func (m Model) renderNote() string {
	icon := consistentStyle.Render(" ✓ ")

	return lipgloss.NewStyle().
		Foreground(accentColor).
		Padding(1, 0).
		Render(fmt.Sprintf("%s %s", icon, m.statusNote))
}

func (m Model) renderWelcome() string {
	text := fmt.Sprintf(
		"Press u to race %d unguarded tellers, p to repeat the same run behind the mutex.\n"+
			"Each teller moves %s. Compare the two reports.",
		m.opts.Tellers, m.opts.Amount)

	return lipgloss.NewStyle().
		Foreground(textMuted).
		Padding(1, 0).
		Render(text)
}

func (m Model) renderStatusBar() string {
	info := m.bank.Info()

	status := lipgloss.NewStyle().
		Foreground(accentColor).
		Render("● Ready")
	if m.executing {
		status = lipgloss.NewStyle().
			Foreground(warningColor).
			Render("● Running")
	}

	hints := lipgloss.NewStyle().
		Foreground(textMuted).
		Render(fmt.Sprintf(" | delay %v | overdraft allowed: %v | press ? for help",
			info.Delay, info.AllowOverdraft))

	return statusBarStyle.
		Width(m.width - 4).
		Render(status + hints)
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{
			m.keys.Deposit,
			m.keys.Withdraw,
			m.keys.RunUnsafe,
			m.keys.RunProtected,
			m.keys.Reset,
		},
		{
			m.keys.ScrollUp,
			m.keys.ScrollDown,
			m.keys.Help,
			m.keys.Quit,
		},
	})

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(bgMedium).
		Render(helpText)
}

// updateLayout adjusts component sizes based on window size
func (m *Model) updateLayout() {
	tableHeight := m.height - 10 // Leave room for header/status
	if tableHeight < 4 {
		tableHeight = 4
	}
	m.outcomeTable.SetHeight(tableHeight)
}

func outcomeColumns() []table.Column {
	return []table.Column{
		{Title: "Teller", Width: 20},
		{Title: "Kind", Width: 10},
		{Title: "Read", Width: 12},
		{Title: "Wrote", Width: 12},
		{Title: "Seq", Width: 12},
		{Title: "Status", Width: 24},
	}
}

func outcomeRows(run *simulator.Run) []table.Row {
	rows := make([]table.Row, len(run.Outcomes))
	for i, out := range run.Outcomes {
		status := "committed"
		if !out.Committed {
			status = "rejected"
			if out.Err != nil {
				status = out.Err.Error()
			}
		}

		rows[i] = table.Row{
			out.Request.ActorID,
			out.Request.Kind.String(),
			out.ReadBalance.String(),
			out.WrittenBalance.String(),
			fmt.Sprintf("%d→%d", out.ReadSeq, out.WriteSeq),
			status,
		}
	}
	return rows
}

// commands

type runResultMsg struct {
	run *simulator.Run
	err error
}

type applyResultMsg struct {
	outcome teller.Outcome
	err     error
}

type resetDoneMsg struct {
	err error
}

func (m Model) runStress(mode guard.Mode) tea.Cmd {
	return func() tea.Msg {
		run, err := m.bank.Simulate(context.Background(), simulator.RunConfig{
			Mode:    mode,
			Tellers: m.opts.Tellers,
			Amount:  m.opts.Amount,
			Kind:    teller.Deposit,
		})
		return runResultMsg{run: run, err: err}
	}
}

func (m Model) applyOnce(kind teller.Kind) tea.Cmd {
	return func() tea.Msg {
		out, err := m.bank.Apply(context.Background(), kind, m.opts.Amount)
		return applyResultMsg{outcome: out, err: err}
	}
}

func (m Model) resetAccount() tea.Cmd {
	return func() tea.Msg {
		return resetDoneMsg{err: m.bank.Reset(m.bank.Info().InitialBalance)}
	}
}
