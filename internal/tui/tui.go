package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/treepatch/internal/core/runner"
)

// RunFunc performs the patch run whose report is displayed.
type RunFunc func(ctx context.Context) runner.Report

type doneMsg struct{ report runner.Report }

type model struct {
	run    RunFunc
	ctx    context.Context
	cancel context.CancelFunc

	// UI
	vp     viewport.Model
	spin   spinner.Model
	glam   *glam.TermRenderer
	width  int
	height int
	ready  bool

	// Run state
	done   bool
	report runner.Report

	// Styling
	border  lipgloss.Style
	okStyle lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
}

func newModel(ctx context.Context, run RunFunc) *model {
	runCtx, cancel := context.WithCancel(ctx)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	m := &model{
		run:     run,
		ctx:     runCtx,
		cancel:  cancel,
		vp:      viewport.New(80, 20),
		spin:    sp,
		border:  lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")),
		okStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true),
		bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
	_ = m.rebuildRenderer(80)
	return m
}

func (m *model) startRun() tea.Cmd {
	run, ctx := m.run, m.ctx
	return func() tea.Msg {
		return doneMsg{report: run(ctx)}
	}
}

// rebuildRenderer recreates the Glamour renderer with the given wrap width.
func (m *model) rebuildRenderer(wrap int) error {
	if wrap < 10 {
		wrap = 10
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"), // fixed style to avoid OSC queries
		glam.WithWordWrap(wrap),
	)
	if err != nil {
		return err
	}
	m.glam = r
	return nil
}

// refresh re-renders the report into the viewport.
func (m *model) refresh() {
	if !m.done {
		return
	}
	md := m.report.Markdown()
	content := md
	if m.glam != nil {
		if rendered, err := m.glam.Render(md); err == nil {
			content = rendered
		}
	}
	m.vp.SetContent(content)
}

func (m *model) recalcLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// border (2 rows) + status line
	vpH := m.height - 3
	if vpH < 3 {
		vpH = 3
	}
	m.vp.Width = m.width - 2
	m.vp.Height = vpH
	_ = m.rebuildRenderer(m.vp.Width - 2)
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.startRun())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if !m.done {
		m.spin, cmd = m.spin.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.vp, cmd = m.vp.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc || msg.String() == "q" {
			m.cancel()
			return m, tea.Quit
		}

	case doneMsg:
		m.done = true
		m.report = msg.report
		m.refresh()
		m.vp.GotoTop()
	}

	return m, tea.Batch(cmds...)
}

func (m *model) statusLine() string {
	if !m.done {
		return m.spin.View() + m.muted.Render(" applying patches…")
	}
	failed := len(m.report.FailedRoots())
	total := len(m.report.Roots)
	var status string
	if m.report.Success {
		status = m.okStyle.Render(fmt.Sprintf("✓ %d/%d directories patched", total-failed, total))
	} else {
		status = m.bad.Render(fmt.Sprintf("✗ %d/%d directories patched", total-failed, total))
	}
	if m.report.DryRun {
		status += m.muted.Render(" (dry run)")
	}
	return status + m.muted.Render("  q to quit")
}

func (m *model) View() string {
	if !m.ready {
		return "Initializing…"
	}
	body := m.vp.View()
	if !m.done {
		body = strings.Repeat("\n", max(m.vp.Height-1, 0))
	}
	return m.border.Render(body) + "\n" + m.statusLine()
}

// Run launches the Bubble Tea viewer, performs run while a spinner is shown and
// then displays the rendered report until the user quits. The report is
// returned so the caller can derive an exit code.
func Run(ctx context.Context, run RunFunc) (runner.Report, error) {
	// Prevent OSC background color queries from contaminating stdin by
	// explicitly setting color profile and background for lipgloss/termenv.
	lipgloss.SetColorProfile(termenv.TrueColor)
	lipgloss.SetHasDarkBackground(true)

	m := newModel(ctx, run)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return runner.Report{}, fmt.Errorf("tui: %w", err)
	}
	fm, ok := final.(*model)
	if !ok || !fm.done {
		return runner.Report{}, fmt.Errorf("tui: quit before the run finished")
	}
	return fm.report, nil
}
