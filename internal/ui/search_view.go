package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/solmere/tilescout/internal/engine"
)

// tickInterval is the simulated host tick. Each tick steps the
// orchestrator by one iteration budget.
const tickInterval = 33 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// searchModel drives one search to completion: every frame tick it steps
// the orchestrator by the configured budget and re-renders progress.
type searchModel struct {
	orch   *engine.Orchestrator
	budget int

	spin   spinner.Model
	prog   progress.Model
	styles Styles

	width     int
	err       error
	cancelled bool
}

func newSearchModel(orch *engine.Orchestrator, cfg Config) *searchModel {
	styles := DefaultStyles()
	if cfg.NoColor || DetectNoColor() {
		styles = NoColorStyles()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Phase
	return &searchModel{
		orch:   orch,
		budget: cfg.StepIterations,
		spin:   s,
		prog:   progress.New(progress.WithDefaultGradient()),
		styles: styles,
		width:  60,
	}
}

// Init implements tea.Model.
func (m *searchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick())
}

// Update implements tea.Model.
func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.prog.Width = msg.Width - 12
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.orch.CancelEvaluation()
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if err := m.orch.Step(context.Background(), m.budget); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if !m.orch.IsSearching() {
			return m, tea.Quit
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *searchModel) View() string {
	if m.err != nil || m.cancelled {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("tilescout"))
	sb.WriteString("\n\n")

	phase := m.orch.Phase()
	if phase == "" {
		phase = "finishing"
	}
	sb.WriteString(fmt.Sprintf("  %s %s\n", m.spin.View(), m.styles.Phase.Render(phase)))
	sb.WriteString(fmt.Sprintf("  %s\n", m.prog.ViewAs(m.orch.Progress())))
	sb.WriteString(m.styles.Dim.Render("\n  q to cancel\n"))
	return sb.String()
}

// RunSearch drives a requested search to completion with the interactive
// progress view. Returns the orchestrator error, if any; a user cancel
// returns nil with the orchestrator's previous results intact.
func RunSearch(orch *engine.Orchestrator, cfg Config) error {
	m := newSearchModel(orch, cfg)

	var opts []tea.ProgramOption
	if f, ok := cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.err
}
