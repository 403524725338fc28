package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"forumjudge/internal/models"
	"forumjudge/internal/service"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// batchMsg carries one completed batch from the run goroutine.
type batchMsg service.ProgressEvent

// runDoneMsg carries the final outcome of the run.
type runDoneMsg struct {
	stats []*models.RunStats
	err   error
}

// progressModel is the bubbletea model for an evaluation run.
type progressModel struct {
	progress  progress.Model
	theme     Theme
	event     *service.ProgressEvent
	stats     []*models.RunStats
	err       error
	cancel    func()
	canceling bool
	done      bool
}

// newProgressModel creates a new progress model. cancel stops the run
// after the in-flight batch finishes.
func newProgressModel(cancel func()) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		progress: prog,
		theme:    defaultTheme,
		cancel:   cancel,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Batches are never abandoned mid-flight; request a stop
			// and wait for the run loop to notice.
			if !m.canceling {
				m.canceling = true
				m.cancel()
			}
			return m, nil
		}

	case batchMsg:
		ev := service.ProgressEvent(msg)
		m.event = &ev
		return m, nil

	case runDoneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		// Update progress bar animation
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string. The final summary is
// printed by the command after the program exits.
func (m progressModel) renderContent() string {
	if m.done {
		return ""
	}

	if m.event == nil {
		return "Selecting content...\n"
	}

	ev := m.event
	var pct float64
	if ev.Batches > 0 {
		pct = float64(ev.Batch) / float64(ev.Batches)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s/%s]", ev.Forum, ev.Kind))
	if ev.Failed {
		status = m.theme.errorStyle().Render(fmt.Sprintf("[%s/%s]", ev.Forum, ev.Kind))
	}

	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("batch %d/%d · %d/%d items", ev.Batch, ev.Batches, ev.Processed, ev.Found)

	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop after the current batch")
	if m.canceling {
		hint = m.theme.hintStyle().Render("Stopping after the current batch...")
	}

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// runWithProgress executes fn under the interactive progress UI. fn
// receives the per-batch callback and must honor ctx cancellation
// between batches.
func runWithProgress(cancel func(), fn func(progress func(service.ProgressEvent)) ([]*models.RunStats, error)) ([]*models.RunStats, error) {
	p := tea.NewProgram(newProgressModel(cancel))

	go func() {
		stats, err := fn(func(ev service.ProgressEvent) {
			p.Send(batchMsg(ev))
		})
		p.Send(runDoneMsg{stats: stats, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(progressModel)
	if !ok {
		return nil, fmt.Errorf("unexpected progress model type")
	}
	return m.stats, m.err
}
