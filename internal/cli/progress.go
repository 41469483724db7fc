package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/planforge/planforge/internal/client"
)

const pollInterval = time.Second

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

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the job status
type tickMsg time.Time

// statusUpdateMsg carries the latest status from the server
type statusUpdateMsg struct {
	status *client.Status
	err    error
}

// progressModel is the bubbletea model for plan-generation progress.
type progressModel struct {
	client      *client.Client
	athleteName string
	status      *client.Status
	spinner     spinner.Model
	theme       Theme
	done        bool
	quitting    bool
	err         error
}

func newProgressModel(c *client.Client, athleteName string) progressModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return progressModel{
		client:      c,
		athleteName: athleteName,
		spinner:     sp,
		theme:       defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.spinner.Tick,
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchStatus()

	case statusUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.status = msg.status

		switch m.status.Status {
		case "completed":
			m.done = true
			return m, tea.Quit
		case "failed", "not_found":
			m.done = true
			m.err = fmt.Errorf("%s", m.status.Message)
			return m, tea.Quit
		}

		// Still processing
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	message := "Generating training plan..."
	if m.status != nil && m.status.Message != "" {
		message = m.status.Message
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.currentState()))
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s\n", m.spinner.View(), status, message, hint)
}

func (m progressModel) currentState() string {
	if m.status == nil {
		return "submitting"
	}
	return m.status.Status
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nGeneration for %s continues in background.\nUse 'planforge status \"%s\"' to check on it.\n",
			m.athleteName, m.athleteName)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Generation failed: %s\n", m.err))
	}

	out := m.theme.completedStyle().Render("✓ Training plan ready") + "\n"
	if m.status != nil && m.status.Message != "" {
		out += fmt.Sprintf("  %s\n", m.status.Message)
	}
	return out
}

// fetchStatus fetches the current job status from the server.
// Runs as a command to avoid blocking Update().
func (m progressModel) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		st, err := m.client.Status(ctx, m.athleteName)
		return statusUpdateMsg{status: st, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runStatusProgress runs the interactive wait UI for an athlete's job.
// Returns the terminal status, or (nil, nil) if the user backgrounded
// the wait with Ctrl+C.
func runStatusProgress(c *client.Client, athleteName string) (*client.Status, error) {
	model := newProgressModel(c, athleteName)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(progressModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if m.quitting {
		return nil, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}
