package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/sitespec/sitespec/internal/aggregate"
	"github.com/sitespec/sitespec/internal/service"
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

// stageLabels maps aggregator stage names to display labels.
var stageLabels = map[string]string{
	aggregate.StageReviews: "customer reviews",
	aggregate.StageWebsite: "website content",
	aggregate.StageSEO:     "SEO analysis",
}

// genStageMsg reports a settled source.
type genStageMsg string

// genDoneMsg carries the final generation outcome.
type genDoneMsg struct {
	result *service.GenerateResult
	err    error
}

// generateModel is the bubbletea model for generation progress.
type generateModel struct {
	events   <-chan tea.Msg
	progress progress.Model
	theme    Theme
	settled  map[string]bool
	done     bool
	quitting bool
	result   *service.GenerateResult
	err      error
}

func newGenerateModel(events <-chan tea.Msg) generateModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return generateModel{
		events:   events,
		progress: prog,
		theme:    defaultTheme,
		settled:  map[string]bool{},
	}
}

// Init returns the initial command (start consuming pipeline events).
func (m generateModel) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m generateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case genStageMsg:
		m.settled[string(msg)] = true
		return m, waitForEvent(m.events)

	case genDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m generateModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m generateModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var b strings.Builder
	b.WriteString(m.theme.statusStyle().Render("[generating]"))
	b.WriteString(" ")
	b.WriteString(m.progress.ViewAs(float64(len(m.settled)) / float64(len(stageLabels))))
	b.WriteString("\n")

	for _, stage := range []string{aggregate.StageReviews, aggregate.StageWebsite, aggregate.StageSEO} {
		if m.settled[stage] {
			b.WriteString(m.theme.completedStyle().Render("  ✓ "))
		} else {
			b.WriteString("  … ")
		}
		b.WriteString(stageLabels[stage])
		b.WriteString("\n")
	}

	b.WriteString(m.theme.hintStyle().Render("Press Ctrl+C to abort"))
	b.WriteString("\n")
	return b.String()
}

func (m generateModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Generation failed: %s\n", m.err))
	}
	return m.theme.completedStyle().Render("✓ Document written\n")
}

// waitForEvent reads the next pipeline event off the channel.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// runGenerationWithProgress runs one generation, optionally with the
// interactive progress display. In plain mode stage completions are printed
// as lines instead.
func runGenerationWithProgress(
	ctx context.Context,
	svc *service.GenerationService,
	agg *aggregate.Aggregator,
	conversationID string,
	request string,
	interactive bool,
) (*service.GenerateResult, error) {
	if !interactive {
		agg.Hook = func(stage string) {
			fmt.Printf("  ✓ %s\n", stageLabels[stage])
		}
		return svc.Generate(ctx, conversationID, request)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Room for every stage message plus the final outcome.
	events := make(chan tea.Msg, 8)
	agg.Hook = func(stage string) {
		events <- genStageMsg(stage)
	}

	go func() {
		result, err := svc.Generate(ctx, conversationID, request)
		events <- genDoneMsg{result: result, err: err}
	}()

	p := tea.NewProgram(newGenerateModel(events))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(generateModel)
	if !ok {
		return nil, fmt.Errorf("unexpected progress model type")
	}

	if m.quitting && !m.done {
		// Cancel the pipeline and wait for the goroutine to settle.
		cancel()
		for msg := range events {
			if done, ok := msg.(genDoneMsg); ok {
				if done.err != nil {
					return nil, fmt.Errorf("generation aborted: %w", done.err)
				}
				return done.result, nil
			}
		}
		return nil, fmt.Errorf("generation aborted")
	}

	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
