package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/korvid-ai/korvid-core/core"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	stateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	agentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	interimStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

type (
	stateMsg      string
	interimMsg    string
	transcriptMsg string
	responseMsg   string
	// responseEndMsg closes the streamed agent line.
	responseEndMsg struct{}
	// playbackEndedMsg carries the text that was actually spoken aloud.
	playbackEndedMsg string
	sessionEndedMsg  struct{ err error }
)

type model struct {
	orchestrator *orchestration.Orchestrator

	viewport viewport.Model
	input    textinput.Model

	lines    []string
	interim  string
	response strings.Builder
	state    string

	width  int
	height int
	ready  bool

	err      error
	quitting bool
}

func newModel(orchestrator *orchestration.Orchestrator) model {
	input := textinput.New()
	input.Placeholder = "Type to talk without a microphone"
	input.Prompt = "> "
	input.Focus()

	return model{
		orchestrator: orchestrator,
		input:        input,
		state:        orchestration.StateIdle.String(),
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyCtrlX:
			m.orchestrator.CancelTurn()
			return m, nil
		case tea.KeyEnter:
			prompt := strings.TrimSpace(m.input.Value())
			if prompt != "" {
				m.orchestrator.SendPrompt(prompt)
				m.appendLine(userStyle.Render("You: ") + prompt)
			} else if interim := strings.TrimSpace(m.interim); interim != "" {
				// Enter on an empty input forces the live transcript through
				// instead of waiting for the silence decision.
				m.orchestrator.SendTranscribedPrompt(interim)
				m.interim = ""
				m.appendLine(userStyle.Render("You: ") + interim)
			}
			m.input.Reset()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case stateMsg:
		m.state = string(msg)

	case interimMsg:
		m.interim = string(msg)
		m.refreshViewport()

	case transcriptMsg:
		m.interim = ""
		m.appendLine(userStyle.Render("You: ") + string(msg))

	case responseMsg:
		m.response.WriteString(string(msg))
		m.refreshViewport()

	case responseEndMsg:
		if m.response.Len() > 0 {
			m.appendLine(agentStyle.Render("Korvid: ") + m.response.String())
			m.response.Reset()
		}

	case playbackEndedMsg:
		// Nothing extra to render; the committed line already reflects what
		// entered history.

	case sessionEndedMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) appendLine(line string) {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.lines = append(m.lines, wordwrap.String(line, width-2))
	m.refreshViewport()
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}

	content := strings.Join(m.lines, "\n")
	if m.response.Len() > 0 {
		content += "\n" + agentStyle.Render("Korvid: ") + m.response.String()
	}
	if m.interim != "" {
		content += "\n" + interimStyle.Render("… "+m.interim)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m *model) resize() {
	headerHeight := 2
	footerHeight := 3
	if !m.ready {
		m.viewport = viewport.New(m.width, m.height-headerHeight-footerHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = m.height - headerHeight - footerHeight
	}
	m.refreshViewport()
}

func (m model) View() string {
	if m.quitting {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("session ended: %v", m.err)) + "\n"
		}
		return "bye\n"
	}
	if !m.ready {
		return "starting…"
	}

	header := titleStyle.Render("korvid") + "  " + stateStyle.Render("["+m.state+"]")
	footer := m.input.View() + "\n" + helpStyle.Render("enter: send  ctrl+x: cancel turn  esc: quit")
	return header + "\n" + m.viewport.View() + "\n" + footer
}
