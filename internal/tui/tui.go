// Package tui renders the conversation console: a sidebar of
// recency-grouped sessions with the current project risks, the active
// session's transcript, and an input line. It is a pure subscriber of
// controller state snapshots; every mutation goes through the controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ruthwikreddy07/pm-console/internal/controller"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSessions
)

type promptKind int

const (
	promptNone promptKind = iota
	promptReject
	promptUpload
)

// sidebarEntry is one rendered sidebar row: either a group header or a
// selectable session.
type sidebarEntry struct {
	header  bool
	label   string
	session models.Session
}

type model struct {
	ctx   context.Context
	ctrl  *controller.Controller
	risks RiskSource

	state   controller.State
	entries []sidebarEntry
	cursor  int
	focus   focusArea
	prompt  promptKind

	input     textinput.Model
	viewport  viewport.Model
	indicator *LoadingIndicator
	renderer  *contentRenderer
	riskList  []string

	lastCount int
	ready     bool
	width     int
	height    int
}

func initialModel(ctx context.Context, ctrl *controller.Controller, risks RiskSource) (model, controller.Effect) {
	input := textinput.New()
	input.Placeholder = "Message the agent..."
	input.Focus()

	eff := ctrl.Bootstrap()

	m := model{
		ctx:       ctx,
		ctrl:      ctrl,
		risks:     risks,
		state:     ctrl.Snapshot(),
		input:     input,
		indicator: NewLoadingIndicator("Waiting for the agent..."),
	}
	m.rebuildEntries()
	return m, eff
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickCmd())
}

// rebuildEntries flattens the grouped sessions into sidebar rows and keeps
// the cursor on a selectable row.
func (m *model) rebuildEntries() {
	m.entries = m.entries[:0]
	for _, group := range m.state.Groups {
		m.entries = append(m.entries, sidebarEntry{header: true, label: group.Label})
		for _, session := range group.Sessions {
			m.entries = append(m.entries, sidebarEntry{label: session.Label, session: session})
		}
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	for m.cursor < len(m.entries)-1 && m.entries[m.cursor].header {
		m.cursor++
	}
}

func (m *model) moveCursor(delta int) {
	next := m.cursor
	for {
		next += delta
		if next < 0 || next >= len(m.entries) {
			return
		}
		if !m.entries[next].header {
			m.cursor = next
			return
		}
	}
}

// syncState pulls the latest snapshot after a controller operation.
func (m *model) syncState() {
	m.state = m.ctrl.Snapshot()
	m.rebuildEntries()
	m.updateViewport()
}

func (m *model) updateViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if len(m.state.Transcript) != m.lastCount {
		m.viewport.GotoBottom()
		m.lastCount = len(m.state.Transcript)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := m.width - m.sidebarWidth() - 1
		viewHeight := m.height - 6
		if viewHeight < 3 {
			viewHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(chatWidth, viewHeight)
			m.ready = true
		} else {
			m.viewport.Width = chatWidth
			m.viewport.Height = viewHeight
		}
		m.renderer = newContentRenderer(chatWidth - 4)
		m.input.Width = chatWidth - 4
		m.updateViewport()

	case TickMsg:
		if m.state.Loading {
			m.indicator.Tick()
		}
		return m, tickCmd()

	case EventMsg:
		m.ctrl.Apply(msg.Event)
		m.syncState()
		if ev, ok := msg.Event.(controller.ExchangeResult); ok && ev.Err == nil {
			if ev.Op == controller.OpSend || ev.Op == controller.OpApprove {
				cmds = append(cmds, loadRisksCmd(m.ctx, m.risks))
			}
		}

	case RisksLoadedMsg:
		// A failed refresh keeps the previous list; risks never block chat.
		if msg.Error == nil {
			m.riskList = msg.Risks
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	if m.focus == focusSessions {
		return m.handleSessionKey(msg)
	}

	switch msg.String() {
	case "tab":
		m.focus = focusSessions
		m.input.Blur()
		return m, nil

	case "enter":
		if m.state.Loading {
			return m, nil
		}
		eff := m.ctrl.SendMessage(m.input.Value())
		if eff == nil {
			return m, nil
		}
		m.input.Reset()
		m.syncState()
		return m, effectCmd(m.ctx, eff)

	case "ctrl+n":
		m.ctrl.StartNewSession()
		m.syncState()
		return m, nil

	case "ctrl+u":
		if m.state.Loading {
			return m, nil
		}
		m.prompt = promptUpload
		m.input.Reset()
		m.input.Placeholder = "Path of file to upload (esc to cancel)"
		return m, nil

	case "ctrl+a":
		if m.state.Loading {
			return m, nil
		}
		eff := m.ctrl.Approve()
		m.syncState()
		return m, effectCmd(m.ctx, eff)

	case "ctrl+r":
		if m.state.Loading || m.state.Approval != models.ApprovalPending {
			return m, nil
		}
		m.prompt = promptReject
		m.input.Reset()
		m.input.Placeholder = "Reason for rejecting (enter for default, esc to cancel)"
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil

	case "enter":
		value := m.input.Value()
		kind := m.prompt
		m.closePrompt()

		var eff controller.Effect
		switch kind {
		case promptReject:
			eff = m.ctrl.Reject(value)
		case promptUpload:
			if strings.TrimSpace(value) == "" {
				return m, nil
			}
			eff = m.ctrl.UploadArtifact(strings.TrimSpace(value))
		}
		m.syncState()
		return m, effectCmd(m.ctx, eff)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) closePrompt() {
	m.prompt = promptNone
	m.input.Reset()
	m.input.Placeholder = "Message the agent..."
}

func (m model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab", "esc":
		m.focus = focusInput
		m.input.Focus()
		return m, textinput.Blink

	case "up", "k":
		m.moveCursor(-1)
		return m, nil

	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "enter":
		if m.cursor < len(m.entries) && !m.entries[m.cursor].header {
			eff := m.ctrl.SelectSession(m.entries[m.cursor].session)
			m.focus = focusInput
			m.input.Focus()
			m.syncState()
			return m, tea.Batch(effectCmd(m.ctx, eff), textinput.Blink)
		}
		return m, nil

	case "n":
		m.ctrl.StartNewSession()
		m.focus = focusInput
		m.input.Focus()
		m.syncState()
		return m, textinput.Blink

	case "d":
		if m.cursor < len(m.entries) && !m.entries[m.cursor].header {
			effs := m.ctrl.DeleteSession(m.entries[m.cursor].session.ID)
			m.syncState()
			return m, effectsCmd(m.ctx, effs)
		}
		return m, nil
	}
	return m, nil
}

func (m model) sidebarWidth() int {
	w := m.width / 4
	if w < 24 {
		w = 24
	}
	return w
}

func (m model) renderSidebar() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	groupStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Bold(true)

	s.WriteString(headerStyle.Render("Sessions") + "\n")
	s.WriteString(strings.Repeat("─", m.sidebarWidth()-2) + "\n")

	for i, entry := range m.entries {
		if entry.header {
			s.WriteString("\n" + groupStyle.Render(entry.label) + "\n")
			continue
		}

		cursor := "  "
		if i == m.cursor && m.focus == focusSessions {
			cursor = "> "
		}
		marker := " "
		if entry.session.ID == m.state.ActiveID {
			marker = "*"
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		if i == m.cursor && m.focus == focusSessions {
			style = style.Foreground(lipgloss.Color("212")).Bold(true)
		}
		s.WriteString(style.Render(fmt.Sprintf("%s%s %s", cursor, marker, entry.label)) + "\n")
	}

	if len(m.riskList) > 0 {
		s.WriteString("\n" + headerStyle.Render("Risks") + "\n")
		s.WriteString(strings.Repeat("─", m.sidebarWidth()-2) + "\n")
		riskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		for _, risk := range m.riskList {
			s.WriteString(riskStyle.Render("• "+truncate(risk, m.sidebarWidth()-4)) + "\n")
		}
	}

	return s.String()
}

func (m model) renderTranscript() string {
	if len(m.state.Transcript) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
		if m.state.Notice != "" {
			return emptyStyle.Render(m.state.Notice)
		}
		return emptyStyle.Render("No messages yet. Say hello.")
	}

	userStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	agentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	systemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	bodyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	wrapWidth := m.viewport.Width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var s strings.Builder
	for i, msg := range m.state.Transcript {
		switch msg.Role {
		case models.RoleUser:
			s.WriteString(userStyle.Render("You") + "\n")
			for _, line := range wrapText(msg.Content, wrapWidth) {
				s.WriteString(bodyStyle.Render(line) + "\n")
			}
		case models.RoleSystem:
			s.WriteString(systemStyle.Render("System") + "\n")
			for _, line := range wrapText(msg.Content, wrapWidth) {
				s.WriteString(bodyStyle.Render(line) + "\n")
			}
		default:
			s.WriteString(agentStyle.Render("AI Agent") + "\n")
			if m.renderer != nil {
				s.WriteString(strings.TrimRight(m.renderer.Render(msg.Content), "\n") + "\n")
			} else {
				for _, line := range wrapText(msg.Content, wrapWidth) {
					s.WriteString(bodyStyle.Render(line) + "\n")
				}
			}
		}
		if i < len(m.state.Transcript)-1 {
			s.WriteString("\n")
		}
	}
	return s.String()
}

func (m model) renderStatus() string {
	if m.state.Loading {
		return m.indicator.View()
	}
	if m.state.Approval == models.ApprovalPending {
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("58")).
			Bold(true)
		return style.Render(" Approval required — ctrl+a approve · ctrl+r reject ")
	}
	if m.state.Notice != "" && len(m.state.Transcript) > 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(m.state.Notice)
	}
	return ""
}

func (m model) renderHeader() string {
	title := "PM Console"
	if m.state.User != "" {
		title = fmt.Sprintf("PM Console — %s", m.state.User)
	}
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63"))
	return style.Render(title)
}

func (m model) renderFooter() string {
	info := "enter: send • tab: sessions • ctrl+n: new chat • ctrl+u: upload"
	if m.focus == focusSessions {
		info = "↑/↓: navigate • enter: open • n: new • d: delete • tab: back • q: quit"
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	return style.Render(info)
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	sidebar := lipgloss.NewStyle().
		Width(m.sidebarWidth()).
		Height(m.viewport.Height + 3).
		Render(m.renderSidebar())

	divider := strings.Builder{}
	for i := 0; i < m.viewport.Height+3; i++ {
		divider.WriteString("│")
		if i < m.viewport.Height+2 {
			divider.WriteString("\n")
		}
	}
	dividerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	chat := fmt.Sprintf("%s\n%s\n%s", m.viewport.View(), m.renderStatus(), m.input.View())

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		sidebar,
		dividerStyle.Render(divider.String()),
		chat,
	)

	return fmt.Sprintf("%s\n%s\n%s", m.renderHeader(), body, m.renderFooter())
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if len(currentLine)+1+len(word) > width {
				lines = append(lines, currentLine)
				currentLine = word
			} else {
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			lines = append(lines, currentLine)
		}
	}
	return lines
}

func truncate(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Show runs the console until the user quits.
func Show(ctx context.Context, ctrl *controller.Controller, risks RiskSource) error {
	m, eff := initialModel(ctx, ctrl, risks)

	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		if eff != nil {
			p.Send(EventMsg{Event: eff(ctx)})
		}
		if r, err := risks.Risks(ctx); err == nil {
			p.Send(RisksLoadedMsg{Risks: r})
		}
	}()

	_, err := p.Run()
	return err
}
