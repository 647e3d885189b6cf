// Package tui is the terminal chat client.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/llm"
)

// Conversation is the chat backend. *client.StreamConsumer satisfies it.
type Conversation interface {
	Send(ctx context.Context, content string) (<-chan client.Update, error)
	Abort()
	Reset()
}

type entry struct {
	role     llm.Role
	content  string
	rendered string
	stopped  bool
}

// updateMsg carries one streamed update from the channel it came from.
type updateMsg struct {
	update client.Update
	ch     <-chan client.Update
}

// streamEndMsg is sent when an update channel closes.
type streamEndMsg struct{ ch <-chan client.Update }

type sendErrMsg struct{ err error }

// Model is the bubbletea model for a chat session.
type Model struct {
	ctx  context.Context
	conv Conversation

	input    textarea.Model
	view     viewport.Model
	spin     spinner.Model
	entries  []entry
	current  <-chan client.Update
	err      string
	width    int
	quitting bool
}

// New builds a chat model. ctx bounds every turn.
func New(ctx context.Context, conv Conversation) Model {
	ta := textarea.New()
	ta.Placeholder = "Send a message"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:   ctx,
		conv:  conv,
		input: ta,
		view:  viewport.New(80, 20),
		spin:  sp,
		width: 80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return textarea.Blink }

// Streaming reports whether a reply is in progress.
func (m Model) Streaming() bool { return m.current != nil }

func waitForUpdate(ch <-chan client.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return streamEndMsg{ch: ch}
		}
		return updateMsg{update: u, ch: ch}
	}
}

func (m Model) send(content string) (Model, tea.Cmd) {
	ch, err := m.conv.Send(m.ctx, content)
	if err != nil {
		return m, func() tea.Msg { return sendErrMsg{err: err} }
	}
	m.err = ""
	m.entries = append(m.entries,
		entry{role: llm.RoleUser, content: content},
		entry{role: llm.RoleAssistant},
	)
	m.current = ch
	m.refresh()
	return m, tea.Batch(waitForUpdate(ch), m.spin.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(msg.Width)
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-m.input.Height()-4, 3)
		m.rerender()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.conv.Abort()
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			if m.Streaming() {
				m.conv.Abort()
			}
			return m, nil
		case tea.KeyCtrlL:
			m.conv.Reset()
			m.entries = nil
			m.current = nil
			m.err = ""
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.Reset()
			return m.send(content)
		}

	case updateMsg:
		// Updates from an aborted turn may still be queued.
		if msg.ch != m.current {
			return m, waitForUpdate(msg.ch)
		}
		last := &m.entries[len(m.entries)-1]
		last.content = msg.update.Content
		if msg.update.Done {
			last.stopped = msg.update.Aborted
			last.rendered = m.render(last.content)
			if msg.update.Err != nil {
				m.err = describe(msg.update.Err)
			}
		}
		m.refresh()
		return m, waitForUpdate(msg.ch)

	case streamEndMsg:
		if msg.ch == m.current {
			m.current = nil
		}
		return m, nil

	case sendErrMsg:
		m.err = describe(msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.Streaming() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.view, cmd = m.view.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// describe turns a chat failure into one line for the status bar.
func describe(err error) string {
	switch client.KindOf(err) {
	case client.KindRequestFailed:
		return "The server rejected the request."
	case client.KindTransport:
		return "The server could not be reached."
	case client.KindMalformedResponse:
		return "The server sent an unexpected response."
	default:
		return fmt.Sprintf("Chat failed: %v", err)
	}
}

func (m Model) render(src string) string {
	if src == "" {
		return ""
	}
	return strings.TrimRight(RenderMarkdown(src, m.width-2), "\n")
}

// rerender refreshes cached markdown after a width change.
func (m *Model) rerender() {
	for i := range m.entries {
		if m.entries[i].role == llm.RoleAssistant && m.entries[i].rendered != "" {
			m.entries[i].rendered = m.render(m.entries[i].content)
		}
	}
	m.refresh()
}

// refresh rebuilds the transcript and keeps it scrolled to the bottom.
func (m *Model) refresh() {
	m.view.SetContent(m.transcript())
	m.view.GotoBottom()
}

func (m Model) transcript() string {
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case llm.RoleUser:
			b.WriteString(userStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(e.content)
		default:
			b.WriteString(assistantStyle.Render("Assistant"))
			b.WriteString("\n")
			if e.rendered != "" {
				b.WriteString(e.rendered)
			} else {
				b.WriteString(e.content)
			}
			if e.stopped {
				b.WriteString(helpStyle.Render(" (stopped)"))
			}
		}
	}
	return b.String()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	status := helpStyle.Render("enter send · esc stop · ctrl+l new chat · ctrl+c quit")
	if m.Streaming() {
		status = m.spin.View() + " " + helpStyle.Render("streaming… esc to stop")
	}
	if m.err != "" {
		status = errorStyle.Render(m.err)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("joe-writer chat"),
		m.view.View(),
		status,
		m.input.View(),
	)
}
