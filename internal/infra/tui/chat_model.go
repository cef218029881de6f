// File: internal/infra/tui/chat_model.go
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"portfolio-ai-chat/internal/domain"
	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/usecase"
)

// Session is the slice of chat-engine behavior the view drives. Both the
// plain engine and the document session satisfy it.
type Session interface {
	Submit(ctx context.Context, text string, sink usecase.StreamSink) error
	Cancel()
	Busy() bool
	History() []model.Message
	Pending() string
}

// DocSession adds the document controls the doc view exposes.
type DocSession interface {
	Session
	Document() model.DocumentSession
	RemoveDocument()
}

// ---- tea messages ----

type deltaMsg struct{}

// renderMsg asks for a repaint without re-arming the delta waiter.
type renderMsg struct{}

type streamDoneMsg struct{ err error }

// ChatModel is the shared chat view: transcript viewport on top, input
// textarea below, spinner while a reply streams in.
type ChatModel struct {
	session Session
	doc     DocSession // nil for the plain view

	viewport viewport.Model
	input    textarea.Model
	spinner  bspinner.Model
	renderer *glamour.TermRenderer

	deltas chan struct{}
	ctx    context.Context
	log    *zerolog.Logger

	status string
	draft  string // last submitted text, restored if the submit is rejected
	width  int
	height int
	ready  bool
}

func NewChatModel(ctx context.Context, session Session, theme string, log *zerolog.Logger) ChatModel {
	ti := textarea.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "┃ "
	ti.SetHeight(2)
	ti.ShowLineNumbers = false
	ti.CharLimit = 4000
	ti.Focus()

	sp := bspinner.New()
	sp.Spinner = bspinner.Dot
	sp.Style = spinnerStyle

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		log.Warn().Err(err).Msg("markdown renderer unavailable, falling back to plain text")
		renderer = nil
	}

	m := ChatModel{
		session:  session,
		input:    ti,
		spinner:  sp,
		renderer: renderer,
		deltas:   make(chan struct{}, 64),
		ctx:      ctx,
		log:      log,
	}
	if d, ok := session.(DocSession); ok {
		m.doc = d
	}
	return m
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForDelta())
}

// waitForDelta bridges the engine's sink callbacks into the tea loop.
func (m ChatModel) waitForDelta() tea.Cmd {
	return func() tea.Msg {
		<-m.deltas
		return deltaMsg{}
	}
}

func refreshSoon() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return renderMsg{}
	})
}

func (m ChatModel) submitCmd(text string) tea.Cmd {
	return func() tea.Msg {
		err := m.session.Submit(m.ctx, text, func(string) {
			select {
			case m.deltas <- struct{}{}:
			default: // a render is already queued
			}
		})
		return streamDoneMsg{err: err}
	}
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		headerH := lipgloss.Height(m.headerView())
		inputH := m.input.Height() + 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerH-inputH)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerH - inputH
		}
		m.input.SetWidth(msg.Width - 2)
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.session.Cancel()
			return m, tea.Quit
		case "esc":
			if m.session.Busy() {
				m.session.Cancel()
				m.status = "cancelled"
			}
		case "ctrl+r":
			if m.doc != nil {
				m.doc.RemoveDocument()
				m.status = "document removed — upload a new PDF to continue"
				m.refresh()
			}
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				break
			}
			m.draft = text
			m.input.Reset()
			m.status = ""
			// Submit runs in its own goroutine; the user turn lands in
			// History almost immediately, so schedule a render right after.
			// Swallow the key so the textarea doesn't insert a newline.
			return m, tea.Batch(m.submitCmd(text), refreshSoon())
		}

	case deltaMsg:
		m.refresh()
		cmds = append(cmds, m.waitForDelta())

	case renderMsg:
		m.refresh()

	case streamDoneMsg:
		switch {
		case msg.err == nil:
			// settled: success, cancel, or error bubble — all in History
		case errors.Is(msg.err, domain.ErrBusy):
			m.status = "still replying — press esc to cancel first"
			m.input.SetValue(m.draft)
		case errors.Is(msg.err, domain.ErrEmptyMessage):
			m.status = "type a message first"
		case errors.Is(msg.err, domain.ErrNoDocument):
			m.status = "upload a PDF before asking questions"
			m.input.SetValue(m.draft)
		default:
			m.status = msg.err.Error()
		}
		m.draft = ""
		m.refresh()
		m.input.Focus()

	case bspinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refresh rebuilds the transcript view from history ++ pending.
func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *ChatModel) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.session.History() {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	if pending := m.session.Pending(); pending != "" {
		b.WriteString(assistantLabelStyle.Render("assistant"))
		b.WriteString("\n")
		// Partial replies are shown raw; markdown is rendered once the
		// message is finalized.
		b.WriteString(pendingStyle.Render(pending))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *ChatModel) renderMessage(msg model.Message) string {
	if msg.Role == model.RoleUser {
		return userLabelStyle.Render("you") + "\n" + userStyle.Render(msg.Content) + "\n"
	}
	body := msg.Content
	if m.renderer != nil {
		if out, err := m.renderer.Render(msg.Content); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	}
	return assistantLabelStyle.Render("assistant") + "\n" + body + "\n"
}

func (m ChatModel) headerView() string {
	title := "chat"
	if m.doc != nil {
		title = "document chat"
	}
	parts := []string{titleStyle.Render(title)}
	if m.doc != nil {
		if doc := m.doc.Document(); doc.Ready() {
			attached := fmt.Sprintf("📄 %s  (uploaded %s, ctrl+r to remove)",
				doc.Filename, doc.UploadedAt.Format("15:04"))
			parts = append(parts, docStyle.Render(attached))
		} else {
			parts = append(parts, docStyle.Render("no document attached"))
		}
	}
	if m.session.Busy() {
		parts = append(parts, m.spinner.View()+" thinking... (esc to cancel)")
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, "  "))
}

func (m ChatModel) View() string {
	if !m.ready {
		return "loading..."
	}
	return m.headerView() + "\n" + m.viewport.View() + "\n" + m.input.View()
}
