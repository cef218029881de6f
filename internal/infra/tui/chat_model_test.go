//go:build !integration

package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"portfolio-ai-chat/internal/domain"
	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/usecase"
)

type fakeSession struct {
	history []model.Message
	pending string
	busy    bool
}

func (f *fakeSession) Submit(ctx context.Context, text string, sink usecase.StreamSink) error {
	return nil
}
func (f *fakeSession) Cancel()                  {}
func (f *fakeSession) Busy() bool               { return f.busy }
func (f *fakeSession) History() []model.Message { return f.history }
func (f *fakeSession) Pending() string          { return f.pending }

type fakeDocSession struct {
	fakeSession
	doc model.DocumentSession
}

func (f *fakeDocSession) Document() model.DocumentSession { return f.doc }
func (f *fakeDocSession) RemoveDocument()                 { f.doc = model.DocumentSession{} }

func newTestModel(t *testing.T, s Session) ChatModel {
	t.Helper()
	nop := zerolog.Nop()
	return NewChatModel(context.Background(), s, "notty", &nop)
}

func TestRenderTranscript(t *testing.T) {
	t.Run("shows history followed by pending", func(t *testing.T) {
		s := &fakeSession{
			history: []model.Message{
				model.NewMessage(model.RoleUser, "hello there"),
				model.NewMessage(model.RoleAssistant, "hi, how can I help?"),
			},
			pending: "typing an ans",
		}
		m := newTestModel(t, s)

		out := m.renderTranscript()
		if !strings.Contains(out, "hello there") {
			t.Error("user turn missing from transcript")
		}
		if !strings.Contains(out, "hi, how can I help?") {
			t.Error("assistant turn missing from transcript")
		}
		if !strings.Contains(out, "typing an ans") {
			t.Error("pending text missing from transcript")
		}
		if strings.Index(out, "hello there") > strings.Index(out, "typing an ans") {
			t.Error("pending must render after history")
		}
	})

	t.Run("no pending section when idle", func(t *testing.T) {
		s := &fakeSession{history: []model.Message{model.NewMessage(model.RoleUser, "q")}}
		m := newTestModel(t, s)
		out := m.renderTranscript()
		if strings.Count(out, "assistant") != 0 {
			t.Errorf("unexpected assistant section: %q", out)
		}
	})
}

func TestHeaderView(t *testing.T) {
	t.Run("plain view", func(t *testing.T) {
		m := newTestModel(t, &fakeSession{})
		if !strings.Contains(m.headerView(), "chat") {
			t.Error("title missing")
		}
	})

	t.Run("doc view shows attachment state", func(t *testing.T) {
		d := &fakeDocSession{}
		m := newTestModel(t, d)
		if !strings.Contains(m.headerView(), "no document attached") {
			t.Error("expected empty-document hint")
		}

		uploaded := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
		d.doc = model.DocumentSession{SessionID: "s", FileID: "f", Filename: "report.pdf", UploadedAt: uploaded}
		header := m.headerView()
		if !strings.Contains(header, "report.pdf") {
			t.Error("expected attached filename")
		}
		if !strings.Contains(header, "uploaded 09:30") {
			t.Errorf("expected upload time in header, got %q", header)
		}
	})

	t.Run("busy view shows cancel hint", func(t *testing.T) {
		m := newTestModel(t, &fakeSession{busy: true})
		if !strings.Contains(m.headerView(), "esc to cancel") {
			t.Error("expected cancel hint while busy")
		}
	})
}

func TestDraftHandling(t *testing.T) {
	t.Run("rejected submit restores the typed text", func(t *testing.T) {
		m := newTestModel(t, &fakeSession{busy: true})
		m.draft = "still typing this"

		updated, _ := m.Update(streamDoneMsg{err: domain.ErrBusy})

		if got := updated.(ChatModel).input.Value(); got != "still typing this" {
			t.Errorf("want draft restored, got input %q", got)
		}
	})

	t.Run("missing document restores the typed text", func(t *testing.T) {
		m := newTestModel(t, &fakeDocSession{})
		m.draft = "what does section 2 say?"

		updated, _ := m.Update(streamDoneMsg{err: domain.ErrNoDocument})

		if got := updated.(ChatModel).input.Value(); got != "what does section 2 say?" {
			t.Errorf("want draft restored, got input %q", got)
		}
	})

	t.Run("settled turn leaves the input cleared", func(t *testing.T) {
		m := newTestModel(t, &fakeSession{})
		m.draft = "already sent"

		updated, _ := m.Update(streamDoneMsg{err: nil})

		out := updated.(ChatModel)
		if got := out.input.Value(); got != "" {
			t.Errorf("want cleared input, got %q", got)
		}
		if out.draft != "" {
			t.Errorf("want draft dropped, got %q", out.draft)
		}
	})
}
