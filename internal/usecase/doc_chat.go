// File: internal/usecase/doc_chat.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portfolio-ai-chat/internal/domain"
	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/domain/ports/adapter"
	"portfolio-ai-chat/internal/infra/logging"
)

// DocChat is the document-scoped chat session: a ChatEngine whose turns are
// answered from an uploaded PDF. Until an upload succeeds there is nothing
// to query, so Submit rejects locally.
type DocChat struct {
	engine  *ChatEngine
	backend adapter.BackendAdapter
	log     *zerolog.Logger

	mu  sync.Mutex
	doc model.DocumentSession
}

func NewDocChat(backend adapter.BackendAdapter, historyWindow int, log *zerolog.Logger) *DocChat {
	d := &DocChat{backend: backend, log: log}
	d.engine = NewChatEngine(d.sendQuery, historyWindow, log)
	return d
}

// sendQuery binds the engine to the document-query endpoint, reading the
// identifiers current at request time.
func (d *DocChat) sendQuery(ctx context.Context, message string, history []model.Message, onDelta adapter.DeltaFunc) error {
	d.mu.Lock()
	sessionID, fileID := d.doc.SessionID, d.doc.FileID
	d.mu.Unlock()
	return d.backend.StreamQuery(ctx, message, sessionID, fileID, history, onDelta)
}

// Upload sends a PDF to the backend and binds this session to it. A PDF
// already attached to the session is replaced server-side (the current
// session id rides along). On any failure the document state rolls back to
// empty; the caller decides how to surface the error.
func (d *DocChat) Upload(ctx context.Context, filename string, content io.Reader) error {
	defer logging.TraceDuration(d.log, "DocChat.Upload")()

	if !isPDF(filename) {
		return domain.ErrNotPDF
	}

	d.engine.Cancel()

	d.mu.Lock()
	prevSession := d.doc.SessionID
	d.mu.Unlock()

	up, err := d.backend.UploadDocument(ctx, filepath.Base(filename), content, prevSession)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.doc = model.DocumentSession{}
		d.engine.Reset()
		return fmt.Errorf("upload document: %w", err)
	}
	d.doc = model.DocumentSession{
		SessionID:  up.SessionID,
		FileID:     up.FileID,
		Filename:   filepath.Base(filename),
		UploadedAt: time.Now(),
	}
	d.engine.Reset(model.NewMessage(model.RoleAssistant,
		fmt.Sprintf("I've read %s. Ask me anything about it.", d.doc.Filename)))
	d.log.Info().Str("session_id", up.SessionID).Str("file_id", up.FileID).Msg("document session ready")
	return nil
}

// Submit requires a bound document; otherwise it rejects without touching
// the network or the transcript.
func (d *DocChat) Submit(ctx context.Context, userText string, sink StreamSink) error {
	d.mu.Lock()
	ready := d.doc.Ready()
	d.mu.Unlock()
	if !ready {
		return domain.ErrNoDocument
	}
	return d.engine.Submit(ctx, userText, sink)
}

// RemoveDocument clears the document and the conversation, returning the
// session to its pre-upload state. Server-side state is left to expire; an
// explicit release only happens on Teardown.
func (d *DocChat) RemoveDocument() {
	d.engine.Cancel()
	d.mu.Lock()
	d.doc = model.DocumentSession{}
	d.mu.Unlock()
	d.engine.Reset()
}

// Teardown ends the session: cancels in-flight work and asks the backend to
// release the uploaded document. The release is best-effort; failure is
// logged, never surfaced.
func (d *DocChat) Teardown(ctx context.Context) {
	d.engine.Cancel()

	d.mu.Lock()
	sessionID := d.doc.SessionID
	d.doc = model.DocumentSession{}
	d.mu.Unlock()

	if sessionID == "" {
		return
	}
	if err := d.backend.CleanupSession(ctx, sessionID); err != nil {
		d.log.Warn().Err(err).Str("session_id", sessionID).Msg("session cleanup failed")
	}
}

func (d *DocChat) Cancel()                  { d.engine.Cancel() }
func (d *DocChat) Busy() bool               { return d.engine.Busy() }
func (d *DocChat) History() []model.Message { return d.engine.History() }
func (d *DocChat) Pending() string          { return d.engine.Pending() }

// Document returns the current document session, zero value when none.
func (d *DocChat) Document() model.DocumentSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc
}

// isPDF applies the client-side filter: a "pdf" media type or a .pdf
// filename suffix.
func isPDF(filename string) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return true
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	return strings.Contains(strings.ToLower(ct), "pdf")
}
