// File: internal/usecase/chat_engine.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"portfolio-ai-chat/internal/domain"
	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/domain/ports/adapter"
	"portfolio-ai-chat/internal/infra/logging"
)

// ConnectionErrorReply is the assistant-role bubble appended when a request
// fails for any reason other than cancellation.
const ConnectionErrorReply = "Sorry, I'm having trouble reaching the server right now. Please try again in a moment."

// SendFunc binds a ChatEngine to one backend endpoint shape (plain chat or
// document query). history holds the prior turns in send order, excluding
// the message being submitted.
type SendFunc func(ctx context.Context, message string, history []model.Message, onDelta adapter.DeltaFunc) error

// StreamSink receives each streamed increment as it arrives, so a view can
// re-render the in-progress reply.
type StreamSink func(delta string)

// ChatEngine manages a single logical conversation: ordered history, one
// in-flight streamed request at a time, and cooperative cancellation. Both
// chat views share it; only the bound SendFunc differs.
type ChatEngine struct {
	mu         sync.Mutex
	transcript *model.Transcript
	pending    strings.Builder
	busy       bool
	cancel     context.CancelFunc
	gen        uint64 // bumped by Reset so a settling stream can't touch the new transcript

	send   SendFunc
	window int
	log    *zerolog.Logger
}

func NewChatEngine(send SendFunc, historyWindow int, log *zerolog.Logger, seed ...model.Message) *ChatEngine {
	return &ChatEngine{
		transcript: model.NewTranscript(seed...),
		send:       send,
		window:     historyWindow,
		log:        log,
	}
}

// Submit sends one user turn and consumes the streamed reply. It blocks
// until end-of-stream, failure, or cancellation; callers run it off the UI
// goroutine. The returned error is a usage error only (ErrEmptyMessage,
// ErrBusy) — stream outcomes land in the transcript instead:
//
//   - success appends the accumulated reply as an assistant message,
//   - cancellation is silent (the user turn stays, the partial reply is
//     dropped),
//   - any other failure appends a generic connection-error bubble.
func (e *ChatEngine) Submit(ctx context.Context, userText string, sink StreamSink) error {
	defer logging.TraceDuration(e.log, "ChatEngine.Submit")()

	userText = strings.TrimSpace(userText)
	if userText == "" {
		return domain.ErrEmptyMessage
	}

	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return domain.ErrBusy
	}
	// A stale handle can only be left by a previous turn that already
	// settled; cancel it anyway before issuing the new request.
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.busy = true
	e.pending.Reset()
	// The user turn is recorded before the request starts and is never
	// rolled back, even when the request is cancelled or fails.
	e.transcript.Append(model.RoleUser, userText)
	history := e.transcript.Window(e.window)
	gen := e.gen
	e.mu.Unlock()

	// Window includes the turn just appended; the backend expects it in the
	// message field, not the history.
	history = history[:len(history)-1]

	err := e.send(ctx, userText, history, func(delta string) error {
		e.mu.Lock()
		e.pending.WriteString(delta)
		e.mu.Unlock()
		if sink != nil {
			sink(delta)
		}
		return nil
	})
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	e.cancel = nil

	if gen != e.gen {
		// The session was reset while this turn was settling.
		e.pending.Reset()
		return nil
	}

	switch {
	case err == nil:
		e.transcript.Append(model.RoleAssistant, e.pending.String())
		e.log.Debug().Int("messages", e.transcript.Len()).Msg("turn complete")
	case errors.Is(err, context.Canceled):
		// Superseded or torn down: drop the partial reply silently.
		e.log.Debug().Msg("stream cancelled")
	default:
		e.log.Warn().Err(err).Msg("stream failed")
		e.transcript.Append(model.RoleAssistant, ConnectionErrorReply)
	}
	e.pending.Reset()
	return nil
}

// Cancel aborts the in-flight request, if any. Safe to call at any time.
func (e *ChatEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Busy reports whether a request is in flight.
func (e *ChatEngine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// History returns a copy of the finalized transcript.
func (e *ChatEngine) History() []model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcript.Messages()
}

// Pending returns the partial assistant text accumulated so far, empty when
// nothing is streaming.
func (e *ChatEngine) Pending() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.String()
}

// Reset cancels any in-flight request and replaces the history with the
// given seed, as when a view is freshly opened.
func (e *ChatEngine) Reset(seed ...model.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
	e.transcript.Reset(seed...)
	e.pending.Reset()
}
