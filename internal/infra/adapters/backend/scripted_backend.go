package backend

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/domain/ports/adapter"
)

var _ adapter.BackendAdapter = (*ScriptedBackend)(nil)

// ScriptedBackend implements adapter.BackendAdapter for local/dev use.
// It echoes canned replies in small chunks instead of calling the real
// backend, so the chat views can be exercised offline.
type ScriptedBackend struct {
	chunk time.Duration
	log   *zerolog.Logger
}

func NewScriptedBackend(log *zerolog.Logger) *ScriptedBackend {
	return &ScriptedBackend{chunk: 30 * time.Millisecond, log: log}
}

func (s *ScriptedBackend) StreamChat(ctx context.Context, message string, history []model.Message, onDelta adapter.DeltaFunc) error {
	reply := fmt.Sprintf("You said: %q. This is a scripted reply (%d prior messages).", message, len(history))
	return s.emit(ctx, reply, onDelta)
}

func (s *ScriptedBackend) StreamQuery(ctx context.Context, message, sessionID, fileID string, history []model.Message, onDelta adapter.DeltaFunc) error {
	reply := fmt.Sprintf("Scripted answer about file %s: nothing in the document mentions %q.", fileID, message)
	return s.emit(ctx, reply, onDelta)
}

// emit streams the reply a few runes at a time, respecting ctx between
// chunks like a real chunked body read would.
func (s *ScriptedBackend) emit(ctx context.Context, reply string, onDelta adapter.DeltaFunc) error {
	runes := []rune(reply)
	const step = 5
	for i := 0; i < len(runes); i += step {
		select {
		case <-time.After(s.chunk):
		case <-ctx.Done():
			return ctx.Err()
		}
		end := i + step
		if end > len(runes) {
			end = len(runes)
		}
		if err := onDelta(string(runes[i:end])); err != nil {
			return err
		}
	}
	return nil
}

func (s *ScriptedBackend) UploadDocument(ctx context.Context, filename string, content io.Reader, sessionID string) (adapter.Upload, error) {
	// Drain so callers see realistic reader behavior.
	if _, err := io.Copy(io.Discard, content); err != nil {
		return adapter.Upload{}, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	up := adapter.Upload{SessionID: sessionID, FileID: uuid.NewString()}
	s.log.Info().Str("filename", filename).Str("session_id", up.SessionID).Msg("[scripted] document uploaded")
	return up, nil
}

func (s *ScriptedBackend) CleanupSession(ctx context.Context, sessionID string) error {
	s.log.Info().Str("session_id", sessionID).Msg("[scripted] session cleaned up")
	return nil
}
