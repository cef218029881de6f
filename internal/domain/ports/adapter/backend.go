package adapter

import (
	"context"
	"io"

	"portfolio-ai-chat/internal/domain/model"
)

// DeltaFunc receives one decoded increment of a streamed response, in
// arrival order. Returning an error aborts the read loop.
type DeltaFunc func(delta string) error

// Upload is the backend's answer to a successful document upload.
type Upload struct {
	SessionID string `json:"session_id"`
	FileID    string `json:"file_id"`
}

// BackendAdapter is the port for the portfolio chat backend.
//
// StreamChat and StreamQuery consume a chunked text response; they return
// only after end-of-stream, a delta error, or ctx cancellation. Context
// cancellation is reported as ctx.Err() so callers can tell an abort from
// a transport failure.
type BackendAdapter interface {
	// StreamChat sends a plain chat turn with prior history.
	StreamChat(ctx context.Context, message string, history []model.Message, onDelta DeltaFunc) error

	// StreamQuery sends a document-scoped question for an uploaded file.
	StreamQuery(ctx context.Context, message, sessionID, fileID string, history []model.Message, onDelta DeltaFunc) error

	// UploadDocument uploads a PDF. A non-empty sessionID asks the backend
	// to replace the document inside the existing session.
	UploadDocument(ctx context.Context, filename string, content io.Reader, sessionID string) (Upload, error)

	// CleanupSession releases server-side document state. Best-effort.
	CleanupSession(ctx context.Context, sessionID string) error
}
