package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"portfolio-ai-chat/internal/domain"
	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/domain/ports/adapter"
	"portfolio-ai-chat/internal/infra/logging"
	"portfolio-ai-chat/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.BackendAdapter = (*HTTPAdapter)(nil)

const readBufSize = 4096

// HTTPAdapter implements adapter.BackendAdapter against the portfolio chat
// backend HTTP API.
type HTTPAdapter struct {
	base    string // e.g. https://api.example.com
	timeout time.Duration
	client  *http.Client
	log     *zerolog.Logger
}

func NewHTTPAdapter(baseURL string, timeout time.Duration, log *zerolog.Logger) (*HTTPAdapter, error) {
	if baseURL == "" {
		return nil, errors.New("backend base url empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAdapter{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		// No client-level timeout: streaming responses stay open for as
		// long as the caller's ctx allows.
		client: &http.Client{},
		log:    log,
	}, nil
}

type chatRequest struct {
	Message string          `json:"message"`
	History []model.Message `json:"history"`
}

type queryRequest struct {
	Message   string          `json:"message"`
	SessionID string          `json:"session_id"`
	FileID    string          `json:"file_id"`
	History   []model.Message `json:"history"`
}

func (a *HTTPAdapter) StreamChat(ctx context.Context, message string, history []model.Message, onDelta adapter.DeltaFunc) error {
	return a.stream(ctx, "/api/chat", chatRequest{Message: message, History: history}, onDelta)
}

func (a *HTTPAdapter) StreamQuery(ctx context.Context, message, sessionID, fileID string, history []model.Message, onDelta adapter.DeltaFunc) error {
	req := queryRequest{Message: message, SessionID: sessionID, FileID: fileID, History: history}
	return a.stream(ctx, "/api/rag/query", req, onDelta)
}

// stream POSTs the payload and feeds the chunked text response to onDelta
// until end-of-stream. Chunk boundaries carry no meaning; increments are
// forwarded exactly as received, in order.
func (a *HTTPAdapter) stream(ctx context.Context, path string, payload any, onDelta adapter.DeltaFunc) (err error) {
	start := time.Now()
	chunks := 0
	defer func() {
		metrics.ObserveStream(path, outcome(err), chunks, time.Since(start).Seconds())
	}()

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	reqID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, reqID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	log := logging.With(ctx, a.log).With().Str("path", path).Logger()
	log.Debug().Msg("stream request")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error bodies are small; the tail is enough for the logs.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Warn().Int("status", resp.StatusCode).Msg("stream request rejected")
		return fmt.Errorf("%w: http %d: %s", domain.ErrBackend, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	buf := make([]byte, readBufSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			chunks++
			if derr := onDelta(string(buf[:n])); derr != nil {
				return derr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// An abort surfaces as a read error on the body; report it as
			// cancellation, not failure.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: read stream: %v", domain.ErrBackend, rerr)
		}
	}

	log.Debug().Int("chunks", chunks).Dur("elapsed", time.Since(start)).Msg("stream complete")
	return nil
}

func (a *HTTPAdapter) UploadDocument(ctx context.Context, filename string, content io.Reader, sessionID string) (adapter.Upload, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return adapter.Upload{}, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return adapter.Upload{}, fmt.Errorf("read document: %w", err)
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			return adapter.Upload{}, fmt.Errorf("build multipart: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return adapter.Upload{}, fmt.Errorf("build multipart: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	reqID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, reqID)
	if sessionID != "" {
		ctx = logging.WithSessID(ctx, sessionID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/api/rag/upload", &body)
	if err != nil {
		return adapter.Upload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Request-ID", reqID)

	resp, err := a.client.Do(req)
	if err != nil {
		metrics.IncUpload("error")
		return adapter.Upload{}, fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncUpload("error")
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return adapter.Upload{}, fmt.Errorf("%w: http %d: %s", domain.ErrBackend, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var up adapter.Upload
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		metrics.IncUpload("error")
		return adapter.Upload{}, fmt.Errorf("%w: decode upload response: %v", domain.ErrBackend, err)
	}
	if up.SessionID == "" || up.FileID == "" {
		metrics.IncUpload("error")
		return adapter.Upload{}, fmt.Errorf("%w: upload response missing identifiers", domain.ErrBackend)
	}

	metrics.IncUpload("ok")
	logging.With(ctx, a.log).Info().Str("filename", filename).Str("session_id", up.SessionID).Msg("document uploaded")
	return up, nil
}

func (a *HTTPAdapter) CleanupSession(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	reqID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, reqID)
	ctx = logging.WithSessID(ctx, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.base+"/api/rag/cleanup/"+sessionID, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", reqID)

	resp, err := a.client.Do(req)
	if err != nil {
		metrics.IncCleanup("error")
		return fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncCleanup("error")
		return fmt.Errorf("%w: http %d", domain.ErrBackend, resp.StatusCode)
	}
	metrics.IncCleanup("ok")
	logging.With(ctx, a.log).Debug().Msg("session released")
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
