//go:build !integration

package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-ai-chat/internal/domain"
	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/domain/ports/adapter"
)

// ---- Fakes ----

type fakeBackend struct {
	mu sync.Mutex

	queryCalls        int
	uploadCalls       int
	cleanupCalls      []string
	lastUploadSession string

	reply      string
	uploadErr  error
	cleanupErr error
}

var _ adapter.BackendAdapter = (*fakeBackend)(nil)

func (f *fakeBackend) StreamChat(ctx context.Context, message string, history []model.Message, onDelta adapter.DeltaFunc) error {
	return onDelta(f.reply)
}

func (f *fakeBackend) StreamQuery(ctx context.Context, message, sessionID, fileID string, history []model.Message, onDelta adapter.DeltaFunc) error {
	f.mu.Lock()
	f.queryCalls++
	f.mu.Unlock()
	if sessionID == "" || fileID == "" {
		return errors.New("query without identifiers")
	}
	return onDelta(f.reply)
}

func (f *fakeBackend) UploadDocument(ctx context.Context, filename string, content io.Reader, sessionID string) (adapter.Upload, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.lastUploadSession = sessionID
	f.mu.Unlock()
	if f.uploadErr != nil {
		return adapter.Upload{}, f.uploadErr
	}
	_, _ = io.Copy(io.Discard, content)
	return adapter.Upload{SessionID: "sess-1", FileID: "file-1"}, nil
}

func (f *fakeBackend) CleanupSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	f.cleanupCalls = append(f.cleanupCalls, sessionID)
	f.mu.Unlock()
	return f.cleanupErr
}

func (f *fakeBackend) queries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queryCalls
}

func (f *fakeBackend) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls
}

// ---- Tests ----

func TestDocChat_SubmitPreconditions(t *testing.T) {
	t.Run("submit before upload rejects without network", func(t *testing.T) {
		be := &fakeBackend{reply: "answer"}
		d := NewDocChat(be, 0, nopLogger())

		err := d.Submit(context.Background(), "what does it say?", nil)
		require.ErrorIs(t, err, domain.ErrNoDocument)
		assert.Zero(t, be.queries())
		assert.Empty(t, d.History())
	})

	t.Run("submit after upload succeeds", func(t *testing.T) {
		be := &fakeBackend{reply: "it says hello"}
		d := NewDocChat(be, 0, nopLogger())

		require.NoError(t, d.Upload(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4")))
		require.True(t, d.Document().Ready())

		require.NoError(t, d.Submit(context.Background(), "what does it say?", nil))
		assert.Equal(t, 1, be.queries())

		history := d.History()
		// seeded greeting + user turn + assistant reply
		require.Len(t, history, 3)
		assert.Equal(t, "it says hello", history[2].Content)
	})

	t.Run("submit after remove rejects again", func(t *testing.T) {
		be := &fakeBackend{reply: "answer"}
		d := NewDocChat(be, 0, nopLogger())

		require.NoError(t, d.Upload(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4")))
		d.RemoveDocument()

		err := d.Submit(context.Background(), "still there?", nil)
		require.ErrorIs(t, err, domain.ErrNoDocument)
		assert.Zero(t, be.queries())
		assert.Empty(t, d.History(), "remove clears the transcript")
		assert.False(t, d.Document().Ready())
	})
}

func TestDocChat_Upload(t *testing.T) {
	t.Run("non-PDF is rejected client-side", func(t *testing.T) {
		be := &fakeBackend{}
		d := NewDocChat(be, 0, nopLogger())

		err := d.Upload(context.Background(), "notes.txt", strings.NewReader("plain text"))
		require.ErrorIs(t, err, domain.ErrNotPDF)
		assert.Zero(t, be.uploads(), "no network call for a rejected file")
		assert.False(t, d.Document().Ready())
	})

	t.Run("upload failure rolls all state back", func(t *testing.T) {
		be := &fakeBackend{uploadErr: errors.New("processing failed")}
		d := NewDocChat(be, 0, nopLogger())

		err := d.Upload(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4"))
		require.Error(t, err)
		assert.False(t, d.Document().Ready())
		assert.Empty(t, d.History())
	})

	t.Run("re-upload passes the current session id for replacement", func(t *testing.T) {
		be := &fakeBackend{reply: "ok"}
		d := NewDocChat(be, 0, nopLogger())

		require.NoError(t, d.Upload(context.Background(), "first.pdf", strings.NewReader("%PDF-1.4")))
		require.NoError(t, d.Upload(context.Background(), "second.pdf", strings.NewReader("%PDF-1.4")))

		be.mu.Lock()
		last := be.lastUploadSession
		be.mu.Unlock()
		assert.Equal(t, "sess-1", last)
		assert.Equal(t, "second.pdf", d.Document().Filename)
	})

	t.Run("upload resets the conversation", func(t *testing.T) {
		be := &fakeBackend{reply: "answer"}
		d := NewDocChat(be, 0, nopLogger())

		require.NoError(t, d.Upload(context.Background(), "first.pdf", strings.NewReader("%PDF-1.4")))
		require.NoError(t, d.Submit(context.Background(), "q1", nil))
		require.NoError(t, d.Upload(context.Background(), "second.pdf", strings.NewReader("%PDF-1.4")))

		history := d.History()
		require.Len(t, history, 1, "fresh document starts a fresh conversation")
		assert.Contains(t, history[0].Content, "second.pdf")
	})
}

func TestDocChat_Teardown(t *testing.T) {
	t.Run("releases the server-side session", func(t *testing.T) {
		be := &fakeBackend{reply: "ok"}
		d := NewDocChat(be, 0, nopLogger())

		require.NoError(t, d.Upload(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4")))
		d.Teardown(context.Background())

		be.mu.Lock()
		defer be.mu.Unlock()
		require.Len(t, be.cleanupCalls, 1)
		assert.Equal(t, "sess-1", be.cleanupCalls[0])
		assert.False(t, d.Document().Ready())
	})

	t.Run("no cleanup call without a session", func(t *testing.T) {
		be := &fakeBackend{}
		d := NewDocChat(be, 0, nopLogger())
		d.Teardown(context.Background())
		be.mu.Lock()
		defer be.mu.Unlock()
		assert.Empty(t, be.cleanupCalls)
	})

	t.Run("cleanup failure is swallowed", func(t *testing.T) {
		be := &fakeBackend{reply: "ok", cleanupErr: errors.New("already gone")}
		d := NewDocChat(be, 0, nopLogger())

		require.NoError(t, d.Upload(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4")))
		d.Teardown(context.Background()) // must not panic or surface the error
	})
}

func TestIsPDF(t *testing.T) {
	cases := []struct {
		filename string
		want     bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"/tmp/dir/report.pdf", true},
		{"notes.txt", false},
		{"archive.pdf.zip", false},
		{"pdf", false},
	}
	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.want, isPDF(tc.filename))
		})
	}
}
