package model

import "time"

// DocumentSession identifies server-side state for one uploaded document.
// SessionID and FileID are opaque backend-issued tokens; the backend must
// be told to release them when the session ends.
type DocumentSession struct {
	SessionID  string
	FileID     string
	Filename   string
	UploadedAt time.Time
}

// Ready reports whether a document has been uploaded and the session can
// accept queries.
func (d DocumentSession) Ready() bool {
	return d.SessionID != "" && d.FileID != ""
}
