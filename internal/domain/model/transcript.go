package model

// Transcript is the ordered conversation history owned by a single chat
// session. Messages are immutable once appended; insertion order is the
// conversation order.
type Transcript struct {
	messages []Message
}

func NewTranscript(seed ...Message) *Transcript {
	t := &Transcript{messages: make([]Message, 0, 8)}
	t.messages = append(t.messages, seed...)
	return t
}

func (t *Transcript) Append(role, content string) {
	t.messages = append(t.messages, NewMessage(role, content))
}

func (t *Transcript) Len() int { return len(t.messages) }

// Messages returns a copy of the full history.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Window returns a copy of the last n messages. n <= 0 returns the full
// history.
func (t *Transcript) Window(n int) []Message {
	if n <= 0 || len(t.messages) <= n {
		return t.Messages()
	}
	out := make([]Message, n)
	copy(out, t.messages[len(t.messages)-n:])
	return out
}

// Reset drops the history and re-seeds it, used when a view is freshly
// opened or the active document changes.
func (t *Transcript) Reset(seed ...Message) {
	t.messages = t.messages[:0]
	t.messages = append(t.messages, seed...)
}
