package bot

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxChunk is the largest reply part, in runes.
const MaxChunk = 3500

// Identity is the bot's own account as seen by the transport.
type Identity struct {
	JID      string // phone-number JID
	LID      string // linked-identity JID, used for mentions in LID groups
	PushName string
}

// Attachment is inbound media. Fetch downloads it lazily so muted or
// ignored chats never pay for the transfer.
type Attachment struct {
	MimeType string
	FileName string
	Fetch    func(ctx context.Context) ([]byte, error)
}

// Message is an inbound chat message.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	PushName   string
	Text       string
	IsGroup    bool
	FromMe     bool
	Mentions   []string
	Attachment *Attachment
	Timestamp  time.Time
}

// Transport sends replies back to the chat.
type Transport interface {
	Reply(ctx context.Context, to Message, text string) error
	SendAudio(ctx context.Context, chatID string, data []byte, mimeType string) error
	Self() Identity
}

// ChunkText splits text into parts of at most limit runes, keeping order and
// breaking between lines. A line longer than limit is cut hard.
func ChunkText(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChunk
	}
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		cur     strings.Builder
		n       int
		started bool
	)
	flush := func() {
		if started {
			parts = append(parts, cur.String())
			cur.Reset()
			n, started = 0, false
		}
	}
	for _, line := range strings.Split(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if started && n+1+ln <= limit {
			cur.WriteByte('\n')
			cur.WriteString(line)
			n += 1 + ln
			continue
		}
		flush()
		for ln > limit {
			rs := []rune(line)
			parts = append(parts, string(rs[:limit]))
			line = string(rs[limit:])
			ln -= limit
		}
		cur.WriteString(line)
		n, started = ln, true
	}
	flush()
	return parts
}
