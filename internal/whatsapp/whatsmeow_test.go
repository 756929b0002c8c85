package whatsapp

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func groupEvent(m *waE2E.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    types.NewJID("120363000000", types.GroupServer),
				Sender:  types.NewJID("5511988887777", types.DefaultUserServer),
				IsGroup: true,
			},
			ID:       "3EB0ABC",
			PushName: "Ana",
		},
		Message: m,
	}
}

func TestConvertExtendedText(t *testing.T) {
	c := &waClient{}
	msg := c.convert(groupEvent(&waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String("  @Alice status  "),
			ContextInfo: &waE2E.ContextInfo{MentionedJID: []string{"5511999@s.whatsapp.net"}},
		},
	}))

	assert.Equal(t, "3EB0ABC", msg.ID)
	assert.Equal(t, "120363000000@g.us", msg.ChatID)
	assert.Equal(t, "5511988887777@s.whatsapp.net", msg.SenderID)
	assert.Equal(t, "Ana", msg.PushName)
	assert.True(t, msg.IsGroup)
	assert.Equal(t, "@Alice status", msg.Text)
	assert.Equal(t, []string{"5511999@s.whatsapp.net"}, msg.Mentions)
	assert.Nil(t, msg.Attachment)
}

func TestConvertDocument(t *testing.T) {
	c := &waClient{}
	msg := c.convert(groupEvent(&waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			Caption:  proto.String("contrato"),
			Mimetype: proto.String("application/pdf"),
			FileName: proto.String("contrato.pdf"),
		},
	}))

	assert.Equal(t, "contrato", msg.Text)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "application/pdf", msg.Attachment.MimeType)
	assert.Equal(t, "contrato.pdf", msg.Attachment.FileName)
	assert.NotNil(t, msg.Attachment.Fetch)
	assert.Empty(t, msg.Mentions)
}

func TestConvertPlainConversation(t *testing.T) {
	c := &waClient{}
	msg := c.convert(groupEvent(&waE2E.Message{Conversation: proto.String("/menu")}))
	assert.Equal(t, "/menu", msg.Text)
	assert.Nil(t, msg.Attachment)
}

func TestHealthBad(t *testing.T) {
	for _, h := range []Health{"", HealthConflict, HealthUnpaired, HealthUnlaunched} {
		assert.True(t, h.Bad(), string(h))
	}
	for _, h := range []Health{HealthConnected, HealthOpening, HealthPairing} {
		assert.False(t, h.Bad(), string(h))
	}
}

type fakeSession struct{ connected, loggedIn bool }

func (f fakeSession) IsConnected() bool { return f.connected }
func (f fakeSession) IsLoggedIn() bool  { return f.loggedIn }

type pairingEvents struct {
	mu      sync.Mutex
	codes   []string
	reasons []string
}

func (p *pairingEvents) events() Events {
	return Events{
		OnQR: func(code string) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.codes = append(p.codes, code)
		},
		OnDisconnected: func(reason string) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.reasons = append(p.reasons, reason)
		},
	}
}

func (p *pairingEvents) disconnects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.reasons...)
}

func watchPairing(c *waClient) (chan<- whatsmeow.QRChannelItem, <-chan struct{}) {
	ch := make(chan whatsmeow.QRChannelItem)
	done := make(chan struct{})
	go func() {
		c.watchQR(ch)
		close(done)
	}()
	return ch, done
}

func TestQRTimeoutEndsPairing(t *testing.T) {
	rec := &pairingEvents{}
	c := &waClient{conn: fakeSession{}, ev: rec.events(), log: zerolog.Nop(), started: true}
	ch, done := watchPairing(c)

	ch <- whatsmeow.QRChannelItem{Event: "code", Code: "2@abc"}
	assert.Eventually(t, func() bool { return c.Health() == HealthPairing }, time.Second, 5*time.Millisecond)

	ch <- whatsmeow.QRChannelItem{Event: "timeout"}
	close(ch)
	<-done

	assert.Equal(t, Health(""), c.Health())
	assert.True(t, c.Health().Bad())
	assert.Equal(t, []string{"qr timeout"}, rec.disconnects())
	assert.Equal(t, []string{"2@abc"}, rec.codes)
}

func TestQRSuccessKeepsClient(t *testing.T) {
	rec := &pairingEvents{}
	c := &waClient{conn: fakeSession{connected: true}, ev: rec.events(), log: zerolog.Nop(), started: true}
	ch, done := watchPairing(c)

	ch <- whatsmeow.QRChannelItem{Event: "code", Code: "2@abc"}
	ch <- whatsmeow.QRChannelItem{Event: "success"}
	close(ch)
	<-done

	assert.Empty(t, rec.disconnects())
	assert.Equal(t, HealthOpening, c.Health())
}
