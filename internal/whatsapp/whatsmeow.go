package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/brynix/brynixbot/internal/bot"
	"github.com/brynix/brynixbot/internal/sqlitedb"
)

// WhatsmeowConfig configures the whatsmeow-backed clients.
type WhatsmeowConfig struct {
	SessionPath string // device store database file
	Driver      string // sqlite driver name
	QRTerminal  bool   // also print pairing codes on stdout
	Log         zerolog.Logger
}

// WhatsmeowFactory builds clients sharing one device store.
type WhatsmeowFactory struct {
	cfg WhatsmeowConfig

	mu        sync.Mutex
	container *sqlstore.Container
}

// NewWhatsmeowFactory returns a factory. The store is opened on first use.
func NewWhatsmeowFactory(cfg WhatsmeowConfig) *WhatsmeowFactory {
	return &WhatsmeowFactory{cfg: cfg}
}

func (f *WhatsmeowFactory) store(ctx context.Context) (*sqlstore.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.container != nil {
		return f.container, nil
	}
	if err := os.MkdirAll(filepath.Dir(f.cfg.SessionPath), 0o700); err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}
	dsn, err := sqlitedb.DSN(f.cfg.Driver, f.cfg.SessionPath)
	if err != nil {
		return nil, err
	}
	dbLog := waLog.Zerolog(f.cfg.Log.With().Str("module", "wa-db").Logger().Level(zerolog.WarnLevel))
	c, err := sqlstore.New(ctx, sqlitedb.Driver(f.cfg.Driver), dsn, dbLog)
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}
	f.container = c
	return c, nil
}

// New implements Factory.
func (f *WhatsmeowFactory) New(ctx context.Context, ev Events) (Client, error) {
	container, err := f.store(ctx)
	if err != nil {
		return nil, err
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	cli := whatsmeow.NewClient(device, waLog.Zerolog(f.cfg.Log.With().Str("module", "wa").Logger()))
	// The supervisor owns reconnects.
	cli.EnableAutoReconnect = false

	c := &waClient{cli: cli, conn: cli, ev: ev, qrTerminal: f.cfg.QRTerminal, log: f.cfg.Log}
	cli.AddEventHandler(c.handle)
	return c, nil
}

// Close releases the device store.
func (f *WhatsmeowFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.container == nil {
		return nil
	}
	err := f.container.Close()
	f.container = nil
	return err
}

// session is the slice of *whatsmeow.Client that Health reads.
type session interface {
	IsConnected() bool
	IsLoggedIn() bool
}

type waClient struct {
	cli        *whatsmeow.Client
	conn       session
	ev         Events
	qrTerminal bool
	log        zerolog.Logger

	mu        sync.Mutex
	started   bool
	pairing   bool
	conflict  bool
	loggedOut bool
}

func (c *waClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	if c.cli.Store.ID == nil {
		qrChan, err := c.cli.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		go c.watchQR(qrChan)
	}
	if err := c.cli.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// watchQR follows the pairing channel. When it closes without a successful
// pairing (timeout or error) the client is reported as disconnected so the
// supervisor rebuilds it with a fresh code.
func (c *waClient) watchQR(ch <-chan whatsmeow.QRChannelItem) {
	last, paired := "closed", false
	for item := range ch {
		switch item.Event {
		case "code":
			c.setPairing(true)
			if c.qrTerminal {
				fmt.Println("Escaneie o QR abaixo no WhatsApp:")
				qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, os.Stdout)
			}
			call(c.ev.OnQR, item.Code)
		case "success":
			c.setPairing(false)
			paired = true
		default:
			c.setPairing(false)
			last = item.Event
			c.log.Warn().Str("event", item.Event).Msg("pairing ended")
		}
	}
	c.setPairing(false)
	if !paired {
		call(c.ev.OnDisconnected, "qr "+last)
	}
}

func (c *waClient) setPairing(v bool) {
	c.mu.Lock()
	c.pairing = v
	c.mu.Unlock()
}

func (c *waClient) Disconnect() {
	c.cli.Disconnect()
}

func (c *waClient) Health() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.conflict:
		return HealthConflict
	case c.loggedOut:
		return HealthUnpaired
	case !c.started:
		return HealthUnlaunched
	case c.conn.IsConnected() && c.conn.IsLoggedIn():
		return HealthConnected
	case c.pairing:
		return HealthPairing
	case c.conn.IsConnected():
		return HealthOpening
	}
	return ""
}

func (c *waClient) Self() bot.Identity {
	if c.cli.Store.ID == nil {
		return bot.Identity{}
	}
	id := bot.Identity{JID: c.cli.Store.ID.String(), PushName: c.cli.Store.PushName}
	if !c.cli.Store.LID.IsEmpty() {
		id.LID = c.cli.Store.LID.String()
	}
	return id
}

func (c *waClient) send(ctx context.Context, chatID string, msg *waE2E.Message) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", chatID, err)
	}
	if _, err := c.cli.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send to %s: %w", chatID, err)
	}
	return nil
}

func (c *waClient) SendText(ctx context.Context, chatID, text string) error {
	return c.send(ctx, chatID, &waE2E.Message{Conversation: proto.String(text)})
}

// Reply quotes the inbound message.
func (c *waClient) Reply(ctx context.Context, to bot.Message, text string) error {
	return c.send(ctx, to.ChatID, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(to.ID),
				Participant:   proto.String(to.SenderID),
				QuotedMessage: &waE2E.Message{Conversation: proto.String(to.Text)},
			},
		},
	})
}

// SendAudio uploads data and sends it as a voice note.
func (c *waClient) SendAudio(ctx context.Context, chatID string, data []byte, mimeType string) error {
	up, err := c.cli.Upload(ctx, data, whatsmeow.MediaAudio)
	if err != nil {
		return fmt.Errorf("upload audio: %w", err)
	}
	return c.send(ctx, chatID, &waE2E.Message{
		AudioMessage: &waE2E.AudioMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Mimetype:      proto.String(mimeType),
			PTT:           proto.Bool(true),
		},
	})
}

func (c *waClient) handle(evt interface{}) {
	switch v := evt.(type) {
	case *events.PairSuccess:
		call0(c.ev.OnAuthenticated)
	case *events.Connected:
		c.mu.Lock()
		c.pairing, c.conflict, c.loggedOut = false, false, false
		c.mu.Unlock()
		call0(c.ev.OnAuthenticated)
		call0(c.ev.OnReady)
	case *events.Disconnected:
		call(c.ev.OnDisconnected, "disconnected")
	case *events.StreamReplaced:
		c.mu.Lock()
		c.conflict = true
		c.mu.Unlock()
		call(c.ev.OnDisconnected, "conflict")
	case *events.LoggedOut:
		c.mu.Lock()
		c.loggedOut = true
		c.mu.Unlock()
		call(c.ev.OnAuthFailure, fmt.Sprintf("logged out: %v", v.Reason))
	case *events.ConnectFailure:
		call(c.ev.OnAuthFailure, fmt.Sprintf("connect failure: %v", v.Reason))
	case *events.Message:
		if c.ev.OnMessage != nil {
			c.ev.OnMessage(c.convert(v))
		}
	}
}

func call(fn func(string), arg string) {
	if fn != nil {
		fn(arg)
	}
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}

// convert maps a whatsmeow message event to the router's message.
func (c *waClient) convert(v *events.Message) bot.Message {
	m := v.Message
	msg := bot.Message{
		ID:        v.Info.ID,
		ChatID:    v.Info.Chat.String(),
		SenderID:  v.Info.Sender.String(),
		PushName:  v.Info.PushName,
		IsGroup:   v.Info.IsGroup,
		FromMe:    v.Info.IsFromMe,
		Timestamp: v.Info.Timestamp,
	}

	var ci *waE2E.ContextInfo
	switch {
	case m.GetConversation() != "":
		msg.Text = m.GetConversation()
	case m.GetExtendedTextMessage() != nil:
		msg.Text = m.GetExtendedTextMessage().GetText()
		ci = m.GetExtendedTextMessage().GetContextInfo()
	case m.GetImageMessage() != nil:
		img := m.GetImageMessage()
		msg.Text = img.GetCaption()
		ci = img.GetContextInfo()
		msg.Attachment = c.attachment(img, img.GetMimetype(), "")
	case m.GetDocumentMessage() != nil:
		doc := m.GetDocumentMessage()
		msg.Text = doc.GetCaption()
		ci = doc.GetContextInfo()
		msg.Attachment = c.attachment(doc, doc.GetMimetype(), doc.GetFileName())
	case m.GetVideoMessage() != nil:
		vid := m.GetVideoMessage()
		msg.Text = vid.GetCaption()
		ci = vid.GetContextInfo()
		msg.Attachment = c.attachment(vid, vid.GetMimetype(), "")
	case m.GetAudioMessage() != nil:
		aud := m.GetAudioMessage()
		ci = aud.GetContextInfo()
		msg.Attachment = c.attachment(aud, aud.GetMimetype(), "")
	}
	msg.Text = strings.TrimSpace(msg.Text)
	msg.Mentions = ci.GetMentionedJID()
	return msg
}

func (c *waClient) attachment(media whatsmeow.DownloadableMessage, mimeType, fileName string) *bot.Attachment {
	return &bot.Attachment{
		MimeType: mimeType,
		FileName: fileName,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return c.cli.Download(ctx, media)
		},
	}
}
