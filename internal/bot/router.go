// Package bot routes inbound chat messages to the project-assistant
// handlers and sends the replies.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/brynix/brynixbot/internal/activity"
	"github.com/brynix/brynixbot/internal/drive"
	"github.com/brynix/brynixbot/internal/intent"
	"github.com/brynix/brynixbot/internal/links"
	"github.com/brynix/brynixbot/internal/provider"
	"github.com/brynix/brynixbot/internal/sheets"
	"github.com/brynix/brynixbot/internal/textnorm"
)

// RouterOptions wires the router's collaborators. Only Links and Transport
// are required; a nil collaborator makes its feature reply with a failure
// notice.
type RouterOptions struct {
	Links      *links.Registry
	Transport  Transport
	Sheets     sheets.Reader
	Drive      drive.Uploader
	Replier    provider.Replier
	Speaker    provider.Speaker
	Journal    activity.Log
	Alerts     Alerter
	Classifier *intent.Classifier
	Aliases    []string
	Voice      string
	Location   *time.Location
	Log        zerolog.Logger
	Now        func() time.Time
}

// Alerter forwards reminders to the operator channels.
type Alerter interface {
	Send(ctx context.Context, text string)
}

// Router decides whether and how to answer each inbound message.
type Router struct {
	links      *links.Registry
	transport  Transport
	sheets     sheets.Reader
	drive      drive.Uploader
	replier    provider.Replier
	speaker    provider.Speaker
	journal    activity.Log
	alerts     Alerter
	classifier *intent.Classifier
	aliases    []string
	voice      string
	loc        *time.Location
	log        zerolog.Logger
	now        func() time.Time
}

// NewRouter creates a router.
func NewRouter(opts RouterOptions) *Router {
	r := &Router{
		links:      opts.Links,
		transport:  opts.Transport,
		sheets:     opts.Sheets,
		drive:      opts.Drive,
		replier:    opts.Replier,
		speaker:    opts.Speaker,
		journal:    opts.Journal,
		alerts:     opts.Alerts,
		classifier: opts.Classifier,
		aliases:    opts.Aliases,
		voice:      opts.Voice,
		loc:        opts.Location,
		log:        opts.Log,
		now:        opts.Now,
	}
	if r.links == nil {
		r.links = links.NewRegistry(nil)
	}
	if r.classifier == nil {
		r.classifier = intent.New(nil)
	}
	if len(r.aliases) == 0 {
		r.aliases = DefaultAliases
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

var (
	setupCmd   = regexp.MustCompile(`(?i)^/setup\b`)
	unlinkCmd  = regexp.MustCompile(`(?i)^/unlink\b`)
	menuCmd    = regexp.MustCompile(`(?i)^/(?:menu|help|ajuda)$`)
	audioCmd   = regexp.MustCompile(`(?i)^/audio\b`)
	introCmd   = regexp.MustCompile(`^/intro\b`)
	introAsked = regexp.MustCompile(`apresente-se|quem e voce|o que voce faz`)
)

// Route handles one message. Any error or panic escaping a handler is
// logged and answered with the catch-all apology.
func (r *Router) Route(ctx context.Context, msg Message) {
	if msg.FromMe {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Str("chat", msg.ChatID).Msg("message handler panicked")
			r.apologize(ctx, msg)
		}
	}()
	if err := r.route(ctx, msg); err != nil {
		r.log.Error().Err(err).Str("chat", msg.ChatID).Msg("message handling failed")
		r.apologize(ctx, msg)
	}
}

func (r *Router) apologize(ctx context.Context, msg Message) {
	if err := r.transport.Reply(ctx, msg, ReplyCatchAll); err != nil {
		r.log.Warn().Err(err).Str("chat", msg.ChatID).Msg("catch-all reply failed")
	}
}

// reply sends text in MaxChunk-sized parts.
func (r *Router) reply(ctx context.Context, msg Message, text string) error {
	for _, part := range ChunkText(text, MaxChunk) {
		if err := r.transport.Reply(ctx, msg, part); err != nil {
			return fmt.Errorf("reply to %s: %w", msg.ChatID, err)
		}
	}
	return nil
}

func (r *Router) route(ctx context.Context, msg Message) error {
	if !msg.IsGroup {
		return r.routePrivate(ctx, msg)
	}
	text := strings.TrimSpace(msg.Text)
	chatID := msg.ChatID
	isCommand := strings.HasPrefix(text, "/")
	res := r.classifier.Classify(text)

	// Unmute is honoured everywhere; mute only as a slash command until the
	// link and addressing gates below have passed.
	if res.Tag == intent.MuteOff {
		r.links.SetMuted(chatID, false)
		return r.reply(ctx, msg, ReplyUnmuted)
	}
	if r.links.IsMuted(chatID) {
		return nil
	}
	if isCommand && res.Tag == intent.MuteOn {
		return r.mute(ctx, msg)
	}

	if msg.Attachment != nil {
		return r.handleAttachment(ctx, msg)
	}

	if isCommand && setupCmd.MatchString(text) {
		return r.handleSetup(ctx, msg)
	}
	if isCommand && unlinkCmd.MatchString(text) {
		return r.handleUnlink(ctx, msg)
	}

	link, err := r.links.GetLink(ctx, chatID)
	if err != nil {
		return fmt.Errorf("get link: %w", err)
	}
	project := ""
	if link != nil {
		project = link.ProjectName
	}
	if isCommand && menuCmd.MatchString(text) {
		return r.reply(ctx, msg, Menu(project))
	}
	if link == nil {
		// Free text stays silent in unconfigured groups; an explicit data
		// command gets setup guidance.
		if isCommand && needsLink(res.Tag) {
			return r.reply(ctx, msg, ReplyLinkFirst)
		}
		return nil
	}
	if !isCommand && !Addressed(msg, r.transport.Self(), r.aliases) {
		return nil
	}

	r.log.Debug().Str("chat", chatID).Str("intent", string(res.Tag)).Msg("classified")
	switch res.Tag {
	case intent.MuteOn:
		return r.mute(ctx, msg)
	case intent.Summary:
		return r.handleSummary(ctx, msg, *link)
	case intent.SummaryBrief:
		return r.handleBrief(ctx, msg, *link)
	case intent.Next:
		return r.handleNext(ctx, msg, *link)
	case intent.Late:
		return r.handleLate(ctx, msg, *link)
	case intent.RemindNow:
		return r.handleRemindNow(ctx, msg, *link)
	case intent.Remind:
		return r.handleRemind(ctx, msg, *link, res.Arg)
	case intent.Note:
		return r.handleNote(ctx, msg, *link, res.Arg)
	case intent.Doc:
		return r.handleDoc(ctx, msg, *link, res.Arg)
	case intent.Who:
		return r.handleWho(ctx, msg, *link)
	case intent.Help:
		if !isCommand {
			return r.reply(ctx, msg, HelpCard(project))
		}
	}
	return r.reply(ctx, msg, Menu(project))
}

func (r *Router) mute(ctx context.Context, msg Message) error {
	r.links.SetMuted(msg.ChatID, true)
	return r.reply(ctx, msg, ReplyMuted)
}

func needsLink(tag intent.Tag) bool {
	switch tag {
	case intent.Summary, intent.SummaryBrief, intent.Next, intent.Late, intent.RemindNow, intent.Remind,
		intent.Note, intent.Doc, intent.Who:
		return true
	}
	return false
}

func (r *Router) routePrivate(ctx context.Context, msg Message) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}
	if audioCmd.MatchString(text) {
		return r.handleAudio(ctx, msg, strings.TrimSpace(text[len("/audio"):]))
	}
	folded := textnorm.Fold(text)
	if introCmd.MatchString(folded) || introAsked.MatchString(folded) {
		return r.reply(ctx, msg, Intro())
	}
	if r.replier == nil {
		return r.reply(ctx, msg, provider.ReplyOnError)
	}
	answer := r.replier.GenerateReply(ctx, text, provider.ReplyContext{
		SenderID:    msg.SenderID,
		DisplayName: msg.PushName,
	})
	return r.reply(ctx, msg, answer)
}
