package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/brynix/brynixbot/internal/activity"
	"github.com/brynix/brynixbot/internal/drive"
	"github.com/brynix/brynixbot/internal/links"
	"github.com/brynix/brynixbot/internal/provider"
	"github.com/brynix/brynixbot/internal/sheets"
	"github.com/brynix/brynixbot/internal/tasks"
)

var (
	errNoSheets = errors.New("spreadsheet reader not configured")
	docURL      = regexp.MustCompile(`https?://\S+`)
)

func (r *Router) readTasks(ctx context.Context, link links.Link) ([]tasks.Task, error) {
	if r.sheets == nil {
		return nil, errNoSheets
	}
	return r.sheets.ReadTasks(ctx, link.SheetID)
}

// withTasks loads the project's tasks and replies with render's output, or
// with failMsg when the sheet cannot be read.
func (r *Router) withTasks(ctx context.Context, msg Message, link links.Link, failMsg string, render func([]tasks.Task) string) error {
	ts, err := r.readTasks(ctx, link)
	if err != nil {
		r.log.Error().Err(err).Str("chat", msg.ChatID).Str("sheet", link.SheetID).Msg("read tasks failed")
		return r.reply(ctx, msg, failMsg)
	}
	return r.reply(ctx, msg, render(ts))
}

func (r *Router) handleSummary(ctx context.Context, msg Message, link links.Link) error {
	return r.withTasks(ctx, msg, link, ReplySheetFailed, func(ts []tasks.Task) string {
		return tasks.FullSummary(link.ProjectName, ts) + r.recent(ctx, msg.ChatID) + summaryFooter
	})
}

func (r *Router) handleBrief(ctx context.Context, msg Message, link links.Link) error {
	return r.withTasks(ctx, msg, link, ReplyBriefFailed, func(ts []tasks.Task) string {
		return tasks.BriefSummary(link.ProjectName, ts) + briefFooter
	})
}

func (r *Router) handleNext(ctx context.Context, msg Message, link links.Link) error {
	now := r.now().In(r.loc)
	return r.withTasks(ctx, msg, link, ReplyNextFailed, func(ts []tasks.Task) string {
		return tasks.NextReport(link.ProjectName, ts, now)
	})
}

func (r *Router) handleLate(ctx context.Context, msg Message, link links.Link) error {
	return r.withTasks(ctx, msg, link, ReplyLateFailed, func(ts []tasks.Task) string {
		return tasks.LateReport(link.ProjectName, ts)
	})
}

func (r *Router) handleRemindNow(ctx context.Context, msg Message, link links.Link) error {
	ts, err := r.readTasks(ctx, link)
	if err != nil {
		r.log.Error().Err(err).Str("chat", msg.ChatID).Msg("read tasks for reminder failed")
		return r.reply(ctx, msg, ReplySheetFailed)
	}
	if err := r.reply(ctx, msg, tasks.FullSummary(link.ProjectName, ts)+summaryFooter); err != nil {
		return err
	}
	r.record(ctx, activity.Entry{
		ChatID: msg.ChatID,
		Kind:   activity.KindReminder,
		Author: msg.PushName,
		Text:   fmt.Sprintf("lembrete manual: %d tarefas", len(tasks.Filter(ts))),
	})
	return nil
}

func (r *Router) handleWho(ctx context.Context, msg Message, link links.Link) error {
	var resources []string
	if r.sheets != nil {
		rs, err := r.sheets.ReadResources(ctx, link.SheetID)
		if err != nil {
			r.log.Warn().Err(err).Str("sheet", link.SheetID).Msg("resources tab unavailable, using assignees")
		}
		resources = rs
	}
	return r.withTasks(ctx, msg, link, ReplyWhoFailed, func(ts []tasks.Task) string {
		return tasks.WhoReport(link.ProjectName, tasks.Participants(resources, ts)) + r.counts(ctx, msg.ChatID)
	})
}

// keep journals e and appends it to the LOG tab. It reports whether at least
// one sink kept the entry; a journal with nothing behind it does not count.
func (r *Router) keep(ctx context.Context, link links.Link, e activity.Entry, row sheets.LogRow) bool {
	var sinks, failed int
	at := r.now()
	if r.journal != nil {
		e.CreatedAt = at.UTC()
		_, err := r.journal.Record(ctx, e)
		switch {
		case errors.Is(err, activity.ErrNoSink):
		case err != nil:
			sinks++
			failed++
			r.log.Error().Err(err).Str("chat", e.ChatID).Str("kind", string(e.Kind)).Msg("journal entry failed")
		default:
			sinks++
		}
	}
	if r.sheets != nil {
		sinks++
		row.When = at.In(r.loc)
		row.Kind = string(e.Kind)
		row.Author = e.Author
		if err := r.sheets.AppendLogRow(ctx, link.SheetID, row); err != nil {
			failed++
			r.log.Error().Err(err).Str("sheet", link.SheetID).Str("kind", string(e.Kind)).Msg("append to LOG failed")
		}
	}
	return failed < sinks
}

func (r *Router) handleNote(ctx context.Context, msg Message, link links.Link, note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return r.reply(ctx, msg, ReplyNoteUsage)
	}
	e := activity.Entry{ChatID: msg.ChatID, Kind: activity.KindNote, Author: msg.PushName, Text: note}
	if !r.keep(ctx, link, e, sheets.LogRow{Message: note}) {
		return r.reply(ctx, msg, ReplyNoteFailed)
	}
	return r.reply(ctx, msg, "✅ Nota registrada: "+note)
}

// handleDoc registers a document that was mentioned or linked rather than
// attached.
func (r *Router) handleDoc(ctx context.Context, msg Message, link links.Link, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "Documento"
	}
	url := docURL.FindString(text)
	e := activity.Entry{ChatID: msg.ChatID, Kind: activity.KindDoc, Author: msg.PushName, Text: text, Link: url}
	if !r.keep(ctx, link, e, sheets.LogRow{Message: text, Link: url}) {
		return r.reply(ctx, msg, ReplyDocFailed)
	}
	return r.reply(ctx, msg, "📎 Documento registrado: "+text)
}

// handleRemind writes down a reminder and forwards it to the alert channels,
// where the team's calendar automation picks it up.
func (r *Router) handleRemind(ctx context.Context, msg Message, link links.Link, raw string) error {
	rem := ParseReminder(raw)
	if rem.Task == "" {
		return r.reply(ctx, msg, ReplyRemindUsage)
	}
	text := rem.String()
	e := activity.Entry{ChatID: msg.ChatID, Kind: activity.KindReminder, Author: msg.PushName, Text: text}
	if !r.keep(ctx, link, e, sheets.LogRow{Message: rem.Task, Notes: rem.When()}) {
		return r.reply(ctx, msg, ReplyRemindFailed)
	}
	if r.alerts != nil {
		r.alerts.Send(ctx, fmt.Sprintf("⏰ Lembrete em *%s* (por %s): %s", link.ProjectName, msg.PushName, text))
	}
	return r.reply(ctx, msg, "⏰ Lembrete anotado: "+text)
}

func (r *Router) handleSetup(ctx context.Context, msg Message) error {
	body := strings.TrimSpace(msg.Text)[len("/setup"):]
	ref, name, _ := strings.Cut(body, "|")
	name = strings.TrimSpace(name)
	sheetID, err := sheets.ExtractSheetID(ref)
	if err != nil || name == "" {
		return r.reply(ctx, msg, ReplySetupUsage)
	}
	if _, err := r.links.SetLink(ctx, msg.ChatID, sheetID, name); err != nil {
		return fmt.Errorf("save link: %w", err)
	}
	r.log.Info().Str("chat", msg.ChatID).Str("sheet", sheetID).Str("project", name).Msg("project linked")
	return r.reply(ctx, msg, fmt.Sprintf(setupConfirmation, sheetID, name))
}

func (r *Router) handleUnlink(ctx context.Context, msg Message) error {
	err := r.links.RemoveLink(ctx, msg.ChatID)
	if errors.Is(err, links.ErrNotFound) {
		return r.reply(ctx, msg, ReplyNotLinked)
	}
	if err != nil {
		return fmt.Errorf("remove link: %w", err)
	}
	r.log.Info().Str("chat", msg.ChatID).Msg("project unlinked")
	return r.reply(ctx, msg, ReplyUnlinked)
}

func (r *Router) handleAttachment(ctx context.Context, msg Message) error {
	link, err := r.links.GetLink(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("get link: %w", err)
	}
	if link == nil {
		return r.reply(ctx, msg, ReplyNeedLink)
	}
	if r.drive == nil || msg.Attachment.Fetch == nil {
		return r.reply(ctx, msg, ReplyDriveFailed)
	}

	data, err := msg.Attachment.Fetch(ctx)
	if err != nil {
		r.log.Error().Err(err).Str("chat", msg.ChatID).Msg("download attachment failed")
		return r.reply(ctx, msg, ReplyDriveFailed)
	}
	res, err := r.drive.Upload(ctx, drive.File{
		Data:     data,
		Name:     msg.Attachment.FileName,
		MimeType: msg.Attachment.MimeType,
		Project:  link.ProjectName,
	})
	if err != nil || res.URL == "" {
		r.log.Error().Err(err).Str("chat", msg.ChatID).Msg("drive upload failed")
		return r.reply(ctx, msg, ReplyDriveFailed)
	}

	if err := r.reply(ctx, msg, fmt.Sprintf("✅ Arquivo salvo em *%s*.\n🔗 %s", link.ProjectName, res.URL)); err != nil {
		return err
	}
	r.record(ctx, activity.Entry{
		ChatID: msg.ChatID,
		Kind:   activity.KindDoc,
		Author: msg.PushName,
		Text:   msg.Attachment.FileName,
		Link:   res.URL,
	})
	if r.sheets != nil {
		row := sheets.LogRow{
			When:    r.now().In(r.loc),
			Kind:    string(activity.KindDoc),
			Author:  msg.PushName,
			Message: strings.TrimSpace(msg.Text),
			File:    msg.Attachment.FileName,
			Link:    res.URL,
		}
		if err := r.sheets.AppendLogRow(ctx, link.SheetID, row); err != nil {
			r.log.Warn().Err(err).Str("sheet", link.SheetID).Msg("append doc to LOG failed")
		}
	}
	return nil
}

func (r *Router) handleAudio(ctx context.Context, msg Message, text string) error {
	if text == "" {
		text = DefaultAudioText
	}
	if r.speaker == nil {
		return r.reply(ctx, msg, ReplyTTSDown)
	}
	audio, err := r.speaker.Speak(ctx, &provider.TTSRequest{Text: text, Voice: r.voice})
	if err != nil || len(audio.AudioData) == 0 {
		r.log.Warn().Err(err).Msg("tts failed")
		return r.reply(ctx, msg, ReplyTTSDown)
	}
	if err := r.transport.SendAudio(ctx, msg.ChatID, audio.AudioData, audio.MimeType); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}

// record journals e, logging failures.
func (r *Router) record(ctx context.Context, e activity.Entry) {
	if r.journal == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	if _, err := r.journal.Record(ctx, e); err != nil && !errors.Is(err, activity.ErrNoSink) {
		r.log.Warn().Err(err).Str("chat", e.ChatID).Str("kind", string(e.Kind)).Msg("journal entry failed")
	}
}
