// Package intent classifies free-text chat messages into bot actions.
//
// Classification is table driven. Every rule may carry a slash-command
// pattern and a natural-language pattern; all slash patterns are tried first
// in priority order, then all phrase patterns in the same order. The first
// match wins.
package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/brynix/brynixbot/internal/textnorm"
)

// Tag identifies a supported action.
type Tag string

const (
	None         Tag = ""
	Help         Tag = "HELP"
	Summary      Tag = "SUMMARY"
	SummaryBrief Tag = "SUMMARY_BRIEF"
	Next         Tag = "NEXT"
	Late         Tag = "LATE"
	RemindNow    Tag = "REMIND_NOW"
	Remind       Tag = "REMIND"
	Note         Tag = "NOTE"
	Doc          Tag = "DOC"
	Who          Tag = "WHO"
	MuteOn       Tag = "MUTE_ON"
	MuteOff      Tag = "MUTE_OFF"
)

// Result is the outcome of Classify. Arg keeps the caller's original casing.
type Result struct {
	Tag Tag
	Arg string
}

// Matched reports whether any rule fired.
func (r Result) Matched() bool { return r.Tag != None }

// Rule is one row of the classification table. Slash and Phrase are matched
// against folded text (trimmed, lower-cased, accents removed). Extract, when
// set, pulls the argument out of the raw text.
type Rule struct {
	Tag     Tag
	Slash   *regexp.Regexp
	Phrase  *regexp.Regexp
	Extract func(raw string) string
}

var (
	noteSlashArg  = regexp.MustCompile(`(?is)^\s*/note\b[\s:\-]*(.*)$`)
	notePhraseArg = regexp.MustCompile(`(?is)\b(?:anotar?|registrar? (?:a )?nota|criar? (?:uma )?nota)\b[\s:\-]*(.*)$`)
)

func extractNote(raw string) string {
	if m := noteSlashArg.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	// The trigger is matched without accents; the note itself is cut from
	// the raw text so "anotar: revisão" keeps its accent.
	plain := textnorm.StripAccents(raw)
	loc := notePhraseArg.FindStringSubmatchIndex(plain)
	if loc == nil || loc[2] < 0 {
		return ""
	}
	arg := plain[loc[2]:loc[3]]
	n := utf8.RuneCountInString(arg)
	if utf8.RuneCountInString(plain) == utf8.RuneCountInString(raw) {
		rs := []rune(raw)
		arg = string(rs[len(rs)-n:])
	}
	return strings.TrimSpace(arg)
}

// argAfter keeps what follows the slash command, or the whole text when the
// request was phrased naturally.
func argAfter(cmd string) func(raw string) string {
	slash := regexp.MustCompile(`(?is)^\s*/` + cmd + `\b[\s:\-]*(.*)$`)
	return func(raw string) string {
		if m := slash.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(raw)
	}
}

var (
	remindSlashArg  = argAfter("remind")
	remindPhraseArg = regexp.MustCompile(`(?is)\b(?:me\s+lembr(?:a|e|ar)|cri(?:a|ar)\s+(?:um\s+)?lembrete)\b[\s:,\-]*(.*)$`)
)

// extractRemind keeps what follows "/remind" or the natural trigger.
func extractRemind(raw string) string {
	if m := remindPhraseArg.FindStringSubmatch(raw); m != nil && !strings.HasPrefix(strings.TrimSpace(raw), "/") {
		return strings.TrimSpace(m[1])
	}
	return remindSlashArg(raw)
}

// defaultRules is ordered by priority, highest first.
var defaultRules = []Rule{
	{
		Tag:    MuteOff,
		Slash:  regexp.MustCompile(`^/(?:mute|silencio)\s*off\b`),
		Phrase: regexp.MustCompile(`\b(?:silencio\s*off|tirar (?:o )?silencio|voltar? a falar|desmutar|desmuta)\b`),
	},
	{
		Tag:    MuteOn,
		Slash:  regexp.MustCompile(`^/(?:mute|silencio)\s*on\b`),
		Phrase: regexp.MustCompile(`\b(?:silencio\s*on|silenciar (?:o )?bot|ficar? em silencio)\b`),
	},
	{
		Tag:    Help,
		Slash:  regexp.MustCompile(`^/(?:menu|help|ajuda)\b`),
		Phrase: regexp.MustCompile(`\b(?:menu|ajuda|help|como funciona|o que voce faz|o que vc faz|manual|tutorial)\b`),
	},
	{
		Tag:    SummaryBrief,
		Slash:  regexp.MustCompile(`^/brief\b`),
		Phrase: regexp.MustCompile(`\bresumo (?:curto|rapido|breve)\b`),
	},
	{
		Tag:    Summary,
		Slash:  regexp.MustCompile(`^/(?:summary|resumo|status)\b`),
		Phrase: regexp.MustCompile(`\b(?:resumo completo|status completo|status geral|relatorio completo)\b`),
	},
	{
		Tag:    Summary,
		Phrase: regexp.MustCompile(`\b(?:resumo|status|como estamos|panorama)\b`),
	},
	{
		Tag:    Next,
		Slash:  regexp.MustCompile(`^/next\b`),
		Phrase: regexp.MustCompile(`\b(?:o que vence hoje|entregas de hoje|prazo de hoje|para hoje|hoje|amanha|proxim[ao]s?)\b`),
	},
	{
		Tag:    Late,
		Slash:  regexp.MustCompile(`^/late\b`),
		Phrase: regexp.MustCompile(`\b(?:atrasad[ao]s?|em atraso|pendencias atrasadas)\b`),
	},
	{
		Tag:    RemindNow,
		Slash:  regexp.MustCompile(`^/remind\s+now\b`),
		Phrase: regexp.MustCompile(`\b(?:disparar?|enviar|mandar) (?:o |um )?lembrete agora\b`),
	},
	{
		Tag:     Remind,
		Slash:   regexp.MustCompile(`^/remind\b`),
		Phrase:  regexp.MustCompile(`\b(?:me lembr(?:a|e|ar)|criar? (?:um )?lembrete)\b`),
		Extract: extractRemind,
	},
	{
		Tag:     Note,
		Slash:   regexp.MustCompile(`^/note\b`),
		Phrase:  regexp.MustCompile(`\b(?:anotar?|registrar? (?:a )?nota|criar? (?:uma )?nota)\b`),
		Extract: extractNote,
	},
	{
		Tag:     Doc,
		Slash:   regexp.MustCompile(`^/doc\b`),
		Phrase:  regexp.MustCompile(`\b(?:segue|anexo|anexei|envio|enviando)\b.*\b(?:ata|documento|contrato|apresentacao|ppt|pdf|arquivo)\b`),
		Extract: argAfter("doc"),
	},
	{
		Tag:    Who,
		Slash:  regexp.MustCompile(`^/who\b`),
		Phrase: regexp.MustCompile(`\b(?:participantes|quem esta no projeto|quem esta|quem participa)\b`),
	},
}

// Rules returns a copy of the classification table in priority order.
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Classifier evaluates a rule table.
type Classifier struct {
	rules []Rule
}

// New returns a classifier over rules. A nil slice uses the default table.
func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = defaultRules
	}
	return &Classifier{rules: rules}
}

var std = New(nil)

// Classify runs the default table.
func Classify(text string) Result {
	return std.Classify(text)
}

// Classify tags text. Unmatched input yields Result{Tag: None}.
func (c *Classifier) Classify(text string) Result {
	folded := textnorm.Fold(text)
	if folded == "" {
		return Result{}
	}
	if strings.HasPrefix(folded, "/") {
		for _, r := range c.rules {
			if r.Slash != nil && r.Slash.MatchString(folded) {
				return r.result(text)
			}
		}
	}
	for _, r := range c.rules {
		if r.Phrase != nil && r.Phrase.MatchString(folded) {
			return r.result(text)
		}
	}
	return Result{}
}

func (r Rule) result(raw string) Result {
	res := Result{Tag: r.Tag}
	if r.Extract != nil {
		res.Arg = r.Extract(raw)
	}
	return res
}
