package bot

import (
	"regexp"
	"strings"

	"github.com/brynix/brynixbot/internal/textnorm"
)

// DefaultAliases are the names the bot answers to in groups.
var DefaultAliases = []string{"alice", "bot"}

var naturalTriggers = []string{"assistente"}

// ParseAliases splits a comma-separated alias list, folding and
// de-duplicating entries. An empty list yields DefaultAliases.
func ParseAliases(raw string) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range strings.Split(raw, ",") {
		a = textnorm.Fold(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultAliases...)
	}
	return out
}

// bareJID drops the agent and device parts: "5511:3@s.whatsapp.net" → "5511@s.whatsapp.net".
func bareJID(jid string) string {
	at := strings.IndexByte(jid, '@')
	if at < 0 {
		return jid
	}
	user := jid[:at]
	if i := strings.IndexAny(user, ":."); i >= 0 {
		user = user[:i]
	}
	return user + jid[at:]
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	re := regexp.MustCompile(`(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(word) + `($|[^\p{L}\p{N}])`)
	return re.MatchString(text)
}

// Addressed reports whether a group message is aimed at the bot: a real
// @mention, the bot's push name, one of the aliases or a natural trigger.
func Addressed(msg Message, self Identity, aliases []string) bool {
	for _, id := range []string{self.JID, self.LID} {
		if id == "" {
			continue
		}
		me := bareJID(id)
		for _, m := range msg.Mentions {
			if bareJID(m) == me {
				return true
			}
		}
	}
	text := textnorm.Fold(msg.Text)
	if text == "" {
		return false
	}
	if name := textnorm.Fold(self.PushName); name != "" && strings.Contains(text, name) {
		return true
	}
	for _, a := range aliases {
		if containsWord(text, a) {
			return true
		}
	}
	for _, t := range naturalTriggers {
		if containsWord(text, t) {
			return true
		}
	}
	return false
}
