package dialogue

import (
	"regexp"
	"strings"
)

var (
	bracketAside  = regexp.MustCompile(`\[.*?\]`)
	cornerQuotes  = regexp.MustCompile(`「|」`)
	leadingFiller = regexp.MustCompile(`^(はい、|ええと、|そうですね、)`)
)

// Small local models pad answers with acknowledgements of the instruction
// instead of story text. These are removed from narrator output wholesale.
var narratorMetaPhrases = []string{
	"承知しました",
	"わかりました",
	"理解しました",
	"ご指摘",
	"修正",
	"確かに",
	"という質問",
	"という指摘",
	"という疑問",
	"に対する答え",
	"に答える",
}

// Sanitize strips stage directions, quote marks and meta commentary from a
// generated line. It never fails and is a no-op on already-clean text.
func Sanitize(text string, role Role) string {
	out := bracketAside.ReplaceAllString(text, "")
	out = cornerQuotes.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)

	// Filler can stack ("はい、ええと、..."), so strip until stable.
	for {
		next := strings.TrimSpace(leadingFiller.ReplaceAllString(out, ""))
		if next == out {
			break
		}
		out = next
	}

	if role == RoleNarrator {
		for _, phrase := range narratorMetaPhrases {
			out = strings.ReplaceAll(out, phrase, "")
		}
	}

	// Fields splits on Unicode whitespace, so ideographic spaces collapse too.
	return strings.Join(strings.Fields(out), " ")
}
