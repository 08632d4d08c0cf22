package command

import (
	"regexp"
	"strings"
)

type keywordReply struct {
	re   *regexp.Regexp
	text string
}

// Canned replies fired off plain chat messages, first match wins. Static
// content only; no state involved.
var keywordReplies = []keywordReply{
	{regexp.MustCompile(`beep`), "boop"},
	{regexp.MustCompile(`clanker`), "shutup fleshbag"},
	{regexp.MustCompile(`\bnya\b`), "ew."},
	{regexp.MustCompile(`\bbonk`), "https://tenor.com/view/bonk-gif-19410756"},
	{regexp.MustCompile(`\bsimp\b`), "sniper monke"},
}

func KeywordReply(message string) (string, bool) {
	content := strings.ToLower(strings.TrimSpace(message))
	for _, r := range keywordReplies {
		if r.re.MatchString(content) {
			return r.text, true
		}
	}
	return "", false
}
