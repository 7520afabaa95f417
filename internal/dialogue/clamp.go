package dialogue

import "strings"

const (
	// Narrator prose is held to two sentences to keep the exchange rhythm.
	maxNarratorSentences = 2
	// Critic lines are held to a short rune budget so reactions stay terse.
	criticRuneBudget = 20
)

func isSentenceEnd(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

// ClampNarration limits narrator text to the first two sentences. Text
// already within the limit passes through unchanged, terminators intact.
func ClampNarration(text string) string {
	var sentences []string
	for _, fragment := range strings.FieldsFunc(text, isSentenceEnd) {
		if s := strings.TrimSpace(fragment); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) <= maxNarratorSentences {
		return text
	}
	return strings.Join(sentences[:maxNarratorSentences], "。") + "。"
}

// ClampCriticism limits critic text to the rune budget, preferring to cut at
// a punctuation mark inside the budget. Marks are tried in preference order;
// hard truncation is the fallback when the model produced no natural break.
// The result never exceeds the budget.
func ClampCriticism(text string) string {
	runes := []rune(text)
	if len(runes) <= criticRuneBudget {
		return text
	}
	for _, mark := range []rune{'。', '？', '！', '、'} {
		for i, r := range runes[:criticRuneBudget] {
			if r == mark {
				return string(runes[:i+1])
			}
		}
	}
	return string(runes[:criticRuneBudget])
}
