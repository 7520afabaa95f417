package dialogue

import "unicode/utf8"

// LengthAverages holds the mean line length per role, counted in runes.
type LengthAverages struct {
	Narrator float64 `json:"narrator"`
	Critic   float64 `json:"critic"`
}

// Analysis aggregates a finished transcript.
type Analysis struct {
	TotalTurns     int            `json:"total_turns"`
	Contradictions int            `json:"contradiction_count"`
	Patterns       map[string]int `json:"patterns"`
	AvgLength      LengthAverages `json:"avg_length"`
}

// Analyze summarizes a transcript: entry count, contradiction count, critic
// pattern frequencies and mean rune length per role.
func Analyze(transcript []TurnEntry, contradictions int) Analysis {
	a := Analysis{
		TotalTurns:     len(transcript),
		Contradictions: contradictions,
		Patterns:       make(map[string]int),
	}

	var narratorRunes, criticRunes, narratorLines, criticLines int
	for _, entry := range transcript {
		switch entry.Role {
		case RoleNarrator:
			narratorLines++
			narratorRunes += utf8.RuneCountInString(entry.Content)
		case RoleCritic:
			criticLines++
			criticRunes += utf8.RuneCountInString(entry.Content)
			if entry.Pattern != "" {
				a.Patterns[string(entry.Pattern)]++
			}
		}
	}
	if narratorLines > 0 {
		a.AvgLength.Narrator = float64(narratorRunes) / float64(narratorLines)
	}
	if criticLines > 0 {
		a.AvgLength.Critic = float64(criticRunes) / float64(criticLines)
	}
	return a
}
