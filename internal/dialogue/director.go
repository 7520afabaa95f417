package dialogue

import (
	"strings"
	"unicode/utf8"
)

const patternHistorySize = 8

var contradictionMarkers = []string{"ない", "おかしい", "ありえない"}

func hasContradictionMarker(text string) bool {
	for _, marker := range contradictionMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Director decides who speaks next and with what instruction. Its state is
// a strict function of the preceding critic line's classified pattern plus
// the turn index; there is no lookahead and no terminal state. One instance
// serves one run and is discarded afterward.
type Director struct {
	contradictions        int
	lastContradictionTurn int
	momentum              int
	history               []Pattern
}

func NewDirector() *Director {
	return &Director{lastContradictionTurn: -1}
}

// Classify buckets a critic line into one of the four reaction patterns.
// Contradiction markers take priority over the question and length checks.
func (d *Director) Classify(text string) Pattern {
	if hasContradictionMarker(text) {
		return PatternContradiction
	}
	if strings.ContainsAny(text, "？?") {
		return PatternQuestion
	}
	if utf8.RuneCountInString(text) <= 5 {
		return PatternBackchannel
	}
	return PatternComment
}

// Instruction returns the steering decision for the given turn. A non-empty
// lastCritic is classified first and pushed into the pattern history;
// contradictions bump the counters. An empty lastCritic skips classification.
func (d *Director) Instruction(turn int, lastCritic string) Instruction {
	if lastCritic != "" {
		p := d.Classify(lastCritic)
		d.push(p)
		if p == PatternContradiction {
			d.contradictions++
			d.lastContradictionTurn = turn
		}
	}

	// Three identical reactions in a row means the critic is stuck.
	if n := len(d.history); n >= 3 {
		if d.history[n-1] == d.history[n-2] && d.history[n-2] == d.history[n-3] {
			return Instruction{Target: RoleCritic, Action: ActionChangePattern, Note: "パターンを変える"}
		}
	}

	// Repeated fresh contradictions stall the story; force it past them.
	if d.contradictions > 2 && turn-d.lastContradictionTurn < 2 {
		return Instruction{Target: RoleNarrator, Action: ActionBreakthrough, Note: "突破口を開く"}
	}

	switch {
	case turn < 2:
		return Instruction{Target: RoleCritic, Action: ActionListen, Note: "まず聞く"}
	case turn < 4:
		return Instruction{Target: RoleCritic, Action: ActionQuestion, Note: "質問する"}
	case turn < 6:
		if turn%2 == 0 {
			return Instruction{Target: RoleCritic, Action: ActionAnalyze, Note: "分析する"}
		}
		return Instruction{Target: RoleNarrator, Action: ActionDevelop, Note: "展開する"}
	default:
		if d.momentum < 2 {
			return Instruction{Target: RoleNarrator, Action: ActionClimax, Note: "クライマックスへ"}
		}
		return Instruction{Target: RoleCritic, Action: ActionFinalDoubt, Note: "最後の疑問"}
	}
}

// RecordNarration notes that the narrator spoke, building story momentum.
func (d *Director) RecordNarration() {
	d.momentum++
}

// Contradictions reports how many contradiction patterns were observed.
func (d *Director) Contradictions() int {
	return d.contradictions
}

func (d *Director) push(p Pattern) {
	d.history = append(d.history, p)
	if len(d.history) > patternHistorySize {
		d.history = d.history[1:]
	}
}
