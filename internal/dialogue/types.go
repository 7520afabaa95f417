// Package dialogue implements a two-persona storytelling loop: a narrator
// that produces story prose and a critic that reacts to it, steered turn by
// turn by a deterministic rule-based director. The orchestrator drives the
// loop against a chat backend, shapes every response through a sanitizer and
// length clamps, and collects an append-only transcript.
package dialogue

import (
	"context"
	"time"

	"storyduet/internal/llm"
)

// Role identifies which persona produced or should produce a line.
type Role string

const (
	RoleNarrator Role = "narrator"
	RoleCritic   Role = "critic"
)

// Label returns the Japanese speaker label used in prompts and rendering.
func (r Role) Label() string {
	switch r {
	case RoleNarrator:
		return "語り手"
	case RoleCritic:
		return "批評家"
	}
	return string(r)
}

// Action names what the director wants the next speaker to do.
type Action string

const (
	ActionListen        Action = "listen"
	ActionQuestion      Action = "question"
	ActionAnalyze       Action = "analyze"
	ActionChangePattern Action = "change_pattern"
	ActionFinalDoubt    Action = "final_doubt"
	ActionBreakthrough  Action = "breakthrough"
	ActionDevelop       Action = "develop"
	ActionClimax        Action = "climax"
	ActionContinue      Action = "continue"
)

// Pattern classifies a critic line by its conversational function.
type Pattern string

const (
	PatternContradiction Pattern = "contradiction"
	PatternQuestion      Pattern = "question"
	PatternBackchannel   Pattern = "backchannel"
	PatternComment       Pattern = "comment"
)

// Instruction is one steering decision from the director. It is produced
// fresh each turn and not persisted beyond it.
type Instruction struct {
	Target Role
	Action Action
	Note   string
}

// TurnEntry is one spoken line in the transcript. Critic entries carry the
// pattern they were classified as; narrator entries leave it empty.
type TurnEntry struct {
	Role    Role    `json:"role"`
	Content string  `json:"content"`
	Turn    int     `json:"turn"`
	Pattern Pattern `json:"pattern,omitempty"`
}

// StoryContext holds the established facts the critic guards for one theme.
// It is resolved once per theme and read-only afterward.
type StoryContext struct {
	Facts          []string `json:"facts"`
	Contradictions []string `json:"contradictions"`
	Personality    string   `json:"personality"`
	Focus          []string `json:"focus"`
	Forbidden      []string `json:"forbidden"`
}

// Origin records how a story context was obtained.
type Origin string

const (
	OriginPreset    Origin = "preset"
	OriginGenerated Origin = "generated"
	OriginFallback  Origin = "fallback"
)

// Resolved pairs a story context with how it was obtained, so callers can
// tell a model-generated context from the generic fallback.
type Resolved struct {
	Context StoryContext
	Origin  Origin
}

// RoleModels carries the per-role model and sampling configuration for a run.
// GeneratorFallback names the model to substitute when the generator model is
// absent from the backend catalog.
type RoleModels struct {
	Narrator          llm.ModelParams `json:"narrator"`
	Critic            llm.ModelParams `json:"critic"`
	Generator         llm.ModelParams `json:"generator"`
	GeneratorFallback string          `json:"generator_fallback"`
}

// RunResult is everything one dialogue run produced.
type RunResult struct {
	RunID      string
	Theme      string
	Context    StoryContext
	Origin     Origin
	Transcript []TurnEntry
	Analysis   Analysis
	StartedAt  time.Time
}

// Chatter is the chat backend the dialogue drives. llm.Service implements it;
// tests substitute a scripted generator.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Observer receives progress events during a run. All methods are called
// from the run's single goroutine, in transcript order.
type Observer interface {
	ContextResolved(theme string, res Resolved)
	InstructionChosen(turn int, ins Instruction)
	LineSpoken(entry TurnEntry)
	GenerationFailed(turn int, role Role, err error)
}
