package dialogue

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyduet/internal/debug"
	"storyduet/internal/llm"
)

// placeholder stands in for a line whose generation failed. Appending it
// instead of skipping keeps the transcript shape deterministic.
const placeholder = "…"

// RunConfig carries everything an orchestrator needs for one run.
type RunConfig struct {
	Models   RoleModels
	Prompts  PromptSet
	MaxTurns int
	// Window is how many prior transcript lines prefix the narrator prompt.
	// Zero disables the rolling context.
	Window int
	// Seed drives the phrasing-variant choice. Zero seeds from the clock.
	Seed int64
}

// Orchestrator drives the turn loop: director decision, role prompt, chat
// call, sanitize, clamp, transcript append. Strictly sequential; it blocks
// on every chat call and owns all run state.
type Orchestrator struct {
	chat     Chatter
	store    *Store
	cfg      RunConfig
	rng      *rand.Rand
	observer Observer
	debug    *debug.Logger
}

func NewOrchestrator(chat Chatter, store *Store, cfg RunConfig, observer Observer, dbg *debug.Logger) *Orchestrator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Orchestrator{
		chat:     chat,
		store:    store,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
		observer: observer,
		debug:    dbg,
	}
}

// Run executes one dialogue. Per-line generation failures degrade to a
// placeholder entry and the loop continues; only context cancellation stops
// it early, returning the partial result together with ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, theme string) (*RunResult, error) {
	runID := llm.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.New().String()
		ctx = llm.WithRunID(ctx, runID)
	}

	resolved := o.store.Resolve(ctx, theme)
	if o.observer != nil {
		o.observer.ContextResolved(theme, resolved)
	}

	narratorSystem := o.cfg.Prompts.System(theme)
	criticSystem := BuildCriticPrompt(resolved.Context)
	director := NewDirector()

	result := &RunResult{
		RunID:     runID,
		Theme:     theme,
		Context:   resolved.Context,
		Origin:    resolved.Origin,
		StartedAt: time.Now(),
	}

	var lastNarrator, lastCritic string
	for turn := 0; turn < o.cfg.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			result.Analysis = Analyze(result.Transcript, director.Contradictions())
			return result, err
		}

		ins := director.Instruction(turn, lastCritic)
		if o.observer != nil {
			o.observer.InstructionChosen(turn, ins)
		}

		if turn == 0 || ins.Target == RoleNarrator {
			user := o.cfg.Prompts.NarratorPrompt(turn, theme, ins, lastCritic)
			lastNarrator = o.narrate(ctx, result, turn, narratorSystem, user, director)
		}

		if turn < o.cfg.MaxTurns-1 && (turn == 0 || ins.Target == RoleCritic) {
			action := o.cfg.Prompts.CriticPrompt(ins, resolved.Context.Forbidden, o.rng)
			user := "語り手: " + lastNarrator + "\n\n" + action
			line := o.speak(ctx, turn, RoleCritic, o.cfg.Models.Critic, criticSystem, user, "critic.speak")
			line = ClampCriticism(Sanitize(line, RoleCritic))
			entry := TurnEntry{Role: RoleCritic, Content: line, Turn: turn, Pattern: director.Classify(line)}
			result.Transcript = append(result.Transcript, entry)
			lastCritic = line
			if o.observer != nil {
				o.observer.LineSpoken(entry)
			}

			// The narrator answers the critic right away except near the
			// end, where the critic keeps the last word.
			if ins.Target == RoleCritic && turn < o.cfg.MaxTurns-2 {
				user := o.cfg.Prompts.narratorReply(lastCritic)
				lastNarrator = o.narrate(ctx, result, turn, narratorSystem, user, director)
			}
		}
	}

	result.Analysis = Analyze(result.Transcript, director.Contradictions())
	return result, nil
}

func (o *Orchestrator) narrate(ctx context.Context, result *RunResult, turn int, system, user string, director *Director) string {
	if prefix := o.recentWindow(result.Transcript); prefix != "" {
		user = prefix + "\n" + user
	}
	line := o.speak(ctx, turn, RoleNarrator, o.cfg.Models.Narrator, system, user, "narrator.speak")
	line = ClampNarration(Sanitize(line, RoleNarrator))
	entry := TurnEntry{Role: RoleNarrator, Content: line, Turn: turn}
	result.Transcript = append(result.Transcript, entry)
	director.RecordNarration()
	if o.observer != nil {
		o.observer.LineSpoken(entry)
	}
	return line
}

func (o *Orchestrator) speak(ctx context.Context, turn int, role Role, params llm.ModelParams, system, user, operation string) string {
	text, err := o.chat.Chat(ctx, llm.ChatRequest{
		Params:    params,
		System:    system,
		User:      user,
		Operation: operation,
	})
	if err != nil {
		if o.debug != nil {
			o.debug.Printf("%s generation failed on turn %d: %v", role, turn, err)
		}
		if o.observer != nil {
			o.observer.GenerationFailed(turn, role, err)
		}
		return placeholder
	}
	return text
}

// recentWindow renders the tail of the transcript as labeled lines for the
// narrator prompt, so the model sees the exchange it is continuing.
func (o *Orchestrator) recentWindow(transcript []TurnEntry) string {
	if o.cfg.Window <= 0 || len(transcript) == 0 {
		return ""
	}
	start := len(transcript) - o.cfg.Window
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	b.WriteString("これまでの流れ:\n")
	for _, entry := range transcript[start:] {
		b.WriteString(entry.Role.Label() + ": " + entry.Content + "\n")
	}
	return b.String()
}
