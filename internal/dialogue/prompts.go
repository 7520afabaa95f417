package dialogue

import (
	"fmt"
	"math/rand"
	"strings"
)

// PromptSet holds every template the dialogue uses. Templates carry {theme},
// {critic} and {forbidden} placeholders substituted at build time. The
// defaults are overridable through the config document.
type PromptSet struct {
	NarratorSystem        string            `json:"narrator_system"`
	NarratorTemplates     map[string]string `json:"narrator_templates"`
	CriticActions         map[string]string `json:"critic_actions"`
	ChangePatternVariants []string          `json:"change_pattern_variants"`
	GeneratorSystem       string            `json:"generator_system"`
	GeneratorTemplate     string            `json:"generator_template"`
}

// DefaultPrompts returns the built-in Japanese prompt set.
func DefaultPrompts() PromptSet {
	return PromptSet{
		NarratorSystem: "あなたは「{theme}」の物語を語る語り手です。\n" +
			"重要なルール：\n" +
			"- 批評や質問は物語外からのフィードバックです\n" +
			"- 「という質問」「という指摘」などメタ的な言及は絶対禁止\n" +
			"- 批評への応答は物語の中で自然に示す\n" +
			"- 説明ではなく、描写で物語を進める\n" +
			"- 簡潔に、具体的に、2文で",
		NarratorTemplates: map[string]string{
			"start":              "「{theme}」の物語を始めてください。具体的な場面から2文で。",
			"with_question":      "批評: {critic}\n\nこの質問に物語の中で自然に答えて、続けてください。2文で。",
			"with_contradiction": "批評: {critic}\n\nこの指摘を踏まえて物語を修正し、続けてください。\nメタな説明は不要。自然に物語を2文で続けてください。",
			"continue":           "批評: {critic}\n\nこの批評を受けて物語を続けてください。2文で。",
			"breakthrough":       "批評は無視して、物語に新しい展開を加えてください。驚きの要素を2文で。",
			"develop":            "前の内容を発展させてください。より詳細に2文で。",
			"climax":             "物語をクライマックスに導いてください。重要な発見や転機を2文で。",
		},
		CriticActions: map[string]string{
			"listen":         "相槌を打ってください。5文字以内。（例：へー、ふーん、それで？）",
			"question":       "短い質問をしてください。10文字以内。（例：どこで？なぜ？）",
			"analyze":        "矛盾があれば指摘、なければ感想。15文字以内。禁止要素: {forbidden}",
			"change_pattern": "いつもと違う反応をしてください。10文字以内。",
			"final_doubt":    "最後の疑問や感想。15文字以内。",
			"default":        "反応してください。10文字以内。",
		},
		ChangePatternVariants: []string{
			"いつもと違う反応をしてください。10文字以内。",
			"素直に驚いてください。10文字以内。",
			"少し共感を見せてください。10文字以内。",
		},
		GeneratorSystem: "あなたは物語の設定を分析する専門家です。",
		GeneratorTemplate: "### 指示\n" +
			"テーマから物語の設定を分析し、JSON形式で出力してください。\n\n" +
			"### 出力形式\n" +
			"{\n" +
			"  \"facts\": [\"事実1\", \"事実2\", \"事実3\", \"事実4\", \"事実5\"],\n" +
			"  \"contradictions\": [\"矛盾1\", \"矛盾2\", \"矛盾3\"],\n" +
			"  \"personality\": \"批評家の性格\",\n" +
			"  \"focus\": [\"注目点1\", \"注目点2\"],\n" +
			"  \"forbidden\": [\"禁止要素1\", \"禁止要素2\", \"禁止要素3\"]\n" +
			"}\n\n" +
			"### テーマ\n" +
			"{theme}",
	}
}

var (
	requiredNarratorTemplates = []string{
		"start", "with_question", "with_contradiction", "continue",
		"breakthrough", "develop", "climax",
	}
	requiredCriticActions = []string{
		"listen", "question", "analyze", "change_pattern", "final_doubt", "default",
	}
)

// Validate checks that every template the orchestrator can reach is present.
func (p PromptSet) Validate() error {
	if strings.TrimSpace(p.NarratorSystem) == "" {
		return fmt.Errorf("prompts: narrator_system must not be empty")
	}
	for _, key := range requiredNarratorTemplates {
		if strings.TrimSpace(p.NarratorTemplates[key]) == "" {
			return fmt.Errorf("prompts: narrator template %q missing", key)
		}
	}
	for _, key := range requiredCriticActions {
		if strings.TrimSpace(p.CriticActions[key]) == "" {
			return fmt.Errorf("prompts: critic action %q missing", key)
		}
	}
	if len(p.ChangePatternVariants) == 0 {
		return fmt.Errorf("prompts: change_pattern_variants must not be empty")
	}
	if strings.TrimSpace(p.GeneratorSystem) == "" || strings.TrimSpace(p.GeneratorTemplate) == "" {
		return fmt.Errorf("prompts: generator prompts must not be empty")
	}
	return nil
}

// System returns the narrator system prompt for a theme.
func (p PromptSet) System(theme string) string {
	return strings.ReplaceAll(p.NarratorSystem, "{theme}", theme)
}

// NarratorPrompt selects the narrator user prompt for a primary narrator
// turn. Turn zero always opens the story; story-driving actions pick their
// own template; everything else answers the critic's last line.
func (p PromptSet) NarratorPrompt(turn int, theme string, ins Instruction, critic string) string {
	if turn == 0 {
		return strings.ReplaceAll(p.NarratorTemplates["start"], "{theme}", theme)
	}
	switch ins.Action {
	case ActionBreakthrough, ActionDevelop, ActionClimax:
		return strings.ReplaceAll(p.NarratorTemplates[string(ins.Action)], "{critic}", critic)
	}
	return p.narratorReply(critic)
}

// narratorReply picks the response template from the critic line itself:
// questions get answered, contradiction callouts get repaired, anything else
// just continues the story.
func (p PromptSet) narratorReply(critic string) string {
	key := "continue"
	if critic != "" {
		switch {
		case strings.ContainsAny(critic, "？?"):
			key = "with_question"
		case hasContradictionMarker(critic):
			key = "with_contradiction"
		}
	}
	return strings.ReplaceAll(p.NarratorTemplates[key], "{critic}", critic)
}

// CriticPrompt returns the critic user instruction for an action. The
// change_pattern action draws its phrasing from the variant list through the
// injected random source so runs are reproducible under a fixed seed.
func (p PromptSet) CriticPrompt(ins Instruction, forbidden []string, rng *rand.Rand) string {
	if ins.Action == ActionChangePattern && len(p.ChangePatternVariants) > 0 && rng != nil {
		return p.ChangePatternVariants[rng.Intn(len(p.ChangePatternVariants))]
	}
	prompt, ok := p.CriticActions[string(ins.Action)]
	if !ok || prompt == "" {
		prompt = p.CriticActions["default"]
	}
	return strings.ReplaceAll(prompt, "{forbidden}", strings.Join(forbidden, ", "))
}

// GeneratorPrompt returns the user prompt asking the model to produce a
// story context for a theme.
func (p PromptSet) GeneratorPrompt(theme string) string {
	return strings.ReplaceAll(p.GeneratorTemplate, "{theme}", theme)
}

// BuildCriticPrompt renders the critic system prompt from a story context.
// Pure function; missing fields fall back to generic skeptic defaults.
func BuildCriticPrompt(sc StoryContext) string {
	personality := sc.Personality
	if personality == "" {
		personality = "懐疑的"
	}
	example := "矛盾"
	if len(sc.Forbidden) > 0 {
		example = sc.Forbidden[0]
	}

	var b strings.Builder
	b.WriteString("### 役割\n")
	b.WriteString("あなたは" + personality + "な批評家です。\n\n")
	b.WriteString("### ルール\n")
	b.WriteString("1. 返答は必ず15文字以内\n")
	b.WriteString("2. 最初は短い相槌（へー、ふーん、それで？）\n")
	b.WriteString("3. 矛盾を見つけたら具体的に指摘\n")
	b.WriteString("4. 質問は簡潔に（どこで？いつ？なぜ？）\n\n")
	b.WriteString("### この物語の重要な事実\n")
	for _, fact := range sc.Facts {
		b.WriteString("・" + fact + "\n")
	}
	b.WriteString("\n### 存在してはいけないもの\n")
	b.WriteString(strings.Join(sc.Forbidden, ", ") + "\n\n")
	b.WriteString("### 指摘の例\n")
	b.WriteString("- 「" + example + "はない」\n")
	b.WriteString("- 「それはおかしい」\n")
	b.WriteString("- 「ありえない」")
	return b.String()
}
