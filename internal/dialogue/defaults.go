package dialogue

import "storyduet/internal/llm"

// DefaultModels returns the built-in per-role sampling table. The narrator
// runs warm for variety, the critic cooler and shorter, and the generator
// cold on a larger model with the small one as fallback.
func DefaultModels() RoleModels {
	return RoleModels{
		Narrator: llm.ModelParams{
			Model:       "gemma3:4b",
			Temperature: 0.7,
			TopP:        0.9,
			MaxTokens:   100,
		},
		Critic: llm.ModelParams{
			Model:       "gemma3:4b",
			Temperature: 0.6,
			TopP:        0.85,
			MaxTokens:   40,
		},
		Generator: llm.ModelParams{
			Model:       "gemma3:12b",
			Temperature: 0.3,
			TopP:        0.95,
			MaxTokens:   500,
		},
		GeneratorFallback: "gemma3:4b",
	}
}

// DefaultThemes returns the built-in theme menu. The interactive picker
// appends its own free-text entry, so the list holds only real themes.
func DefaultThemes() []string {
	return []string{
		"火星コロニーで発見された謎の信号",
		"深夜のコンビニに現れた透明人間",
		"AIロボットが見た初めての夢",
		"江戸時代の寿司屋に現れたタイムトラベラー",
		"深海1万メートルの研究施設で起きた事件",
		"量子コンピュータの中に生まれた意識",
		"月面都市での殺人事件",
	}
}

// DefaultPresets returns the keyword-matched story context table. A preset
// applies when its key is a substring of the chosen theme.
func DefaultPresets() map[string]StoryContext {
	return map[string]StoryContext{
		"火星": {
			Facts: []string{
				"火星には液体の水は存在しない",
				"大気は薄く二酸化炭素が主成分",
				"平均気温は-60度",
				"重力は地球の38%",
				"砂嵐が頻繁に発生する",
			},
			Contradictions: []string{"雨が降る", "呼吸可能な大気", "豊かな植生"},
			Personality:    "科学的",
			Focus:          []string{"物理法則", "技術的整合性"},
			Forbidden:      []string{"液体の水", "生物", "酸素"},
		},
		"コンビニ": {
			Facts: []string{
				"24時間営業",
				"狭い店内スペース",
				"定番商品の品揃え",
				"店員は1-2名",
				"防犯カメラ設置",
			},
			Contradictions: []string{"巨大な売り場", "珍しい商品", "大人数の店員"},
			Personality:    "現実的",
			Focus:          []string{"日常性", "リアリティ"},
			Forbidden:      []string{"恐竜", "宇宙船", "魔法"},
		},
	}
}

// FallbackContext returns the generic logical-consistency context used when
// neither a preset nor generation can supply one.
func FallbackContext() StoryContext {
	return StoryContext{
		Facts: []string{
			"物理法則に従う",
			"論理的整合性が必要",
			"因果関係が明確",
			"時系列が一貫",
			"設定が統一",
		},
		Contradictions: []string{"前後の矛盾", "設定の無視", "論理破綻"},
		Personality:    "懐疑的",
		Focus:          []string{"一貫性", "論理性"},
		Forbidden:      []string{"矛盾", "非論理的展開"},
	}
}
