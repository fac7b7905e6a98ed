package domain

// EventEmotionTable maps event tags to per-emotion intensity deltas.
type EventEmotionTable map[string]map[string]float64

// TraitNudgeRules drives the per-turn emotion→trait coupling.
type TraitNudgeRules struct {
	// Coefficients holds one row per trait; each row weights centered
	// emotion values (emotion - 0.5).
	Coefficients map[string]map[string]float64 `json:"coefficients_centered"`
	// PerTurnTraitCap bounds the driven delta applied to a trait in one turn.
	PerTurnTraitCap float64 `json:"per_turn_trait_cap"`
	// TraitReturnToBaseline is the reversion factor in (0,1); every turn
	// current is pulled toward baseline by this factor.
	TraitReturnToBaseline float64 `json:"trait_return_to_baseline"`
	// EmotionDecay is the per-turn decay factor toward the neutral point.
	EmotionDecay float64 `json:"emotion_decay"`
}

// UpdatePolicy controls consolidation cadence and hysteresis.
type UpdatePolicy struct {
	RuminationWindowTurns  int     `json:"rumination_window_turns"`
	MinContradictCount     int     `json:"min_contradict_count"`
	MinContradictRate      float64 `json:"min_contradict_rate"`
	SmoothingAlpha         float64 `json:"smoothing_alpha"`
	MinObsToCreate         int     `json:"min_obs_to_create"`
	ContradictionThreshold float64 `json:"contradiction_threshold"`
}

// Rules is the immutable table set supplied at startup. Taxonomy is the
// only optional member; its absence degrades event detection to the
// built-in rules.
type Rules struct {
	EventEmotion EventEmotionTable
	TraitNudges  TraitNudgeRules
	Policy       UpdatePolicy
	Taxonomy     map[string][]string
}
