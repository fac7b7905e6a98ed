package domain

// Counters track turn progression for a session. All fields are monotonic
// except TurnsSinceLastRumination, which resets to 0 exactly when
// consolidation fires.
type Counters struct {
	CurrentTurn              int `json:"current_turn"`
	TurnsSinceLastRumination int `json:"turns_since_last_rumination"`
	RuminationWindowSize     int `json:"rumination_window_size"`
	LastRuminationTurn       int `json:"last_rumination_turn"`
}

// Identity holds the fixed presentation facts about the persona. It is
// seeded at bootstrap and never mutated by the pipeline.
type Identity struct {
	DisplayName string   `json:"display_name"`
	CoreTraits  []string `json:"core_traits,omitempty"`
	Values      []string `json:"values,omitempty"`
	ToneOfVoice string   `json:"tone_of_voice,omitempty"`
}

// Persona is the full per-session mutable state: fast emotion vector,
// medium-speed traits, slow beliefs, and the turn counters. It is read at
// turn start and written back once at turn end.
type Persona struct {
	Identity        Identity          `json:"identity"`
	Emotion         EmotionVector     `json:"emotion_vector"`
	Traits          TraitVector       `json:"trait_vector"`
	Beliefs         map[string]Belief `json:"stable_beliefs"`
	Counters        Counters          `json:"counters"`
	LastEntityFocus string            `json:"last_entity_focus,omitempty"`
	RecentNotes     []string          `json:"recent_notes,omitempty"`
}

// Episode is one logged user/agent exchange. Episodes feed prompt building
// only; they are never read back into the state pipeline.
type Episode struct {
	Turn      int      `json:"turn"`
	UserText  string   `json:"user_text,omitempty"`
	AgentText string   `json:"agent_text,omitempty"`
	Events    []string `json:"detected_events,omitempty"`
	Entities  []string `json:"entities,omitempty"`
	Note      string   `json:"notes,omitempty"`
}
