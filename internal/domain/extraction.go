package domain

// TurnContext carries the short-lived context handed to the signal
// extractor, currently just the previously focused entity for deictic
// resolution ("there", "that place").
type TurnContext struct {
	LastEntityFocus string
}

// Extraction is the signal extractor output for one turn. Events and
// Entities are de-duplicated with first-occurrence order preserved.
type Extraction struct {
	Events       []string
	Entities     []string
	Observations []BeliefObservation
	Note         string
	FocusEntity  string
}

// StepResult is what one full turn returns to the caller.
type StepResult struct {
	Text         string              `json:"text"`
	Turn         int                 `json:"turn"`
	Events       []string            `json:"events"`
	Observations []BeliefObservation `json:"belief_observations,omitempty"`
	Emotion      EmotionVector       `json:"emotion_vector"`
	TraitCurrent TraitMap            `json:"trait_current"`
	Ruminated    bool                `json:"rumination_ran"`
	Rumination   *RuminationResult   `json:"rumination,omitempty"`
}

// RuminationResult summarizes one consolidation run.
type RuminationResult struct {
	Turn           int            `json:"turn"`
	Created        int            `json:"beliefs_created"`
	Updated        int            `json:"beliefs_updated"`
	Reinforced     int            `json:"beliefs_reinforced"`
	DriftL2        float64        `json:"stable_trait_drift_l2"`
	UpdatedBeliefs []BeliefChange `json:"updated_beliefs"`
}
