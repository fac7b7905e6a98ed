package domain

import "strings"

// BeliefEvidence records window-level support counts for a belief.
type BeliefEvidence struct {
	SupportCountWindow    int `json:"support_count_window"`
	ContradictCountWindow int `json:"contradict_count_window"`
	WindowSize            int `json:"window_size"`
}

// Belief is a confidence-weighted scalar judgment about an entity along one
// dimension. Beliefs are created lazily by consolidation and never deleted
// in place; only the reset utility clears them.
type Belief struct {
	Entity          string         `json:"entity"`
	Dimension       string         `json:"dimension"`
	Mean            float64        `json:"mean"`
	Confidence      float64        `json:"confidence"`
	LastUpdatedTurn int            `json:"last_updated_turn"`
	Evidence        BeliefEvidence `json:"evidence"`
}

// BeliefKey derives the map key for an (entity, dimension) pair.
func BeliefKey(entity, dimension string) string {
	e := strings.ReplaceAll(strings.ToLower(entity), " ", "_")
	return e + "_" + dimension
}

// BeliefObservation is one immutable, append-only piece of evidence about an
// entity. Observations are the sole input to consolidation.
type BeliefObservation struct {
	Entity       string  `json:"entity"`
	Dimension    string  `json:"dimension"`
	Value        float64 `json:"value"`
	EvidenceText string  `json:"evidence_text"`
	Turn         int     `json:"turn"`
}

// Valid reports whether the observation can participate in consolidation
// grouping. Malformed observations are dropped silently, not fatal.
func (o BeliefObservation) Valid() bool {
	return o.Entity != "" && o.Dimension != ""
}

// BeliefChange describes one belief created or re-blended during a
// consolidation run. It is what the drift sink records.
type BeliefChange struct {
	Belief          string  `json:"belief"`
	Created         bool    `json:"created,omitempty"`
	OldMean         float64 `json:"old_mean,omitempty"`
	NewMean         float64 `json:"new_mean"`
	SupportCount    int     `json:"support_count,omitempty"`
	ContradictCount int     `json:"contradict_count,omitempty"`
	ObsCount        int     `json:"obs_count,omitempty"`
}

// DriftRecord is one append-only observability entry, written once per
// consolidation firing.
type DriftRecord struct {
	Turn           int            `json:"turn"`
	DriftL2        float64        `json:"stable_trait_drift_l2"`
	UpdatedBeliefs []BeliefChange `json:"updated_beliefs"`
}
