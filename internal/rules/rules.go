// Package rules loads the immutable rule tables that drive the personality
// pipeline. The event, trait-nudge and policy tables are strictly validated:
// a missing required key is a load error, never silently defaulted. Only the
// emotion decay and baseline-return scalars carry documented defaults, and
// the event taxonomy file is optional.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stablemind-ai/stablemind/internal/domain"
)

const (
	EventEmotionFile = "event_emotion_deltas.json"
	TraitNudgesFile  = "emotion_trait_nudges.json"
	UpdatePolicyFile = "update_policy.json"
	TaxonomyFile     = "event_taxonomy.json"

	// DefaultEmotionDecay is used when emotion_decay is absent.
	DefaultEmotionDecay = 0.75
	// DefaultTraitReturn is used when trait_return_to_baseline is absent.
	DefaultTraitReturn = 0.9
)

// nudgesFile mirrors the on-disk emotion_trait_nudges.json shape.
type nudgesFile struct {
	EmotionDecay *float64 `json:"emotion_decay"`
	Nudges       struct {
		Coefficients          map[string]map[string]float64 `json:"coefficients_centered"`
		PerTurnTraitCap       *float64                      `json:"per_turn_trait_cap"`
		TraitReturnToBaseline *float64                      `json:"trait_return_to_baseline"`
	} `json:"emotion_trait_nudges"`
}

// policyFile mirrors the on-disk update_policy.json shape.
type policyFile struct {
	RuminationWindowTurns *int `json:"rumination_window_turns"`
	StableBaselineUpdate  struct {
		MinContradictCount     *int     `json:"min_contradict_count"`
		MinContradictRate      *float64 `json:"min_contradict_rate"`
		SmoothingAlpha         *float64 `json:"smoothing_alpha"`
		MinObsToCreate         *int     `json:"min_obs_to_create"`
		ContradictionThreshold *float64 `json:"contradiction_threshold"`
	} `json:"stable_baseline_update"`
}

// Load reads and validates all rule tables from dir.
func Load(dir string) (*domain.Rules, error) {
	r := &domain.Rules{}

	if err := readJSON(filepath.Join(dir, EventEmotionFile), &r.EventEmotion); err != nil {
		return nil, fmt.Errorf("load event emotion deltas: %w", err)
	}
	if len(r.EventEmotion) == 0 {
		return nil, fmt.Errorf("load event emotion deltas: table is empty")
	}

	var nf nudgesFile
	if err := readJSON(filepath.Join(dir, TraitNudgesFile), &nf); err != nil {
		return nil, fmt.Errorf("load trait nudges: %w", err)
	}
	if len(nf.Nudges.Coefficients) == 0 {
		return nil, fmt.Errorf("load trait nudges: coefficients_centered is required")
	}
	if nf.Nudges.PerTurnTraitCap == nil || *nf.Nudges.PerTurnTraitCap <= 0 {
		return nil, fmt.Errorf("load trait nudges: per_turn_trait_cap must be > 0")
	}
	r.TraitNudges = domain.TraitNudgeRules{
		Coefficients:          nf.Nudges.Coefficients,
		PerTurnTraitCap:       *nf.Nudges.PerTurnTraitCap,
		TraitReturnToBaseline: DefaultTraitReturn,
		EmotionDecay:          DefaultEmotionDecay,
	}
	if nf.Nudges.TraitReturnToBaseline != nil {
		r.TraitNudges.TraitReturnToBaseline = *nf.Nudges.TraitReturnToBaseline
	}
	if nf.EmotionDecay != nil {
		r.TraitNudges.EmotionDecay = *nf.EmotionDecay
	}
	if d := r.TraitNudges.EmotionDecay; d <= 0 || d >= 1 {
		return nil, fmt.Errorf("load trait nudges: emotion_decay must be in (0,1), got %v", d)
	}
	if f := r.TraitNudges.TraitReturnToBaseline; f <= 0 || f >= 1 {
		return nil, fmt.Errorf("load trait nudges: trait_return_to_baseline must be in (0,1), got %v", f)
	}

	var pf policyFile
	if err := readJSON(filepath.Join(dir, UpdatePolicyFile), &pf); err != nil {
		return nil, fmt.Errorf("load update policy: %w", err)
	}
	policy, err := validatePolicy(pf)
	if err != nil {
		return nil, fmt.Errorf("load update policy: %w", err)
	}
	r.Policy = policy

	// Taxonomy is optional: absence degrades to built-in event rules only.
	if err := readJSON(filepath.Join(dir, TaxonomyFile), &r.Taxonomy); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load event taxonomy: %w", err)
		}
		r.Taxonomy = nil
	}

	return r, nil
}

func validatePolicy(pf policyFile) (domain.UpdatePolicy, error) {
	var p domain.UpdatePolicy
	u := pf.StableBaselineUpdate

	switch {
	case pf.RuminationWindowTurns == nil || *pf.RuminationWindowTurns < 1:
		return p, fmt.Errorf("rumination_window_turns must be >= 1")
	case u.MinContradictCount == nil || *u.MinContradictCount < 1:
		return p, fmt.Errorf("stable_baseline_update.min_contradict_count must be >= 1")
	case u.MinContradictRate == nil || *u.MinContradictRate < 0 || *u.MinContradictRate > 1:
		return p, fmt.Errorf("stable_baseline_update.min_contradict_rate must be in [0,1]")
	case u.SmoothingAlpha == nil || *u.SmoothingAlpha <= 0 || *u.SmoothingAlpha > 1:
		return p, fmt.Errorf("stable_baseline_update.smoothing_alpha must be in (0,1]")
	case u.MinObsToCreate == nil || *u.MinObsToCreate < 1:
		return p, fmt.Errorf("stable_baseline_update.min_obs_to_create must be >= 1")
	case u.ContradictionThreshold == nil || *u.ContradictionThreshold <= 0:
		return p, fmt.Errorf("stable_baseline_update.contradiction_threshold must be > 0")
	}

	return domain.UpdatePolicy{
		RuminationWindowTurns:  *pf.RuminationWindowTurns,
		MinContradictCount:     *u.MinContradictCount,
		MinContradictRate:      *u.MinContradictRate,
		SmoothingAlpha:         *u.SmoothingAlpha,
		MinObsToCreate:         *u.MinObsToCreate,
		ContradictionThreshold: *u.ContradictionThreshold,
	}, nil
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
