package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stablemind-ai/stablemind/internal/domain"
)

// Default returns the built-in rule set used for bootstrap seeding.
func Default() *domain.Rules {
	return &domain.Rules{
		EventEmotion: domain.EventEmotionTable{
			"major_achievement": {"joy": 0.25, "anticipation": 0.10, "sadness": -0.10},
			"social_rejection":  {"sadness": 0.20, "trust": -0.15, "joy": -0.10},
			"betrayal":          {"anger": 0.25, "trust": -0.20, "disgust": 0.15},
			"conflict":          {"anger": 0.15, "fear": 0.05},
			"burnout_episode":   {"sadness": 0.20, "joy": -0.15, "anticipation": -0.10},
			"positive_feedback": {"joy": 0.10, "trust": 0.10},
			"negative_feedback": {"sadness": 0.10, "anger": 0.10, "trust": -0.05},
		},
		TraitNudges: domain.TraitNudgeRules{
			Coefficients: map[string]map[string]float64{
				"warmth":        {"joy": 0.2, "trust": 0.3, "anger": -0.2},
				"curiosity":     {"surprise": 0.3, "anticipation": 0.2},
				"patience":      {"anger": -0.3, "fear": -0.1},
				"assertiveness": {"anger": 0.2, "fear": -0.2},
				"optimism":      {"joy": 0.3, "sadness": -0.3},
			},
			PerTurnTraitCap:       0.05,
			TraitReturnToBaseline: DefaultTraitReturn,
			EmotionDecay:          DefaultEmotionDecay,
		},
		Policy: domain.UpdatePolicy{
			RuminationWindowTurns:  20,
			MinContradictCount:     2,
			MinContradictRate:      0.5,
			SmoothingAlpha:         0.3,
			MinObsToCreate:         2,
			ContradictionThreshold: 0.3,
		},
		Taxonomy: map[string][]string{
			"travel_event": {"flight", "airport", "road trip"},
			"career_event": {"new job", "got hired", "promotion", "interview"},
			"loss_event":   {"funeral", "passed away", "miss them"},
		},
	}
}

// WriteDefaults seeds dir with the default rule files. Existing files are
// left untouched so local edits survive a re-bootstrap.
func WriteDefaults(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}

	d := Default()

	var nf nudgesFile
	nf.EmotionDecay = &d.TraitNudges.EmotionDecay
	nf.Nudges.Coefficients = d.TraitNudges.Coefficients
	nf.Nudges.PerTurnTraitCap = &d.TraitNudges.PerTurnTraitCap
	nf.Nudges.TraitReturnToBaseline = &d.TraitNudges.TraitReturnToBaseline

	var pf policyFile
	pf.RuminationWindowTurns = &d.Policy.RuminationWindowTurns
	pf.StableBaselineUpdate.MinContradictCount = &d.Policy.MinContradictCount
	pf.StableBaselineUpdate.MinContradictRate = &d.Policy.MinContradictRate
	pf.StableBaselineUpdate.SmoothingAlpha = &d.Policy.SmoothingAlpha
	pf.StableBaselineUpdate.MinObsToCreate = &d.Policy.MinObsToCreate
	pf.StableBaselineUpdate.ContradictionThreshold = &d.Policy.ContradictionThreshold

	files := map[string]any{
		EventEmotionFile: d.EventEmotion,
		TraitNudgesFile:  nf,
		UpdatePolicyFile: pf,
		TaxonomyFile:     d.Taxonomy,
	}

	for name, v := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	return nil
}
