package service

import (
	"github.com/stablemind-ai/stablemind/internal/domain"
	"go.uber.org/zap"
)

// TraitService applies the per-turn emotion→trait coupling: a bounded
// event-driven perturbation followed by exponential reversion toward
// baseline. The reversion term dominates as current diverges, so traits
// cannot run away even under sustained identical emotional input.
type TraitService struct {
	logger *zap.Logger
}

func NewTraitService(logger *zap.Logger) *TraitService {
	return &TraitService{logger: logger}
}

// ApplyNudges returns the next current trait map. Baseline is read-only
// here; only consolidation mutates it.
func (s *TraitService) ApplyNudges(baseline, current domain.TraitMap, emotion domain.EmotionVector, rules *domain.Rules) domain.TraitMap {
	perTurnCap := rules.TraitNudges.PerTurnTraitCap
	ret := rules.TraitNudges.TraitReturnToBaseline

	updated := current.Clone()

	// Emotion-driven deltas for traits with a coefficient row.
	for trait, weights := range rules.TraitNudges.Coefficients {
		if _, ok := baseline[trait]; !ok {
			continue
		}
		cur, ok := updated[trait]
		if !ok {
			continue
		}

		delta := 0.0
		for emo, w := range weights {
			v, ok := emotion[emo]
			if !ok {
				v = domain.EmotionNeutral
			}
			delta += w * (v - domain.EmotionNeutral)
		}
		delta = domain.ClampRange(delta, -perTurnCap, perTurnCap)

		updated[trait] = domain.Clamp01(cur + delta)
	}

	// Reversion toward baseline runs for every trait in current, including
	// those without a coefficient row.
	for trait, cur := range updated {
		base, ok := baseline[trait]
		if !ok {
			continue
		}
		updated[trait] = domain.Clamp01(base + (cur-base)*ret)
	}

	return updated
}
