package service

import (
	"github.com/stablemind-ai/stablemind/internal/domain"
	"go.uber.org/zap"
)

// EmotionService applies the per-turn emotion update: decay toward the
// neutral midpoint, then event-driven deltas. Update is a pure function of
// (old vector, events, rules).
type EmotionService struct {
	logger *zap.Logger
}

func NewEmotionService(logger *zap.Logger) *EmotionService {
	return &EmotionService{logger: logger}
}

// Update returns the next emotion vector. Every dimension is clamped to
// [0,1] after each delta addition, not just at the end, so the result does
// not depend on transient out-of-range values. Events must arrive in the
// extractor's de-duplicated order for reproducibility.
func (s *EmotionService) Update(emotion domain.EmotionVector, events []string, rules *domain.Rules) domain.EmotionVector {
	decay := rules.TraitNudges.EmotionDecay

	next := make(domain.EmotionVector, len(emotion))
	for name, v := range emotion {
		next[name] = domain.Clamp01(domain.EmotionNeutral + (v-domain.EmotionNeutral)*decay)
	}

	for _, ev := range events {
		deltas, ok := rules.EventEmotion[ev]
		if !ok {
			continue
		}
		for emo, d := range deltas {
			cur, ok := next[emo]
			if !ok {
				cur = domain.EmotionNeutral
			}
			next[emo] = domain.Clamp01(cur + d)
		}
	}

	return next
}
