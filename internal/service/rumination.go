package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/stablemind-ai/stablemind/internal/domain"
	"go.uber.org/zap"
)

// Belief confidence tuning. Confidence moves in small fixed steps only: a
// small reinforcement step when a window brings no contradiction, a larger
// penalty step when the hysteresis thresholds are met.
const (
	InitialBeliefConfidence = 0.6
	ReinforceStep           = 0.02
	ContradictStep          = 0.05
)

// RuminationService is the windowed consolidation engine. Once per
// rumination window it reconciles the logged belief observations into the
// persona's stable beliefs and records a baseline drift metric. It runs
// synchronously as an extension of the triggering turn.
type RuminationService struct {
	observations domain.ObservationLog
	drift        domain.DriftSink
	logger       *zap.Logger
}

func NewRuminationService(observations domain.ObservationLog, drift domain.DriftSink, logger *zap.Logger) *RuminationService {
	return &RuminationService{
		observations: observations,
		drift:        drift,
		logger:       logger,
	}
}

// Run consolidates the observation window ending at turn into the persona's
// beliefs, mutating persona in memory only. The caller persists the persona
// afterwards; only the drift record is written here.
func (s *RuminationService) Run(ctx context.Context, sessionID string, persona *domain.Persona, rules *domain.Rules, turn int) (*domain.RuminationResult, error) {
	policy := rules.Policy

	startTurn := turn - policy.RuminationWindowTurns + 1
	window, err := s.observations.ReadWindow(ctx, sessionID, startTurn, turn)
	if err != nil {
		return nil, fmt.Errorf("read observation window: %w", err)
	}

	if persona.Beliefs == nil {
		persona.Beliefs = make(map[string]domain.Belief)
	}

	result := &domain.RuminationResult{Turn: turn}

	created := s.createBeliefs(persona, window, policy, turn)
	result.Created = len(created)
	result.UpdatedBeliefs = append(result.UpdatedBeliefs, created...)

	updated, reinforced := s.updateBeliefs(persona, window, policy, turn)
	result.Updated = len(updated)
	result.Reinforced = reinforced
	result.UpdatedBeliefs = append(result.UpdatedBeliefs, updated...)

	// Snapshot the initial baseline exactly once, then measure drift.
	if len(persona.Traits.InitialBaseline) == 0 {
		persona.Traits.InitialBaseline = persona.Traits.Baseline.Clone()
	}
	result.DriftL2 = driftL2(persona.Traits.Baseline, persona.Traits.InitialBaseline)

	rec := domain.DriftRecord{
		Turn:           turn,
		DriftL2:        result.DriftL2,
		UpdatedBeliefs: result.UpdatedBeliefs,
	}
	if err := s.drift.Append(ctx, sessionID, rec); err != nil {
		return nil, fmt.Errorf("append drift record: %w", err)
	}

	s.logger.Info("rumination complete",
		zap.String("session_id", sessionID),
		zap.Int("turn", turn),
		zap.Int("window_observations", len(window)),
		zap.Int("beliefs_created", result.Created),
		zap.Int("beliefs_updated", result.Updated),
		zap.Float64("drift_l2", result.DriftL2))

	return result, nil
}

// createBeliefs forms new beliefs from (entity, dimension) groups that have
// no existing belief and enough observations in the window.
func (s *RuminationService) createBeliefs(persona *domain.Persona, window []domain.BeliefObservation, policy domain.UpdatePolicy, turn int) []domain.BeliefChange {
	groups := make(map[string][]domain.BeliefObservation)
	var order []string
	for _, obs := range window {
		// Malformed observations are dropped silently during grouping.
		if !obs.Valid() {
			continue
		}
		key := domain.BeliefKey(obs.Entity, obs.Dimension)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], obs)
	}
	sort.Strings(order)

	var changes []domain.BeliefChange
	for _, key := range order {
		obsList := groups[key]
		if _, exists := persona.Beliefs[key]; exists {
			continue
		}
		if len(obsList) < policy.MinObsToCreate {
			continue
		}

		sum := 0.0
		for _, o := range obsList {
			sum += o.Value
		}
		mean := domain.Clamp01(sum / float64(len(obsList)))

		persona.Beliefs[key] = domain.Belief{
			Entity:          obsList[0].Entity,
			Dimension:       obsList[0].Dimension,
			Mean:            mean,
			Confidence:      InitialBeliefConfidence,
			LastUpdatedTurn: turn,
			Evidence: domain.BeliefEvidence{
				SupportCountWindow: len(obsList),
				WindowSize:         len(obsList),
			},
		}

		changes = append(changes, domain.BeliefChange{
			Belief:   key,
			Created:  true,
			NewMean:  mean,
			ObsCount: len(obsList),
		})
	}

	return changes
}

// updateBeliefs re-examines every existing belief against the window. A
// belief's mean only moves when both the contradiction count and rate
// clear their thresholds simultaneously; otherwise the window reinforces
// confidence and leaves the mean untouched.
func (s *RuminationService) updateBeliefs(persona *domain.Persona, window []domain.BeliefObservation, policy domain.UpdatePolicy, turn int) (changes []domain.BeliefChange, reinforced int) {
	keys := make([]string, 0, len(persona.Beliefs))
	for key := range persona.Beliefs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		belief := persona.Beliefs[key]

		var values []float64
		for _, obs := range window {
			if obs.Entity == belief.Entity && obs.Dimension == belief.Dimension {
				values = append(values, obs.Value)
			}
		}
		if len(values) == 0 {
			continue
		}

		sum := 0.0
		contradict := 0
		for _, v := range values {
			sum += v
			if math.Abs(v-belief.Mean) > policy.ContradictionThreshold {
				contradict++
			}
		}
		obsMean := sum / float64(len(values))
		support := len(values) - contradict
		rate := float64(contradict) / float64(len(values))

		belief.Evidence = domain.BeliefEvidence{
			SupportCountWindow:    support,
			ContradictCountWindow: contradict,
			WindowSize:            len(values),
		}

		if contradict >= policy.MinContradictCount && rate >= policy.MinContradictRate {
			oldMean := belief.Mean
			alpha := policy.SmoothingAlpha
			belief.Mean = domain.Clamp01(oldMean*(1-alpha) + obsMean*alpha)
			belief.Confidence = domain.Clamp01(belief.Confidence - ContradictStep)
			belief.LastUpdatedTurn = turn

			changes = append(changes, domain.BeliefChange{
				Belief:          key,
				OldMean:         oldMean,
				NewMean:         belief.Mean,
				SupportCount:    support,
				ContradictCount: contradict,
				ObsCount:        len(values),
			})
		} else {
			belief.Confidence = domain.Clamp01(belief.Confidence + ReinforceStep)
			reinforced++
		}

		persona.Beliefs[key] = belief
	}

	return changes, reinforced
}

// driftL2 is the Euclidean distance between the current baseline and the
// snapshot taken on the first consolidation run.
func driftL2(baseline, initial domain.TraitMap) float64 {
	sum := 0.0
	for trait, b := range baseline {
		d := b - initial[trait]
		sum += d * d
	}
	return math.Sqrt(sum)
}
