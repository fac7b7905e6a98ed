package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stablemind-ai/stablemind/internal/domain"
	"go.uber.org/zap"
)

type mockObservationLog struct {
	observations []domain.BeliefObservation
	readErr      error
}

func (m *mockObservationLog) Append(_ context.Context, _ string, obs domain.BeliefObservation) error {
	m.observations = append(m.observations, obs)
	return nil
}

func (m *mockObservationLog) ReadWindow(_ context.Context, _ string, startTurn, endTurn int) ([]domain.BeliefObservation, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []domain.BeliefObservation
	for _, obs := range m.observations {
		if obs.Turn >= startTurn && obs.Turn <= endTurn {
			out = append(out, obs)
		}
	}
	return out, nil
}

type mockDriftSink struct {
	records   []domain.DriftRecord
	appendErr error
}

func (m *mockDriftSink) Append(_ context.Context, _ string, rec domain.DriftRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, rec)
	return nil
}

func obsAt(turn int, entity string, value float64) domain.BeliefObservation {
	return domain.BeliefObservation{
		Entity:       entity,
		Dimension:    ObservationDimension,
		Value:        value,
		EvidenceText: "test evidence",
		Turn:         turn,
	}
}

func TestRumination_CreatesBeliefFromRepeatedObservations(t *testing.T) {
	obs := &mockObservationLog{observations: []domain.BeliefObservation{
		obsAt(3, "France Cafe", QuietValue),
		obsAt(9, "France Cafe", QuietValue),
		obsAt(14, "France Cafe", QuietValue),
	}}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	res, err := svc.Run(context.Background(), "s1", persona, r, 20)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}

	key := domain.BeliefKey("France Cafe", ObservationDimension)
	belief, ok := persona.Beliefs[key]
	if !ok {
		t.Fatalf("belief %q not created", key)
	}
	if math.Abs(belief.Mean-QuietValue) > 1e-9 {
		t.Errorf("mean = %v, want %v", belief.Mean, QuietValue)
	}
	if belief.Confidence != InitialBeliefConfidence {
		t.Errorf("confidence = %v, want %v", belief.Confidence, InitialBeliefConfidence)
	}
	if belief.LastUpdatedTurn != 20 {
		t.Errorf("last updated turn = %d, want 20", belief.LastUpdatedTurn)
	}
}

func TestRumination_TooFewObservationsCreatesNothing(t *testing.T) {
	obs := &mockObservationLog{observations: []domain.BeliefObservation{
		obsAt(5, "France Cafe", QuietValue),
	}}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	res, err := svc.Run(context.Background(), "s1", persona, r, 20)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 || len(persona.Beliefs) != 0 {
		t.Errorf("created = %d, beliefs = %v, want none", res.Created, persona.Beliefs)
	}
}

func TestRumination_MalformedObservationsDropped(t *testing.T) {
	obs := &mockObservationLog{observations: []domain.BeliefObservation{
		{Entity: "", Dimension: ObservationDimension, Value: 0.9, Turn: 4},
		{Entity: "France Cafe", Dimension: "", Value: 0.9, Turn: 6},
		obsAt(8, "France Cafe", QuietValue),
	}}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	res, err := svc.Run(context.Background(), "s1", persona, r, 20)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Only one valid observation remains; below the creation minimum.
	if res.Created != 0 {
		t.Errorf("created = %d, want 0", res.Created)
	}
}

func TestRumination_ReinforcesWhenWindowAgrees(t *testing.T) {
	obs := &mockObservationLog{observations: []domain.BeliefObservation{
		obsAt(22, "France Cafe", QuietValue),
		obsAt(31, "France Cafe", 0.3),
	}}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	key := domain.BeliefKey("France Cafe", ObservationDimension)
	persona.Beliefs[key] = domain.Belief{
		Entity:          "France Cafe",
		Dimension:       ObservationDimension,
		Mean:            QuietValue,
		Confidence:      0.6,
		LastUpdatedTurn: 20,
	}

	res, err := svc.Run(context.Background(), "s1", persona, r, 40)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Updated != 0 {
		t.Errorf("updated = %d, want 0", res.Updated)
	}
	if res.Reinforced != 1 {
		t.Errorf("reinforced = %d, want 1", res.Reinforced)
	}

	belief := persona.Beliefs[key]
	if math.Abs(belief.Mean-QuietValue) > 1e-9 {
		t.Errorf("mean moved to %v without contradiction", belief.Mean)
	}
	if math.Abs(belief.Confidence-(0.6+ReinforceStep)) > 1e-9 {
		t.Errorf("confidence = %v, want %v", belief.Confidence, 0.6+ReinforceStep)
	}
	// Reinforcement must not stamp a belief change record.
	if len(sink.records) != 1 || len(sink.records[0].UpdatedBeliefs) != 0 {
		t.Errorf("drift record = %+v, want one record with no belief changes", sink.records)
	}
}

func TestRumination_SingleOutlierDoesNotMoveMean(t *testing.T) {
	obs := &mockObservationLog{observations: []domain.BeliefObservation{
		obsAt(22, "France Cafe", QuietValue),
		obsAt(25, "France Cafe", QuietValue),
		obsAt(31, "France Cafe", NoisyValue),
	}}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	key := domain.BeliefKey("France Cafe", ObservationDimension)
	persona.Beliefs[key] = domain.Belief{
		Entity:     "France Cafe",
		Dimension:  ObservationDimension,
		Mean:       QuietValue,
		Confidence: 0.6,
	}

	res, err := svc.Run(context.Background(), "s1", persona, r, 40)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// One contradicting observation out of three fails the rate threshold.
	if res.Updated != 0 {
		t.Errorf("updated = %d, want 0", res.Updated)
	}
	if persona.Beliefs[key].Mean != QuietValue {
		t.Errorf("mean = %v, want unchanged %v", persona.Beliefs[key].Mean, QuietValue)
	}
}

func TestRumination_SustainedContradictionBlendsMean(t *testing.T) {
	obs := &mockObservationLog{observations: []domain.BeliefObservation{
		obsAt(22, "France Cafe", NoisyValue),
		obsAt(28, "France Cafe", NoisyValue),
		obsAt(34, "France Cafe", NoisyValue),
	}}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	key := domain.BeliefKey("France Cafe", ObservationDimension)
	persona.Beliefs[key] = domain.Belief{
		Entity:     "France Cafe",
		Dimension:  ObservationDimension,
		Mean:       QuietValue,
		Confidence: 0.6,
	}

	res, err := svc.Run(context.Background(), "s1", persona, r, 40)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Updated != 1 {
		t.Fatalf("updated = %d, want 1", res.Updated)
	}

	alpha := r.Policy.SmoothingAlpha
	want := QuietValue*(1-alpha) + NoisyValue*alpha
	belief := persona.Beliefs[key]
	if math.Abs(belief.Mean-want) > 1e-9 {
		t.Errorf("mean = %v, want blended %v", belief.Mean, want)
	}
	if math.Abs(belief.Confidence-(0.6-ContradictStep)) > 1e-9 {
		t.Errorf("confidence = %v, want %v", belief.Confidence, 0.6-ContradictStep)
	}
	if belief.LastUpdatedTurn != 40 {
		t.Errorf("last updated turn = %d, want 40", belief.LastUpdatedTurn)
	}
	if belief.Evidence.ContradictCountWindow != 3 || belief.Evidence.WindowSize != 3 {
		t.Errorf("evidence = %+v", belief.Evidence)
	}
}

func TestRumination_FirstRunSnapshotsBaselineAndReportsZeroDrift(t *testing.T) {
	obs := &mockObservationLog{}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	res, err := svc.Run(context.Background(), "s1", persona, r, 20)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DriftL2 != 0 {
		t.Errorf("drift = %v, want 0 on first run", res.DriftL2)
	}
	if len(persona.Traits.InitialBaseline) == 0 {
		t.Fatal("initial baseline not snapshotted")
	}

	// The snapshot is taken once; baseline movement after it must show up
	// as drift without moving the snapshot.
	persona.Traits.Baseline["warmth"] += 0.1
	res2, err := svc.Run(context.Background(), "s1", persona, r, 40)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if math.Abs(res2.DriftL2-0.1) > 1e-9 {
		t.Errorf("drift = %v, want 0.1", res2.DriftL2)
	}
}

func TestRumination_DriftSinkFailureAbortsRun(t *testing.T) {
	obs := &mockObservationLog{}
	sink := &mockDriftSink{appendErr: errors.New("disk full")}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	if _, err := svc.Run(context.Background(), "s1", persona, r, 20); err == nil {
		t.Fatal("expected error when drift sink fails")
	}
}

func TestRumination_WindowBoundsAreInclusive(t *testing.T) {
	// Window for turn 40 with size 20 covers turns [21, 40]; the turn-20
	// observation must stay outside it.
	obs := &mockObservationLog{observations: []domain.BeliefObservation{
		obsAt(20, "France Cafe", QuietValue),
		obsAt(21, "France Cafe", QuietValue),
		obsAt(40, "France Cafe", QuietValue),
	}}
	sink := &mockDriftSink{}
	svc := NewRuminationService(obs, sink, zap.NewNop())
	r := testRules()
	persona := DefaultPersona(r)

	res, err := svc.Run(context.Background(), "s1", persona, r, 40)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}
	key := domain.BeliefKey("France Cafe", ObservationDimension)
	if got := persona.Beliefs[key].Evidence.WindowSize; got != 2 {
		t.Errorf("window size = %d, want 2 (turn 20 excluded)", got)
	}
}
