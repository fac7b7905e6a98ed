package domain

import "context"

// PersonaStore persists full session state. Load is called once at turn
// start and Save once at turn end; the pipeline never writes mid-turn.
type PersonaStore interface {
	Load(ctx context.Context, sessionID string) (*Persona, error)
	Save(ctx context.Context, sessionID string, p *Persona) error
}

// ObservationLog is the append-only belief observation log. ReadWindow
// returns observations with turn in [startTurn, endTurn], in append order.
type ObservationLog interface {
	Append(ctx context.Context, sessionID string, obs BeliefObservation) error
	ReadWindow(ctx context.Context, sessionID string, startTurn, endTurn int) ([]BeliefObservation, error)
}

// EpisodeLog is the append-only episodic memory log used for prompt
// assembly.
type EpisodeLog interface {
	Append(ctx context.Context, sessionID string, ep Episode) error
	ReadLastN(ctx context.Context, sessionID string, n int) ([]Episode, error)
}

// DriftSink receives one record per consolidation firing.
type DriftSink interface {
	Append(ctx context.Context, sessionID string, rec DriftRecord) error
}

// Generator produces the agent reply for a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
