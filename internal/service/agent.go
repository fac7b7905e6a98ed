package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stablemind-ai/stablemind/internal/domain"
	"github.com/stablemind-ai/stablemind/internal/prompt"
	"go.uber.org/zap"
)

const recentEpisodesForPrompt = 7

// maxRecentNotes bounds the free-text discovery list carried in persona
// state.
const maxRecentNotes = 20

// ErrNoBaseline is returned when a session's persona has no baseline trait
// vector. There is no valid rest state to decay toward, so no turn may run.
var ErrNoBaseline = errors.New("persona has no baseline trait vector")

// AgentService is the turn controller. It drives the four pipeline stages
// in strict sequence once per turn and decides when rumination fires. All
// mutated state is held in memory for the whole turn and persisted exactly
// once at the end; any stage error aborts the turn with nothing written to
// the persona store.
type AgentService struct {
	personas     domain.PersonaStore
	observations domain.ObservationLog
	episodes     domain.EpisodeLog
	extractor    *ExtractService
	emotion      *EmotionService
	traits       *TraitService
	rumination   *RuminationService
	prompts      *prompt.Builder
	generator    domain.Generator
	rules        *domain.Rules
	logger       *zap.Logger

	// Turns for the same session must not run concurrently: the shared
	// vectors are read-modify-write with no internal locking below this
	// layer.
	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

func NewAgentService(
	personas domain.PersonaStore,
	observations domain.ObservationLog,
	episodes domain.EpisodeLog,
	extractor *ExtractService,
	emotion *EmotionService,
	traits *TraitService,
	rumination *RuminationService,
	prompts *prompt.Builder,
	generator domain.Generator,
	rules *domain.Rules,
	logger *zap.Logger,
) *AgentService {
	return &AgentService{
		personas:     personas,
		observations: observations,
		episodes:     episodes,
		extractor:    extractor,
		emotion:      emotion,
		traits:       traits,
		rumination:   rumination,
		prompts:      prompts,
		generator:    generator,
		rules:        rules,
		logger:       logger,
		sessions:     make(map[string]*sync.Mutex),
	}
}

// Step runs one full turn for a session and returns the agent reply plus
// the resulting state snapshot.
func (s *AgentService) Step(ctx context.Context, sessionID, userMessage string) (*domain.StepResult, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	persona, err := s.personas.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load persona: %w", err)
	}
	if len(persona.Traits.Baseline) == 0 {
		return nil, ErrNoBaseline
	}
	if persona.Emotion == nil {
		persona.Emotion = domain.NeutralEmotionVector()
	}
	if persona.Counters.RuminationWindowSize == 0 {
		persona.Counters.RuminationWindowSize = s.rules.Policy.RuminationWindowTurns
	}

	persona.Counters.CurrentTurn++
	persona.Counters.TurnsSinceLastRumination++
	turn := persona.Counters.CurrentTurn

	ext := s.extractor.Extract(userMessage, domain.TurnContext{
		LastEntityFocus: persona.LastEntityFocus,
	})
	if len(ext.Entities) > 0 {
		persona.LastEntityFocus = ext.Entities[len(ext.Entities)-1]
	}
	if ext.Note != "" {
		persona.RecentNotes = append(persona.RecentNotes, ext.Note)
		if len(persona.RecentNotes) > maxRecentNotes {
			persona.RecentNotes = persona.RecentNotes[len(persona.RecentNotes)-maxRecentNotes:]
		}
	}

	persona.Emotion = s.emotion.Update(persona.Emotion, ext.Events, s.rules)
	persona.Traits.Current = s.traits.ApplyNudges(persona.Traits.Baseline, persona.Traits.Current, persona.Emotion, s.rules)

	if err := s.episodes.Append(ctx, sessionID, domain.Episode{
		Turn:     turn,
		UserText: userMessage,
		Events:   ext.Events,
		Entities: ext.Entities,
		Note:     ext.Note,
	}); err != nil {
		return nil, fmt.Errorf("append episode: %w", err)
	}

	observations := make([]domain.BeliefObservation, 0, len(ext.Observations))
	for _, obs := range ext.Observations {
		obs.Turn = turn
		if err := s.observations.Append(ctx, sessionID, obs); err != nil {
			return nil, fmt.Errorf("append observation: %w", err)
		}
		observations = append(observations, obs)
	}

	result := &domain.StepResult{
		Turn:         turn,
		Events:       ext.Events,
		Observations: observations,
	}

	// Rumination fires exactly when the counter reaches the window size;
	// the reset and the consolidation result land in the same in-memory
	// mutation and are persisted together below.
	if persona.Counters.TurnsSinceLastRumination == persona.Counters.RuminationWindowSize {
		rum, err := s.rumination.Run(ctx, sessionID, persona, s.rules, turn)
		if err != nil {
			return nil, fmt.Errorf("rumination: %w", err)
		}
		persona.Counters.TurnsSinceLastRumination = 0
		persona.Counters.LastRuminationTurn = turn
		result.Ruminated = true
		result.Rumination = rum
	}

	recent, err := s.episodes.ReadLastN(ctx, sessionID, recentEpisodesForPrompt)
	if err != nil {
		return nil, fmt.Errorf("read recent episodes: %w", err)
	}

	reply, err := s.generator.Generate(ctx, s.prompts.Build(persona, recent, userMessage))
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	if err := s.personas.Save(ctx, sessionID, persona); err != nil {
		return nil, fmt.Errorf("save persona: %w", err)
	}
	if err := s.episodes.Append(ctx, sessionID, domain.Episode{Turn: turn, AgentText: reply}); err != nil {
		// The turn's state is already durable; losing the reply line only
		// degrades future prompts.
		s.logger.Warn("append agent reply failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	result.Text = reply
	result.Emotion = persona.Emotion.Clone()
	result.TraitCurrent = persona.Traits.Current.Clone()

	s.logger.Debug("turn complete",
		zap.String("session_id", sessionID),
		zap.Int("turn", turn),
		zap.Strings("events", ext.Events),
		zap.Bool("ruminated", result.Ruminated))

	return result, nil
}

// ResetSession replaces the session's persona with a freshly bootstrapped
// one. Observation and episode logs are not touched here; the reset CLI
// owns wiping those.
func (s *AgentService) ResetSession(ctx context.Context, sessionID string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	fresh := DefaultPersona(s.rules)
	if err := s.personas.Save(ctx, sessionID, fresh); err != nil {
		return fmt.Errorf("save persona: %w", err)
	}
	s.logger.Info("session reset", zap.String("session_id", sessionID))
	return nil
}

// LoadPersona exposes the current persona snapshot for read-only surfaces.
func (s *AgentService) LoadPersona(ctx context.Context, sessionID string) (*domain.Persona, error) {
	return s.personas.Load(ctx, sessionID)
}

func (s *AgentService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessions[sessionID] = lock
	}
	return lock
}
