package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stablemind-ai/stablemind/internal/domain"
)

// PostgresPersonaStore keeps the full persona document as jsonb, one row
// per session. The persona is a single read-modify-write unit per turn, so
// a document column matches the access pattern better than normalizing the
// vectors out.
type PostgresPersonaStore struct {
	db *pgxpool.Pool
}

func NewPostgresPersonaStore(db *pgxpool.Pool) *PostgresPersonaStore {
	return &PostgresPersonaStore{db: db}
}

func (s *PostgresPersonaStore) Load(ctx context.Context, sessionID string) (*domain.Persona, error) {
	var state []byte
	err := s.db.QueryRow(ctx,
		`SELECT state FROM personas WHERE session_id = $1`,
		sessionID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var p domain.Persona
	if err := json.Unmarshal(state, &p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	return &p, nil
}

func (s *PostgresPersonaStore) Save(ctx context.Context, sessionID string, p *domain.Persona) error {
	state, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal persona: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO personas (session_id, state, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (session_id) DO UPDATE SET state = $2, updated_at = now()`,
		sessionID, state,
	)
	return err
}

// PostgresObservationLog is the append-only observation log backed by a
// plain insert-only table.
type PostgresObservationLog struct {
	db *pgxpool.Pool
}

func NewPostgresObservationLog(db *pgxpool.Pool) *PostgresObservationLog {
	return &PostgresObservationLog{db: db}
}

func (s *PostgresObservationLog) Append(ctx context.Context, sessionID string, obs domain.BeliefObservation) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO belief_observations (session_id, turn, entity, dimension, value, evidence_text)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sessionID, obs.Turn, obs.Entity, obs.Dimension, obs.Value, obs.EvidenceText,
	)
	return err
}

func (s *PostgresObservationLog) ReadWindow(ctx context.Context, sessionID string, startTurn, endTurn int) ([]domain.BeliefObservation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT turn, entity, dimension, value, evidence_text
		 FROM belief_observations
		 WHERE session_id = $1 AND turn BETWEEN $2 AND $3
		 ORDER BY id`,
		sessionID, startTurn, endTurn,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BeliefObservation
	for rows.Next() {
		var obs domain.BeliefObservation
		if err := rows.Scan(&obs.Turn, &obs.Entity, &obs.Dimension, &obs.Value, &obs.EvidenceText); err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// PostgresEpisodeLog stores episodes insert-only, read back newest-first
// for prompt assembly.
type PostgresEpisodeLog struct {
	db *pgxpool.Pool
}

func NewPostgresEpisodeLog(db *pgxpool.Pool) *PostgresEpisodeLog {
	return &PostgresEpisodeLog{db: db}
}

func (s *PostgresEpisodeLog) Append(ctx context.Context, sessionID string, ep domain.Episode) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO episodes (session_id, turn, user_text, agent_text, events, entities, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, ep.Turn, ep.UserText, ep.AgentText, ep.Events, ep.Entities, ep.Note,
	)
	return err
}

func (s *PostgresEpisodeLog) ReadLastN(ctx context.Context, sessionID string, n int) ([]domain.Episode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT turn, user_text, agent_text, events, entities, note
		 FROM episodes
		 WHERE session_id = $1
		 ORDER BY id DESC
		 LIMIT $2`,
		sessionID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Episode
	for rows.Next() {
		var ep domain.Episode
		if err := rows.Scan(&ep.Turn, &ep.UserText, &ep.AgentText, &ep.Events, &ep.Entities, &ep.Note); err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Restore chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// PostgresDriftSink appends one row per consolidation firing.
type PostgresDriftSink struct {
	db *pgxpool.Pool
}

func NewPostgresDriftSink(db *pgxpool.Pool) *PostgresDriftSink {
	return &PostgresDriftSink{db: db}
}

func (s *PostgresDriftSink) Append(ctx context.Context, sessionID string, rec domain.DriftRecord) error {
	updated, err := json.Marshal(rec.UpdatedBeliefs)
	if err != nil {
		return fmt.Errorf("marshal updated beliefs: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO drift_metrics (session_id, turn, drift_l2, updated_beliefs)
		 VALUES ($1, $2, $3, $4)`,
		sessionID, rec.Turn, rec.DriftL2, updated,
	)
	return err
}
