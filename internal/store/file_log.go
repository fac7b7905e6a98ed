package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stablemind-ai/stablemind/internal/domain"
)

// jsonlFile is a shared append/scan helper for the line-delimited JSON
// logs. One JSON object per line; malformed lines are skipped on read so a
// single corrupt record does not poison the whole log.
type jsonlFile struct {
	mu sync.Mutex
}

func (f *jsonlFile) append(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// scan calls fn with each line's raw JSON. A missing file is an empty log.
func (f *jsonlFile) scan(path string, fn func(line []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}

// FileObservationLog is the append-only belief observation log,
// belief_observations.jsonl per session.
type FileObservationLog struct {
	dir string
	f   jsonlFile
}

func NewFileObservationLog(dir string) *FileObservationLog {
	return &FileObservationLog{dir: dir}
}

func (s *FileObservationLog) path(sessionID string) string {
	return filepath.Join(s.dir, "sessions", sessionID, "belief_observations.jsonl")
}

func (s *FileObservationLog) Append(ctx context.Context, sessionID string, obs domain.BeliefObservation) error {
	return s.f.append(s.path(sessionID), obs)
}

func (s *FileObservationLog) ReadWindow(ctx context.Context, sessionID string, startTurn, endTurn int) ([]domain.BeliefObservation, error) {
	var out []domain.BeliefObservation
	err := s.f.scan(s.path(sessionID), func(line []byte) {
		var obs domain.BeliefObservation
		if err := json.Unmarshal(line, &obs); err != nil {
			return
		}
		if obs.Turn >= startTurn && obs.Turn <= endTurn {
			out = append(out, obs)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FileEpisodeLog is the append-only episodic memory log,
// episodic_memory.jsonl per session.
type FileEpisodeLog struct {
	dir string
	f   jsonlFile
}

func NewFileEpisodeLog(dir string) *FileEpisodeLog {
	return &FileEpisodeLog{dir: dir}
}

func (s *FileEpisodeLog) path(sessionID string) string {
	return filepath.Join(s.dir, "sessions", sessionID, "episodic_memory.jsonl")
}

func (s *FileEpisodeLog) Append(ctx context.Context, sessionID string, ep domain.Episode) error {
	return s.f.append(s.path(sessionID), ep)
}

func (s *FileEpisodeLog) ReadLastN(ctx context.Context, sessionID string, n int) ([]domain.Episode, error) {
	var all []domain.Episode
	err := s.f.scan(s.path(sessionID), func(line []byte) {
		var ep domain.Episode
		if err := json.Unmarshal(line, &ep); err != nil {
			return
		}
		all = append(all, ep)
	})
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// FileDriftSink appends drift records to drift_metrics.jsonl per session.
type FileDriftSink struct {
	dir string
	f   jsonlFile
}

func NewFileDriftSink(dir string) *FileDriftSink {
	return &FileDriftSink{dir: dir}
}

func (s *FileDriftSink) path(sessionID string) string {
	return filepath.Join(s.dir, "sessions", sessionID, "drift_metrics.jsonl")
}

func (s *FileDriftSink) Append(ctx context.Context, sessionID string, rec domain.DriftRecord) error {
	return s.f.append(s.path(sessionID), rec)
}
