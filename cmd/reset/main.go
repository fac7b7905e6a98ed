// Command reset bootstraps or rewinds a session to step 0: seeds the rule
// files if absent, writes a fresh persona at rest, and optionally wipes the
// append-only JSONL logs and clears accumulated beliefs.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/stablemind-ai/stablemind/internal/rules"
	"github.com/stablemind-ai/stablemind/internal/service"
	"github.com/stablemind-ai/stablemind/internal/store"
	"go.uber.org/zap"
)

func main() {
	dataDir := flag.String("data-dir", "data", "data directory holding session state")
	rulesDir := flag.String("rules-dir", "rules", "rule table directory")
	sessionID := flag.String("session", "default", "session to reset")
	wipeMemory := flag.Bool("wipe-memory", false, "delete the session's JSONL logs")
	keepBeliefs := flag.Bool("keep-beliefs", false, "carry existing stable beliefs into the fresh persona")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	if err := rules.WriteDefaults(*rulesDir); err != nil {
		logger.Fatal("failed to seed rule files", zap.Error(err))
	}
	ruleSet, err := rules.Load(*rulesDir)
	if err != nil {
		logger.Fatal("failed to load rule tables", zap.Error(err))
	}

	ctx := context.Background()
	personas := store.NewFilePersonaStore(*dataDir)

	fresh := service.DefaultPersona(ruleSet)

	old, err := personas.Load(ctx, *sessionID)
	switch {
	case err == nil:
		if err := backupPersona(*dataDir, *sessionID); err != nil {
			logger.Fatal("failed to back up persona", zap.Error(err))
		}
		// Identity is immutable across resets; only the state rewinds.
		fresh.Identity = old.Identity
		if *keepBeliefs {
			fresh.Beliefs = old.Beliefs
		}
	case errors.Is(err, store.ErrNotFound):
		// First bootstrap for this session.
	default:
		logger.Fatal("failed to load existing persona", zap.Error(err))
	}

	if err := personas.Save(ctx, *sessionID, fresh); err != nil {
		logger.Fatal("failed to write persona", zap.Error(err))
	}

	if *wipeMemory {
		wiped := wipeLogs(*dataDir, *sessionID, logger)
		logger.Info("logs wiped", zap.Int("files", wiped))
	}

	logger.Info("session reset",
		zap.String("session", *sessionID),
		zap.Bool("beliefs_kept", *keepBeliefs),
		zap.Int("rumination_window", ruleSet.Policy.RuminationWindowTurns))
}

// backupPersona copies persona.json to persona.json.bak, overwriting any
// previous backup.
func backupPersona(dataDir, sessionID string) error {
	path := filepath.Join(dataDir, "sessions", sessionID, "persona.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+".bak", b, 0o644)
}

func wipeLogs(dataDir, sessionID string, logger *zap.Logger) int {
	dir := filepath.Join(dataDir, "sessions", sessionID)
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return 0
	}
	wiped := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove log", zap.String("path", path), zap.Error(err))
			continue
		}
		wiped++
	}
	return wiped
}
