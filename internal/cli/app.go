// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/rigchat/internal/completion"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/storage"
)

// App holds the components one command invocation works with.
type App struct {
	Config  *config.Config
	DataDir string
	Backend storage.Backend
	Store   *storage.ConversationStore
	Client  *completion.Client
	Session *session.Session
}

// NewApp opens the configured storage backend and builds the client and
// session. Close releases the backend.
func NewApp(cfg *config.Config) (*App, error) {
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(cfg.Storage.Backend, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage in %s: %w", cfg.Storage.Backend, dataDir, err)
	}
	store := storage.NewConversationStore(backend)

	client := completion.New(completion.Config{
		BaseURL:           cfg.Completion.BaseURL,
		Timeout:           time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
		RequestsPerMinute: cfg.Completion.RequestsPerMinute,
	})

	state := session.NewState(cfg)
	sess := session.New(state, store, client, session.WithStreaming(cfg.Completion.Stream))
	logger.Debug("session started",
		"session", state.ID,
		"backend", cfg.Storage.Backend,
		"data_dir", dataDir,
		"model", state.Model,
		"stream", cfg.Completion.Stream)

	return &App{
		Config:  cfg,
		DataDir: dataDir,
		Backend: backend,
		Store:   store,
		Client:  client,
		Session: sess,
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a == nil || a.Backend == nil {
		return nil
	}
	return a.Backend.Close()
}
