package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/engine"
	"github.com/dhamidi/groom/history"
	"github.com/dhamidi/groom/repository"
	"github.com/dhamidi/groom/settings"
)

var log = commonlog.GetLogger("groom.cmd")

func loadSettings() (*settings.Settings, error) {
	if configPath != "" {
		return settings.LoadFile(configPath)
	}
	return settings.Load(".")
}

// session holds what the engines of one command invocation share: the
// settings, the loaded type repository and the history store.
type session struct {
	cfg     *settings.Settings
	repo    *repository.Repository
	history *history.Store
}

func openSession(ctx context.Context, cfg *settings.Settings) (*session, error) {
	s := &session{cfg: cfg}
	if cfg.Imports.Policy != settings.LeaveAsIs {
		repo, err := openRepository(cfg)
		if err != nil {
			return nil, err
		}
		if len(cfg.Repository.Classpath) > 0 {
			if err := repo.LoadAll(ctx, cfg.Repository.Classpath); err != nil {
				return nil, err
			}
		}
		if repo.IsEmpty() {
			log.Warning("type repository is empty, imports are left as they are")
		}
		s.repo = repo
	}
	switch cfg.History.Policy {
	case settings.HistoryTimestamp, settings.HistoryCRC32, settings.HistoryAdler32:
		store, err := history.Open(cfg.HistoryFile())
		if err != nil {
			return nil, err
		}
		s.history = store
	}
	return s, nil
}

func openRepository(cfg *settings.Settings) (*repository.Repository, error) {
	var opts []repository.Option
	if cfg.Repository.Retention.Duration > 0 {
		opts = append(opts, repository.WithRetention(cfg.Repository.Retention.Duration))
	}
	return repository.Open(cfg.Repository.WorkDir, opts...)
}

func (s *session) engine() (*engine.Engine, error) {
	var opts []engine.Option
	if s.repo != nil {
		opts = append(opts, engine.WithRepository(s.repo))
	}
	if s.history != nil {
		opts = append(opts, engine.WithHistory(s.history))
	}
	return engine.New(s.cfg, opts...)
}

// close persists the history store.
func (s *session) close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Save()
}

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.Faint)
)

func stateColor(s engine.State) *color.Color {
	switch s {
	case engine.StateOk:
		return okColor
	case engine.StateWarn:
		return warnColor
	case engine.StateError:
		return errorColor
	}
	return dimColor
}

// report prints one line for the file and one per diagnostic.
func report(w io.Writer, name string, e *engine.Engine) {
	fmt.Fprintf(w, "%-5s %s\n", stateColor(e.State()).Sprint(e.State()), name)
	for _, d := range e.Diagnostics() {
		fmt.Fprintf(w, "      %s\n", diagColor(d.Severity).Sprint(d))
	}
}

func diagColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warnColor
	}
	return dimColor
}

// errFailed is returned by commands that processed every file but saw at
// least one of them fail.
var errFailed = errors.New("some files could not be formatted")
