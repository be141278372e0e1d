// Package app wires the configuration, logging, git integration, file
// watching and the diff controller into one runnable application.
package app

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dshills/diffview/internal/config"
	"github.com/dshills/diffview/internal/integration/git"
	"github.com/dshills/diffview/internal/logging"
	"github.com/dshills/diffview/internal/project"
	"github.com/dshills/diffview/internal/project/watcher"
	"github.com/dshills/diffview/internal/projectdiff"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty selects the
	// per-user default location.
	ConfigPath string

	// RootPath is the repository (or a directory inside it) to track.
	RootPath string

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string

	// LogOutput overrides the log destination. Defaults to stderr.
	LogOutput io.Writer
}

// Application owns the long-lived components and their shutdown order.
type Application struct {
	cfg   config.Config
	log   *logging.Logger
	store *project.BufferStore
	pd    *projectdiff.ProjectDiff
	fw    watcher.Watcher
	root  project.RootID

	rootPath string
	running  atomic.Bool
	done     chan struct{}
	shutdown sync.Once
}

// New builds the application: configuration, logger, git repository,
// buffer store and diff controller. The file watcher starts in Run.
func New(opts Options) (*Application, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Level()
	if opts.LogOutput != nil {
		logCfg.Output = opts.LogOutput
	}
	log := logging.New(logCfg)

	rootPath := opts.RootPath
	if rootPath == "" {
		rootPath = "."
	}
	rootPath, err = filepath.Abs(rootPath)
	if err != nil {
		return nil, &InitError{Component: "root path", Err: err}
	}

	repo, err := git.Open(rootPath)
	if err != nil {
		return nil, &InitError{Component: "git", Err: fmt.Errorf("%s: %w", rootPath, err)}
	}

	delay, err := cfg.DebounceDelay()
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	store := project.NewBufferStore()
	pd := projectdiff.NewProjectDiff(projectdiff.Config{
		DebounceDelay:  delay,
		ContextLines:   cfg.ContextLines,
		IgnorePatterns: cfg.Ignore,
		Logger:         log,
	}, store)

	app := &Application{
		cfg:      cfg,
		log:      log.WithComponent("app"),
		store:    store,
		pd:       pd,
		rootPath: repo.Path(),
		done:     make(chan struct{}),
	}
	app.root = pd.AddRoot(repo.Path(), projectdiff.NewGitSource(repo, log))
	return app, nil
}

// Diff returns the diff controller.
func (a *Application) Diff() *projectdiff.ProjectDiff {
	return a.pd
}

// RootPath returns the tracked repository root.
func (a *Application) RootPath() string {
	return a.rootPath
}

// RescanOnce runs a single synchronous rescan of the tracked root.
func (a *Application) RescanOnce() {
	<-a.pd.Rescan(a.root)
}

// Render writes the current merged diff view to w.
func (a *Application) Render(w io.Writer) error {
	return a.pd.Render(w)
}

// Run watches the repository for filesystem changes and keeps the diff
// view synchronized until Shutdown is called. It blocks.
func (a *Application) Run() error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	fw, err := watcher.NewFSNotifyWatcher(watcher.WithIgnorePatterns(a.cfg.Ignore))
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	a.fw = fw

	if err := fw.WatchRecursive(a.rootPath); err != nil {
		fw.Close()
		return &InitError{Component: "watcher", Err: err}
	}

	a.log.Info("watching %s", a.rootPath)
	a.pd.HandleEvent(project.Event{Kind: project.EventRootAdded, Root: a.root})

	for {
		select {
		case <-a.done:
			return nil
		case ev, ok := <-fw.Events():
			if !ok {
				return nil
			}
			a.pd.HandleEvent(a.entriesEvent(ev))
		case err, ok := <-fw.Errors():
			if !ok {
				return nil
			}
			a.log.Warn("watcher: %v", err)
		}
	}
}

// entriesEvent maps one filesystem event to a project event against the
// tracked root, with the path made root-relative.
func (a *Application) entriesEvent(ev watcher.Event) project.Event {
	rel, err := filepath.Rel(a.rootPath, ev.Path)
	if err != nil {
		rel = ev.Path
	}
	return project.Event{
		Kind: project.EventEntriesChanged,
		Root: a.root,
		Entries: []project.EntryChange{
			{Path: filepath.ToSlash(rel), Change: changeKind(ev.Op)},
		},
	}
}

// changeKind maps a filesystem operation to an entry change kind.
func changeKind(op watcher.Op) project.ChangeKind {
	switch {
	case op.Has(watcher.OpCreate):
		return project.ChangeCreated
	case op.Has(watcher.OpRemove), op.Has(watcher.OpRename):
		return project.ChangeDeleted
	default:
		return project.ChangeModified
	}
}

// Shutdown stops the watcher and the diff controller. Safe to call more
// than once and from any goroutine.
func (a *Application) Shutdown() {
	a.shutdown.Do(func() {
		close(a.done)
		if a.fw != nil {
			a.fw.Close()
		}
		a.pd.Close()
		a.log.Info("shut down")
	})
}
