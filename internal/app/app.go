package app

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/reckon/internal/config"
	"github.com/dshills/reckon/internal/engine"
	"github.com/dshills/reckon/internal/plugin"
	"github.com/dshills/reckon/internal/repl"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// Options come from command-line flags and override file configuration.
type Options struct {
	// ConfigPath is an explicit configuration file. Empty means the default
	// location.
	ConfigPath string

	// MaxHistorySize overrides the configured history bound when positive.
	MaxHistorySize int

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// NoWatch disables configuration live reload.
	NoWatch bool
}

// App owns the calculator session: configuration, logging, the engine, its
// observers, and the REPL.
type App struct {
	cfg       config.Config
	log       *Logger
	logFile   *os.File
	cal       *engine.Calculator
	watcher   *config.Watcher
	autoSave  atomic.Bool
	sessionID string

	shutdownOnce sync.Once
}

// New builds the application. Any error here is fatal to the process;
// everything that can go wrong later is handled inside the session.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.MaxHistorySize > 0 {
		cfg.MaxHistorySize = opts.MaxHistorySize
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		sessionID: uuid.NewString(),
	}
	a.autoSave.Store(cfg.AutoSave)

	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	a.logFile = logFile
	a.log = NewLogger(LoggerConfig{
		Level:  ParseLogLevel(cfg.LogLevel),
		Output: logFile,
		Prefix: "reckon",
	}).WithField("session", a.sessionID)

	engineOpts := a.loadPlugin()
	cal, err := engine.New(cfg, engineOpts...)
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.cal = cal
	a.subscribeObservers()

	if opts.ConfigPath != "" && !opts.NoWatch {
		a.startWatcher(opts.ConfigPath)
	}

	a.log.Info("session started, history bound %d, auto-save %v", cfg.MaxHistorySize, cfg.AutoSave)
	return a, nil
}

// loadPlugin loads the configured Lua plugin file, if any.
// A broken plugin file is logged and skipped; it never blocks startup.
func (a *App) loadPlugin() []engine.Option {
	if a.cfg.PluginFile == "" {
		return nil
	}

	host, err := plugin.LoadFile(a.cfg.PluginFile)
	if err != nil {
		a.log.Warn("plugin %s skipped: %v", a.cfg.PluginFile, err)
		return nil
	}
	a.log.Info("plugin %s loaded: operations %v", a.cfg.PluginFile, host.Operations())
	return []engine.Option{engine.WithPlugin(host)}
}

// startWatcher begins configuration live reload.
// Watch setup failure is logged, not fatal: the session just runs with the
// startup configuration.
func (a *App) startWatcher(path string) {
	w, err := config.NewWatcher(path, a.applyReload,
		config.WithErrorHandler(func(err error) {
			a.log.Warn("%v", err)
		}))
	if err != nil {
		a.log.Warn("config watch disabled: %v", err)
		return
	}
	a.watcher = w
}

// applyReload applies the live-reloadable settings from a changed config
// file: the history bound, auto-save, and log level.
func (a *App) applyReload(cfg config.Config) {
	a.cal.SetMaxHistorySize(cfg.MaxHistorySize)
	a.autoSave.Store(cfg.AutoSave)
	a.log.SetLevel(ParseLogLevel(cfg.LogLevel))
	a.log.Info("config reloaded: history bound %d, auto-save %v", cfg.MaxHistorySize, cfg.AutoSave)
}

// Run drives the interactive session until exit or end of input.
// A terminal gets the line-editing prompt; pipes get a plain reader.
func (a *App) Run() error {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		commands := repl.New(a.cal, nil, io.Discard, repl.Options{}).Commands()
		return a.RunWith(repl.NewPromptReader(commands), os.Stdout)
	}
	return a.RunWith(repl.NewScannerReader(os.Stdin, os.Stdout), os.Stdout)
}

// RunWith drives the session with an explicit reader and writer.
// The auto-save option reads the live flag, so config reloads toggling
// auto_save apply to the exit-time save as well as the observers.
func (a *App) RunWith(in repl.LineReader, out io.Writer) error {
	session := repl.New(a.cal, in, out, repl.Options{AutoSave: a.autoSave.Load})
	err := session.Run()
	a.log.Info("session ended")
	return err
}

// Calculator exposes the engine, mainly for tests.
func (a *App) Calculator() *engine.Calculator {
	return a.cal
}

// Shutdown releases resources. Safe to call more than once.
// With auto-save on, the full memento state is snapshotted on the way out.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		if a.watcher != nil {
			a.watcher.Close()
		}
		if a.autoSave.Load() {
			if err := a.cal.SaveSnapshot(); err != nil {
				a.log.Error("snapshot on shutdown failed: %v", err)
			}
		}
		a.cal.Close()
		if a.logFile != nil {
			a.logFile.Close()
		}
	})
}
