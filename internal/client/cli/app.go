package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/allergozyme/internal/client/config"
	"github.com/dmitrijs2005/allergozyme/internal/client/facade"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
)

// Migrator applies the hosted database migrations.
type Migrator func(ctx context.Context, cfg *config.Config, logger logging.Logger) error

// Deps are what the commands need from the outside. Zero values fall back
// to the process streams; a nil DialRemote keeps every command local.
type Deps struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	DialRemote    facade.Dialer
	MigrateRemote Migrator

	// Configure adjusts the loaded configuration before use.
	Configure func(*config.Config)
	// Facade adjusts the facade options before New.
	Facade func(*facade.Options)
}

// App carries the parsed global flags between commands.
type App struct {
	deps   Deps
	reader *bufio.Reader

	configPath string
	overrides  config.Overrides
	asJSON     bool
}

func newApp(deps Deps) *App {
	if deps.In == nil {
		deps.In = os.Stdin
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Err == nil {
		deps.Err = os.Stderr
	}
	return &App{deps: deps, reader: bufio.NewReader(deps.In)}
}

// printNavigator reports page changes on the command output.
type printNavigator struct{ w io.Writer }

func (n printNavigator) Go(target string) { fmt.Fprintf(n.w, "redirect: %s\n", target) }

func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a.overrides.Apply(cfg)
	if a.deps.Configure != nil {
		a.deps.Configure(cfg)
	}
	return cfg, nil
}

func (a *App) newLogger(cfg *config.Config) (logging.Logger, io.Closer, error) {
	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, closer, nil
}

// withFacade opens the data layer for the duration of fn.
func (a *App) withFacade(ctx context.Context, fn func(ctx context.Context, f *facade.Facade) error) (err error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := a.newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := facade.Options{
		Config:     cfg,
		Logger:     logger,
		Navigator:  printNavigator{w: a.deps.Out},
		DialRemote: a.deps.DialRemote,
	}
	if a.deps.Facade != nil {
		a.deps.Facade(&opts)
	}

	f, err := facade.New(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn(ctx, "data layer close failed", "error", cerr)
		}
	}()

	if _, err := f.WaitReady(ctx); err != nil {
		return err
	}
	return fn(ctx, f)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.deps.Out, format, args...)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.deps.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSecret takes value when set, otherwise prompts.
func (a *App) readSecret(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	pw, err := GetPassword(a.reader, prompt, a.deps.Err)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// readText takes value when set, otherwise prompts.
func (a *App) readText(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return GetSimpleText(a.reader, prompt, a.deps.Err)
}
