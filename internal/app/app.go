// Package app assembles the combat engine and its collaborators from
// configuration. The combatd and attack binaries share it.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/config"
	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
	"github.com/cory-johannsen/rqgcombat/internal/observability"
	"github.com/cory-johannsen/rqgcombat/internal/scripting"
	"github.com/cory-johannsen/rqgcombat/internal/storage/memory"
	"github.com/cory-johannsen/rqgcombat/internal/storage/postgres"
)

// App holds a ready engine plus what is needed to present its output.
type App struct {
	Engine  *combat.Engine
	Printer *notice.Printer
	Locale  string
	// Pool is nil for the memory driver.
	Pool *postgres.Pool

	logger  *zap.Logger
	closers []func()
}

type options struct {
	src  dice.Source
	sink notice.Sink
}

// Option customises Build.
type Option func(*options)

// WithSource replaces the crypto dice source.
func WithSource(src dice.Source) Option {
	return func(o *options) { o.src = src }
}

// WithSink adds a notice sink alongside the logging sink.
func WithSink(s notice.Sink) Option {
	return func(o *options) { o.sink = s }
}

// Build wires an engine from cfg.
//
// Precondition: cfg.Validate() == nil; logger must be non-nil.
// Postcondition: on success the caller must Close the App.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	o := options{src: dice.NewCryptoSource()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Locale: cfg.Content.Locale, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	start := time.Now()
	maneuvers, err := inventory.LoadManeuverTable(cfg.Content.ManeuversFile)
	if err != nil {
		return nil, err
	}
	var fumbles *combat.FumbleTable
	if cfg.Content.FumbleTable != "" {
		if fumbles, err = combat.LoadFumbleTable(cfg.Content.FumbleTable); err != nil {
			return nil, err
		}
	}
	logger.Info("content loaded",
		zap.Int("maneuvers", len(maneuvers)),
		zap.Bool("fumble_table", fumbles != nil),
		zap.Duration("elapsed", time.Since(start)),
	)

	store, instances, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var bands ability.Bands
	if cfg.Rules.Script != "" {
		rs, err := scripting.LoadRuleScript(cfg.Rules.Script, cfg.Rules.Table, cfg.Rules.InstructionLimit, logger.Named("rules"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		bands = rs
		logger.Info("rule script loaded", zap.String("path", cfg.Rules.Script), zap.Strings("hooks", rs.Hooks()))
	}

	a.Printer, err = notice.NewPrinter()
	if err != nil {
		return nil, fmt.Errorf("loading notice catalogs: %w", err)
	}

	var sink notice.Sink = observability.NewNoticeLogger(logger)
	if o.sink != nil {
		sink = observability.Fanout{sink, o.sink}
	}

	fumbleName := ""
	if fumbles != nil {
		fumbleName = fumbles.Name
	} else if cfg.Content.FumbleTable != "" {
		fumbleName = cfg.Content.FumbleTable
	}

	a.Engine = combat.NewEngine(combat.Config{
		Store:           store,
		Roller:          dice.NewLoggedRoller(o.src, logger),
		Instances:       instances,
		Checker:         ability.NewChecker(cfg.Rules.Table, bands),
		Maneuvers:       maneuvers,
		Fumbles:         fumbles,
		FumbleTableName: fumbleName,
		Sink:            sink,
		Logger:          logger,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config) (combat.Store, combat.InstanceStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.Pool = pool
		a.closers = append(a.closers, pool.Close)
		return postgres.NewActorRepository(pool.DB()), postgres.NewAttackRepository(pool.DB()), nil
	default:
		reg, err := inventory.LoadRegistry(cfg.Content.ActorsDir)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("actors loaded", zap.Int("count", len(reg.AllActors())))
		return memory.FromRegistry(reg), combat.NewMemoryInstances(), nil
	}
}

// Close releases the database pool and Lua state, in reverse order of
// acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
