package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Reposoft/repos-deltav-sub000/indexer"
	"github.com/Reposoft/repos-deltav-sub000/source/gitsource"
	"github.com/Reposoft/repos-deltav-sub000/store"
	"github.com/Reposoft/repos-deltav-sub000/vfile"
	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
)

var errStoreURL = errors.New("invalid store url")

func deltavMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	if err := cfg.merge(); err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// env holds what a command runs against.
type env struct {
	ctx    context.Context
	cfg    *Config
	log    *slog.Logger
	store  store.Store
	colors bool

	closers []func()
}

func (cfg *MainConfig) open(cc *cli.Context) (*env, error) {
	level, err := cfg.File.Level()
	if err != nil {
		return nil, err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	e := &env{
		ctx:     ctx,
		cfg:     cfg.File,
		log:     newLog(os.Stderr, level),
		colors:  cfg.colors(cc),
		closers: []func(){stop},
	}
	if cfg.File.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			e.log.Warn("gops agent failed", "error", err)
		} else {
			e.closers = append(e.closers, agent.Close)
		}
	}
	e.store, err = openStore(ctx, cfg.File.Store, e.log)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("open store %s: %w", cfg.File.Store, err)
	}
	e.closers = append(e.closers, func() {
		if err := e.store.Close(); err != nil {
			e.log.Warn("closing store", "error", err)
		}
	})
	return e, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func (e *env) indexOptions() []vfile.Option {
	return e.cfg.IndexOptions(e.log)
}

func (e *env) indexer() (*indexer.Indexer, error) {
	src, err := gitsource.Open(e.cfg.Repo, e.cfg.Ref, e.log)
	if err != nil {
		return nil, err
	}
	return indexer.New(indexer.Config{
		Store:   e.store,
		Source:  src,
		Log:     e.log,
		Options: e.indexOptions(),
	})
}

// load reads the stored index of key without touching the repository.
func (e *env) load(key string) (*vfile.Index, error) {
	data, err := e.store.Get(e.ctx, key)
	if err != nil {
		return nil, err
	}
	return vfile.Parse(data, e.indexOptions()...)
}
