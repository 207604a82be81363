package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	ConfigFile string `cli:"name=config desc='yaml configuration file'"`
	Store      string `cli:"name=store desc='index store url (mem://, file://dir, badger://dir, sqlite://file, redis://...)'"`
	Repo       string `cli:"name=repo desc='git repository holding the documents'"`
	Ref        string `cli:"name=ref desc='git reference to follow'"`
	Log        string `cli:"name=log desc='log level: debug, info, warn, error'"`
	Color      bool   `cli:"name=color desc='color output'"`
	Gops       bool   `cli:"name=gops desc='start a gops diagnostics agent'"`

	// File is the configuration file merged with the flags.
	File *Config

	Main *cli.Command
}

// merge loads the configuration file, if any, and applies the flags
// over it.
func (cfg *MainConfig) merge() error {
	file := DefaultConfig()
	if cfg.ConfigFile != "" {
		var err error
		if file, err = LoadConfig(cfg.ConfigFile); err != nil {
			return err
		}
	}
	if cfg.Store != "" {
		file.Store = cfg.Store
	}
	if cfg.Repo != "" {
		file.Repo = cfg.Repo
	}
	if cfg.Ref != "" {
		file.Ref = cfg.Ref
	}
	if cfg.Log != "" {
		file.LogLevel = cfg.Log
	}
	if cfg.Gops {
		file.Gops = true
	}
	cfg.File = file
	return file.Validate()
}

// colors reports whether output to cc.Out is colored: as requested by
// -color, else when writing to a terminal.
func (cfg *MainConfig) colors(cc *cli.Context) bool {
	if cfg.Color {
		return true
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == "color" && opt.Value != nil {
			return false
		}
	}
	f, ok := cc.Out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type IndexConfig struct {
	*MainConfig
	Parallel int `cli:"name=parallel desc='documents indexed at once (default from config)'"`

	Index *cli.Command
}

type ShowConfig struct {
	*MainConfig
	Indent bool `cli:"name=i desc='indent the index document'"`

	Show *cli.Command
}

type AtConfig struct {
	*MainConfig
	Time string `cli:"name=t desc='RFC3339 time instead of a version'"`

	At *cli.Command
}

type DiffConfig struct {
	*MainConfig

	Diff *cli.Command
}

type QueryConfig struct {
	*MainConfig
	Values bool `cli:"name=v desc='print node values'"`

	Query *cli.Command
}

type CheckConfig struct {
	*MainConfig

	Check *cli.Command
}
