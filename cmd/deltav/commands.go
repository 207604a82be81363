package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "deltav").
		WithSynopsis("deltav [opts] command [opts]").
		WithDescription("deltav maintains temporal indexes of xml documents kept in git.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return deltavMain(cfg, cc, args)
		}).
		WithSubs(
			IndexCommand(cfg),
			ShowCommand(cfg),
			AtCommand(cfg),
			DiffCommand(cfg),
			QueryCommand(cfg),
			CheckCommand(cfg))
}

func IndexCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &IndexConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Index, "index").
		WithAliases("i", "sync").
		WithSynopsis("index [-parallel n] files...").
		WithDescription("bring the indexes of files up to the latest revision").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return index(cfg, cc, args)
		})
}

func ShowCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ShowConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Show, "show").
		WithAliases("s").
		WithSynopsis("show [-i] file").
		WithDescription("print the stored index of a file").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return show(cfg, cc, args)
		})
}

func AtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &AtConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.At, "at").
		WithSynopsis("at file version | at -t time file").
		WithDescription("reconstruct a file as of a version or time from its index").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return at(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff file from to").
		WithDescription("show the changes to a file between two indexed versions").
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}

func QueryCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueryConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Query, "query").
		WithAliases("q").
		WithSynopsis("query [-v] file expr").
		WithDescription(queryDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return queryIndex(cfg, cc, args)
		})
}

const queryDescription = `list the index nodes of a file matching an expression.

The expression sees one node at a time:

  kind     element, attribute, text, comment or processing-instruction
  name     tag, attribute name or pi target
  value    attribute, text, comment or pi data
  path     display path, counting live and dead siblings
  start    first version
  end      version the node was closed, -1 while live
  tstart   time of start
  tend     time of end, zero while live
  live     whether the node is in the latest version
  reorder  last version the node was moved, 0 if never
  At(v)    whether the node exists at version v
  AtTime(t)

Example: kind == "element" && name == "item" && !live`

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithSynopsis("check files...").
		WithDescription("verify stored indexes against the files at their versions").
		WithRun(func(cc *cli.Context, args []string) error {
			return check(cfg, cc, args)
		})
}
