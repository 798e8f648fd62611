// chatbook - persistent terminal chat for OpenAI-compatible models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbook/internal/cli"
	"github.com/jeranaias/chatbook/internal/config"
	"github.com/jeranaias/chatbook/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(rawArgs []string) int {
	args, err := cli.ParseArgs(rawArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		return cli.ExitCode(err)
	}

	switch args.Cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	}

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		return cli.ExitCode(err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Path:       config.ExpandPath(cfg.Log.Path),
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		logger, closeLog = zap.NewNop(), func() error { return nil }
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, logger)
	app.ConfigPath = config.ExpandPath(args.ConfigPath)

	logger.Debug("command started", zap.Stringer("command", args.Cmd))
	if err := dispatch(ctx, app, args); err != nil {
		logger.Error("command failed", zap.Stringer("command", args.Cmd), zap.Error(err))
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

// loadConfig loads the --config file or the default location. "config init"
// starts from defaults since the file it writes may not exist yet.
func loadConfig(args cli.Args) (*config.Config, error) {
	if args.Cmd == cli.CmdConfig && args.Subcommand == "init" {
		cfg := config.Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	if args.ConfigPath != "" {
		return config.LoadFromPath(config.ExpandPath(args.ConfigPath))
	}
	return config.Load()
}

func dispatch(ctx context.Context, app *cli.App, args cli.Args) error {
	switch args.Cmd {
	case cli.CmdList:
		return app.RunList(ctx, args)
	case cli.CmdShow:
		return app.RunShow(ctx, args)
	case cli.CmdAsk:
		return app.RunAsk(ctx, args)
	case cli.CmdConfig:
		return app.RunConfig(args)
	case cli.CmdLogs:
		return app.RunLogs(args)
	case cli.CmdServe:
		return app.RunServe(ctx, args)
	default:
		return app.RunTUI(ctx, args)
	}
}
