// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive
// commands of chatbook.
//
// # Key Types
//
//   - Args: Parsed command-line arguments
//   - ArgParser: Flag and positional argument parsing
//   - App: Shared dependencies (config, logger, output) for commands
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
//	args, err := cli.ParseArgs(os.Args[1:])
//	switch args.Cmd {
//	case cli.CmdList:
//	    err = app.RunList(ctx, args)
//	case cli.CmdAsk:
//	    err = app.RunAsk(ctx, args)
//	}
//	os.Exit(cli.ExitCode(err))
//
// # Commands
//
//   - list: Recent conversations
//   - show: One transcript
//   - ask: One turn through the session protocol
//   - config: init / show
//   - logs: Recent log entries
//   - serve: JSON API over the same session controller
package cli
