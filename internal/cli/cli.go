// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for chatbook.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdList
	CmdShow
	CmdAsk
	CmdConfig
	CmdLogs
	CmdServe
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdList:
		return "list"
	case CmdShow:
		return "show"
	case CmdAsk:
		return "ask"
	case CmdConfig:
		return "config"
	case CmdLogs:
		return "logs"
	case CmdServe:
		return "serve"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	Cmd Command

	// Global flags
	ConfigPath string // --config: explicit config file

	// Command-specific
	ChatID     string // --chat (tui, ask) or positional (show)
	Model      string // --model / -m
	Prompt     string // ask
	Limit      int    // --limit (list, logs)
	Level      string // --level (logs)
	JSON       bool   // --json (list, show, logs)
	Force      bool   // --force (config init)
	Subcommand string // config init|show
	Addr       string // --addr (serve)
}

const usageText = `chatbook - persistent chat for OpenAI-compatible models

Usage:
  chatbook [--chat ID] [--model M]          Start the chat TUI
  chatbook list [--limit N] [--json]        List saved conversations
  chatbook show ID [--json]                 Print a saved conversation
  chatbook ask [--chat ID] [--model M] PROMPT
                                            Send one prompt and print the reply
  chatbook config init [--force]            Write a default config file
  chatbook config show                      Print the effective config
  chatbook logs [--level L] [--limit N] [--json]
                                            Show recent log entries
  chatbook serve [--addr HOST:PORT]         Serve the JSON API
  chatbook version                          Show version
  chatbook help                             Show this help

Global flags:
  --config PATH    Use a specific config file

Environment:
  CHATBOOK_API_KEY   API key (falls back to OPENAI_API_KEY)
  CHATBOOK_BASE_URL  Completion endpoint root
  CHATBOOK_MODEL     Default chat model
  CHATBOOK_DB        Conversation database path
  CHATBOOK_LOG_LEVEL Log level (debug, info, warn, error)
  CHATBOOK_SERVER_TOKEN
                     Bearer token required by "serve"

TUI keys:
  enter    send          tab      next model      ctrl+r  retry
  ctrl+n   new chat      ctrl+o   conversations   ctrl+y  copy reply
  esc      quit
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "chatbook %s\n", Version)
	fmt.Fprintf(w, "  commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

var boolFlagNames = []string{"json", "force", "help", "h", "version"}

// ParseArgs parses command-line arguments (without the program name).
// Usage mistakes are returned as *UsageError.
func ParseArgs(raw []string) (Args, error) {
	p := NewArgParser(raw, boolFlagNames...)
	args := Args{
		ConfigPath: p.Flag("config"),
		ChatID:     p.Flag("chat", "c"),
		Model:      p.Flag("model", "m"),
		Level:      p.Flag("level"),
		Addr:       p.Flag("addr"),
		JSON:       p.BoolFlag("json"),
		Force:      p.BoolFlag("force"),
	}

	if p.BoolFlag("help", "h") {
		args.Cmd = CmdHelp
		return args, nil
	}
	if p.BoolFlag("version") {
		args.Cmd = CmdVersion
		return args, nil
	}

	if p.HasFlag("limit") {
		limit, err := ParseIntWithValidation(p.Flag("limit"), "--limit")
		if err != nil {
			return args, &UsageError{Message: err.Error()}
		}
		args.Limit = limit
	}

	switch strings.ToLower(p.Subcommand()) {
	case "":
		args.Cmd = CmdTUI
	case "list", "ls":
		args.Cmd = CmdList
	case "show":
		args.Cmd = CmdShow
		args.ChatID = p.Positional(1)
		if args.ChatID == "" {
			return args, &UsageError{Message: "show requires a conversation ID", Example: "chatbook show 01928f3e-..."}
		}
	case "ask":
		args.Cmd = CmdAsk
		args.Prompt = JoinPositionalArgs(p, 1)
		if strings.TrimSpace(args.Prompt) == "" {
			return args, &UsageError{Message: "ask requires a prompt", Example: `chatbook ask "What is a goroutine?"`}
		}
	case "config":
		args.Cmd = CmdConfig
		args.Subcommand = strings.ToLower(p.Positional(1))
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
		if args.Subcommand != "init" && args.Subcommand != "show" {
			return args, &UsageError{Message: fmt.Sprintf("unknown config subcommand %q", args.Subcommand), Example: "chatbook config init"}
		}
	case "logs", "log":
		args.Cmd = CmdLogs
	case "serve", "server":
		args.Cmd = CmdServe
	case "version":
		args.Cmd = CmdVersion
	case "help":
		args.Cmd = CmdHelp
	default:
		return args, &UsageError{Message: fmt.Sprintf("unknown command %q", p.Subcommand()), Example: "chatbook help"}
	}

	return args, nil
}
