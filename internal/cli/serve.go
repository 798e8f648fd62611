// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - JSON API entry point.
package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/jeranaias/chatbook/internal/server"
)

// RunServe serves the JSON API until ctx is cancelled.
func (a *App) RunServe(ctx context.Context, args Args) error {
	addr := args.Addr
	if addr == "" {
		addr = a.Config.Server.Addr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return &UsageError{Message: fmt.Sprintf("invalid --addr %q", addr), Example: "chatbook serve --addr 127.0.0.1:8787"}
	}
	token := a.Config.Server.Token
	if token == "" && !isLoopbackHost(host) {
		return &UsageError{
			Message: "a token is required to listen beyond loopback",
			Example: "CHATBOOK_SERVER_TOKEN=... chatbook serve --addr " + addr,
		}
	}

	store, err := a.OpenStore(ctx)
	if err != nil {
		return NewCommandError("serve", "open store", err)
	}
	defer store.Close()

	srv := server.New(a.NewController(store), store, server.Options{
		Addr:              addr,
		Token:             token,
		AllowedOrigins:    a.Config.Server.AllowedOrigins,
		RequestsPerMinute: a.Config.Server.RequestsPerMinute,
		DefaultLimit:      a.Config.UI.RecentLimit,
		Logger:            a.Logger,
	})

	fmt.Fprintf(a.Err, "Serving on http://%s (ctrl+c to stop)\n", addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		return NewCommandError("serve", "listen", err)
	}
	return nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
