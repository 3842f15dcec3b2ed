// Command mcadmin sends one admin command to a running server over the
// separate admin/command TCP protocol, the same shape as the original
// rcon CLI: read server.properties for the port and password, connect,
// authenticate, send the command, print the response.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"mcstatus/admin"
	"mcstatus/config"
)

const (
	exitUsage            = 1
	exitRootNotFound     = 10
	exitConfigUnreadable = 20
	exitCommandFailed    = 30
)

func main() {
	cmd := flag.String("cmd", "", "admin command to send")
	addr := flag.String("addr", "", "host:port of the admin listener (defaults to localhost:<admin-port from server.properties>)")
	flag.Parse()

	if *cmd == "" || flag.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: mcadmin -cmd \"...\" [-addr host:port]")
		os.Exit(exitUsage)
	}

	path, ok := config.FindServerProperties()
	if !ok {
		fmt.Fprintln(os.Stderr, "unable to find server.properties")
		os.Exit(exitRootNotFound)
	}
	props, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading server.properties:", err)
		os.Exit(exitConfigUnreadable)
	}

	target := *addr
	if target == "" {
		port := props["admin-port"]
		if port == "" {
			port = "25575"
		}
		target = net.JoinHostPort("localhost", port)
	}
	password := props["admin-password"]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := admin.NewClient().Run(ctx, target, password, *cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error running command:", err)
		os.Exit(exitCommandFailed)
	}
	fmt.Println(resp)
}
