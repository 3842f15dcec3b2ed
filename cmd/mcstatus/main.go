// Command mcstatus queries a Minecraft Java Edition server's status page
// (server list ping) and optionally measures round-trip latency with a
// ping/pong exchange. It is glue over the session package, not core: it
// translates flags into a Handshake+Status round trip and error values
// into exit codes.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"mcstatus/config"
	"mcstatus/session"
)

const (
	exitUsage            = 1
	exitRootNotFound     = 10
	exitConfigUnreadable = 20
	exitCommandFailed    = 30
)

func main() {
	addr := flag.String("addr", "", "host:port of the server to query (defaults to localhost:<server-port from server.properties>)")
	version := flag.Int("version", 498, "protocol version to report in the handshake")
	ping := flag.Bool("ping", false, "also measure round-trip latency with a ping/pong exchange")
	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: mcstatus [-addr host:port] [-version N] [-ping]")
		os.Exit(exitUsage)
	}

	target := *addr
	if target == "" {
		resolved, err := resolveDefaultAddr()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCode(err))
		}
		target = resolved
	}

	if err := run(target, int32(*version), *ping); err != nil {
		fmt.Fprintln(os.Stderr, "mcstatus:", err)
		os.Exit(exitCommandFailed)
	}
}

func resolveDefaultAddr() (string, error) {
	path, ok := config.FindServerProperties()
	if !ok {
		return "", rootNotFoundError{}
	}
	props, err := config.Load(path)
	if err != nil {
		return "", configUnreadableError{err}
	}
	port := "25565"
	if p, ok := props["server-port"]; ok && p != "" {
		port = p
	}
	return net.JoinHostPort("localhost", port), nil
}

type rootNotFoundError struct{}

func (rootNotFoundError) Error() string { return "unable to find server.properties" }

type configUnreadableError struct{ err error }

func (e configUnreadableError) Error() string { return fmt.Sprintf("error reading server.properties: %v", e.err) }

func exitCode(err error) int {
	switch err.(type) {
	case rootNotFoundError:
		return exitRootNotFound
	case configUnreadableError:
		return exitConfigUnreadable
	default:
		return exitCommandFailed
	}
}

func run(addr string, version int32, doPing bool) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	status, err := session.New(conn).Request(ctx, host, uint16(port), version)
	if err != nil {
		return err
	}
	if err := status.Request(ctx); err != nil {
		return err
	}
	data, err := status.ReadResponse(ctx)
	if err != nil {
		return err
	}
	fmt.Println(data)

	if doPing {
		token := uint64(time.Now().UnixNano())
		start := time.Now()
		if err := status.Ping(ctx, token); err != nil {
			return err
		}
		got, err := status.ReadPong(ctx)
		if err != nil {
			return err
		}
		if got != token {
			return fmt.Errorf("pong token mismatch: got %x, want %x", got, token)
		}
		fmt.Printf("latency: %s\n", time.Since(start))
	}
	return nil
}
