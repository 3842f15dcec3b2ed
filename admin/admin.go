// Package admin is the thin external collaborator for the separate
// admin/command TCP protocol spec.md places out of THE CORE: the CLI
// needs only enough of it to send one password, one command, and read
// one response line. It intentionally does not reproduce any particular
// real-world admin protocol byte-for-byte — spec.md defines only the
// interface the CLI requires.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
)

// Client is a minimal plaintext admin-protocol client: connect, send the
// password line, expect "OK", send the command line, read the response
// line.
type Client struct {
	dialer net.Dialer
}

// NewClient returns a Client using the default net.Dialer.
func NewClient() *Client {
	return &Client{}
}

// Run connects to addr, authenticates with password, sends command, and
// returns the server's single-line response.
func (c *Client) Run(ctx context.Context, addr, password, command string) (string, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("admin: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	if _, err := fmt.Fprintf(rw, "%s\n", password); err != nil {
		return "", fmt.Errorf("admin: send password: %w", err)
	}
	if err := rw.Flush(); err != nil {
		return "", fmt.Errorf("admin: flush password: %w", err)
	}
	authLine, err := readLine(rw.Reader)
	if err != nil {
		return "", fmt.Errorf("admin: read auth response: %w", err)
	}
	if authLine != "OK" {
		return "", fmt.Errorf("admin: authentication failed: %s", authLine)
	}

	if _, err := fmt.Fprintf(rw, "%s\n", command); err != nil {
		return "", fmt.Errorf("admin: send command: %w", err)
	}
	if err := rw.Flush(); err != nil {
		return "", fmt.Errorf("admin: flush command: %w", err)
	}
	resp, err := readLine(rw.Reader)
	if err != nil {
		return "", fmt.Errorf("admin: read command response: %w", err)
	}
	return resp, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
