package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Console runs a line-oriented command loop over a stream, typically a
// serial port. Every dispatched line is answered with "ok" or an error
// line, so a bench host can match requests to replies.
type Console struct {
	reg *Registry
	rw  io.ReadWriter
}

// New wires a registry to a stream. The registry's reply output is
// pointed at the same stream.
func New(reg *Registry, rw io.ReadWriter) *Console {
	reg.SetOutput(rw)
	return &Console{reg: reg, rw: rw}
}

// Run reads and dispatches lines until the stream ends or the context is
// canceled. Cancellation is observed between lines.
func (c *Console) Run(ctx context.Context) error {
	c.reg.Register("help", "list available commands", func(args []string) error {
		for _, cmd := range c.reg.Commands() {
			c.reg.Println(cmd.Name + " - " + cmd.Help)
		}
		return nil
	})

	scanner := bufio.NewScanner(c.rw)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := c.reg.Dispatch(line); err != nil {
			fmt.Fprintf(c.rw, "error: %v\n", err)
		} else {
			fmt.Fprintln(c.rw, "ok")
		}
	}
	return scanner.Err()
}
