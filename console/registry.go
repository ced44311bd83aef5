// Text command console for bench control.
// Subsystems register named actions; the console dispatches lines read
// from a serial port or any other stream.
package console

import (
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/google/shlex"
)

// Handler processes one dispatched command. args holds the tokens after
// the command name.
type Handler func(args []string) error

// Command is a registered console action
type Command struct {
	Name    string
	Help    string
	Handler Handler
}

// ErrUnknownCommand is returned by Dispatch for unregistered names
var ErrUnknownCommand = errors.New("unknown command")

// Registry holds registered commands and the output stream replies are
// written to.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	names    []string // registration order, for help listings
	out      io.Writer
}

// NewRegistry creates an empty registry writing to io.Discard
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		out:      io.Discard,
	}
}

// SetOutput redirects command replies
func (r *Registry) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	r.out = w
}

// Println writes one reply line to the console output
func (r *Registry) Println(s string) {
	r.mu.RLock()
	out := r.out
	r.mu.RUnlock()
	_, _ = out.Write([]byte(s + "\n"))
}

// Register adds a command. Registering an existing name replaces its
// handler.
func (r *Registry) Register(name, help string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; !exists {
		r.names = append(r.names, name)
	}
	r.commands[name] = &Command{Name: name, Help: help, Handler: handler}
}

// RegisterInt adds a command taking exactly one integer argument
func (r *Registry) RegisterInt(name, help string, handler func(value int) error) {
	r.Register(name, help, func(args []string) error {
		if len(args) != 1 {
			return errors.New(name + " takes one integer argument")
		}
		value, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New(name + ": bad integer " + strconv.Quote(args[0]))
		}
		return handler(value)
	})
}

// Commands returns the registered commands in registration order
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Command, 0, len(r.names))
	for _, name := range r.names {
		list = append(list, r.commands[name])
	}
	return list
}

// CRLFWriter rewrites "\n" to "\r\n" so console replies line up on
// serial terminals. Wrap the raw port and hand the wrapper to SetOutput.
type CRLFWriter struct {
	W io.Writer
}

func (w CRLFWriter) Write(p []byte) (int, error) {
	start := 0
	for i, b := range p {
		if b != '\n' {
			continue
		}
		if _, err := w.W.Write(p[start:i]); err != nil {
			return start, err
		}
		if _, err := w.W.Write([]byte{'\r', '\n'}); err != nil {
			return start, err
		}
		start = i + 1
	}
	if _, err := w.W.Write(p[start:]); err != nil {
		return start, err
	}
	return len(p), nil
}

// Dispatch tokenizes one input line and runs the matching handler.
// Empty lines are ignored.
func (r *Registry) Dispatch(line string) error {
	fields, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	r.mu.RLock()
	cmd, ok := r.commands[fields[0]]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownCommand
	}
	return cmd.Handler(fields[1:])
}
