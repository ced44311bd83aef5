// Bench client: drives a remote trigger emulator over its serial
// console.
package bench

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Zazins/rusefi/host/serial"
)

// Client represents a connection to an emulator console
type Client struct {
	port      serial.Port
	reader    *bufio.Reader
	connected bool
}

// NewClient creates a client instance (not yet connected)
func NewClient() *Client {
	return &Client{}
}

// Connect connects to an emulator via serial port
func (c *Client) Connect(device string) error {
	return c.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects with a custom serial config
func (c *Client) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	c.ConnectPort(port)
	return nil
}

// ConnectPort attaches the client to an already open port. Used by tests
// and by transports other than native serial.
func (c *Client) ConnectPort(port serial.Port) {
	c.port = port
	c.reader = bufio.NewReader(port)
	c.connected = true
}

// Close closes the connection
func (c *Client) Close() error {
	c.connected = false
	if c.port != nil {
		return c.port.Close()
	}
	return nil
}

// Command sends one console line and collects the reply: every line up
// to the terminating "ok" (returned) or "error: ..." (returned as error).
func (c *Client) Command(line string) ([]string, error) {
	if !c.connected {
		return nil, errors.New("not connected")
	}

	if _, err := c.port.Write([]byte(line + "\n")); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}

	var reply []string
	for {
		raw, err := c.reader.ReadString('\n')
		if err != nil {
			return reply, fmt.Errorf("read failed: %w", err)
		}
		resp := strings.TrimSpace(raw)
		switch {
		case resp == "ok":
			return reply, nil
		case strings.HasPrefix(resp, "error:"):
			return reply, errors.New(strings.TrimSpace(strings.TrimPrefix(resp, "error:")))
		default:
			reply = append(reply, resp)
		}
	}
}

// SetRPM sets the emulated target speed
func (c *Client) SetRPM(rpm int) error {
	_, err := c.Command("emulator_rpm " + strconv.Itoa(rpm))
	return err
}

// EnableSelfStimulation switches the remote emulator to self-stimulation
func (c *Client) EnableSelfStimulation() error {
	_, err := c.Command("selfstim")
	return err
}

// EnableExternalStimulation switches the remote emulator to driving its
// output pins
func (c *Client) EnableExternalStimulation() error {
	_, err := c.Command("extstim")
	return err
}

// DisableStimulation stops the remote emulator
func (c *Client) DisableStimulation() error {
	_, err := c.Command("stopstim")
	return err
}

// Status returns the remote emulator's status line
func (c *Client) Status() (string, error) {
	reply, err := c.Command("emulator_status")
	if err != nil {
		return "", err
	}
	if len(reply) == 0 {
		return "", errors.New("empty status reply")
	}
	return reply[0], nil
}
