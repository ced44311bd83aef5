package bench

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zazins/rusefi/host/serial"
)

func newTestClient(reply string) (*Client, *serial.MockPort) {
	port := &serial.MockPort{ReadData: []byte(reply)}
	c := NewClient()
	c.ConnectPort(port)
	return c, port
}

func TestCommandCollectsLinesUntilOk(t *testing.T) {
	c, port := newTestClient("mode=self rpm=1200\nok\n")

	reply, err := c.Command("emulator_status")
	require.NoError(t, err)
	assert.Equal(t, []string{"mode=self rpm=1200"}, reply)
	assert.Equal(t, "emulator_status\n", string(port.WrittenData))
}

func TestCommandBareOk(t *testing.T) {
	c, _ := newTestClient("ok\n")

	reply, err := c.Command("stopstim")
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestCommandErrorReply(t *testing.T) {
	c, _ := newTestClient("error: rpm must be non-negative\n")

	_, err := c.Command("emulator_rpm -5")
	require.Error(t, err)
	assert.Equal(t, "rpm must be non-negative", err.Error())
}

func TestCommandStreamEndsBeforeAck(t *testing.T) {
	c, _ := newTestClient("partial line\n")

	reply, err := c.Command("emulator_status")
	assert.Error(t, err)
	assert.Equal(t, []string{"partial line"}, reply)
}

func TestCommandNotConnected(t *testing.T) {
	c := NewClient()
	_, err := c.Command("selfstim")
	assert.ErrorContains(t, err, "not connected")
}

func TestCommandWriteFailure(t *testing.T) {
	c, port := newTestClient("")
	port.WriteError = errors.New("port gone")

	_, err := c.Command("selfstim")
	assert.ErrorContains(t, err, "write failed")
}

func TestSetRPMSendsCommand(t *testing.T) {
	c, port := newTestClient("ok\n")

	require.NoError(t, c.SetRPM(4500))
	assert.Equal(t, "emulator_rpm 4500\n", string(port.WrittenData))
}

func TestModeCommands(t *testing.T) {
	cases := []struct {
		name string
		call func(*Client) error
		want string
	}{
		{"selfstim", (*Client).EnableSelfStimulation, "selfstim\n"},
		{"extstim", (*Client).EnableExternalStimulation, "extstim\n"},
		{"stopstim", (*Client).DisableStimulation, "stopstim\n"},
	}
	for _, tc := range cases {
		c, port := newTestClient("ok\n")
		require.NoError(t, tc.call(c), tc.name)
		assert.Equal(t, tc.want, string(port.WrittenData), tc.name)
	}
}

func TestStatus(t *testing.T) {
	c, _ := newTestClient("mode=external rpm=3000 phases=4 pins=true\nok\n")

	status, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, "mode=external rpm=3000 phases=4 pins=true", status)
}

func TestStatusEmptyReply(t *testing.T) {
	c, _ := newTestClient("ok\n")

	_, err := c.Status()
	assert.ErrorContains(t, err, "empty status reply")
}

func TestCloseClosesPort(t *testing.T) {
	c, port := newTestClient("")
	require.NoError(t, c.Close())
	assert.True(t, port.Closed)
}
