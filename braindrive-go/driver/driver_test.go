package driver

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/braindrive/braindrive/braindrive-go/stream"
)

func TestCommandMap_Resolve(t *testing.T) {
	m := CommandMap{"left_hand": Left, "right_hand": Right, "rest": Straight}

	cmd, err := m.Resolve("left_hand")
	require.NoError(t, err)
	assert.Equal(t, Left, cmd)

	_, err = m.Resolve("feet")
	require.Error(t, err)
}

func TestParseCommandMap(t *testing.T) {
	commands, err := ParseCommandMap(map[string]string{
		"left_hand":  "left",
		"right_hand": "right",
		"rest":       "straight",
		"feet":       "headlight",
	})
	require.NoError(t, err)
	assert.Equal(t, CommandMap{
		"left_hand":  Left,
		"right_hand": Right,
		"rest":       Straight,
		"feet":       Headlight,
	}, commands)

	_, err = ParseCommandMap(map[string]string{"left_hand": "reverse"})
	require.Error(t, err)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "straight", Straight.String())
	assert.Equal(t, "headlight", Headlight.String())
	assert.Equal(t, "unknown", Command(7).String())
}

func TestGameControl_SendsPlayerEncodedCommands(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	commands := CommandMap{"left_hand": Left, "right_hand": Right, "rest": Straight}
	control, err := NewGameControl(listener.LocalAddr().String(), 3, commands)
	require.NoError(t, err)
	defer control.Close()
	control.Log = zap.NewNop()

	// straight is silent, so the first datagram on the wire must be
	// the left command
	require.NoError(t, control.Emit(stream.PredictionEvent{Label: "rest"}))
	require.NoError(t, control.Emit(stream.PredictionEvent{Label: "left_hand"}))
	require.NoError(t, control.Emit(stream.PredictionEvent{Label: "right_hand"}))

	buf := make([]byte, 16)
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))

	n, _, err := listener.ReadFrom(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(31), buf[0])

	n, _, err = listener.ReadFrom(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(33), buf[0])
}

func TestGameControl_UnmappedLabel(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	control, err := NewGameControl(listener.LocalAddr().String(), 1, CommandMap{})
	require.NoError(t, err)
	defer control.Close()

	require.Error(t, control.Emit(stream.PredictionEvent{Label: "left_hand"}))
}

func TestNewGameControl_RejectsMultiDigitPlayer(t *testing.T) {
	_, err := NewGameControl("127.0.0.1:9999", 12, CommandMap{})
	require.Error(t, err)
}
