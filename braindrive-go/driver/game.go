package driver

import (
	"net"

	"go.uber.org/zap"

	"github.com/braindrive/braindrive/braindrive-go/stream"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
	"github.com/braindrive/braindrive/braindrive-golib/logging"
)

// GameControl sends steering commands to the driving game over UDP.
// Each datagram is a single byte, player*10+command, so one socket can
// serve several players. Straight is the neutral action and sends
// nothing at all.
type GameControl struct {
	conn     net.Conn
	player   int
	commands CommandMap

	Log *zap.Logger
}

// NewGameControl dials the game's UDP endpoint for the given player.
func NewGameControl(addr string, player int, commands CommandMap) (*GameControl, error) {
	if player < 0 || player > 9 {
		return nil, errors.Errorf("player must be a single digit, got %d", player)
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing game at %s", addr)
	}
	return &GameControl{conn: conn, player: player, commands: commands, Log: logging.Logger}, nil
}

func (g *GameControl) Close() error {
	return errors.WithStack(g.conn.Close())
}

// Emit resolves the predicted label and fires the command datagram.
func (g *GameControl) Emit(event stream.PredictionEvent) error {
	cmd, err := g.commands.Resolve(event.Label)
	if err != nil {
		return err
	}
	if cmd == Straight {
		return nil
	}
	g.Log.Debug("sending command",
		zap.Int("player", g.player),
		zap.Stringer("command", cmd),
		zap.Int("index", event.Index))
	_, err = g.conn.Write([]byte{byte(g.player)*10 + byte(cmd)})
	return errors.WrapfOrNil(err, "sending %s for player %d", cmd, g.player)
}
