package session

import (
	"fmt"
	"math"
	"time"

	"github.com/procmix/tanksim/internal/dynamo"
)

// CommandType names an operator command.
type CommandType string

const (
	CmdSetSetpoint CommandType = "setpoint"
	CmdPause       CommandType = "pause"
	CmdResume      CommandType = "resume"
	CmdReset       CommandType = "reset"
)

// Command is one operator request queued for the session loop. Tank,
// Variable and Value are only meaningful for CmdSetSetpoint.
type Command struct {
	Type     CommandType     `json:"type"`
	Tank     dynamo.Tank     `json:"tank,omitempty"`
	Variable dynamo.Variable `json:"variable,omitempty"`
	Value    float64         `json:"value,omitempty"`
}

// Setpoint is an operator-issued target for one tank variable. One
// setpoint is active per (tank, variable) pair; a newer one replaces it.
type Setpoint struct {
	Tank     dynamo.Tank     `json:"tank"`
	Variable dynamo.Variable `json:"variable"`
	Value    float64         `json:"value"`
	Issued   time.Time       `json:"issued"`
}

type setpointKey struct {
	tank     dynamo.Tank
	variable dynamo.Variable
}

// validate rejects malformed or out-of-range commands before they reach
// the queue; session state is never affected by a rejected command.
func (c Command) validate(s *Session) error {
	switch c.Type {
	case CmdPause, CmdResume, CmdReset:
		return nil
	case CmdSetSetpoint:
	default:
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownCommand, c.Type)
	}

	if !c.Tank.Valid() {
		return fmt.Errorf("%w: unknown tank %q", dynamo.ErrValidation, c.Tank)
	}
	if !c.Variable.Valid() {
		return fmt.Errorf("%w: unknown variable %q", dynamo.ErrValidation, c.Variable)
	}
	if c.Variable == dynamo.VarConcentration && !c.Tank.IsProcess() {
		return fmt.Errorf("%w: tank %s has no concentration", dynamo.ErrValidation, c.Tank)
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("%w: setpoint value not finite", dynamo.ErrValidation)
	}

	switch c.Variable {
	case dynamo.VarLevel:
		if max := s.params.MaxLevel(c.Tank); c.Value < 0 || c.Value > max {
			return fmt.Errorf("%w: level setpoint %.3f outside [0, %.3f]",
				dynamo.ErrValidation, c.Value, max)
		}
	case dynamo.VarConcentration:
		if c.Value < 0 || c.Value > s.params.BrineConcentration {
			return fmt.Errorf("%w: concentration setpoint %.1f outside [0, %.1f]",
				dynamo.ErrValidation, c.Value, s.params.BrineConcentration)
		}
	}
	return nil
}
