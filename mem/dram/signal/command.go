// Package signal defines the values that travel between the memory controller
// and the device: commands, addresses and data bursts.
package signal

import "fmt"

// CommandKind is the opcode of a command.
type CommandKind int

// A list of supported commands.
const (
	CmdKindNOP CommandKind = iota
	CmdKindActivate
	CmdKindWrite
	CmdKindRead
	CmdKindPrecharge
	CmdKindModeSet
	CmdKindZQCalibrate
	CmdKindRefresh
	NumCmdKind
)

var cmdKindNames = [NumCmdKind]string{
	"NOP",
	"ACTIVATE",
	"WRITE",
	"READ",
	"PRECHARGE",
	"MODE_SET",
	"ZQ_CALIBRATE",
	"REFRESH",
}

func (k CommandKind) String() string {
	if k < 0 || k >= NumCmdKind {
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}

	return cmdKindNames[k]
}

// Command is one command issued to the device. A command is created for a
// single protocol step and is never changed after it is issued.
type Command struct {
	ID       string
	Kind     CommandKind
	Location Location

	// Payload carries the register value of a MODE_SET. For a MODE_SET the
	// register index is carried in Location.Bank, as the bank address pins
	// select the mode register on the device.
	Payload uint32

	// AllBanks marks a PRECHARGE or REFRESH that addresses every bank.
	AllBanks bool
}

func (c Command) String() string {
	switch c.Kind {
	case CmdKindActivate:
		return fmt.Sprintf("%s bank=%d row=%d", c.Kind, c.Location.Bank,
			c.Location.Row)
	case CmdKindWrite, CmdKindRead:
		return fmt.Sprintf("%s bank=%d col=%d", c.Kind, c.Location.Bank,
			c.Location.Column)
	case CmdKindPrecharge:
		if c.AllBanks {
			return fmt.Sprintf("%s all", c.Kind)
		}

		return fmt.Sprintf("%s bank=%d", c.Kind, c.Location.Bank)
	case CmdKindModeSet:
		return fmt.Sprintf("%s MR%d=0x%04X", c.Kind, c.Location.Bank,
			c.Payload)
	default:
		return c.Kind.String()
	}
}
