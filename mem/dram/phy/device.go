package phy

import (
	"fmt"
	"math"

	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/timing"
)

// HookPosViolation marks a command that broke a timing or ordering rule. The
// item is a Violation.
var HookPosViolation = &hooking.HookPos{Name: "Violation"}

// Checks are the minimum command spacings the device enforces, in controller
// cycles.
type Checks struct {
	TRCD int
	TRP  int
	TRAS int
	TWR  int
	TMRD int
	TMOD int
	TRFC int
	CL   int
}

// A Violation is a command the device would not have accepted.
type Violation struct {
	Cycle   uint64
	Command signal.Command
	Reason  string
}

func (v Violation) String() string {
	return fmt.Sprintf("cycle %d: %s: %s", v.Cycle, v.Command, v.Reason)
}

type bankState struct {
	open           bool
	row            uint32
	activatedAt    uint64
	everPrecharged bool
	prechargedAt   uint64
	written        bool
	writeDoneAt    uint64
}

type cellBlock struct {
	data       signal.Burst
	restoredAt uint64
}

type pendingRead struct {
	active  bool
	readyAt uint64
	data    signal.Burst
}

// Device is a behavioral DRAM device. Every cell leaks its charge after a
// retention time drawn from a seeded log-uniform distribution. Cells on even
// rows are true cells that store 1 as charge; cells on odd rows are anti
// cells that store 0 as charge. A leaked cell reads as its discharged value.
// ACTIVATE, WRITE and REFRESH restore full charge.
type Device struct {
	*hooking.HookableBase

	name         string
	checks       Checks
	freq         timing.FreqInHz
	minRetention float64
	maxRetention float64
	seed         uint64
	unresponsive bool

	reset         bool
	cke           bool
	initialized   bool
	modeRegisters [signal.NumBank]uint32
	mrsSinceReset bool
	lastMRS       uint64
	refreshed     bool
	lastRefresh   uint64
	banks         [signal.NumBank]bankState
	cells         map[uint32]*cellBlock
	read          pendingRead
	writeTarget   uint32

	numCommands [signal.NumCmdKind]int
	violations  []Violation
}

// Name returns the name of the device.
func (d *Device) Name() string {
	return d.name
}

// SetReset drives the reset pin. Asserting reset clears the mode registers
// and closes every bank. Stored data keeps leaking.
func (d *Device) SetReset(asserted bool, _ uint64) {
	d.reset = asserted
	if !asserted {
		return
	}

	d.initialized = false
	d.mrsSinceReset = false
	d.refreshed = false
	d.modeRegisters = [signal.NumBank]uint32{}
	d.banks = [signal.NumBank]bankState{}
	d.read = pendingRead{}
}

// SetClockEnable drives the clock-enable pin.
func (d *Device) SetClockEnable(high bool, _ uint64) {
	d.cke = high
}

// Issue accepts one command.
func (d *Device) Issue(cmd signal.Command, now uint64) {
	d.numCommands[cmd.Kind]++

	if cmd.Kind == signal.CmdKindNOP {
		return
	}

	if d.reset {
		d.violate(cmd, now, "command while reset is asserted")
	}

	if !d.cke {
		d.violate(cmd, now, "command while clock enable is low")
	}

	if d.refreshed && now-d.lastRefresh < uint64(d.checks.TRFC) {
		d.violate(cmd, now, "command within tRFC of REFRESH")
	}

	if cmd.Kind != signal.CmdKindModeSet && d.mrsSinceReset &&
		now-d.lastMRS < uint64(d.checks.TMOD) {
		d.violate(cmd, now, "command within tMOD of MODE_SET")
	}

	switch cmd.Kind {
	case signal.CmdKindModeSet:
		d.modeSet(cmd, now)
	case signal.CmdKindZQCalibrate:
		d.zqCalibrate(cmd, now)
	case signal.CmdKindActivate:
		d.activate(cmd, now)
	case signal.CmdKindWrite, signal.CmdKindRead:
		d.access(cmd, now)
	case signal.CmdKindPrecharge:
		d.precharge(cmd, now)
	case signal.CmdKindRefresh:
		d.refresh(cmd, now)
	default:
		panic(fmt.Sprintf("unknown command kind %s", cmd.Kind))
	}
}

func (d *Device) modeSet(cmd signal.Command, now uint64) {
	if d.anyBankOpen() {
		d.violate(cmd, now, "MODE_SET with a bank open")
	}

	if d.mrsSinceReset && now-d.lastMRS < uint64(d.checks.TMRD) {
		d.violate(cmd, now, "MODE_SET within tMRD of MODE_SET")
	}

	if cmd.Location.Bank >= signal.NumBank {
		d.violate(cmd, now, "no such mode register")
		return
	}

	d.modeRegisters[cmd.Location.Bank] = cmd.Payload
	d.mrsSinceReset = true
	d.lastMRS = now
}

func (d *Device) zqCalibrate(cmd signal.Command, now uint64) {
	if !d.mrsSinceReset {
		d.violate(cmd, now, "ZQ_CALIBRATE before mode registers are set")
	}

	d.initialized = true
}

func (d *Device) activate(cmd signal.Command, now uint64) {
	if !d.initialized {
		d.violate(cmd, now, "ACTIVATE before initialization")
	}

	bank := &d.banks[cmd.Location.Bank]
	if bank.open {
		d.violate(cmd, now, "ACTIVATE to an open bank")
	}

	if bank.everPrecharged && now-bank.prechargedAt < uint64(d.checks.TRP) {
		d.violate(cmd, now, "ACTIVATE within tRP of PRECHARGE")
	}

	for key, blk := range d.cells {
		loc := signal.Unpack(key)
		if loc.Bank == cmd.Location.Bank && loc.Row == cmd.Location.Row {
			d.restore(key, blk, now)
		}
	}

	bank.open = true
	bank.row = cmd.Location.Row
	bank.activatedAt = now
	bank.written = false
}

func (d *Device) access(cmd signal.Command, now uint64) {
	bank := &d.banks[cmd.Location.Bank]
	if !bank.open {
		d.violate(cmd, now, "column access to a closed bank")
		return
	}

	if now-bank.activatedAt < uint64(d.checks.TRCD) {
		d.violate(cmd, now, "column access within tRCD of ACTIVATE")
	}

	key := signal.Location{
		Bank:   cmd.Location.Bank,
		Row:    bank.row,
		Column: cmd.Location.Column,
	}.Pack()

	if cmd.Kind == signal.CmdKindWrite {
		d.writeTarget = key
		bank.written = true
		bank.writeDoneAt = now

		return
	}

	d.read = pendingRead{
		active:  true,
		readyAt: now + uint64(d.checks.CL),
	}

	if blk, found := d.cells[key]; found {
		d.read.data = blk.data
	}
}

func (d *Device) precharge(cmd signal.Command, now uint64) {
	for i := range d.banks {
		if !cmd.AllBanks && uint32(i) != cmd.Location.Bank {
			continue
		}

		bank := &d.banks[i]
		if !bank.open {
			continue
		}

		if now-bank.activatedAt < uint64(d.checks.TRAS) {
			d.violate(cmd, now, "PRECHARGE within tRAS of ACTIVATE")
		}

		if bank.written && now-bank.writeDoneAt < uint64(d.checks.TWR) {
			d.violate(cmd, now, "PRECHARGE within tWR of write data")
		}

		bank.open = false
		bank.everPrecharged = true
		bank.prechargedAt = now
	}
}

func (d *Device) refresh(cmd signal.Command, now uint64) {
	if !d.initialized {
		d.violate(cmd, now, "REFRESH before initialization")
	}

	if d.anyBankOpen() {
		d.violate(cmd, now, "REFRESH with a bank open")
	}

	for key, blk := range d.cells {
		d.restore(key, blk, now)
	}

	d.refreshed = true
	d.lastRefresh = now
}

// DriveBeat stores one beat of the data of the last WRITE.
func (d *Device) DriveBeat(beat int, data []byte, now uint64) {
	blk, found := d.cells[d.writeTarget]
	if !found {
		blk = &cellBlock{}
		d.cells[d.writeTarget] = blk
	}

	copy(blk.data[beat*len(data):], data)
	blk.restoredAt = now

	bank := &d.banks[signal.Unpack(d.writeTarget).Bank]
	bank.writeDoneAt = now
}

// DataValid reports whether the data of the last READ is on the bus.
func (d *Device) DataValid(now uint64) bool {
	return !d.unresponsive && d.read.active && now >= d.read.readyAt
}

// CaptureBeat copies one beat of the data of the last READ.
func (d *Device) CaptureBeat(beat int, dst []byte, now uint64) bool {
	if !d.DataValid(now) {
		return false
	}

	copy(dst, d.read.data[beat*len(dst):])

	return true
}

// Initialized reports whether the device has been through ZQ calibration
// since the last reset.
func (d *Device) Initialized() bool {
	return d.initialized
}

// ModeRegister returns the value last written to mode register i.
func (d *Device) ModeRegister(i int) uint32 {
	return d.modeRegisters[i]
}

// CommandCount returns how many commands of a kind were issued.
func (d *Device) CommandCount(kind signal.CommandKind) int {
	return d.numCommands[kind]
}

// Violations returns every rule broken so far.
func (d *Device) Violations() []Violation {
	return d.violations
}

// Stored returns the content of a burst as it would read at cycle now,
// without restoring it.
func (d *Device) Stored(loc signal.Location, now uint64) (signal.Burst, bool) {
	blk, found := d.cells[loc.Pack()]
	if !found {
		return signal.Burst{}, false
	}

	tmp := *blk
	d.leak(loc.Pack(), &tmp, now)

	return tmp.data, true
}

// RetentionOf returns the retention time of one cell.
func (d *Device) RetentionOf(loc signal.Location, bit int) timing.VTimeInSec {
	return timing.VTimeInSec(d.retention(loc.Pack(), bit))
}

func (d *Device) restore(key uint32, blk *cellBlock, now uint64) {
	d.leak(key, blk, now)
	blk.restoredAt = now
}

func (d *Device) leak(key uint32, blk *cellBlock, now uint64) {
	if now <= blk.restoredAt {
		return
	}

	elapsed := float64(now-blk.restoredAt) / float64(d.freq)
	anti := signal.Unpack(key).Row%2 == 1

	for bit := 0; bit < signal.BurstBits; bit++ {
		idx, mask := bit/8, byte(0x80)>>(bit%8)

		set := blk.data[idx]&mask != 0
		if set == anti {
			continue
		}

		if elapsed >= d.retention(key, bit) {
			blk.data[idx] ^= mask
		}
	}
}

func (d *Device) retention(key uint32, bit int) float64 {
	h := mix64(d.seed ^ uint64(key)<<8 ^ uint64(bit))
	u := float64(h>>11) / (1 << 53)

	return d.minRetention * math.Pow(d.maxRetention/d.minRetention, u)
}

func (d *Device) anyBankOpen() bool {
	for i := range d.banks {
		if d.banks[i].open {
			return true
		}
	}

	return false
}

func (d *Device) violate(cmd signal.Command, now uint64, reason string) {
	v := Violation{Cycle: now, Command: cmd, Reason: reason}
	d.violations = append(d.violations, v)

	d.InvokeHook(hooking.HookCtx{
		Domain: d,
		Pos:    HookPosViolation,
		Item:   v,
	})
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB

	return x ^ (x >> 31)
}

var _ Transceiver = (*Device)(nil)
