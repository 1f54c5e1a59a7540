// Package staged spreads one directional entry decision across several
// tranches, one every few bars, so a single signal averages its execution
// price instead of deploying all at once.
package staged

import (
	"fmt"

	"github.com/rustyeddy/stratrunner/ledger"
)

type State int

const (
	Idle State = iota
	Staging
	Complete
	Aborted
)

func (s State) String() string {
	switch s {
	case Staging:
		return "staging"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	default:
		return "idle"
	}
}

// Tranche is one due entry handed back to the caller to execute.
type Tranche struct {
	Side       ledger.Side
	Size       float64
	StageIndex int
}

// Controller is the per-symbol staging state machine. Only one staging
// sequence may be active at a time.
type Controller struct {
	stages   int
	interval int

	state     State
	side      ledger.Side
	perStage  float64
	lastStage float64
	remaining int
	nextDue   int
	stageIdx  int
}

// New builds a controller deploying entries over stages tranches spaced
// interval bars apart. stages >= 1; interval >= 1.
func New(stages, interval int) (*Controller, error) {
	if stages < 1 {
		return nil, fmt.Errorf("staged: stages %d must be >= 1", stages)
	}
	if interval < 1 {
		return nil, fmt.Errorf("staged: interval %d must be >= 1", interval)
	}
	return &Controller{stages: stages, interval: interval, state: Idle}, nil
}

func (c *Controller) State() State      { return c.state }
func (c *Controller) Side() ledger.Side { return c.side }

// Active reports whether a staging sequence still has undeployed tranches.
func (c *Controller) Active() bool { return c.state == Staging }

// Begin starts a staging sequence: totalSize split into equal tranches, the
// last tranche absorbing the rounding remainder. The first tranche falls due
// on barIdx itself. Begin on an active controller is rejected; callers
// decide between ignoring the signal and Abort-and-reverse.
func (c *Controller) Begin(side ledger.Side, totalSize float64, barIdx int) error {
	if c.state == Staging {
		return fmt.Errorf("staged: sequence already active (%s)", c.side)
	}
	if totalSize <= 0 {
		return fmt.Errorf("staged: total size %.8f must be positive", totalSize)
	}
	per := totalSize / float64(c.stages)
	c.side = side
	c.perStage = per
	c.lastStage = totalSize - per*float64(c.stages-1)
	c.remaining = c.stages
	c.nextDue = barIdx
	c.stageIdx = 0
	c.state = Staging
	return nil
}

// OnBar returns the tranche due on barIdx, if any. When the final tranche is
// handed out the controller transitions to Complete.
func (c *Controller) OnBar(barIdx int) (Tranche, bool) {
	if c.state != Staging || barIdx != c.nextDue {
		return Tranche{}, false
	}
	size := c.perStage
	if c.remaining == 1 {
		size = c.lastStage
	}
	t := Tranche{Side: c.side, Size: size, StageIndex: c.stageIdx}

	c.stageIdx++
	c.remaining--
	c.nextDue += c.interval
	if c.remaining == 0 {
		c.state = Complete
	}
	return t, true
}

// Abort discards the undeployed tranches. Already-opened tranches belong to
// the ledger; closing them is the caller's job.
func (c *Controller) Abort() {
	if c.state == Staging {
		c.state = Aborted
	}
}

// Reset returns the controller to Idle for the next run.
func (c *Controller) Reset() {
	c.state = Idle
	c.remaining = 0
	c.stageIdx = 0
}
