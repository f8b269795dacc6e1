package engine

import (
	"robowar.ai/internal/protocol"
	"robowar.ai/internal/sim/catalogs"
)

// Component is one equipped capability: a sensor, weapon, motor, comm or
// builder. It belongs to exactly one robot at a time and carries its own
// activity state, independent of the owner's action cooldown.
type Component struct {
	def   catalogs.ComponentDef
	owner *Robot

	active          bool
	roundsUntilIdle int
}

func newComponent(def catalogs.ComponentDef) *Component {
	return &Component{def: def}
}

func (c *Component) Type() string  { return c.def.ID }
func (c *Component) Class() string { return c.def.Class }

// IsActive reports whether the component is in use. An active component
// cannot fire, sense, or be unequipped.
func (c *Component) IsActive() bool { return c.active }

// RoundsUntilIdle is 0 when the component is idle.
func (c *Component) RoundsUntilIdle() int {
	if !c.active {
		return 0
	}
	return c.roundsUntilIdle
}

// WithinRange is a pure predicate: does the component reach loc from origin.
func (c *Component) WithinRange(origin, loc MapLoc) bool {
	switch c.def.RangeShape {
	case "SQUARE":
		return origin.Chebyshev(loc) <= c.def.Range
	default:
		return origin.DistanceSq(loc) <= c.def.Range
	}
}

// Unequip detaches the component from its owner. An in-use component cannot
// be removed.
func (c *Component) Unequip() error {
	if c.active {
		return gameErr(protocol.ErrComponentInUse, "component %s is active for %d more rounds", c.def.ID, c.roundsUntilIdle)
	}
	if c.owner == nil {
		return nil
	}
	c.owner.detach(c)
	c.owner = nil
	return nil
}

// activate puts the component into its active state for its type-specific
// delay. A zero-delay component never blocks.
func (c *Component) activate() {
	if c.def.DelayRounds <= 0 {
		return
	}
	c.active = true
	c.roundsUntilIdle = c.def.DelayRounds
}

// tick advances the cooldown by one round. Called exactly once per round by
// the scheduler, even when the owner itself is inactive.
func (c *Component) tick() {
	if !c.active {
		return
	}
	c.roundsUntilIdle--
	if c.roundsUntilIdle <= 0 {
		c.active = false
		c.roundsUntilIdle = 0
	}
}
