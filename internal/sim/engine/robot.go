package engine

import "robowar.ai/internal/sim/catalogs"

// Robot is a world entity: a robot or structure with identity, position,
// team, equipped components and scalar state. Robots are owned exclusively by
// the world's registry; everything else refers to them by id.
type Robot struct {
	id   RobotID
	team Team
	def  catalogs.RobotDef

	loc     MapLoc
	energon float64
	shields float64

	components []*Component

	// activeAtRound is the round at which the action cooldown expires.
	// The robot may act again when the current round reaches it.
	activeAtRound int

	indicators  []string
	controlBits uint64
	alive       bool
}

func newRobot(def catalogs.RobotDef, team Team, loc MapLoc, cats *catalogs.Catalogs, nIndicators int) *Robot {
	r := &Robot{
		team:       team,
		def:        def,
		loc:        loc,
		energon:    def.MaxEnergon,
		shields:    def.MaxShields,
		indicators: make([]string, nIndicators),
		alive:      true,
	}
	for _, ct := range def.Loadout {
		c := newComponent(cats.Components.Defs[ct])
		c.owner = r
		r.components = append(r.components, c)
	}
	return r
}

func (r *Robot) ID() RobotID     { return r.id }
func (r *Robot) Team() Team      { return r.team }
func (r *Robot) Type() string    { return r.def.ID }
func (r *Robot) Class() string   { return r.def.Class }
func (r *Robot) Loc() MapLoc     { return r.loc }
func (r *Robot) Energon() float64 { return r.energon }
func (r *Robot) Shields() float64 { return r.shields }
func (r *Robot) Alive() bool     { return r.alive }

// Components returns the equipped components. The slice is shared; callers
// must not mutate it.
func (r *Robot) Components() []*Component { return r.components }

// cooling reports whether the action cooldown has not yet elapsed at round.
func (r *Robot) cooling(round int) bool {
	return r.activeAtRound > round
}

func (r *Robot) roundsUntilActive(round int) int {
	if r.activeAtRound <= round {
		return 0
	}
	return r.activeAtRound - round
}

func (r *Robot) info(round int) RobotInfo {
	return RobotInfo{
		ID:      r.id,
		Team:    r.team,
		Type:    r.def.ID,
		Loc:     r.loc,
		Energon: r.energon,
		Shields: r.shields,
		Cooling: r.cooling(round),
	}
}

// firstIdle returns the first idle component of the given class, in loadout
// order, or nil.
func (r *Robot) firstIdle(class string) *Component {
	for _, c := range r.components {
		if c.def.Class == class && !c.active {
			return c
		}
	}
	return nil
}

// hasClass reports whether any component of the class is equipped, active or
// not.
func (r *Robot) hasClass(class string) bool {
	for _, c := range r.components {
		if c.def.Class == class {
			return true
		}
	}
	return false
}

func (r *Robot) detach(c *Component) {
	for i, cc := range r.components {
		if cc == c {
			r.components = append(r.components[:i], r.components[i+1:]...)
			return
		}
	}
}

// damage applies attack damage, shields first, and reports whether the robot
// is dead afterwards.
func (r *Robot) damage(amount float64) bool {
	if amount <= 0 {
		return false
	}
	if r.shields > 0 {
		if r.shields >= amount {
			r.shields -= amount
			return false
		}
		amount -= r.shields
		r.shields = 0
	}
	r.energon -= amount
	return r.energon <= 0
}
