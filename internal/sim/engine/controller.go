package engine

import (
	"sort"

	"robowar.ai/internal/protocol"
	"robowar.ai/internal/sim/catalogs"
)

// Bytecode costs charged at each controller checkpoint. The per-round budget
// itself comes from tuning; these weights are engine-fixed.
const (
	costQuery     = 1
	costSense     = 10
	costAction    = 20
	costBroadcast = 15
	costMemory    = 10
	costIndicator = 5
)

// RobotController is the action surface handed to untrusted player logic.
// Queries and senses are read-only and reflect start-of-round committed
// state. Action-producing calls validate immediately, buffer the request,
// and are re-validated at round commit; a request that went stale in between
// silently degrades to a no-op.
type RobotController interface {
	// Queries.
	ID() RobotID
	Team() Team
	Type() string
	Location() MapLoc
	Energon() float64
	Shields() float64
	TeamPower() float64
	MapWidth() int
	MapHeight() int
	CurrentRound() int
	BytecodesLeft() int
	IsActive() bool
	RoundsUntilActive() int
	Components() []ComponentInfo

	// Sensors.
	CanSenseLocation(loc MapLoc) bool
	SenseObjectAtLocation(loc MapLoc) (RobotInfo, error)
	SenseNearbyRobots(radiusSq int) []RobotInfo
	SenseRobotInfo(id RobotID) (RobotInfo, error)
	SenseTerrainTile(loc MapLoc) (TerrainTile, error)
	SenseMine(loc MapLoc) (Team, bool)
	SenseHQLocation() MapLoc
	SenseEnemyHQLocation() MapLoc
	SenseCaptureCost() float64
	SenseEnemyResearchProgress(upgrade string) (int, error)

	// Movement.
	CanMove(dir Direction) bool
	Move(dir Direction) error

	// Combat.
	CanAttackLocation(loc MapLoc) bool
	AttackLocation(loc MapLoc) error

	// Production and map actions.
	Spawn(dir Direction, robotType string) error
	LayMine() error
	DefuseMine(loc MapLoc) error
	CaptureEncampment(robotType string) error

	// Research.
	ResearchUpgrade(upgrade string) error
	HasUpgrade(upgrade string) bool
	CheckResearchProgress(upgrade string) (int, error)

	// Comms.
	Broadcast(channel int, data int64) error
	ReadBroadcast(channel int) (int64, error)

	// Team memory.
	SetTeamMemory(index int, value int64)
	SetTeamMemoryMasked(index int, value, mask int64)
	TeamMemory() []int64

	// Turn control.
	Yield()
	Suicide()
	Resign()

	// Debug-only surface. No gameplay effect.
	SetIndicatorString(index int, value string)
	ControlBits() uint64
	AddMatchObservation(text string)
	Breakpoint()
}

// ComponentInfo is the player-visible view of one equipped component.
type ComponentInfo struct {
	Type            string
	Class           string
	Active          bool
	RoundsUntilIdle int
}

type robotCtl struct {
	t *task
}

func (c *robotCtl) world() *World { return c.t.m.world }
func (c *robotCtl) robot() *Robot { return c.t.robot }

// Queries.

func (c *robotCtl) ID() RobotID { c.t.charge(costQuery); return c.robot().id }

func (c *robotCtl) Team() Team { c.t.charge(costQuery); return c.robot().team }

func (c *robotCtl) Type() string { c.t.charge(costQuery); return c.robot().def.ID }

func (c *robotCtl) Location() MapLoc { c.t.charge(costQuery); return c.robot().loc }

func (c *robotCtl) Energon() float64 { c.t.charge(costQuery); return c.robot().energon }

func (c *robotCtl) Shields() float64 { c.t.charge(costQuery); return c.robot().shields }

func (c *robotCtl) TeamPower() float64 {
	c.t.charge(costQuery)
	return c.world().TeamPower(c.robot().team)
}

func (c *robotCtl) MapWidth() int { c.t.charge(costQuery); return c.world().gameMap.Width() }

func (c *robotCtl) MapHeight() int { c.t.charge(costQuery); return c.world().gameMap.Height() }

func (c *robotCtl) CurrentRound() int { c.t.charge(costQuery); return c.world().round }

func (c *robotCtl) BytecodesLeft() int { return c.t.bytecodesLeft }

func (c *robotCtl) IsActive() bool {
	c.t.charge(costQuery)
	return !c.robot().cooling(c.world().round)
}

func (c *robotCtl) RoundsUntilActive() int {
	c.t.charge(costQuery)
	return c.robot().roundsUntilActive(c.world().round)
}

func (c *robotCtl) Components() []ComponentInfo {
	c.t.charge(costQuery)
	out := make([]ComponentInfo, 0, len(c.robot().components))
	for _, comp := range c.robot().components {
		out = append(out, ComponentInfo{
			Type:            comp.def.ID,
			Class:           comp.def.Class,
			Active:          comp.active,
			RoundsUntilIdle: comp.RoundsUntilIdle(),
		})
	}
	return out
}

// Sensors.

// sensorCovering returns an idle sensor component whose range covers loc.
func (c *robotCtl) sensorCovering(loc MapLoc) *Component {
	r := c.robot()
	for _, comp := range r.components {
		if comp.def.Class == "SENSOR" && !comp.active && comp.WithinRange(r.loc, loc) {
			return comp
		}
	}
	return nil
}

func (c *robotCtl) CanSenseLocation(loc MapLoc) bool {
	c.t.charge(costSense)
	return c.sensorCovering(loc) != nil
}

func (c *robotCtl) SenseObjectAtLocation(loc MapLoc) (RobotInfo, error) {
	c.t.charge(costSense)
	s := c.sensorCovering(loc)
	if s == nil {
		return RobotInfo{}, gameErr(protocol.ErrCantSenseThat, "location %v outside sensor range", loc)
	}
	s.activate()
	occ := c.world().occupant(loc)
	if occ == nil {
		return RobotInfo{}, gameErr(protocol.ErrInvalidTarget, "nothing at %v", loc)
	}
	return occ.info(c.world().round), nil
}

func (c *robotCtl) SenseNearbyRobots(radiusSq int) []RobotInfo {
	c.t.charge(costSense)
	w := c.world()
	r := c.robot()
	var out []RobotInfo
	for _, other := range w.robots {
		if other.id == r.id {
			continue
		}
		if radiusSq >= 0 && r.loc.DistanceSq(other.loc) > radiusSq {
			continue
		}
		if c.sensorCovering(other.loc) == nil {
			continue
		}
		out = append(out, other.info(w.round))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *robotCtl) SenseRobotInfo(id RobotID) (RobotInfo, error) {
	c.t.charge(costSense)
	other := c.world().Lookup(id)
	if other == nil {
		return RobotInfo{}, gameErr(protocol.ErrInvalidTarget, "no robot %d", id)
	}
	if c.sensorCovering(other.loc) == nil {
		return RobotInfo{}, gameErr(protocol.ErrCantSenseThat, "robot %d outside sensor range", id)
	}
	return other.info(c.world().round), nil
}

func (c *robotCtl) SenseTerrainTile(loc MapLoc) (TerrainTile, error) {
	c.t.charge(costSense)
	if c.sensorCovering(loc) == nil {
		return Void, gameErr(protocol.ErrCantSenseThat, "location %v outside sensor range", loc)
	}
	return c.world().gameMap.Terrain(loc), nil
}

func (c *robotCtl) SenseMine(loc MapLoc) (Team, bool) {
	c.t.charge(costSense)
	if c.sensorCovering(loc) == nil {
		return TeamNeutral, false
	}
	return c.world().MineAt(loc)
}

func (c *robotCtl) SenseHQLocation() MapLoc {
	c.t.charge(costSense)
	return c.world().gameMap.HQ(c.robot().team)
}

func (c *robotCtl) SenseEnemyHQLocation() MapLoc {
	c.t.charge(costSense)
	return c.world().gameMap.HQ(c.robot().team.Opponent())
}

func (c *robotCtl) SenseCaptureCost() float64 {
	c.t.charge(costSense)
	return c.t.m.tuning.CaptureCost
}

func (c *robotCtl) SenseEnemyResearchProgress(upgrade string) (int, error) {
	c.t.charge(costSense)
	if c.robot().def.Class != "HQ" {
		return 0, gameErr(protocol.ErrWrongRobotType, "only HQ can spy on research")
	}
	def, ok := c.t.m.cats.Upgrades.Defs[upgrade]
	if !ok || !def.Win {
		return 0, gameErr(protocol.ErrNoSuchUpgrade, "no win upgrade %q", upgrade)
	}
	return c.world().ResearchProgress(c.robot().team.Opponent(), upgrade), nil
}

// Movement.

func (c *robotCtl) CanMove(dir Direction) bool {
	c.t.charge(costQuery)
	if dir >= None {
		return false
	}
	w := c.world()
	dest := c.robot().loc.Add(dir)
	return w.gameMap.Passable(dest) && w.occupant(dest) == nil
}

// readyForAction enforces the cooldown and one-terminal-action-per-round
// rules common to every action-producing call.
func (c *robotCtl) readyForAction() error {
	if c.t.pending != nil {
		return gameErr(protocol.ErrAlreadyActive, "a terminal action is already queued this round")
	}
	if c.robot().cooling(c.world().round) {
		return gameErr(protocol.ErrAlreadyActive, "active for %d more rounds", c.robot().roundsUntilActive(c.world().round))
	}
	return nil
}

func (c *robotCtl) Move(dir Direction) error {
	c.t.charge(costAction)
	if err := c.readyForAction(); err != nil {
		return err
	}
	if dir >= None {
		return gameErr(protocol.ErrCantMoveThere, "no direction")
	}
	motor := c.robot().firstIdle("MOTOR")
	if motor == nil {
		return gameErr(protocol.ErrWrongRobotType, "no idle motor equipped")
	}
	w := c.world()
	dest := c.robot().loc.Add(dir)
	if !w.gameMap.Passable(dest) || w.occupant(dest) != nil {
		return gameErr(protocol.ErrCantMoveThere, "cannot move %s to %v", dir, dest)
	}
	c.t.pending = &action{kind: actMove, dir: dir, motor: motor}
	return nil
}

// Combat.

func (c *robotCtl) weaponCovering(loc MapLoc) *Component {
	r := c.robot()
	for _, comp := range r.components {
		if comp.def.Class == "WEAPON" && !comp.active && comp.WithinRange(r.loc, loc) {
			return comp
		}
	}
	return nil
}

func (c *robotCtl) CanAttackLocation(loc MapLoc) bool {
	c.t.charge(costQuery)
	return c.weaponCovering(loc) != nil
}

func (c *robotCtl) AttackLocation(loc MapLoc) error {
	c.t.charge(costAction)
	if err := c.readyForAction(); err != nil {
		return err
	}
	weapon := c.weaponCovering(loc)
	if weapon == nil {
		return gameErr(protocol.ErrOutOfRange, "no idle weapon reaches %v", loc)
	}
	c.t.pending = &action{kind: actAttack, target: loc, weapon: weapon}
	return nil
}

// Production and map actions.

func (c *robotCtl) Spawn(dir Direction, robotType string) error {
	c.t.charge(costAction)
	if err := c.readyForAction(); err != nil {
		return err
	}
	r := c.robot()
	if !r.def.Producer {
		return gameErr(protocol.ErrWrongRobotType, "%s cannot spawn", r.def.ID)
	}
	def, ok := c.t.m.cats.Robots.Defs[robotType]
	if !ok || !spawnableBy(r.def, robotType) {
		return gameErr(protocol.ErrWrongRobotType, "%s cannot spawn %q", r.def.ID, robotType)
	}
	if dir >= None {
		return gameErr(protocol.ErrCantMoveThere, "no direction")
	}
	w := c.world()
	if w.TeamPower(r.team) < def.SpawnCost {
		return gameErr(protocol.ErrNotEnoughPower, "spawn costs %.0f, have %.0f", def.SpawnCost, w.TeamPower(r.team))
	}
	front := r.loc.Add(dir)
	if !w.gameMap.Passable(front) || w.occupant(front) != nil {
		return gameErr(protocol.ErrCantMoveThere, "spawn cell %v blocked", front)
	}
	c.t.pending = &action{kind: actSpawn, dir: dir, robotType: robotType}
	return nil
}

func (c *robotCtl) LayMine() error {
	c.t.charge(costAction)
	if err := c.readyForAction(); err != nil {
		return err
	}
	builder := c.robot().firstIdle("BUILDER")
	if builder == nil {
		return gameErr(protocol.ErrWrongRobotType, "no idle builder equipped")
	}
	if _, mined := c.world().MineAt(c.robot().loc); mined {
		return gameErr(protocol.ErrInvalidTarget, "mine already at %v", c.robot().loc)
	}
	c.t.pending = &action{kind: actLayMine, builder: builder}
	return nil
}

func (c *robotCtl) DefuseMine(loc MapLoc) error {
	c.t.charge(costAction)
	if err := c.readyForAction(); err != nil {
		return err
	}
	r := c.robot()
	var builder *Component
	for _, comp := range r.components {
		if comp.def.Class == "BUILDER" && !comp.active && comp.WithinRange(r.loc, loc) {
			builder = comp
			break
		}
	}
	if builder == nil {
		return gameErr(protocol.ErrOutOfRange, "no idle builder reaches %v", loc)
	}
	if _, mined := c.world().MineAt(loc); !mined {
		return gameErr(protocol.ErrInvalidTarget, "no mine at %v", loc)
	}
	c.t.pending = &action{kind: actDefuseMine, target: loc, builder: builder}
	return nil
}

func (c *robotCtl) CaptureEncampment(robotType string) error {
	c.t.charge(costAction)
	if err := c.readyForAction(); err != nil {
		return err
	}
	r := c.robot()
	w := c.world()
	if !w.gameMap.IsEncampment(r.loc) {
		return gameErr(protocol.ErrInvalidTarget, "%v is not an encampment square", r.loc)
	}
	def, ok := c.t.m.cats.Robots.Defs[robotType]
	if !ok || def.Class != "ENCAMPMENT" {
		return gameErr(protocol.ErrWrongRobotType, "%q is not an encampment type", robotType)
	}
	if w.TeamPower(r.team) < c.t.m.tuning.CaptureCost {
		return gameErr(protocol.ErrNotEnoughPower, "capture costs %.0f, have %.0f", c.t.m.tuning.CaptureCost, w.TeamPower(r.team))
	}
	c.t.pending = &action{kind: actCapture, robotType: robotType}
	return nil
}

// Research.

func (c *robotCtl) ResearchUpgrade(upgrade string) error {
	c.t.charge(costAction)
	if err := c.readyForAction(); err != nil {
		return err
	}
	r := c.robot()
	if r.def.Class != "HQ" {
		return gameErr(protocol.ErrWrongRobotType, "only HQ can research")
	}
	def, ok := c.t.m.cats.Upgrades.Defs[upgrade]
	if !ok {
		return gameErr(protocol.ErrNoSuchUpgrade, "no upgrade %q", upgrade)
	}
	if c.world().ResearchProgress(r.team, upgrade) >= def.Rounds {
		return gameErr(protocol.ErrInvalidTarget, "upgrade %q already complete", upgrade)
	}
	c.t.pending = &action{kind: actResearch, upgrade: upgrade}
	return nil
}

func (c *robotCtl) HasUpgrade(upgrade string) bool {
	c.t.charge(costQuery)
	def, ok := c.t.m.cats.Upgrades.Defs[upgrade]
	if !ok {
		return false
	}
	return c.world().ResearchProgress(c.robot().team, upgrade) >= def.Rounds
}

func (c *robotCtl) CheckResearchProgress(upgrade string) (int, error) {
	c.t.charge(costQuery)
	if c.robot().def.Class != "HQ" {
		return 0, gameErr(protocol.ErrWrongRobotType, "only HQ can check research")
	}
	if _, ok := c.t.m.cats.Upgrades.Defs[upgrade]; !ok {
		return 0, gameErr(protocol.ErrNoSuchUpgrade, "no upgrade %q", upgrade)
	}
	return c.world().ResearchProgress(c.robot().team, upgrade), nil
}

// Comms.

func (c *robotCtl) Broadcast(channel int, data int64) error {
	c.t.charge(costBroadcast)
	if !c.world().board.ValidChannel(channel) {
		return gameErr(protocol.ErrBadChannel, "channel %d out of range [0,%d)", channel, c.world().board.Channels())
	}
	if !c.robot().hasClass("COMM") {
		return gameErr(protocol.ErrWrongRobotType, "no comm equipped")
	}
	c.t.broadcasts = append(c.t.broadcasts, broadcastOp{channel: channel, data: data})
	return nil
}

func (c *robotCtl) ReadBroadcast(channel int) (int64, error) {
	c.t.charge(costBroadcast)
	if !c.world().board.ValidChannel(channel) {
		return 0, gameErr(protocol.ErrBadChannel, "channel %d out of range [0,%d)", channel, c.world().board.Channels())
	}
	return c.world().board.Read(channel), nil
}

// Team memory.

func (c *robotCtl) SetTeamMemory(index int, value int64) {
	c.t.charge(costMemory)
	if index < 0 || index >= c.world().memory.Length() {
		panic(fatalf("team memory index %d out of range [0,%d)", index, c.world().memory.Length()))
	}
	c.t.memWrites = append(c.t.memWrites, memoryOp{index: index, value: value})
}

func (c *robotCtl) SetTeamMemoryMasked(index int, value, mask int64) {
	c.t.charge(costMemory)
	if index < 0 || index >= c.world().memory.Length() {
		panic(fatalf("team memory index %d out of range [0,%d)", index, c.world().memory.Length()))
	}
	c.t.memWrites = append(c.t.memWrites, memoryOp{index: index, value: value, mask: mask, masked: true})
}

func (c *robotCtl) TeamMemory() []int64 {
	c.t.charge(costMemory)
	return c.world().memory.Old(c.robot().team)
}

// Turn control.

func (c *robotCtl) Yield() {
	c.t.charge(costQuery)
	c.t.chargeAndYield()
}

func (c *robotCtl) Suicide() {
	c.t.charge(costQuery)
	c.t.pending = &action{kind: actSuicide}
	c.t.chargeAndYield()
}

func (c *robotCtl) Resign() {
	c.t.charge(costQuery)
	c.t.pending = &action{kind: actResign}
	c.t.chargeAndYield()
}

// Debug surface.

func (c *robotCtl) SetIndicatorString(index int, value string) {
	c.t.charge(costIndicator)
	if index < 0 || index >= len(c.robot().indicators) {
		return
	}
	c.t.indicators = append(c.t.indicators, indicatorOp{index: index, value: value})
}

func (c *robotCtl) ControlBits() uint64 {
	c.t.charge(costQuery)
	return c.robot().controlBits
}

func (c *robotCtl) AddMatchObservation(text string) {
	c.t.charge(costIndicator)
	c.t.observations = append(c.t.observations, text)
}

func (c *robotCtl) Breakpoint() {
	c.t.charge(costQuery)
	c.world().notifyBreakpoint()
}

func spawnableBy(def catalogs.RobotDef, robotType string) bool {
	for _, s := range def.Spawnable {
		if s == robotType {
			return true
		}
	}
	return false
}
