package protocol

// Recoverable action error codes surfaced to robot logic. Anything outside
// this set is an engine bug, not a player error.
const (
	ErrAlreadyActive  = "E_ALREADY_ACTIVE"
	ErrCantMoveThere  = "E_CANT_MOVE_THERE"
	ErrCantSenseThat  = "E_CANT_SENSE_THAT"
	ErrOutOfRange     = "E_OUT_OF_RANGE"
	ErrWrongRobotType = "E_WRONG_ROBOT_TYPE"
	ErrNotEnoughPower = "E_NOT_ENOUGH_POWER"
	ErrBadChannel     = "E_BAD_CHANNEL"
	ErrNoSuchUpgrade  = "E_NO_SUCH_UPGRADE"
	ErrInvalidTarget  = "E_INVALID_TARGET"
	ErrComponentInUse = "E_COMPONENT_IN_USE"
)

var knownCodes = map[string]struct{}{
	ErrAlreadyActive:  {},
	ErrCantMoveThere:  {},
	ErrCantSenseThat:  {},
	ErrOutOfRange:     {},
	ErrWrongRobotType: {},
	ErrNotEnoughPower: {},
	ErrBadChannel:     {},
	ErrNoSuchUpgrade:  {},
	ErrInvalidTarget:  {},
	ErrComponentInUse: {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
